package main

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-api"
	"github.com/goliatone/go-auth-api/config"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auth   auth.Authenticator
	auther auth.HTTPAuthenticator
	repo   auth.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	ProtectedRoutes(app)

	go func() {
		if err := app.srv.Serve(app.Config().GetServer().GetAddress()); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel((*auth.Role)(nil))
	persistence.RegisterModel((*auth.UserToRole)(nil))
	persistence.RegisterModel((*auth.AuthToken)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = auth.NewRepositoryManager(client.DB())

	if err := app.repo.Validate(); err != nil {
		return err
	}

	return auth.SeedDefaults(ctx, app.repo,
		auth.SeedUser{
			Username: "admin",
			Email:    "admin@example.com",
			Password: "ChangeMe10!",
			Roles:    []string{auth.RoleAdmin, auth.RoleUser},
		},
		auth.SeedUser{
			Username: "tlmm",
			Email:    "tlmm@example.com",
			Password: "Lolito12",
			Roles:    []string{auth.RoleUser},
		},
	)
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv
	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	userProvider := auth.NewUserProvider(app.repo.Users())
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := auth.NewAuthenticator(userProvider, app.repo.Tokens(), cfg)
	authenticator.WithLogger(app.GetLogger("auth:authz"))

	app.auth = authenticator

	httpAuth, err := auth.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.auther = httpAuth

	api := app.srv.Router().Group(app.Config().GetServer().GetAPIPrefix())

	auth.RegisterAuthRoutes(api,
		func(ac *auth.AuthController) *auth.AuthController {
			ac.Auther = httpAuth
			ac.Repo = app.repo
			ac.WithLogger(app.GetLogger("auth:ctrl"))
			return ac
		})

	return nil
}

// ProtectedRoutes mounts routes outside the auth controller that still sit
// behind the guard chain.
func ProtectedRoutes(app *App) {
	api := app.srv.Router().Group(app.Config().GetServer().GetAPIPrefix())

	protected := app.auther.ProtectedRoute(nil)
	adminOnly := app.auther.RequireRoles(auth.RoleAdmin)

	api.Get("/users", UsersIndex(app), protected, adminOnly)
}

// UsersIndex lists registered accounts. Password hashes never serialize.
func UsersIndex(app *App) router.HandlerFunc {
	return func(c router.Context) error {
		records, err := app.repo.Users().ListWithRoles(c.Context())
		if err != nil {
			app.GetLogger("users").Error("users list error", "error", err)
			return auth.RenderErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, records)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
