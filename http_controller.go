package auth

import (
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar is the slice of a router the auth controller needs to
// mount its routes.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterAuthRoutes mounts the auth endpoints on the given router. Login
// and refresh stay unguarded: login has no token yet, and refresh must
// accept an expired bearer token.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(nil)
	adminOnly := controller.Auther.RequireRoles(RoleAdmin)

	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Profile, controller.ProfileShow, protected)
	app.Get(controller.Routes.Admin, controller.AdminShow, protected, adminOnly)
	app.Post(controller.Routes.RefreshToken, controller.RefreshToken)

	return controller
}

type AuthControllerRoutes struct {
	Login        string
	Profile      string
	Admin        string
	RefreshToken string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: RenderErrorResponse,
		Routes: &AuthControllerRoutes{
			Login:        "/auth/login",
			Profile:      "/auth/profile",
			Admin:        "/auth/admin",
			RefreshToken: "/auth/refreshToken",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	return c
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost validates credentials and answers 202 with a fresh token pair.
func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("LoginPost bind error", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("LoginPost validation error", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "Invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	auther := a.Auther.Authenticator()

	identity, err := auther.ValidateUser(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Error("LoginPost validate user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if identity == nil {
		a.Logger.Warn("LoginPost rejected credentials", "username", payload.Username)
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	pair, err := auther.Login(ctx.Context(), identity)
	if err != nil {
		a.Logger.Error("LoginPost login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusAccepted, pair)
}

// ProfileShow answers with the profile snapshot carried by the bearer
// token's claims.
func (a *AuthController) ProfileShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.Config().GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"id":       claims.UserID(),
		"username": claims.Username(),
		"email":    claims.Email(),
		"roles":    claims.Roles(),
	})
}

// AdminShow is the canary route for admin access.
func (a *AuthController) AdminShow(ctx router.Context) error {
	return ctx.Status(http.StatusOK).SendString("admin page")
}

// RefreshTokenRequest payload
type RefreshTokenRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

// RefreshToken exchanges a refresh token for a new pair, answering 201.
// Every failure mode collapses to 403: a client holding a bad refresh token
// has to sign in again regardless of why.
func (a *AuthController) RefreshToken(ctx router.Context) error {
	payload := new(RefreshTokenRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("RefreshToken bind error", "error", err)
		return a.renderRefreshError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("RefreshToken validation error", "error", err)
		return a.renderRefreshError(ctx, err)
	}

	bearer := bearerFromHeader(ctx, a.Auther.Config().GetAuthScheme())
	if bearer == "" {
		return a.renderRefreshError(ctx, ErrUnableToFindSession)
	}

	pair, err := a.Auther.Authenticator().Refresh(ctx.Context(), payload.RefreshToken, bearer)
	if err != nil {
		a.Logger.Warn("RefreshToken exchange failed", "error", err)
		return a.renderRefreshError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REFRESH ======")
		fmt.Println(print.MaybePrettyJSON(pair))
		fmt.Println("===========================")
	}

	return ctx.JSON(http.StatusCreated, pair)
}

func (a *AuthController) renderRefreshError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Refresh token rejected")
	}

	technical := richErr.Message
	if richErr.Source != nil {
		technical = richErr.Source.Error()
	}

	return ctx.JSON(http.StatusForbidden, ErrorResponse{
		Message:          "User needs to sign in again",
		TechnicalMessage: technical,
		Status:           http.StatusForbidden,
	})
}

// bearerFromHeader pulls the raw token out of the Authorization header. The
// refresh route reads it directly because it cannot sit behind the guard;
// an expired access token is expected there.
func bearerFromHeader(ctx router.Context, authScheme string) string {
	if authScheme == "" {
		authScheme = "Bearer"
	}

	header := ctx.GetString(router.HeaderAuthorization, "")
	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) {
		return strings.TrimSpace(header[l:])
	}

	return ""
}
