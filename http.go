package auth

import (
	"net/http"

	"github.com/goliatone/go-auth-api/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// HTTPAuthenticator is the transport-facing surface of the authenticator.
type HTTPAuthenticator interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(roles ...string) router.MiddlewareFunc
	MakeRouteAuthErrorHandler(optional bool) func(router.Context, error) error
	Authenticator() Authenticator
	Config() Config
}

// ErrorResponse is the JSON envelope every failed auth request gets back.
// Message is safe to show an end user; TechnicalMessage carries the detail
// an operator needs.
type ErrorResponse struct {
	Message          string `json:"message"`
	TechnicalMessage string `json:"technicalMessage"`
	Status           int    `json:"status"`
}

type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, errors.New("HTTPAuthenticator requires an Authenticator", errors.CategoryBadInput)
	}

	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func (a *RouteAuthenticator) Authenticator() Authenticator {
	return a.auth
}

func (a *RouteAuthenticator) Config() Config {
	return a.cfg
}

// ProtectedRoute gates a route behind bearer-token validation. Claims land
// in the router context under the configured context key.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.MakeRouteAuthErrorHandler(false)
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: a.cfg.GetSigningMethod(),
		},
		AuthScheme:  a.cfg.GetAuthScheme(),
		ContextKey:  a.cfg.GetContextKey(),
		TokenLookup: a.cfg.GetTokenLookup(),
		TokenValidator: validatorAdapter{
			validator: validatorForAuth(a.auth),
		},
	})
}

// RequireRoles rejects requests whose claims hold none of the given roles.
// It must run after ProtectedRoute so claims are present.
func (a *RouteAuthenticator) RequireRoles(roles ...string) router.MiddlewareFunc {
	contextKey := a.cfg.GetContextKey()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, contextKey)
			if !ok {
				return a.ErrorHandler(ctx, ErrUnableToFindSession)
			}

			if !claims.HasAnyRole(roles...) {
				a.Logger.Warn("RequireRoles rejected request",
					"required", roles,
					"held", claims.Roles(),
					"path", ctx.Path(),
				)
				return a.ErrorHandler(ctx, errors.New("insufficient role for route", errors.CategoryAuthz).
					WithCode(errors.CodeForbidden).
					WithMetadata(map[string]any{
						"required_roles": roles,
					}))
			}

			return next(ctx)
		}
	}
}

// MakeRouteAuthErrorHandler normalizes middleware failures into rich errors
// before handing them to the error handler. With optional set, failures let
// the request through unauthenticated.
func (a *RouteAuthenticator) MakeRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	return RenderErrorResponse(c, err)
}

// RenderErrorResponse writes the JSON error envelope with a status derived
// from the error's category and code.
func RenderErrorResponse(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case errors.CategoryAuth:
			status = http.StatusUnauthorized
		case errors.CategoryAuthz:
			status = http.StatusForbidden
		default:
			status = http.StatusInternalServerError
		}
	}

	message := richErr.Message
	technical := message
	if richErr.Source != nil {
		technical = richErr.Source.Error()
	}

	return c.JSON(status, ErrorResponse{
		Message:          message,
		TechnicalMessage: technical,
		Status:           status,
	})
}

// validatorForAuth prefers the authenticator's own token service when it
// exposes one.
func validatorForAuth(auther Authenticator) TokenValidator {
	type serviceProvider interface {
		TokenService() TokenService
	}
	if sp, ok := auther.(serviceProvider); ok {
		return sp.TokenService()
	}
	return nil
}

// validatorAdapter bridges the package's TokenValidator into the middleware
// contract.
type validatorAdapter struct {
	validator TokenValidator
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if v.validator == nil {
		return nil, ErrUnableToDecodeSession
	}

	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
