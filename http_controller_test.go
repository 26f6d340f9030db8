package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	auth "github.com/goliatone/go-auth-api"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, auther *auth.Auther) *auth.AuthController {
	t.Helper()

	httpAuth, err := auth.NewHTTPAuthenticator(auther, testConfig{signingKey: "test-signing-key"})
	require.NoError(t, err)

	return auth.NewAuthController(func(ac *auth.AuthController) *auth.AuthController {
		ac.Auther = httpAuth
		return ac
	})
}

func TestLoginPost(t *testing.T) {
	user := seedStoreUser(t, "tlmm", "Lolito12", auth.RoleUser)

	t.Run("valid credentials answer 202 with a token pair", func(t *testing.T) {
		auther := newTestAuther(t, newMemoryLedger(), user)
		controller := newTestController(t, auther)

		var pair *auth.TokenPair

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.LoginRequest)
			payload.Username = "tlmm"
			payload.Password = "Lolito12"
		}).Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", http.StatusAccepted, mock.Anything).Run(func(args mock.Arguments) {
			pair = args.Get(1).(*auth.TokenPair)
		}).Return(nil)

		err := controller.LoginPost(ctx)

		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := auther.TokenService().Validate(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())

		ctx.AssertExpectations(t)
	})

	t.Run("wrong password answers 401 envelope", func(t *testing.T) {
		auther := newTestAuther(t, newMemoryLedger(), user)
		controller := newTestController(t, auther)

		var body auth.ErrorResponse

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.LoginRequest)
			payload.Username = "tlmm"
			payload.Password = "wrong-password"
		}).Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", http.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(auth.ErrorResponse)
		}).Return(nil)

		err := controller.LoginPost(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, body.Status)
		assert.NotEmpty(t, body.Message)
		assert.NotEmpty(t, body.TechnicalMessage)

		ctx.AssertExpectations(t)
	})

	t.Run("missing fields answer 400", func(t *testing.T) {
		auther := newTestAuther(t, newMemoryLedger(), user)
		controller := newTestController(t, auther)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Return(nil)
		ctx.On("JSON", http.StatusBadRequest, mock.Anything).Return(nil)

		err := controller.LoginPost(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})
}

func TestProfileShow(t *testing.T) {
	user := seedStoreUser(t, "tlmm", "Lolito12", auth.RoleUser)
	auther := newTestAuther(t, newMemoryLedger(), user)
	controller := newTestController(t, auther)

	identity, err := auther.ValidateUser(context.Background(), "tlmm", "Lolito12")
	require.NoError(t, err)
	pair, err := auther.Login(context.Background(), identity)
	require.NoError(t, err)

	claims, err := auther.TokenService().Validate(pair.AccessToken)
	require.NoError(t, err)

	t.Run("renders the claims profile", func(t *testing.T) {
		var body map[string]any

		ctx := &MockContext{}
		ctx.On("Locals", "user").Return(claims)
		ctx.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(map[string]any)
		}).Return(nil)

		err := controller.ProfileShow(ctx)

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), body["id"])
		assert.Equal(t, "tlmm", body["username"])
		assert.Equal(t, []string{auth.RoleUser}, body["roles"])

		ctx.AssertExpectations(t)
	})

	t.Run("missing session renders forbidden envelope", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("Locals", "user").Return(nil)
		ctx.On("JSON", http.StatusForbidden, mock.Anything).Return(nil)

		err := controller.ProfileShow(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})
}

func TestAdminShow(t *testing.T) {
	admin := seedStoreUser(t, "root", "SuperSecret1", auth.RoleAdmin, auth.RoleUser)
	member := seedStoreUser(t, "tlmm", "Lolito12", auth.RoleUser)
	auther := newTestAuther(t, newMemoryLedger(), admin, member)
	controller := newTestController(t, auther)

	httpAuth, err := auth.NewHTTPAuthenticator(auther, testConfig{signingKey: "test-signing-key"})
	require.NoError(t, err)

	guarded := httpAuth.RequireRoles(auth.RoleAdmin)(controller.AdminShow)

	claimsFor := func(t *testing.T, username, password string) auth.AuthClaims {
		t.Helper()
		identity, err := auther.ValidateUser(context.Background(), username, password)
		require.NoError(t, err)
		pair, err := auther.Login(context.Background(), identity)
		require.NoError(t, err)
		claims, err := auther.TokenService().Validate(pair.AccessToken)
		require.NoError(t, err)
		return claims
	}

	t.Run("admin gets the page", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("Locals", "user").Return(claimsFor(t, "root", "SuperSecret1"))
		ctx.On("Status", http.StatusOK).Return(ctx)
		ctx.On("SendString", "admin page").Return(nil)

		err := guarded(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("member without ADMIN is rejected with 403", func(t *testing.T) {
		var body auth.ErrorResponse

		ctx := &MockContext{}
		ctx.On("Locals", "user").Return(claimsFor(t, "tlmm", "Lolito12"))
		ctx.On("Path").Return("/auth/admin")
		ctx.On("JSON", http.StatusForbidden, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(auth.ErrorResponse)
		}).Return(nil)

		err := guarded(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, body.Status)

		ctx.AssertExpectations(t)
	})
}

func TestRefreshTokenRoute(t *testing.T) {
	user := seedStoreUser(t, "tlmm", "Lolito12", auth.RoleUser)

	login := func(t *testing.T, auther *auth.Auther) *auth.TokenPair {
		t.Helper()
		identity, err := auther.ValidateUser(context.Background(), "tlmm", "Lolito12")
		require.NoError(t, err)
		pair, err := auther.Login(context.Background(), identity)
		require.NoError(t, err)
		return pair
	}

	t.Run("exchanges for a fresh pair with 201", func(t *testing.T) {
		auther := newTestAuther(t, newMemoryLedger(), user)
		controller := newTestController(t, auther)
		pair := login(t, auther)

		var fresh *auth.TokenPair

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.RefreshTokenRequest)
			payload.RefreshToken = pair.RefreshToken
		}).Return(nil)
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + pair.AccessToken)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", http.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			fresh = args.Get(1).(*auth.TokenPair)
		}).Return(nil)

		err := controller.RefreshToken(ctx)

		require.NoError(t, err)
		require.NotNil(t, fresh)
		assert.NotEmpty(t, fresh.AccessToken)
		assert.NotEmpty(t, fresh.RefreshToken)

		ctx.AssertExpectations(t)
	})

	t.Run("revoked refresh token answers 403 envelope", func(t *testing.T) {
		ledger := newMemoryLedger()
		auther := newTestAuther(t, ledger, user)
		controller := newTestController(t, auther)
		pair := login(t, auther)

		require.NoError(t, ledger.DeleteRecord(context.Background(), pair.RefreshToken))

		var body auth.ErrorResponse

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.RefreshTokenRequest)
			payload.RefreshToken = pair.RefreshToken
		}).Return(nil)
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + pair.AccessToken)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", http.StatusForbidden, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(auth.ErrorResponse)
		}).Return(nil)

		err := controller.RefreshToken(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, body.Status)
		assert.NotEmpty(t, body.Message)
		assert.NotEmpty(t, body.TechnicalMessage)

		ctx.AssertExpectations(t)
	})

	t.Run("body field binds as refresh_token", func(t *testing.T) {
		var payload auth.RefreshTokenRequest
		require.NoError(t, json.Unmarshal([]byte(`{"refresh_token":"abc"}`), &payload))
		assert.Equal(t, "abc", payload.RefreshToken)

		field, ok := reflect.TypeOf(payload).FieldByName("RefreshToken")
		require.True(t, ok)
		assert.Equal(t, "refresh_token", field.Tag.Get("form"))
	})

	t.Run("missing bearer header answers 403", func(t *testing.T) {
		auther := newTestAuther(t, newMemoryLedger(), user)
		controller := newTestController(t, auther)
		pair := login(t, auther)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.RefreshTokenRequest)
			payload.RefreshToken = pair.RefreshToken
		}).Return(nil)
		ctx.On("GetString", router.HeaderAuthorization, "").Return("")
		ctx.On("JSON", http.StatusForbidden, mock.Anything).Return(nil)

		err := controller.RefreshToken(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})
}
