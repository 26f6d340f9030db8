package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-auth-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password is a credential mismatch", func(t *testing.T) {
		user := seedStoreUser(t, "tlmm", "Lolito12", auth.RoleUser)
		provider := auth.NewUserProvider(newMemoryStore(user))

		identity, err := provider.VerifyIdentity(ctx, "tlmm", "wrong-password")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("unknown identifier is a credential mismatch", func(t *testing.T) {
		provider := auth.NewUserProvider(newMemoryStore())

		identity, err := provider.VerifyIdentity(ctx, "nobody", "whatever")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("corrupt stored hash surfaces as a fault", func(t *testing.T) {
		user := &auth.User{
			ID:           uuid.New(),
			Username:     "corrupt",
			Email:        "corrupt@example.com",
			PasswordHash: "not-a-bcrypt-hash",
		}
		provider := auth.NewUserProvider(newMemoryStore(user))

		identity, err := provider.VerifyIdentity(ctx, "corrupt", "whatever")

		assert.Nil(t, identity)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("corrupt stored hash is not swallowed by ValidateUser", func(t *testing.T) {
		user := &auth.User{
			ID:           uuid.New(),
			Username:     "corrupt",
			Email:        "corrupt@example.com",
			PasswordHash: "not-a-bcrypt-hash",
		}
		provider := auth.NewUserProvider(newMemoryStore(user))
		auther := auth.NewAuthenticator(provider, newMemoryLedger(), testConfig{signingKey: "test-signing-key"})

		identity, err := auther.ValidateUser(ctx, "corrupt", "whatever")

		assert.Nil(t, identity)
		require.Error(t, err)
	})
}
