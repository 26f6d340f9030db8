package auth

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// SeedUser describes an account the seeder guarantees exists.
type SeedUser struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// SeedDefaults ensures the canonical roles exist, plus any bootstrap
// accounts. Passwords hash at seed time; fixtures cannot carry bcrypt
// output for a password chosen in config.
func SeedDefaults(ctx context.Context, repo RepositoryManager, users ...SeedUser) error {
	return repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		roleIDs := map[string]*Role{}

		for _, name := range []string{RoleAdmin, RoleUser} {
			role, err := repo.Roles().GetOrCreateByNameTx(ctx, tx, name, "")
			if err != nil {
				return WrapPersistenceError(err, "failed to seed role "+name)
			}
			roleIDs[name] = role
		}

		for _, seed := range users {
			hash, err := HashPassword(seed.Password)
			if err != nil {
				return err
			}

			record, err := repo.Users().GetOrRegisterTx(ctx, tx, &User{
				Username:     seed.Username,
				Email:        seed.Email,
				PasswordHash: hash,
			})
			if err != nil {
				return WrapPersistenceError(err, "failed to seed user "+seed.Username)
			}

			for _, name := range seed.Roles {
				role, ok := roleIDs[name]
				if !ok {
					role, err = repo.Roles().GetOrCreateByNameTx(ctx, tx, name, "")
					if err != nil {
						return WrapPersistenceError(err, "failed to seed role "+name)
					}
					roleIDs[name] = role
				}

				if err := repo.Users().AssignRoleTx(ctx, tx, record.ID, role.ID); err != nil {
					return WrapPersistenceError(err, "failed to assign role "+name)
				}
			}
		}

		return nil
	})
}
