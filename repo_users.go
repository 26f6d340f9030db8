package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserWithRoles loads the role relation alongside the user record.
func UserWithRoles() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Roles")
	}
}

type Users interface {
	repository.Repository[*User]

	GetByUsernameOrID(ctx context.Context, id, username string) (*User, error)
	GetByUsernameOrIDTx(ctx context.Context, tx bun.IDB, id, username string) (*User, error)

	ListWithRoles(ctx context.Context) ([]*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetOrRegister(ctx context.Context, record *User) (*User, error)
	GetOrRegisterTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error
	AssignRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

// GetByUsernameOrID finds a user by id first, falling back to username. The
// returned record includes its roles and the password hash; callers project
// the record before it reaches a response.
func (a *users) GetByUsernameOrID(ctx context.Context, id, username string) (*User, error) {
	return a.GetByUsernameOrIDTx(ctx, a.db, id, username)
}

func (a *users) GetByUsernameOrIDTx(ctx context.Context, tx bun.IDB, id, username string) (*User, error) {
	for _, opt := range resolveUserLookup(id, username) {
		record := &User{}

		err := tx.NewSelect().
			Model(record).
			Relation("Roles").
			Where("?TableAlias."+opt.column+" = ?", opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"id":       id,
			"username": username,
		})
}

// ListWithRoles returns every live account with its roles loaded.
func (a *users) ListWithRoles(ctx context.Context) ([]*User, error) {
	records := []*User{}

	q := a.db.NewSelect().
		Model(&records).
		Order("username ASC")

	if err := UserWithRoles()(q).Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *users) GetOrRegister(ctx context.Context, record *User) (*User, error) {
	return a.GetOrRegisterTx(ctx, a.db, record)
}

func (a *users) GetOrRegisterTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	id := ""
	if record.ID != uuid.Nil {
		id = record.ID.String()
	}

	user, err := a.GetByUsernameOrIDTx(ctx, tx, id, record.Username)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.RegisterTx(ctx, tx, record)
}

func (a *users) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	return a.AssignRoleTx(ctx, a.db, userID, roleID)
}

func (a *users) AssignRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	_, err := tx.NewInsert().
		Model(&UserToRole{UserID: userID, RoleID: roleID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type lookupOption struct {
	column string
	value  string
}

// resolveUserLookup orders lookup columns: a usable id wins over a username.
func resolveUserLookup(id, username string) []lookupOption {
	options := make([]lookupOption, 0, 2)

	if trimmed := strings.TrimSpace(id); trimmed != "" && isUUID(trimmed) {
		options = append(options, lookupOption{column: "id", value: trimmed})
	}

	if trimmed := strings.TrimSpace(username); trimmed != "" {
		options = append(options, lookupOption{column: "username", value: trimmed})
	}

	return options
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
