package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// UserProvider resolves identities out of a credential store and verifies
// passwords against the stored hash.
type UserProvider struct {
	store     CredentialStore
	Validator func(*User) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store CredentialStore) *UserProvider {
	return &UserProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultValidator(user)
}

// VerifyIdentity will find the user, compare to the password, and return identity
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByUsernameOrID(ctx, identifier, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, err
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return newAuthIdentity(user), nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByUsernameOrID(ctx, identifier, identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return newAuthIdentity(user), nil
}

type authIdentity struct {
	id        string
	username  string
	email     string
	roles     []string
	createdAt *time.Time
	updatedAt *time.Time
}

func newAuthIdentity(user *User) authIdentity {
	return authIdentity{
		id:        user.ID.String(),
		username:  user.Username,
		email:     user.Email,
		roles:     user.RoleNames(),
		createdAt: user.CreatedAt,
		updatedAt: user.UpdatedAt,
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Roles() []string {
	return a.roles
}

func (a authIdentity) CreatedAt() *time.Time {
	return a.createdAt
}

func (a authIdentity) UpdatedAt() *time.Time {
	return a.updatedAt
}

var _ Identity = authIdentity{}

func defaultValidator(u *User) error {
	if u.Username == "" {
		return errors.New("user record is missing a username", errors.CategoryAuth).
			WithMetadata(map[string]any{"user_id": u.ID.String()})
	}
	return nil
}
