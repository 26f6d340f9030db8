package auth

import (
	"context"
	"fmt"
	"time"
)

// Logger takes a message followed by alternating key/value attributes,
// e.g. logger.Error("lookup failed", "error", err).
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// Identity holds the public attributes of an authenticated principal.
// The password hash is never part of an Identity.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Roles() []string
	CreatedAt() *time.Time
	UpdatedAt() *time.Time
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	// ValidateUser returns (nil, nil) for unknown users or wrong passwords;
	// absence of a valid identity is a normal outcome, not a fault.
	ValidateUser(ctx context.Context, username, password string) (Identity, error)
	Login(ctx context.Context, identity Identity) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken, bearerToken string) (*TokenPair, error)
}

// TokenService signs, verifies, and decodes bearer tokens.
type TokenService interface {
	Generate(identity Identity, ttl time.Duration) (string, error)
	GenerateRefresh(subject string, ttl time.Duration) (string, error)
	// Validate checks signature and expiry and returns structured claims.
	Validate(tokenString string) (AuthClaims, error)
	// Decode extracts claims WITHOUT verifying signature or expiry. Callers
	// must only use it in contexts that were already authenticated upstream.
	Decode(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens without tying callers to a signing
// implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenLedger persists issued token strings so they can be checked for
// existence and invalidated. A token string is its own record identifier.
type TokenLedger interface {
	CreateRecord(ctx context.Context, token string) (*AuthToken, error)
	FindRecord(ctx context.Context, token string) (*AuthToken, error)
	DeleteRecord(ctx context.Context, token string) error
}

// IdentityProvider ensures we have a store to retrieve auth identities.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// CredentialStore is the narrow slice of the user repository the auth
// subsystem reads from. The fetched record includes the password hash;
// consumers strip it before the record crosses any public boundary.
type CredentialStore interface {
	GetByUsernameOrID(ctx context.Context, id, username string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetRefreshTokenDuration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(message string, args ...any) {
	fmt.Println(formatLogLine("ERR", message, args...))
}

func (d defLogger) Warn(message string, args ...any) {
	fmt.Println(formatLogLine("WRN", message, args...))
}

func (d defLogger) Info(message string, args ...any) {
	fmt.Println(formatLogLine("INF", message, args...))
}

func (d defLogger) Debug(message string, args ...any) {
	fmt.Println(formatLogLine("DBG", message, args...))
}

func formatLogLine(level, message string, args ...any) string {
	line := fmt.Sprintf("[%s] AUTH %s", level, message)
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		line += fmt.Sprintf(" %v", args[len(args)-1])
	}
	return line
}
