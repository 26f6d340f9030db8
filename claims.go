package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured bearer-token claims. It is the
// request-scoped identity a guard attaches once a token checks out.
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Email() string
	Roles() []string
	HasRole(role string) bool
	HasAnyRole(roles ...string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. It carries the
// user's profile snapshot taken at issuance time; the password hash is
// never embedded.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserName  string     `json:"username,omitempty"`
	UserEmail string     `json:"email,omitempty"`
	RoleNames []string   `json:"roles,omitempty"`
	CreatedAt *time.Time `json:"creation_date,omitempty"`
	UpdatedAt *time.Time `json:"update_date,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim, the user's id
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Username returns the username claim
func (c *JWTClaims) Username() string {
	return c.UserName
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Roles returns the role names captured when the token was signed
func (c *JWTClaims) Roles() []string {
	return c.RoleNames
}

// HasRole checks if the identity holds a specific role
func (c *JWTClaims) HasRole(role string) bool {
	for _, have := range c.RoleNames {
		if have == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the identity holds at least one of the given roles
func (c *JWTClaims) HasAnyRole(roles ...string) bool {
	return HasAnyRole(c.RoleNames, roles...)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// newAccessClaims captures a fresh profile snapshot for an access token.
func newAccessClaims(identity Identity, issuer string, audience jwt.ClaimStrings, ttl time.Duration) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserName:  identity.Username(),
		UserEmail: identity.Email(),
		RoleNames: append([]string(nil), identity.Roles()...),
		CreatedAt: identity.CreatedAt(),
		UpdatedAt: identity.UpdatedAt(),
	}
}

// newRefreshClaims builds the minimal claim set carried by a refresh token.
// The signed string itself is the ledger identifier, so the payload only
// needs the subject and a unique token id.
func newRefreshClaims(subject, issuer string, ttl time.Duration) *JWTClaims {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	ensureTokenID(&claims.RegisteredClaims)
	return claims
}

// identityFromClaims rebuilds an Identity from decoded claims. Used during
// refresh, where the presented bearer token was authenticated upstream.
func identityFromClaims(claims AuthClaims) Identity {
	var created, updated *time.Time
	if jc, ok := claims.(*JWTClaims); ok {
		created = jc.CreatedAt
		updated = jc.UpdatedAt
	}

	return authIdentity{
		id:        claims.UserID(),
		username:  claims.Username(),
		email:     claims.Email(),
		roles:     append([]string(nil), claims.Roles()...),
		createdAt: created,
		updatedAt: updated,
	}
}
