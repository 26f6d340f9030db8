package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired        = "auth_token_expired"
	TextCodeTokenMalformed      = "auth_token_malformed"
	TextCodeRefreshTokenRevoked = "auth_refresh_token_revoked"
	TextCodeInvalidCredentials  = "auth_invalid_credentials"
	TextCodeHashingFailure      = "auth_hashing_failure"
	TextCodePersistenceFailure  = "auth_persistence_failure"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password does not match
// the stored hash. It is a sentinel, not a fault: the authenticator maps it
// to a nil identity.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyToken rejects empty token strings before they reach the ledger.
var ErrNoEmptyToken = errors.New("token must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before they reach the hasher.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a token's expiry is in the past.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token's signature or format fails.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenRevoked is returned when a refresh token verifies but no
// matching record exists in the token ledger.
var ErrRefreshTokenRevoked = errors.New("refresh token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshTokenRevoked).
	WithCode(errors.CodeForbidden)

// ErrHashingFailure covers internal crypto faults, e.g. a malformed stored hash.
var ErrHashingFailure = errors.New("password hashing failure", errors.CategoryInternal).
	WithTextCode(TextCodeHashingFailure).
	WithCode(errors.CodeInternal)

// ErrUnableToDecodeSession unable to decode claims from a bearer token
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when a request carries no identity
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden)

// WrapPersistenceError tags a store failure so the route layer reports a 500
// while keeping the original message as a non-user-facing technical detail.
func WrapPersistenceError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(TextCodePersistenceFailure).
		WithCode(errors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens. Rich errors are matched
// by text code; the string check only covers foreign errors that never passed
// through this package.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed or missing tokens.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenMalformed
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
