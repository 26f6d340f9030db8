package auth

import (
	"context"
	"reflect"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// Auther implements the Authenticator interface: credential validation,
// token-pair issuance, and refresh-token rotation against a token ledger.
type Auther struct {
	provider        IdentityProvider
	ledger          TokenLedger
	tokenExpiration time.Duration
	refreshDuration time.Duration
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, ledger TokenLedger, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		ledger:          ledger,
		tokenExpiration: time.Duration(opts.GetTokenExpiration()) * time.Hour,
		refreshDuration: time.Duration(opts.GetRefreshTokenDuration()) * time.Hour,
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the default token service, e.g. for tests.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// ValidateUser checks a username/password pair. A wrong password or an
// unknown user yields (nil, nil); only store or crypto faults surface as
// errors.
func (s *Auther) ValidateUser(ctx context.Context, username, password string) (Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) ||
			errors.Is(err, ErrIdentityNotFound) ||
			repository.IsRecordNotFound(err) {
			s.logger.Debug("ValidateUser rejected credentials", "username", username)
			return nil, nil
		}
		s.logger.Error("ValidateUser verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return nil, nil
	}

	return identity, nil
}

// Login mints an access/refresh pair for an already validated identity and
// records both token strings in the ledger.
func (s *Auther) Login(ctx context.Context, identity Identity) (*TokenPair, error) {
	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return nil, ErrIdentityNotFound
	}

	pair, err := s.generatePair(identity)
	if err != nil {
		return nil, err
	}

	if err := s.recordPair(ctx, pair); err != nil {
		return nil, err
	}

	return pair, nil
}

// Refresh exchanges a redeemable refresh token for a fresh pair. The
// bearer token carries the identity and may be expired; it was validated
// when the session it belongs to was established, so its claims are
// decoded, not re-verified. The spent refresh token leaves the ledger and
// cannot be redeemed twice.
func (s *Auther) Refresh(ctx context.Context, refreshToken, bearerToken string) (*TokenPair, error) {
	if _, err := s.validateToken(refreshToken); err != nil {
		s.logger.Error("Refresh token validation failed", "error", err)
		return nil, err
	}

	record, err := s.ledger.FindRecord(ctx, refreshToken)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, WrapPersistenceError(err, "failed to look up refresh token")
	}

	if record == nil || repository.IsRecordNotFound(err) {
		s.logger.Warn("Refresh token missing from ledger")
		return nil, ErrRefreshTokenRevoked
	}

	claims, err := s.tokenService.Decode(bearerToken)
	if err != nil {
		s.logger.Error("Refresh bearer decode failed", "error", err)
		return nil, err
	}

	pair, err := s.generatePair(identityFromClaims(claims))
	if err != nil {
		return nil, err
	}

	if err := s.recordPair(ctx, pair); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteRecord(ctx, refreshToken); err != nil {
		s.logger.Warn("Refresh failed to retire spent token", "error", err)
	}

	return pair, nil
}

func (s *Auther) generatePair(identity Identity) (*TokenPair, error) {
	access, err := s.tokenService.Generate(identity, s.tokenExpiration)
	if err != nil {
		s.logger.Error("failed to sign access token", "error", err)
		return nil, err
	}

	refresh, err := s.tokenService.GenerateRefresh(identity.ID(), s.refreshDuration)
	if err != nil {
		s.logger.Error("failed to sign refresh token", "error", err)
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Auther) recordPair(ctx context.Context, pair *TokenPair) error {
	if _, err := s.ledger.CreateRecord(ctx, pair.AccessToken); err != nil {
		return WrapPersistenceError(err, "failed to persist access token")
	}
	if _, err := s.ledger.CreateRecord(ctx, pair.RefreshToken); err != nil {
		return WrapPersistenceError(err, "failed to persist refresh token")
	}
	return nil
}

func (s *Auther) validateToken(raw string) (AuthClaims, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}
	return validator.Validate(raw)
}
