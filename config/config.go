package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree, loaded by go-config
// from defaults, files, and environment overrides.
type BaseConfig struct {
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("config: auth.signing_key is required")
	}
	if a.Persistence.GetDSN() == "" {
		return fmt.Errorf("config: persistence.server is required")
	}
	return nil
}

func (a *BaseConfig) GetServer() *Server {
	return &a.Server
}

func (a *BaseConfig) GetAuth() *Auth {
	return &a.Auth
}

func (a *BaseConfig) GetPersistence() *Persistence {
	return &a.Persistence
}

type Server struct {
	Address   string `json:"address" koanf:"address"`
	APIPrefix string `json:"api_prefix" koanf:"api_prefix"`
}

func (s Server) GetAddress() string {
	if s.Address == "" {
		return ":3000"
	}
	return s.Address
}

func (s Server) GetAPIPrefix() string {
	if s.APIPrefix == "" {
		return "/api/v1"
	}
	return s.APIPrefix
}

type Auth struct {
	SigningKey string `json:"signing_key" koanf:"signing_key"`

	// SigningMethod defaults to HS256
	SigningMethod string `json:"signing_method" koanf:"signing_method"`

	ContextKey string `json:"context_key" koanf:"context_key"`

	// TokenExpiration is the access token TTL in hours
	TokenExpiration int `json:"token_expiration" koanf:"token_expiration"`

	// RefreshTokenDuration is the refresh token TTL in hours
	RefreshTokenDuration int `json:"refresh_token_duration" koanf:"refresh_token_duration"`

	TokenLookup string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme  string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer      string   `json:"issuer" koanf:"issuer"`
	Audience    []string `json:"audience" koanf:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration <= 0 {
		return 48
	}
	return a.TokenExpiration
}

func (a Auth) GetRefreshTokenDuration() int {
	if a.RefreshTokenDuration <= 0 {
		return 720
	}
	return a.RefreshTokenDuration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

type Persistence struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	Server                string `json:"server" koanf:"server"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDSN() string {
	return p.Server
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
