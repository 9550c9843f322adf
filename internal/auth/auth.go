// Package auth provides the caller-identity boundary in front of the
// collection service: password-based user accounts issuing JWT pairs, and a
// tenant API-key gate with a usage quota. The core never authorizes; it
// trusts this gate entirely.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidAPIKey      = errors.New("invalid api key")
	ErrMissingAPIKey      = errors.New("api key missing")
	ErrQuotaExceeded      = errors.New("quota exceeded")
)

// User is one account row.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts.
type UserStore interface {
	// GetUserByUsername returns the account or ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// InsertUser creates the account; the username is unique.
	InsertUser(ctx context.Context, username, passwordHash string) error
}

// TenantStore persists API keys and their remaining quota.
type TenantStore interface {
	// GetBalanceQuota returns the remaining quota for the key, or
	// ErrInvalidAPIKey when the key is unknown.
	GetBalanceQuota(ctx context.Context, apiKey string) (int64, error)
	// DecrementBalanceQuota consumes one unit of quota.
	DecrementBalanceQuota(ctx context.Context, apiKey string) error
}

// TokenPair is the login/signup response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Config holds the token-signing settings.
type Config struct {
	// Secret signs tokens with HMAC-SHA256. Required when auth is enabled.
	Secret string `yaml:"secret"`
	// AccessTokenTTL bounds access token lifetime.
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	// RefreshTokenTTL bounds refresh token lifetime.
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// DefaultConfig returns the default auth settings. The secret has no
// default; deployments must set one.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}
