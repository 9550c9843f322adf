package auth

import (
	"context"
	"errors"
	"fmt"
)

// Service is the identity boundary the gateway talks to.
type Service struct {
	users   UserStore
	tenants TenantStore
	tokens  *TokenService
}

// NewService wires the identity boundary. tenants may be nil when the
// API-key gate is disabled; Authorize then admits every request.
func NewService(cfg Config, users UserStore, tenants TenantStore) (*Service, error) {
	tokens, err := NewTokenService(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{users: users, tenants: tenants, tokens: tokens}, nil
}

// SignUp creates the account and issues its first token pair.
func (s *Service) SignUp(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("look up user %s: %w", username, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.InsertUser(ctx, username, hash); err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}

	return s.tokens.GenerateTokenPair(username)
}

// SignIn verifies credentials and issues a token pair. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", username, err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for %s: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.tokens.GenerateTokenPair(username)
}

// Refresh validates a refresh token and issues a new pair for its subject.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByUsername(ctx, claims.Username); err != nil {
		return nil, ErrInvalidToken
	}
	return s.tokens.GenerateTokenPair(claims.Username)
}

// ValidateToken verifies an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// Authorize runs the tenant API-key gate: unknown keys are rejected, spent
// quotas are refused, and every admitted call consumes one unit.
func (s *Service) Authorize(ctx context.Context, apiKey string) error {
	if s.tenants == nil {
		return nil
	}
	if apiKey == "" {
		return ErrMissingAPIKey
	}

	quota, err := s.tenants.GetBalanceQuota(ctx, apiKey)
	if err != nil {
		return err
	}
	if quota <= 0 {
		return ErrQuotaExceeded
	}
	return s.tenants.DecrementBalanceQuota(ctx, apiKey)
}
