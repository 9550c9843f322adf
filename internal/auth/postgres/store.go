// Package postgres implements the auth user and tenant stores on
// PostgreSQL through database/sql.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thinkoverit/jugalbandi/internal/auth"
)

// Store implements auth.UserStore and auth.TenantStore on a Postgres pool.
type Store struct {
	db *sql.DB
}

// NewStore creates a Postgres-backed auth store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the users and tenant tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tenant (
    id            BIGSERIAL PRIMARY KEY,
    api_key       TEXT NOT NULL UNIQUE,
    balance_quota BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := db.Exec(schema)
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	var user auth.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash) VALUES ($1, $2)
	`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", username, err)
	}
	return nil
}

func (s *Store) GetBalanceQuota(ctx context.Context, apiKey string) (int64, error) {
	var quota int64
	err := s.db.QueryRowContext(ctx, `
		SELECT balance_quota FROM tenant WHERE api_key = $1
	`, apiKey).Scan(&quota)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, auth.ErrInvalidAPIKey
	}
	if err != nil {
		return 0, fmt.Errorf("look up api key: %w", err)
	}
	return quota, nil
}

func (s *Store) DecrementBalanceQuota(ctx context.Context, apiKey string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tenant SET balance_quota = balance_quota - 1
		WHERE api_key = $1 AND balance_quota > 0
	`, apiKey)
	if err != nil {
		return fmt.Errorf("decrement quota: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement quota: %w", err)
	}
	if affected == 0 {
		return auth.ErrQuotaExceeded
	}
	return nil
}
