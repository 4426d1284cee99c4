package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/examportal/backend/ports"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const createRevokedTokensTable = `
CREATE TABLE IF NOT EXISTS revoked_tokens (
    fingerprint TEXT PRIMARY KEY,
    expires_at  TIMESTAMPTZ NOT NULL,
    revoked_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS revoked_tokens_expires_at_idx ON revoked_tokens (expires_at);
`

// PostgresStore keeps revocations in a table so they survive restarts of
// every instance sharing the database.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// NewPostgresStore creates a store on top of db. Call Migrate once before use.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// ConnectPostgres opens a pool for databaseURL and ensures the schema exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

var _ ports.RevocationStore = (*PostgresStore)(nil)

// Migrate creates the revoked_tokens table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createRevokedTokensTable); err != nil {
		return fmt.Errorf("failed to create revoked_tokens: %w", err)
	}
	return nil
}

// Revoke records the fingerprint, keeping the later expiry on conflict.
func (s *PostgresStore) Revoke(ctx context.Context, key string, expiresAt time.Time) error {
	query := `
        INSERT INTO revoked_tokens (fingerprint, expires_at)
        VALUES ($1, $2)
        ON CONFLICT (fingerprint) DO UPDATE
            SET expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at)
    `
	if _, err := s.db.Exec(ctx, query, key, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether an unexpired entry exists. Expiry is judged by
// the application clock, the same one the token validator uses.
func (s *PostgresStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE fingerprint = $1 AND expires_at > $2)`
	var exists bool
	if err := s.db.QueryRow(ctx, query, key, s.now()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists, nil
}

// Prune deletes entries that expired at or before now.
func (s *PostgresStore) Prune(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune revoked_tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
