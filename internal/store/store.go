// Package store provides access to the PostgreSQL database for baseline
// profiles, panic events, user settings and to-dos.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Store wraps the PostgreSQL connection pool.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS baseline_profiles (
	id            BIGSERIAL PRIMARY KEY,
	latency_std   DOUBLE PRECISION NOT NULL,
	error_rate    DOUBLE PRECISION NOT NULL,
	hold_std      DOUBLE PRECISION NOT NULL,
	calibrated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS panic_events (
	id BIGSERIAL PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id         INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS todos (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	effort     INT NOT NULL DEFAULT 2,
	impact     INT NOT NULL DEFAULT 2,
	done       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables when missing. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}
