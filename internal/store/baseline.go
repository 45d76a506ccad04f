package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aura-labs/aura/internal/monitor"
)

// SaveBaseline inserts a new baseline profile row. Profiles are
// append-only; the most recent row is the active one.
func (s *Store) SaveBaseline(ctx context.Context, p monitor.BaselineProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO baseline_profiles (latency_std, error_rate, hold_std, calibrated_at)
		VALUES ($1, $2, $3, $4)`,
		p.LatencyStdMs, p.ErrorRate, p.HoldStdMs, p.CalibratedAt,
	)
	if err != nil {
		return fmt.Errorf("SaveBaseline: %w", err)
	}
	return nil
}

// LoadLatestBaseline returns the most recently calibrated profile, or
// nil when none has been saved.
func (s *Store) LoadLatestBaseline(ctx context.Context) (*monitor.BaselineProfile, error) {
	var p monitor.BaselineProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT latency_std, error_rate, hold_std, calibrated_at
		FROM baseline_profiles ORDER BY calibrated_at DESC LIMIT 1`,
	).Scan(&p.LatencyStdMs, &p.ErrorRate, &p.HoldStdMs, &p.CalibratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadLatestBaseline: %w", err)
	}
	return &p, nil
}

// AppendPanicEvent records one panic-override activation.
func (s *Store) AppendPanicEvent(ctx context.Context, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO panic_events (ts) VALUES ($1)`, at); err != nil {
		return fmt.Errorf("AppendPanicEvent: %w", err)
	}
	return nil
}

// PanicCountSince counts panic activations at or after the given time.
func (s *Store) PanicCountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM panic_events WHERE ts >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("PanicCountSince: %w", err)
	}
	return n, nil
}
