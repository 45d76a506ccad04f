package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aura-labs/aura/internal/config"
)

// LoadSettings reads the singleton settings row. Returns nil when no
// settings have been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (*config.Settings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadSettings: %w", err)
	}
	var set config.Settings
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("LoadSettings: decode: %w", err)
	}
	return &set, nil
}

// SaveSettings upserts the singleton settings row.
func (s *Store) SaveSettings(ctx context.Context, set config.Settings) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("SaveSettings: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, data, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		raw,
	)
	if err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	return nil
}
