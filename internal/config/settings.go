// Package config owns the runtime user settings: validated at the
// boundary, swapped atomically, persisted through a pluggable store.
// A rejected update leaves the previous valid settings in effect.
package config

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor"
	"github.com/aura-labs/aura/internal/monitor/trackers"
)

// Settings is the persisted user configuration.
type Settings struct {
	EnforcementLevel   string              `json:"enforcement_level"`
	BaselineMinutes    int                 `json:"baseline_minutes"`
	WebhookURL         string              `json:"webhook_url"`
	GrayscaleEnabled   bool                `json:"grayscale_enabled"`
	CognitiveLoadRules []trackers.LoadRule `json:"cognitive_load_rules"`
}

// Defaults returns the settings used when nothing has been persisted.
func Defaults() Settings {
	return Settings{
		EnforcementLevel: string(monitor.EnforcementMedium),
		BaselineMinutes:  5,
	}
}

// Update carries a partial settings change; nil fields are untouched.
type Update struct {
	EnforcementLevel   *string              `json:"enforcement_level,omitempty"`
	BaselineMinutes    *int                 `json:"baseline_minutes,omitempty"`
	WebhookURL         *string              `json:"webhook_url,omitempty"`
	GrayscaleEnabled   *bool                `json:"grayscale_enabled,omitempty"`
	CognitiveLoadRules *[]trackers.LoadRule `json:"cognitive_load_rules,omitempty"`
}

// ValidationError reports a rejected settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Persister is the storage seam for settings.
type Persister interface {
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Manager holds the current settings and serves them to the session.
// Implements monitor.SettingsSource.
type Manager struct {
	mu      sync.RWMutex
	current Settings
	persist Persister
	logger  *zap.Logger
}

// NewManager loads persisted settings, falling back to defaults when
// nothing is stored or the load fails.
func NewManager(ctx context.Context, persist Persister, logger *zap.Logger) *Manager {
	m := &Manager{current: Defaults(), persist: persist, logger: logger}
	if persist == nil {
		return m
	}
	stored, err := persist.LoadSettings(ctx)
	if err != nil {
		logger.Warn("settings load failed, using defaults", zap.Error(err))
		return m
	}
	if stored != nil {
		m.current = *stored
	}
	return m
}

// Current returns the monitor-facing settings view.
func (m *Manager) Current() monitor.Settings {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	return monitor.Settings{
		Enforcement:      monitor.EnforcementLevel(s.EnforcementLevel),
		BaselineMinutes:  s.BaselineMinutes,
		WebhookURL:       s.WebhookURL,
		GrayscaleEnabled: s.GrayscaleEnabled,
		LoadRules:        s.CognitiveLoadRules,
	}
}

// Snapshot returns a copy of the raw settings for serving.
func (m *Manager) Snapshot() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Apply validates and applies a partial update, persists the result and
// returns it. On validation failure nothing changes.
func (m *Manager) Apply(ctx context.Context, u Update) (Settings, error) {
	m.mu.Lock()
	next := m.current

	if u.EnforcementLevel != nil {
		if !monitor.ValidEnforcementLevel(*u.EnforcementLevel) {
			m.mu.Unlock()
			return Settings{}, &ValidationError{Field: "enforcement_level", Reason: "must be low, medium or high"}
		}
		next.EnforcementLevel = *u.EnforcementLevel
	}
	if u.BaselineMinutes != nil {
		next.BaselineMinutes = clampInt(*u.BaselineMinutes, 1, 60)
	}
	if u.WebhookURL != nil {
		next.WebhookURL = *u.WebhookURL
	}
	if u.GrayscaleEnabled != nil {
		next.GrayscaleEnabled = *u.GrayscaleEnabled
	}
	if u.CognitiveLoadRules != nil {
		for i, r := range *u.CognitiveLoadRules {
			if r.Pattern == "" {
				m.mu.Unlock()
				return Settings{}, &ValidationError{Field: "cognitive_load_rules", Reason: fmt.Sprintf("rule %d: pattern must not be empty", i)}
			}
			if !trackers.ValidLoadLabel(r.Label) {
				m.mu.Unlock()
				return Settings{}, &ValidationError{Field: "cognitive_load_rules", Reason: fmt.Sprintf("rule %d: unknown label %q", i, r.Label)}
			}
		}
		next.CognitiveLoadRules = *u.CognitiveLoadRules
	}

	m.current = next
	m.mu.Unlock()

	if m.persist != nil {
		if err := m.persist.SaveSettings(ctx, next); err != nil {
			m.logger.Error("settings save failed", zap.Error(err))
		}
	}
	return next, nil
}

// SetGrayscaleEnabled flips only the grayscale flag, used by both the
// manual toggle endpoint and the auto-toggle follow-through.
func (m *Manager) SetGrayscaleEnabled(ctx context.Context, enabled bool) {
	m.mu.Lock()
	m.current.GrayscaleEnabled = enabled
	next := m.current
	m.mu.Unlock()

	if m.persist != nil {
		if err := m.persist.SaveSettings(ctx, next); err != nil {
			m.logger.Error("settings save failed", zap.Error(err))
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
