package monitor

import (
	"time"

	"github.com/aura-labs/aura/internal/monitor/trackers"
)

// EnforcementLevel controls how aggressively interventions fire.
type EnforcementLevel string

const (
	EnforcementLow    EnforcementLevel = "low"
	EnforcementMedium EnforcementLevel = "medium"
	EnforcementHigh   EnforcementLevel = "high"
)

// ValidEnforcementLevel reports whether s names a known level.
func ValidEnforcementLevel(s string) bool {
	switch EnforcementLevel(s) {
	case EnforcementLow, EnforcementMedium, EnforcementHigh:
		return true
	}
	return false
}

// Settings is the read-only runtime configuration view the session
// consults on every sample. Hot-reloadable between samples.
type Settings struct {
	Enforcement      EnforcementLevel
	BaselineMinutes  int
	WebhookURL       string
	GrayscaleEnabled bool
	LoadRules        []trackers.LoadRule
}

// SettingsSource supplies the current Settings. Implementations must be
// safe for concurrent use.
type SettingsSource interface {
	Current() Settings
}

// MetricsSnapshot is the full derived state of one Sample() call.
// Immutable once produced; the only entity handed to persistence and
// serving collaborators.
type MetricsSnapshot struct {
	ID        string    `json:"-"`
	Timestamp time.Time `json:"-"`

	FatigueScore         float64 `json:"fatigue_score"`
	FuelGauge            float64 `json:"fuel_gauge"`
	LatencyStdMs         float64 `json:"keystroke_latency_std_ms"`
	LatencyMeanMs        float64 `json:"keystroke_latency_mean_ms"`
	ErrorRateProxy       float64 `json:"error_rate_proxy"`
	TotalKeystrokes      int     `json:"total_keystrokes"`
	BackspaceCount       int     `json:"backspace_count"`
	HoldMeanMs           float64 `json:"hold_duration_mean_ms"`
	HoldStdMs            float64 `json:"hold_duration_std_ms"`
	SwitchesPerMinute    float64 `json:"context_switches_per_min"`
	ScrollRatePerMinute  float64 `json:"scroll_rate_per_min"`
	MicroScrollTrap      bool    `json:"micro_scroll_trap_detected"`
	IdleMinutes          float64 `json:"idle_minutes"`
	IdleDetected         bool    `json:"idle_detected"`
	LastWindow           string  `json:"last_window"`
	CognitiveLoadLabel   string  `json:"cognitive_load_label"`
	CognitiveLoadIndex   float64 `json:"cognitive_load_index"`
	IsBaselineMode       bool    `json:"is_baseline_mode"`
	SessionActiveMinutes float64 `json:"session_active_minutes"`
	TimeOfDayFactor      float64 `json:"time_of_day_factor"`

	PanicOverrideActive bool       `json:"panic_override_active"`
	PanicUntil          *time.Time `json:"panic_until"`
	SludgeActive        bool       `json:"sludge_active"`
	GrayscaleOn         bool       `json:"grayscale_on"`
}
