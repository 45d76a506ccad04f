package monitor

import "time"

// Cooldowns and thresholds for the escalating interventions.
const (
	PanicDuration          = 15 * time.Minute
	grayscaleCooldown      = 30 * time.Minute
	webhookCooldown        = 600 * time.Second
	webhookScoreThreshold  = 85.0
	sludgeScoreThreshold   = 70.0
	grayscaleHighThreshold = 80.0
	grayscaleMedThreshold  = 90.0
)

// InterventionState is the single mutable record of intervention
// history for a running session. Mutated only by the session's
// intervention path; reconstructed only on recalibration or restart.
type InterventionState struct {
	GrayscaleOn               bool
	LastGrayscaleAutoToggleAt time.Time
	LastWebhookFiredAt        time.Time
	PanicUntil                time.Time
}

// PanicActive reports whether a panic override window covers now.
func (s *InterventionState) PanicActive(now time.Time) bool {
	return now.Before(s.PanicUntil)
}

// InterventionPlan is the pure decision output: which side effects the
// caller should execute for this sample. Timestamps in the state are
// only advanced after a side effect succeeds.
type InterventionPlan struct {
	PanicActive     bool
	SludgeActive    bool
	EnableGrayscale bool
	FireWebhook     bool
}

// DecideInterventions evaluates the score against thresholds, cooldown
// timers and the panic override. It reads but never writes state; all
// comparisons are explicit timestamp checks, no scheduled tasks.
func DecideInterventions(now time.Time, score float64, baselineMode bool, set Settings, state InterventionState) InterventionPlan {
	plan := InterventionPlan{PanicActive: state.PanicActive(now)}
	if baselineMode {
		return plan
	}

	// While the panic window is open, automatic friction is suppressed
	// unconditionally; only the webhook path below stays live.
	if !plan.PanicActive {
		plan.SludgeActive = set.Enforcement == EnforcementHigh && score >= sludgeScoreThreshold

		threshold := grayscaleThreshold(set.Enforcement)
		if threshold > 0 &&
			score >= threshold &&
			!state.GrayscaleOn &&
			!set.GrayscaleEnabled &&
			now.Sub(state.LastGrayscaleAutoToggleAt) >= grayscaleCooldown {
			plan.EnableGrayscale = true
		}
	}

	if set.WebhookURL != "" &&
		score >= webhookScoreThreshold &&
		now.Sub(state.LastWebhookFiredAt) >= webhookCooldown {
		plan.FireWebhook = true
	}

	return plan
}

// grayscaleThreshold returns the auto-toggle score threshold for a
// level, or 0 when the level never auto-toggles.
func grayscaleThreshold(level EnforcementLevel) float64 {
	switch level {
	case EnforcementHigh:
		return grayscaleHighThreshold
	case EnforcementMedium:
		return grayscaleMedThreshold
	default:
		return 0
	}
}
