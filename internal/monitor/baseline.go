package monitor

import (
	"sync"
	"time"
)

// BaselineProfile is the personalized zero-point for deviation scoring.
// At most one profile is active; recalibration supersedes, never merges.
type BaselineProfile struct {
	LatencyStdMs float64   `json:"latency_std_ms"`
	ErrorRate    float64   `json:"error_rate"`
	HoldStdMs    float64   `json:"hold_std_ms"`
	CalibratedAt time.Time `json:"calibrated_at"`
}

// Calibrator owns the baseline state machine: Calibrating until the
// configured window elapses, then Calibrated with a snapshot of the
// tracker statistics at that moment. Safe for concurrent use.
type Calibrator struct {
	mu           sync.Mutex
	profile      *BaselineProfile
	sessionStart time.Time
}

// NewCalibrator starts Calibrating at sessionStart, or Calibrated
// immediately when a persisted profile is supplied.
func NewCalibrator(sessionStart time.Time, persisted *BaselineProfile) *Calibrator {
	return &Calibrator{profile: persisted, sessionStart: sessionStart}
}

func (c *Calibrator) Profile() *BaselineProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Calibrator) SessionStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionStart
}

// Calibrating reports whether the session is still collecting baseline
// data. While true, all fatigue scoring is gated to zero.
func (c *Calibrator) Calibrating(now time.Time, baselineMinutes int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile != nil {
		return false
	}
	return now.Sub(c.sessionStart) < time.Duration(baselineMinutes)*time.Minute
}

// MaybeComplete transitions Calibrating → Calibrated once the window has
// elapsed, snapshotting the supplied tracker statistics as the new
// profile. Returns the new profile, or nil when no transition happened.
func (c *Calibrator) MaybeComplete(now time.Time, baselineMinutes int, latencyStd, errorRate, holdStd float64) *BaselineProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile != nil {
		return nil
	}
	if now.Sub(c.sessionStart) < time.Duration(baselineMinutes)*time.Minute {
		return nil
	}
	c.profile = &BaselineProfile{
		LatencyStdMs: latencyStd,
		ErrorRate:    errorRate,
		HoldStdMs:    holdStd,
		CalibratedAt: now,
	}
	return c.profile
}

// Reset discards the profile and restarts the session clock. The only
// path that clears baseline state mid-process.
func (c *Calibrator) Reset(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = nil
	c.sessionStart = now
}
