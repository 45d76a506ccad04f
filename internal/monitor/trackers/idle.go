package trackers

import (
	"sync"
	"time"
)

const idleThresholdMinutes = 10

// IdleStats is a point-in-time readout of input inactivity.
type IdleStats struct {
	Minutes  float64
	Detected bool
}

// IdleTracker watches the gap since the last key/scroll/click event.
type IdleTracker struct {
	mu           sync.Mutex
	lastActivity time.Time
}

// NewIdleTracker starts the activity clock at now so a fresh session is
// not instantly idle.
func NewIdleTracker(now time.Time) *IdleTracker {
	return &IdleTracker{lastActivity: now}
}

func (t *IdleTracker) OnActivity(at time.Time) {
	t.mu.Lock()
	if at.After(t.lastActivity) {
		t.lastActivity = at
	}
	t.mu.Unlock()
}

func (t *IdleTracker) Readout(now time.Time) IdleStats {
	t.mu.Lock()
	last := t.lastActivity
	t.mu.Unlock()

	minutes := now.Sub(last).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return IdleStats{
		Minutes:  minutes,
		Detected: minutes >= idleThresholdMinutes,
	}
}

func (t *IdleTracker) LastActivityAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

func (t *IdleTracker) Reset(now time.Time) {
	t.mu.Lock()
	t.lastActivity = now
	t.mu.Unlock()
}
