package trackers

import (
	"strings"
	"sync"
	"time"
)

const (
	holdWindowSize = 50
	minHoldMs      = 10
	maxHoldMs      = 2000
)

// HoldStats is a point-in-time readout of key-hold durations.
type HoldStats struct {
	MeanMs float64
	StdMs  float64
}

// HoldDurationTracker pairs KeyDown/KeyUp events per key identity and
// accumulates hold durations. If a key repeats before its release, the
// last press wins; there is no per-key queue.
type HoldDurationTracker struct {
	mu      sync.Mutex
	pressed map[string]time.Time
	holds   *sampleWindow
}

func NewHoldDurationTracker() *HoldDurationTracker {
	return &HoldDurationTracker{
		pressed: make(map[string]time.Time),
		holds:   newSampleWindow(holdWindowSize),
	}
}

func (t *HoldDurationTracker) OnKeyDown(key string, at time.Time) {
	key = strings.ToLower(key)
	t.mu.Lock()
	t.pressed[key] = at
	t.mu.Unlock()
}

// OnKeyUp completes a press and accepts the duration into the window if
// it lands in [10ms, 2000ms]. A release with no matching press is ignored.
func (t *HoldDurationTracker) OnKeyUp(key string, at time.Time) {
	key = strings.ToLower(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	pressedAt, ok := t.pressed[key]
	if !ok {
		return
	}
	delete(t.pressed, key)

	holdMs := float64(at.Sub(pressedAt)) / float64(time.Millisecond)
	if holdMs >= minHoldMs && holdMs <= maxHoldMs {
		t.holds.Push(holdMs)
	}
}

func (t *HoldDurationTracker) Readout() HoldStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return HoldStats{
		MeanMs: t.holds.Mean(),
		StdMs:  t.holds.Std(),
	}
}

func (t *HoldDurationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = make(map[string]time.Time)
	t.holds.Reset()
}
