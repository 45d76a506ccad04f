package trackers

import (
	"strings"
	"sync"
	"time"
)

const (
	keystrokeWindowSize = 50
	minIntervalMs       = 20
	maxIntervalMs       = 2000
)

// Modifier keys are excluded from rhythm tracking; held modifiers distort
// inter-keystroke intervals without carrying typing intent.
var modifierKeys = map[string]bool{
	"shift":     true,
	"ctrl":      true,
	"control":   true,
	"alt":       true,
	"alt_gr":    true,
	"cmd":       true,
	"meta":      true,
	"super":     true,
	"fn":        true,
	"caps_lock": true,
}

// Backspace-class keys feed the error-rate proxy.
var errorKeys = map[string]bool{
	"backspace": true,
	"delete":    true,
}

// LatencyStats is a point-in-time readout of keystroke rhythm.
type LatencyStats struct {
	StdMs      float64
	MeanMs     float64
	ErrorRate  float64 // backspaces / total keystrokes
	TotalKeys  int
	Backspaces int
}

// KeystrokeLatencyTracker accumulates inter-keystroke intervals into a
// rolling window and counts backspace-class keys as an error-rate proxy.
type KeystrokeLatencyTracker struct {
	mu         sync.Mutex
	intervals  *sampleWindow
	lastKeyAt  time.Time
	totalKeys  int
	backspaces int
}

func NewKeystrokeLatencyTracker() *KeystrokeLatencyTracker {
	return &KeystrokeLatencyTracker{intervals: newSampleWindow(keystrokeWindowSize)}
}

// OnKeyDown records one key press. Modifier keys are counted toward
// totals but never contribute an interval. Intervals outside
// [20ms, 2000ms] are discarded as pauses or event glitches.
func (t *KeystrokeLatencyTracker) OnKeyDown(key string, at time.Time) {
	key = strings.ToLower(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalKeys++
	if errorKeys[key] {
		t.backspaces++
	}
	if modifierKeys[key] {
		return
	}
	if !t.lastKeyAt.IsZero() {
		deltaMs := float64(at.Sub(t.lastKeyAt)) / float64(time.Millisecond)
		if deltaMs >= minIntervalMs && deltaMs <= maxIntervalMs {
			t.intervals.Push(deltaMs)
		}
	}
	t.lastKeyAt = at
}

func (t *KeystrokeLatencyTracker) Readout() LatencyStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := LatencyStats{
		StdMs:      t.intervals.Std(),
		MeanMs:     t.intervals.Mean(),
		TotalKeys:  t.totalKeys,
		Backspaces: t.backspaces,
	}
	if t.totalKeys > 0 {
		stats.ErrorRate = float64(t.backspaces) / float64(t.totalKeys)
	}
	return stats
}

func (t *KeystrokeLatencyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.intervals.Reset()
	t.lastKeyAt = time.Time{}
	t.totalKeys = 0
	t.backspaces = 0
}
