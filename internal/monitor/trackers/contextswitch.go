package trackers

import (
	"sync"
	"time"
)

const switchWindowSpan = 60 * time.Second

// ContextSwitchTracker counts window-focus changes over the last minute
// as a fragmented-attention signal. Repeated focus events for the same
// title are not switches.
type ContextSwitchTracker struct {
	mu         sync.Mutex
	switches   *timeWindow
	lastWindow string
}

func NewContextSwitchTracker() *ContextSwitchTracker {
	return &ContextSwitchTracker{switches: newTimeWindow(switchWindowSpan)}
}

func (t *ContextSwitchTracker) OnFocusChange(title string, at time.Time) {
	if title == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if title != t.lastWindow {
		t.lastWindow = title
		t.switches.Push(at)
	}
}

// SwitchesPerMinute returns the switch count within the 60s window.
func (t *ContextSwitchTracker) SwitchesPerMinute(now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.switches.Count(now))
}

func (t *ContextSwitchTracker) LastWindow() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastWindow
}

func (t *ContextSwitchTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.switches.Reset()
	t.lastWindow = ""
}
