package trackers

import (
	"sync"
	"time"
)

const (
	scrollWindowSpan = 120 * time.Second
	scrollTrapPerMin = 25
)

// ScrollStats is a point-in-time readout of scroll cadence.
type ScrollStats struct {
	PerMinute    float64
	TrapDetected bool
}

// ScrollTrapTracker detects sustained passive scrolling ("scroll zombie"
// state) over a two-minute window. Keys and clicks do not clear it;
// typing in one window while doomscrolling another is still a trap.
type ScrollTrapTracker struct {
	mu      sync.Mutex
	scrolls *timeWindow
}

func NewScrollTrapTracker() *ScrollTrapTracker {
	return &ScrollTrapTracker{scrolls: newTimeWindow(scrollWindowSpan)}
}

func (t *ScrollTrapTracker) OnScroll(at time.Time) {
	t.mu.Lock()
	t.scrolls.Push(at)
	t.mu.Unlock()
}

// Readout rates the retained scrolls over the span they actually cover,
// floored at one minute, so a 60-second burst reads at its true
// per-minute cadence instead of being diluted by the empty remainder of
// the retention window.
func (t *ScrollTrapTracker) Readout(now time.Time) ScrollStats {
	t.mu.Lock()
	count := t.scrolls.Count(now)
	oldest, ok := t.scrolls.Oldest()
	t.mu.Unlock()

	if count == 0 || !ok {
		return ScrollStats{}
	}

	covered := now.Sub(oldest)
	if covered < time.Minute {
		covered = time.Minute
	}
	perMin := float64(count) / covered.Minutes()
	return ScrollStats{
		PerMinute:    perMin,
		TrapDetected: perMin >= scrollTrapPerMin,
	}
}

func (t *ScrollTrapTracker) Reset() {
	t.mu.Lock()
	t.scrolls.Reset()
	t.mu.Unlock()
}
