package trackers

import (
	"math"
	"sort"
	"time"
)

// sampleWindow is a fixed-capacity rolling window of float64 samples.
// Pushing beyond capacity evicts the oldest sample.
type sampleWindow struct {
	buf   []float64
	head  int // index of oldest sample
	count int
}

func newSampleWindow(capacity int) *sampleWindow {
	return &sampleWindow{buf: make([]float64, capacity)}
}

func (w *sampleWindow) Push(v float64) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

func (w *sampleWindow) Len() int { return w.count }

func (w *sampleWindow) Reset() {
	w.head = 0
	w.count = 0
}

func (w *sampleWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	return sum / float64(w.count)
}

// Std returns the population standard deviation of the retained samples.
func (w *sampleWindow) Std() float64 {
	if w.count == 0 {
		return 0
	}
	mean := w.Mean()
	ss := 0.0
	for i := 0; i < w.count; i++ {
		d := w.buf[(w.head+i)%len(w.buf)] - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(w.count))
}

// timeWindow is a time-bounded deque of event timestamps. Entries older
// than the span are pruned before every read.
type timeWindow struct {
	span  time.Duration
	times []time.Time
}

func newTimeWindow(span time.Duration) *timeWindow {
	return &timeWindow{span: span}
}

// Push keeps the slice ordered: capture batches carry caller-supplied
// timestamps and may arrive out of order, and front-pruning needs the
// oldest entry at index 0.
func (w *timeWindow) Push(t time.Time) {
	n := len(w.times)
	if n == 0 || !t.Before(w.times[n-1]) {
		w.times = append(w.times, t)
		return
	}
	i := sort.Search(n, func(j int) bool { return w.times[j].After(t) })
	w.times = append(w.times, time.Time{})
	copy(w.times[i+1:], w.times[i:])
	w.times[i] = t
}

// Count prunes expired entries and returns how many remain as of now.
func (w *timeWindow) Count(now time.Time) int {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.times) && w.times[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
	return len(w.times)
}

// Oldest returns the earliest retained timestamp.
func (w *timeWindow) Oldest() (time.Time, bool) {
	if len(w.times) == 0 {
		return time.Time{}, false
	}
	return w.times[0], true
}

func (w *timeWindow) Reset() {
	w.times = w.times[:0]
}
