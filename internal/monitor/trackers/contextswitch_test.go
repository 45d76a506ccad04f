package trackers

import (
	"testing"
	"time"
)

func TestContextSwitch_CountsDistinctTitles(t *testing.T) {
	tr := NewContextSwitchTracker()
	tr.OnFocusChange("editor", t0)
	tr.OnFocusChange("browser", t0.Add(5*time.Second))
	tr.OnFocusChange("slack", t0.Add(10*time.Second))

	if got := tr.SwitchesPerMinute(t0.Add(11 * time.Second)); got != 3 {
		t.Errorf("expected 3 switches, got %.0f", got)
	}
}

func TestContextSwitch_RepeatedTitleIsNotASwitch(t *testing.T) {
	tr := NewContextSwitchTracker()
	tr.OnFocusChange("editor", t0)
	tr.OnFocusChange("editor", t0.Add(2*time.Second))
	tr.OnFocusChange("editor", t0.Add(4*time.Second))

	if got := tr.SwitchesPerMinute(t0.Add(5 * time.Second)); got != 1 {
		t.Errorf("expected repeated focus to count once, got %.0f", got)
	}
}

func TestContextSwitch_EmptyTitleIgnored(t *testing.T) {
	tr := NewContextSwitchTracker()
	tr.OnFocusChange("editor", t0)
	tr.OnFocusChange("", t0.Add(time.Second))
	tr.OnFocusChange("editor", t0.Add(2*time.Second))

	// The empty title must not reset the dedupe state.
	if got := tr.SwitchesPerMinute(t0.Add(3 * time.Second)); got != 1 {
		t.Errorf("expected 1 switch, got %.0f", got)
	}
}

func TestContextSwitch_OldSwitchesExpire(t *testing.T) {
	tr := NewContextSwitchTracker()
	tr.OnFocusChange("editor", t0)
	tr.OnFocusChange("browser", t0.Add(10*time.Second))
	tr.OnFocusChange("slack", t0.Add(90*time.Second))

	// 61s after the first two, only the third remains in the window.
	if got := tr.SwitchesPerMinute(t0.Add(91 * time.Second)); got != 1 {
		t.Errorf("expected expired switches pruned, got %.0f", got)
	}
}

func TestContextSwitch_LastWindow(t *testing.T) {
	tr := NewContextSwitchTracker()
	if got := tr.LastWindow(); got != "" {
		t.Errorf("expected empty initial window, got %q", got)
	}
	tr.OnFocusChange("editor", t0)
	tr.OnFocusChange("browser", t0.Add(time.Second))
	if got := tr.LastWindow(); got != "browser" {
		t.Errorf("expected browser, got %q", got)
	}
}

func TestContextSwitch_Reset(t *testing.T) {
	tr := NewContextSwitchTracker()
	tr.OnFocusChange("editor", t0)
	tr.Reset()

	if got := tr.SwitchesPerMinute(t0.Add(time.Second)); got != 0 {
		t.Errorf("expected 0 after reset, got %.0f", got)
	}
	// Same title counts again after a reset.
	tr.OnFocusChange("editor", t0.Add(2*time.Second))
	if got := tr.SwitchesPerMinute(t0.Add(3 * time.Second)); got != 1 {
		t.Errorf("expected dedupe state cleared, got %.0f", got)
	}
}
