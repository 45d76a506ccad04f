package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type fakeSettings struct {
	mu  sync.Mutex
	set Settings
}

func (f *fakeSettings) Current() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

type fakePersist struct {
	snapshots []*MetricsSnapshot
	panics    []time.Time
	baselines []BaselineProfile
}

func (f *fakePersist) AppendSnapshot(s *MetricsSnapshot) { f.snapshots = append(f.snapshots, s) }

func (f *fakePersist) AppendPanicEvent(_ context.Context, at time.Time) error {
	f.panics = append(f.panics, at)
	return nil
}

func (f *fakePersist) SaveBaseline(_ context.Context, p BaselineProfile) error {
	f.baselines = append(f.baselines, p)
	return nil
}

type fakeDisplay struct {
	calls []bool
	err   error
}

func (f *fakeDisplay) SetGrayscale(_ context.Context, enable bool) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, enable)
	return nil
}

type fakeWebhook struct {
	attempts int
	posts    []map[string]any
	err      error
}

func (f *fakeWebhook) PostJSON(_ context.Context, _ string, payload any) error {
	f.attempts++
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, payload.(map[string]any))
	return nil
}

// harness runs a session on a hand-cranked clock with fake collaborators.
type harness struct {
	s        *Session
	clock    time.Time
	slept    []time.Duration
	settings *fakeSettings
	persist  *fakePersist
	display  *fakeDisplay
	webhook  *fakeWebhook
	follows  int
}

func newHarness(set Settings, baseline *BaselineProfile) *harness {
	h := &harness{
		clock:    time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		settings: &fakeSettings{set: set},
		persist:  &fakePersist{},
		display:  &fakeDisplay{},
		webhook:  &fakeWebhook{},
	}
	h.s = NewSession(SessionConfig{
		Settings:    h.settings,
		Persistence: h.persist,
		Display:     h.display,
		Webhook:     h.webhook,
		Logger:      zap.NewNop(),
		OnAutoGrayscale: func(context.Context) {
			h.follows++
		},
	})
	h.s.now = func() time.Time { return h.clock }
	h.s.sleep = func(d time.Duration) { h.slept = append(h.slept, d) }
	// Re-anchor internal clocks to the simulated time.
	h.s.idle.Reset(h.clock)
	h.s.calibrator = NewCalibrator(h.clock, baseline)
	return h
}

func highSet() Settings {
	return Settings{
		Enforcement:     EnforcementHigh,
		BaselineMinutes: 5,
		WebhookURL:      "https://hooks.example/aura",
	}
}

func calmBaseline() *BaselineProfile {
	return &BaselineProfile{LatencyStdMs: 10, ErrorRate: 0.05, HoldStdMs: 10}
}

// driveFatigue feeds erratic typing with heavy corrections, jittery
// holds, a scroll burst and fragmented focus in the window before
// h.clock. Against calmBaseline this lands the score near 88.
func (h *harness) driveFatigue() {
	at := h.clock.Add(-40 * time.Second)
	for i := 0; i < 40; i++ {
		key := "a"
		if i%2 == 1 {
			key = "backspace"
		}
		hold := 20 * time.Millisecond
		if i%2 == 0 {
			hold = 500 * time.Millisecond
		}
		h.s.Ingest(InputEvent{Kind: EventKeyDown, Key: key, At: at})
		h.s.Ingest(InputEvent{Kind: EventKeyUp, Key: key, At: at.Add(hold)})
		interval := 50 * time.Millisecond
		if i%2 == 0 {
			interval = 900 * time.Millisecond
		}
		at = at.Add(interval)
	}
	for i := 0; i < 60; i++ {
		h.s.Ingest(InputEvent{Kind: EventScroll, At: h.clock.Add(-time.Duration(i) * time.Second)})
	}
	for i := 0; i < 16; i++ {
		h.s.Ingest(InputEvent{
			Kind:        EventFocusChange,
			WindowTitle: fmt.Sprintf("app-%d", i),
			At:          h.clock.Add(-30*time.Second + time.Duration(i)*time.Second),
		})
	}
}

func TestSession_CalibrationLifecycle(t *testing.T) {
	h := newHarness(highSet(), nil)

	snap := h.s.Sample(context.Background())
	if !snap.IsBaselineMode {
		t.Error("expected baseline mode at session start")
	}
	if snap.FatigueScore != 0 || snap.FuelGauge != 100 {
		t.Errorf("expected gated score during calibration, got (%.1f, %.1f)",
			snap.FatigueScore, snap.FuelGauge)
	}
	if len(h.persist.baselines) != 0 {
		t.Error("expected no baseline persisted yet")
	}

	h.clock = h.clock.Add(5*time.Minute + time.Second)
	snap = h.s.Sample(context.Background())
	if snap.IsBaselineMode {
		t.Error("expected calibration complete")
	}
	if len(h.persist.baselines) != 1 {
		t.Fatalf("expected one persisted baseline, got %d", len(h.persist.baselines))
	}

	// Later samples must not re-persist.
	h.clock = h.clock.Add(time.Minute)
	h.s.Sample(context.Background())
	if len(h.persist.baselines) != 1 {
		t.Errorf("expected baseline persisted once, got %d", len(h.persist.baselines))
	}
}

func TestSession_HighFatigueTriggersSludgeAndPersists(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()

	snap := h.s.Sample(context.Background())
	if snap.FatigueScore < sludgeScoreThreshold {
		t.Fatalf("fixture did not reach sludge threshold: %.1f", snap.FatigueScore)
	}
	if !snap.SludgeActive {
		t.Error("expected sludge active")
	}
	if len(h.slept) != 1 || h.slept[0] != sludgeDelay {
		t.Errorf("expected one sludge delay, got %v", h.slept)
	}
	if len(h.persist.snapshots) != 1 || h.persist.snapshots[0] != snap {
		t.Error("expected snapshot persisted")
	}
}

func TestSession_AutoGrayscaleFiresOnceAndFollowsSetting(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()

	snap := h.s.Sample(context.Background())
	if len(h.display.calls) != 1 || !h.display.calls[0] {
		t.Fatalf("expected one enable call, got %v", h.display.calls)
	}
	if !snap.GrayscaleOn {
		t.Error("expected snapshot to report grayscale on")
	}
	if h.follows != 1 {
		t.Errorf("expected settings follow-up once, got %d", h.follows)
	}

	// Filter already on: no second toggle regardless of score.
	h.clock = h.clock.Add(time.Second)
	h.s.Sample(context.Background())
	if len(h.display.calls) != 1 {
		t.Errorf("expected no repeat toggle, got %v", h.display.calls)
	}
}

func TestSession_DisplayFailureRetriesNextSample(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()
	h.display.err = errors.New("compositor unavailable")

	snap := h.s.Sample(context.Background())
	if snap.GrayscaleOn {
		t.Error("expected grayscale off after failed toggle")
	}

	h.display.err = nil
	h.clock = h.clock.Add(time.Second)
	snap = h.s.Sample(context.Background())
	if len(h.display.calls) != 1 || !snap.GrayscaleOn {
		t.Errorf("expected retry to succeed, calls=%v on=%v", h.display.calls, snap.GrayscaleOn)
	}
}

func TestSession_WebhookFiresOncePerCooldown(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()

	h.s.Sample(context.Background())
	if len(h.webhook.posts) != 1 {
		t.Fatalf("expected one webhook, got %d", len(h.webhook.posts))
	}
	if h.webhook.posts[0]["event"] != "aura_critical_fatigue" {
		t.Errorf("unexpected payload: %v", h.webhook.posts[0])
	}

	h.clock = h.clock.Add(time.Second)
	h.s.Sample(context.Background())
	if len(h.webhook.posts) != 1 {
		t.Errorf("expected cooldown to hold, got %d posts", len(h.webhook.posts))
	}
}

func TestSession_WebhookFailureDoesNotStartCooldown(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()
	h.webhook.err = errors.New("connection refused")

	h.s.Sample(context.Background())
	if h.webhook.attempts != 1 {
		t.Fatalf("expected one attempt, got %d", h.webhook.attempts)
	}

	h.webhook.err = nil
	h.clock = h.clock.Add(time.Second)
	h.s.Sample(context.Background())
	if len(h.webhook.posts) != 1 {
		t.Errorf("expected retry on next sample, got %d posts", len(h.webhook.posts))
	}
}

func TestSession_PanicSuppressesFrictionNotTelemetry(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())

	until := h.s.RequestPanic(context.Background())
	if want := h.clock.Add(PanicDuration); !until.Equal(want) {
		t.Errorf("expected panic until %v, got %v", want, until)
	}
	if len(h.persist.panics) != 1 {
		t.Error("expected panic event persisted")
	}
	if len(h.webhook.posts) != 1 || h.webhook.posts[0]["event"] != "aura_panic_used" {
		t.Fatalf("expected panic webhook, got %v", h.webhook.posts)
	}

	h.driveFatigue()
	snap := h.s.Sample(context.Background())
	if !snap.PanicOverrideActive {
		t.Error("expected panic active in snapshot")
	}
	if snap.PanicUntil == nil || !snap.PanicUntil.Equal(until) {
		t.Errorf("expected panic_until %v, got %v", until, snap.PanicUntil)
	}
	if snap.SludgeActive || len(h.slept) != 0 {
		t.Error("expected no sludge during panic")
	}
	if len(h.display.calls) != 0 {
		t.Error("expected no grayscale during panic")
	}
	// Critical-fatigue telemetry still flows.
	if len(h.webhook.posts) != 2 || h.webhook.posts[1]["event"] != "aura_critical_fatigue" {
		t.Errorf("expected critical webhook during panic, got %v", h.webhook.posts)
	}
}

func TestSession_RecalibrateResetsEverything(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()
	h.s.RequestPanic(context.Background())
	h.s.Sample(context.Background())

	h.s.Recalibrate()

	snap := h.s.Sample(context.Background())
	if !snap.IsBaselineMode {
		t.Error("expected calibration restarted")
	}
	if snap.TotalKeystrokes != 0 || snap.ScrollRatePerMinute != 0 || snap.SwitchesPerMinute != 0 {
		t.Errorf("expected trackers cleared, got %+v", snap)
	}
	if snap.PanicOverrideActive {
		t.Error("expected panic cleared")
	}
	if snap.GrayscaleOn {
		t.Error("expected intervention state rebuilt")
	}
}

func TestSession_ManualToggleSkipsCooldownBookkeeping(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())

	if err := h.s.SetGrayscaleManual(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.s.GrayscaleOn() {
		t.Error("expected filter on")
	}

	h.s.stateMu.Lock()
	stamp := h.s.state.LastGrayscaleAutoToggleAt
	h.s.stateMu.Unlock()
	if !stamp.IsZero() {
		t.Error("expected manual toggle to leave the auto cooldown untouched")
	}
}

func TestSession_LongTitleTruncatedInSnapshot(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	long := ""
	for i := 0; i < 120; i++ {
		long += "ä"
	}
	h.s.Ingest(InputEvent{Kind: EventFocusChange, WindowTitle: long, At: h.clock})

	snap := h.s.Sample(context.Background())
	if got := len([]rune(snap.LastWindow)); got != 80 {
		t.Errorf("expected 80-rune title, got %d", got)
	}
}

func TestSession_FocusEventsDoNotRefreshIdle(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())

	h.clock = h.clock.Add(20 * time.Minute)
	h.s.Ingest(InputEvent{Kind: EventFocusChange, WindowTitle: "editor", At: h.clock})
	if snap := h.s.Sample(context.Background()); !snap.IdleDetected {
		t.Error("expected idle despite focus event")
	}

	h.s.Ingest(InputEvent{Kind: EventClick, At: h.clock})
	if snap := h.s.Sample(context.Background()); snap.IdleDetected {
		t.Error("expected click to clear idle")
	}
}

func TestSession_ObserveHasNoSideEffects(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()

	snap := h.s.Observe(context.Background())
	if snap.FatigueScore < 80 {
		t.Fatalf("expected high fatigue, got %.1f", snap.FatigueScore)
	}
	if len(h.display.calls) != 0 {
		t.Error("observe must not toggle the display")
	}
	if h.webhook.attempts != 0 {
		t.Error("observe must not fire the webhook")
	}
	if len(h.persist.snapshots) != 0 {
		t.Error("observe must not persist a snapshot")
	}
	if len(h.slept) != 0 {
		t.Error("observe must not inject the sludge delay")
	}
	if snap.SludgeActive {
		t.Error("observe must not mark sludge active")
	}
}

func TestSession_ObserveReflectsPanicWindow(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.s.RequestPanic(context.Background())

	snap := h.s.Observe(context.Background())
	if !snap.PanicOverrideActive || snap.PanicUntil == nil {
		t.Fatal("expected active panic window in observed snapshot")
	}
}

func TestSession_IngestCountsEvents(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())

	before := testutil.ToFloat64(eventsIngestedTotal.WithLabelValues("scroll"))
	h.s.Ingest(InputEvent{Kind: EventScroll, At: h.clock})
	if got := testutil.ToFloat64(eventsIngestedTotal.WithLabelValues("scroll")) - before; got != 1 {
		t.Errorf("expected scroll ingest counted once, got %.0f", got)
	}
}

func TestSession_CollaboratorFailuresCounted(t *testing.T) {
	h := newHarness(highSet(), calmBaseline())
	h.driveFatigue()
	h.display.err = errors.New("display offline")
	h.webhook.err = errors.New("hook down")

	samplesBefore := testutil.ToFloat64(samplesTotal)
	grayscaleBefore := testutil.ToFloat64(grayscaleFailuresTotal)
	webhookBefore := testutil.ToFloat64(webhookFailuresTotal)

	h.s.Sample(context.Background())

	if got := testutil.ToFloat64(samplesTotal) - samplesBefore; got != 1 {
		t.Errorf("expected 1 sample counted, got %.0f", got)
	}
	if got := testutil.ToFloat64(grayscaleFailuresTotal) - grayscaleBefore; got != 1 {
		t.Errorf("expected 1 grayscale failure counted, got %.0f", got)
	}
	if got := testutil.ToFloat64(webhookFailuresTotal) - webhookBefore; got != 1 {
		t.Errorf("expected 1 webhook failure counted, got %.0f", got)
	}
}
