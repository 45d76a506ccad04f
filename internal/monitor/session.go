package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor/trackers"
)

const (
	defaultPollInterval = 2 * time.Second
	sludgeDelay         = 1 * time.Second
	lastWindowMaxLen    = 80
)

// GrayscaleToggler flips the OS display filter. Implementations must
// bound the call with a short timeout.
type GrayscaleToggler interface {
	SetGrayscale(ctx context.Context, enable bool) error
}

// WebhookSender posts a JSON payload to an external notification URL.
type WebhookSender interface {
	PostJSON(ctx context.Context, url string, payload any) error
}

// FocusProvider reports the currently focused window title. Polled by
// the session's background task.
type FocusProvider interface {
	CurrentWindowTitle() (string, error)
}

// Persistence is the write side the session needs. AppendSnapshot must
// never block; failures in any call are non-fatal to sampling.
type Persistence interface {
	AppendSnapshot(s *MetricsSnapshot)
	AppendPanicEvent(ctx context.Context, at time.Time) error
	SaveBaseline(ctx context.Context, p BaselineProfile) error
}

// SessionConfig wires a Session's collaborators. Baseline may carry a
// persisted profile; nil starts the session in calibration mode.
type SessionConfig struct {
	Settings     SettingsSource
	Persistence  Persistence
	Display      GrayscaleToggler
	Webhook      WebhookSender
	Focus        FocusProvider
	Baseline     *BaselineProfile
	PollInterval time.Duration
	Logger       *zap.Logger

	// OnAutoGrayscale, when set, is invoked after a successful automatic
	// grayscale toggle so the persisted setting can follow.
	OnAutoGrayscale func(ctx context.Context)
}

// Session is the running monitor: it owns the trackers, the baseline
// calibrator and the intervention state, runs the focus-poll loop, and
// answers Sample/RequestPanic/Recalibrate.
//
// Locking: mu is held shared by event ingestion and sampling (tracker
// mutexes serialize the actual pushes) and exclusively by Recalibrate,
// so a reset can never be observed half-done. stateMu guards the
// intervention state. Slow collaborator I/O always runs outside both.
type Session struct {
	mu sync.RWMutex

	keystroke  *trackers.KeystrokeLatencyTracker
	hold       *trackers.HoldDurationTracker
	switches   *trackers.ContextSwitchTracker
	scroll     *trackers.ScrollTrapTracker
	idle       *trackers.IdleTracker
	calibrator *Calibrator

	stateMu sync.Mutex
	state   InterventionState

	settings SettingsSource
	persist  Persistence
	display  GrayscaleToggler
	webhook  WebhookSender
	focus    FocusProvider

	pollInterval    time.Duration
	logger          *zap.Logger
	onAutoGrayscale func(ctx context.Context)

	// Hooks for simulated time in tests.
	now   func() time.Time
	sleep func(time.Duration)

	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

// NewSession builds a session. Call Start to launch the focus poller
// and Shutdown to tear it down.
func NewSession(cfg SessionConfig) *Session {
	now := time.Now()
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Session{
		keystroke:       trackers.NewKeystrokeLatencyTracker(),
		hold:            trackers.NewHoldDurationTracker(),
		switches:        trackers.NewContextSwitchTracker(),
		scroll:          trackers.NewScrollTrapTracker(),
		idle:            trackers.NewIdleTracker(now),
		calibrator:      NewCalibrator(now, cfg.Baseline),
		settings:        cfg.Settings,
		persist:         cfg.Persistence,
		display:         cfg.Display,
		webhook:         cfg.Webhook,
		focus:           cfg.Focus,
		pollInterval:    interval,
		logger:          cfg.Logger,
		onAutoGrayscale: cfg.OnAutoGrayscale,
		now:             time.Now,
		sleep:           time.Sleep,
	}
}

// Start launches the background focus poller. Safe to skip when no
// FocusProvider is wired (e.g. in tests).
func (s *Session) Start() {
	if s.focus == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelPoll = cancel
	s.pollDone = make(chan struct{})
	go s.pollLoop(ctx)
}

// Shutdown stops the focus poller and waits for it to exit.
func (s *Session) Shutdown() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		<-s.pollDone
		s.cancelPoll = nil
	}
}

func (s *Session) pollLoop(ctx context.Context) {
	defer close(s.pollDone)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			title, err := s.focus.CurrentWindowTitle()
			if err != nil {
				s.logger.Debug("focus poll failed", zap.Error(err))
				continue
			}
			s.Ingest(InputEvent{Kind: EventFocusChange, WindowTitle: title, At: s.now()})
		}
	}
}

// Ingest consumes one input event. Key, scroll and click events also
// refresh the activity clock; focus events do not.
func (s *Session) Ingest(ev InputEvent) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}

	eventsIngestedTotal.WithLabelValues(ev.Kind.String()).Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ev.Kind {
	case EventKeyDown:
		s.keystroke.OnKeyDown(ev.Key, ev.At)
		s.hold.OnKeyDown(ev.Key, ev.At)
		s.idle.OnActivity(ev.At)
	case EventKeyUp:
		s.hold.OnKeyUp(ev.Key, ev.At)
	case EventScroll:
		s.scroll.OnScroll(ev.At)
		s.idle.OnActivity(ev.At)
	case EventClick:
		s.idle.OnActivity(ev.At)
	case EventFocusChange:
		s.switches.OnFocusChange(ev.WindowTitle, ev.At)
	}
}

// Sample snapshots all tracker state, advances the intervention state,
// executes the decided side effects, and returns the snapshot. When
// sludge is active the returned value is deliberately delayed — the
// caller is meant to perceive the slowness.
func (s *Session) Sample(ctx context.Context) *MetricsSnapshot {
	samplesTotal.Inc()
	now := s.now()
	set := s.settings.Current()

	snap, newBaseline := s.buildSnapshot(now, set)

	if newBaseline != nil {
		s.persistBaseline(ctx, *newBaseline)
	}

	plan := s.applyInterventions(ctx, now, snap, set)
	snap.SludgeActive = plan.SludgeActive
	snap.PanicOverrideActive = plan.PanicActive

	s.persist.AppendSnapshot(snap)

	if plan.SludgeActive {
		s.sleep(sludgeDelay)
	}
	return snap
}

// Observe builds a snapshot without advancing interventions, persisting
// the result, or injecting the sludge delay. Report-style reads use it
// so polling the task list cannot toggle the display or fire a webhook.
// A baseline that completes during the read is still saved.
func (s *Session) Observe(ctx context.Context) *MetricsSnapshot {
	now := s.now()
	set := s.settings.Current()

	snap, newBaseline := s.buildSnapshot(now, set)
	if newBaseline != nil {
		s.persistBaseline(ctx, *newBaseline)
	}

	s.stateMu.Lock()
	snap.GrayscaleOn = s.state.GrayscaleOn
	snap.PanicOverrideActive = s.state.PanicActive(now)
	if snap.PanicOverrideActive {
		u := s.state.PanicUntil
		snap.PanicUntil = &u
	}
	s.stateMu.Unlock()
	return snap
}

// buildSnapshot reads every tracker under the shared lock so a
// concurrent recalibration cannot be observed half-done.
func (s *Session) buildSnapshot(now time.Time, set Settings) (*MetricsSnapshot, *BaselineProfile) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lat := s.keystroke.Readout()
	hold := s.hold.Readout()
	switchesPerMin := s.switches.SwitchesPerMinute(now)
	scroll := s.scroll.Readout(now)
	idle := s.idle.Readout(now)
	lastWindow := s.switches.LastWindow()
	loadLabel, loadIndex := trackers.ClassifyWindow(lastWindow, set.LoadRules)

	newBaseline := s.calibrator.MaybeComplete(now, set.BaselineMinutes, lat.StdMs, lat.ErrorRate, hold.StdMs)
	baselineMode := s.calibrator.Calibrating(now, set.BaselineMinutes)
	elapsedMin := now.Sub(s.calibrator.SessionStart()).Minutes()

	score, fuel := Score(ScoreInput{
		BaselineMode:      baselineMode,
		Baseline:          s.calibrator.Profile(),
		LatencyStdMs:      lat.StdMs,
		ErrorRate:         lat.ErrorRate,
		HoldStdMs:         hold.StdMs,
		SwitchesPerMinute: switchesPerMin,
		ScrollTrap:        scroll.TrapDetected,
		IdleDetected:      idle.Detected,
		CognitiveLoad:     loadIndex,
		Hour:              now.Hour(),
		ElapsedMinutes:    elapsedMin,
	})

	snap := &MetricsSnapshot{
		ID:                   uuid.New().String(),
		Timestamp:            now,
		FatigueScore:         score,
		FuelGauge:            fuel,
		LatencyStdMs:         lat.StdMs,
		LatencyMeanMs:        lat.MeanMs,
		ErrorRateProxy:       lat.ErrorRate,
		TotalKeystrokes:      lat.TotalKeys,
		BackspaceCount:       lat.Backspaces,
		HoldMeanMs:           hold.MeanMs,
		HoldStdMs:            hold.StdMs,
		SwitchesPerMinute:    switchesPerMin,
		ScrollRatePerMinute:  scroll.PerMinute,
		MicroScrollTrap:      scroll.TrapDetected,
		IdleMinutes:          idle.Minutes,
		IdleDetected:         idle.Detected,
		LastWindow:           truncateTitle(lastWindow, lastWindowMaxLen),
		CognitiveLoadLabel:   loadLabel,
		CognitiveLoadIndex:   loadIndex,
		IsBaselineMode:       baselineMode,
		SessionActiveMinutes: elapsedMin,
		TimeOfDayFactor:      TimeOfDayFactor(now.Hour()),
	}
	return snap, newBaseline
}

// applyInterventions decides and executes side effects for one sample.
// Cooldown timestamps advance only when the collaborator call succeeds,
// so a failed attempt is retried on the next sample.
func (s *Session) applyInterventions(ctx context.Context, now time.Time, snap *MetricsSnapshot, set Settings) InterventionPlan {
	s.stateMu.Lock()
	state := s.state
	s.stateMu.Unlock()

	plan := DecideInterventions(now, snap.FatigueScore, snap.IsBaselineMode, set, state)

	if plan.EnableGrayscale {
		if err := s.display.SetGrayscale(ctx, true); err != nil {
			grayscaleFailuresTotal.Inc()
			s.logger.Warn("grayscale toggle failed", zap.Error(err))
		} else {
			s.stateMu.Lock()
			s.state.GrayscaleOn = true
			s.state.LastGrayscaleAutoToggleAt = now
			s.stateMu.Unlock()
			s.logger.Info("auto-grayscale enabled", zap.Float64("fatigue_score", snap.FatigueScore))
			if s.onAutoGrayscale != nil {
				s.onAutoGrayscale(ctx)
			}
		}
	}

	if plan.FireWebhook {
		payload := map[string]any{
			"event":         "aura_critical_fatigue",
			"fatigue_score": snap.FatigueScore,
			"timestamp":     now.UTC().Format(time.RFC3339),
		}
		if err := s.webhook.PostJSON(ctx, set.WebhookURL, payload); err != nil {
			webhookFailuresTotal.Inc()
			s.logger.Warn("critical-fatigue webhook failed", zap.Error(err))
		} else {
			s.stateMu.Lock()
			s.state.LastWebhookFiredAt = now
			s.stateMu.Unlock()
		}
	}

	s.stateMu.Lock()
	snap.GrayscaleOn = s.state.GrayscaleOn
	until := s.state.PanicUntil
	s.stateMu.Unlock()
	if plan.PanicActive {
		u := until
		snap.PanicUntil = &u
	}
	return plan
}

func (s *Session) persistBaseline(ctx context.Context, p BaselineProfile) {
	if err := s.persist.SaveBaseline(ctx, p); err != nil {
		s.logger.Error("baseline save failed", zap.Error(err))
		return
	}
	s.logger.Info("baseline calibrated",
		zap.Float64("latency_std_ms", p.LatencyStdMs),
		zap.Float64("error_rate", p.ErrorRate),
		zap.Float64("hold_std_ms", p.HoldStdMs),
	)
}

// RequestPanic opens a 15-minute override window, records the panic
// event, and pings the webhook unconditionally — the social tax has no
// cooldown. Returns the window's end.
func (s *Session) RequestPanic(ctx context.Context) time.Time {
	now := s.now()
	until := now.Add(PanicDuration)

	s.stateMu.Lock()
	s.state.PanicUntil = until
	s.stateMu.Unlock()

	if err := s.persist.AppendPanicEvent(ctx, now); err != nil {
		s.logger.Error("panic event write failed", zap.Error(err))
	}

	set := s.settings.Current()
	if set.WebhookURL != "" {
		payload := map[string]any{
			"event":     "aura_panic_used",
			"message":   "User activated 15-min override",
			"timestamp": now.UTC().Format(time.RFC3339),
		}
		if err := s.webhook.PostJSON(ctx, set.WebhookURL, payload); err != nil {
			webhookFailuresTotal.Inc()
			s.logger.Warn("panic webhook failed", zap.Error(err))
		}
	}

	s.logger.Info("panic override active", zap.Time("until", until))
	return until
}

// Recalibrate discards the baseline, clears every tracker window,
// restarts the session clock and rebuilds the intervention state. Runs
// exclusively: no ingest or sample can observe a partial reset.
func (s *Session) Recalibrate() {
	now := s.now()

	s.mu.Lock()
	s.keystroke.Reset()
	s.hold.Reset()
	s.switches.Reset()
	s.scroll.Reset()
	s.idle.Reset(now)
	s.calibrator.Reset(now)
	s.mu.Unlock()

	s.stateMu.Lock()
	s.state = InterventionState{}
	s.stateMu.Unlock()

	s.logger.Info("recalibration started", zap.Time("session_start", now))
}

// SetGrayscaleManual executes a user-requested toggle. It bypasses the
// score thresholds and does not touch the auto-toggle cooldown.
func (s *Session) SetGrayscaleManual(ctx context.Context, enable bool) error {
	if err := s.display.SetGrayscale(ctx, enable); err != nil {
		grayscaleFailuresTotal.Inc()
		return err
	}
	s.stateMu.Lock()
	s.state.GrayscaleOn = enable
	s.stateMu.Unlock()
	return nil
}

// GrayscaleOn reports the current display-filter state.
func (s *Session) GrayscaleOn() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state.GrayscaleOn
}

func truncateTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen])
}
