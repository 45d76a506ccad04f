package monitor

import (
	"testing"
	"time"
)

var calStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestCalibrator_CalibratingUntilWindowElapses(t *testing.T) {
	c := NewCalibrator(calStart, nil)

	if !c.Calibrating(calStart.Add(4*time.Minute), 5) {
		t.Error("expected calibrating at 4 of 5 minutes")
	}
	if c.Calibrating(calStart.Add(5*time.Minute), 5) {
		t.Error("expected calibration done at 5 minutes")
	}
}

func TestCalibrator_PersistedProfileSkipsCalibration(t *testing.T) {
	persisted := &BaselineProfile{LatencyStdMs: 40, CalibratedAt: calStart.Add(-time.Hour)}
	c := NewCalibrator(calStart, persisted)

	if c.Calibrating(calStart, 5) {
		t.Error("expected no calibration with a persisted profile")
	}
	if c.Profile() != persisted {
		t.Error("expected persisted profile returned")
	}
}

func TestCalibrator_MaybeCompleteTransitionsOnce(t *testing.T) {
	c := NewCalibrator(calStart, nil)

	if p := c.MaybeComplete(calStart.Add(3*time.Minute), 5, 40, 0.05, 30); p != nil {
		t.Error("expected no transition before the window elapses")
	}

	p := c.MaybeComplete(calStart.Add(5*time.Minute), 5, 40, 0.05, 30)
	if p == nil {
		t.Fatal("expected transition at window end")
	}
	if p.LatencyStdMs != 40 || p.ErrorRate != 0.05 || p.HoldStdMs != 30 {
		t.Errorf("unexpected profile: %+v", p)
	}

	// A second call must not overwrite the snapshot.
	if p2 := c.MaybeComplete(calStart.Add(6*time.Minute), 5, 99, 0.5, 99); p2 != nil {
		t.Error("expected no second transition")
	}
	if c.Profile().LatencyStdMs != 40 {
		t.Error("expected first snapshot retained")
	}
}

func TestCalibrator_ResetRestartsClockAndDiscardsProfile(t *testing.T) {
	c := NewCalibrator(calStart, &BaselineProfile{LatencyStdMs: 40})

	resetAt := calStart.Add(time.Hour)
	c.Reset(resetAt)

	if c.Profile() != nil {
		t.Error("expected profile discarded")
	}
	if !c.Calibrating(resetAt.Add(time.Minute), 5) {
		t.Error("expected calibration restarted from reset time")
	}
	if !c.SessionStart().Equal(resetAt) {
		t.Errorf("expected session start %v, got %v", resetAt, c.SessionStart())
	}
}
