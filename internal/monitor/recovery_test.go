package monitor

import (
	"strings"
	"testing"
)

func TestRecovery_OnTrackWhenNothingFires(t *testing.T) {
	got := RecoveryPrescriptions(&MetricsSnapshot{FatigueScore: 20})
	if len(got) != 1 || !strings.Contains(got[0], "on track") {
		t.Errorf("expected single on-track message, got %v", got)
	}
}

func TestRecovery_SpecificSignalsFirst(t *testing.T) {
	snap := &MetricsSnapshot{
		MicroScrollTrap: true,
		FatigueScore:    65,
	}
	got := RecoveryPrescriptions(snap)
	if len(got) != 2 {
		t.Fatalf("expected 2 prescriptions, got %v", got)
	}
	if !strings.Contains(got[0], "scroll") {
		t.Errorf("expected scroll trap first, got %q", got[0])
	}
}

func TestRecovery_CappedAtThree(t *testing.T) {
	snap := &MetricsSnapshot{
		MicroScrollTrap:   true,
		SwitchesPerMinute: 15,
		ErrorRateProxy:    0.2,
		FatigueScore:      80,
	}
	got := RecoveryPrescriptions(snap)
	if len(got) != 3 {
		t.Errorf("expected cap of 3, got %d", len(got))
	}
}
