package monitor

const maxPrescriptions = 3

// RecoveryPrescriptions derives short actionable suggestions from a
// snapshot. At most three, most specific first.
func RecoveryPrescriptions(snap *MetricsSnapshot) []string {
	var out []string
	if snap.MicroScrollTrap {
		out = append(out, "Micro-scroll trap detected. Step away from the screen for 5 minutes; take an analog break.")
	}
	if snap.SwitchesPerMinute > 10 {
		out = append(out, "Heavy context switching. Close everything except one window and single-task for 20 minutes.")
	}
	if snap.ErrorRateProxy > 0.12 {
		out = append(out, "Typing error rate is elevated. Rest your hands and slow down for a few minutes.")
	}
	if snap.FatigueScore > 60 {
		out = append(out, "Fatigue is building. Take a short break before your next block of work.")
	}
	if len(out) == 0 {
		out = append(out, "You're on track. Keep your current pace.")
	}
	if len(out) > maxPrescriptions {
		out = out[:maxPrescriptions]
	}
	return out
}
