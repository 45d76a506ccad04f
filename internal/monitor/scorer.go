package monitor

// Contribution caps for the composite fatigue score.
const (
	latencyCap = 30.0
	errorCap   = 20.0
	holdCap    = 10.0
	switchCap  = 20.0
	scrollTrap = 12.0
	idleWeight = 10.0
)

// ScoreInput carries everything the scorer reads: tracker readouts,
// baseline, wall-clock hour and session age. The scorer itself is pure.
type ScoreInput struct {
	BaselineMode bool
	Baseline     *BaselineProfile

	LatencyStdMs      float64
	ErrorRate         float64
	HoldStdMs         float64
	SwitchesPerMinute float64
	ScrollTrap        bool
	IdleDetected      bool
	CognitiveLoad     float64

	Hour           int // local wall-clock hour, 0–23
	ElapsedMinutes float64
}

// Score fuses the signals into (fatigueScore, fuelGauge). In baseline
// mode it returns (0, 100) without reading anything else. The fatigue
// score is not clamped at 100; callers clamp for display.
func Score(in ScoreInput) (float64, float64) {
	if in.BaselineMode {
		return 0, 100
	}

	score := latencyContribution(in)
	score += errorContribution(in)
	score += holdContribution(in)
	if in.SwitchesPerMinute > 8 {
		score += capped((in.SwitchesPerMinute-8)*2, switchCap)
	}
	if in.ScrollTrap {
		score += scrollTrap
	}
	if in.IdleDetected {
		score += idleWeight
	}
	score += sessionContribution(in.ElapsedMinutes)

	score *= TimeOfDayFactor(in.Hour)

	fuel := 100 - 0.35*score - 18*in.CognitiveLoad - sessionDecrement(in.ElapsedMinutes)
	return score, clamp(fuel, 0, 100)
}

// latencyContribution scores rising latency std-dev against baseline:
// zero through 1.2× baseline, then linear to the cap. With no usable
// baseline std, an absolute threshold stands in.
func latencyContribution(in ScoreInput) float64 {
	if in.Baseline != nil && in.Baseline.LatencyStdMs > 0 {
		ratio := in.LatencyStdMs / in.Baseline.LatencyStdMs
		if ratio > 1.2 {
			return capped((ratio-1.2)*50, latencyCap)
		}
		return 0
	}
	if in.LatencyStdMs > 80 {
		return capped((in.LatencyStdMs-80)/2, latencyCap)
	}
	return 0
}

func errorContribution(in ScoreInput) float64 {
	if in.Baseline != nil && in.Baseline.ErrorRate > 0 {
		ratio := in.ErrorRate / in.Baseline.ErrorRate
		if ratio > 1.5 {
			return capped((ratio-1.5)*30, errorCap)
		}
		return 0
	}
	if in.ErrorRate > 0.15 {
		return capped(in.ErrorRate*100, errorCap)
	}
	return 0
}

func holdContribution(in ScoreInput) float64 {
	if in.Baseline != nil && in.Baseline.HoldStdMs > 0 {
		ratio := in.HoldStdMs / in.Baseline.HoldStdMs
		if ratio > 1.3 {
			return capped((ratio-1.3)*20, holdCap)
		}
		return 0
	}
	if in.HoldStdMs > 60 {
		return capped((in.HoldStdMs-60)/4, holdCap)
	}
	return 0
}

// sessionContribution is a monotonic step function of session age:
// nothing under an hour, up to 8 points across 60–120 minutes, then up
// to 15 more approaching the five-hour mark. Idle gaps never reset it.
func sessionContribution(elapsedMinutes float64) float64 {
	switch {
	case elapsedMinutes < 60:
		return 0
	case elapsedMinutes < 120:
		return (elapsedMinutes - 60) / 60 * 8
	default:
		return 8 + capped((elapsedMinutes-120)*(15.0/180.0), 15)
	}
}

// sessionDecrement drains the fuel gauge as the session ages,
// independent of the fatigue signals.
func sessionDecrement(elapsedMinutes float64) float64 {
	return capped(elapsedMinutes*0.1, 30)
}

// TimeOfDayFactor scales fatigue by circadian pressure: neutral during
// core hours, slightly elevated mornings/evenings, strongly at night.
func TimeOfDayFactor(hour int) float64 {
	switch {
	case hour >= 10 && hour < 18:
		return 1.0
	case hour >= 6 && hour < 10, hour >= 18 && hour < 22:
		return 1.05
	default:
		return 1.25
	}
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
