package engine

import "math"

// StateDim is the fixed width of the RL state encoding: 6 parameter
// dimensions, 8 metric dimensions, 5 data-characteristic dimensions, and 1
// historical-reward EMA. This specification fixes 20 (not 19) dimensions,
// resolving the spec's open question on state width in favor of always
// including slide_size.
const StateDim = 20

// StateSpace is a 20-dimensional encoding of the pipeline's current
// parameters, observed metrics, data characteristics, and reward history,
// every component clamped to [0,1].
type StateSpace [StateDim]float64

// Index layout within StateSpace. Exported so host code assembling a
// StateSpace field-by-field doesn't have to guess the order.
const (
	StateWindow = iota
	StateSlide
	StateThreshold
	StateSensitivity
	StateAdaptiveFlag
	StateMethodCode
	StateAccuracy
	StatePrecision
	StateRecall
	StateFPR
	StateLatencyNorm
	StateThroughputNorm
	StateMemoryNorm
	StateCPUNorm
	StateVariance
	StateTrendCode
	StateSeasonalityFlag
	StateOutlierRate
	StateMissingRate
	StateRewardEMA
)

// DataCharacteristics summarizes the statistical shape of the data recently
// observed by the pipeline, feeding the 5 data-characteristic dimensions of
// StateSpace.
type DataCharacteristics struct {
	Variance        float64 // raw variance, normalized before encoding
	Trend           float64 // signed trend code in [-1,1]; encoded as (Trend+1)/2
	HasSeasonality  bool
	OutlierRate     float64 // fraction in [0,1]
	MissingRate     float64 // fraction in [0,1]
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EncodeState builds a StateSpace from current parameters, observed
// streaming metrics, and data characteristics, applying the normalization
// in spec.md section 3 and clamping every component to [0,1].
func EncodeState(p Params, m StreamingMetrics, dc DataCharacteristics, rewardEMA float64) StateSpace {
	var s StateSpace
	s[StateWindow] = clamp01(normalizeRange(float64(p.Window), minWindow, maxWindow))
	s[StateSlide] = clamp01(normalizeRange(float64(p.Slide), minSlide, maxSlide))
	s[StateThreshold] = clamp01(normalizeRange(p.Threshold, minThreshold, maxThreshold))
	s[StateSensitivity] = clamp01(normalizeRange(p.Sensitivity, minSensitivity, maxSensitivity))
	if p.Adaptive {
		s[StateAdaptiveFlag] = 1
	}
	s[StateMethodCode] = clamp01(methodCode(p.Method))

	s[StateAccuracy] = clamp01(m.Accuracy)
	s[StatePrecision] = clamp01(m.Precision)
	s[StateRecall] = clamp01(m.Recall)
	s[StateFPR] = clamp01(m.FalsePositiveRate)
	s[StateLatencyNorm] = clamp01(m.P95LatencyMs / 1000.0)
	s[StateThroughputNorm] = clamp01(m.ThroughputPerSec / 10000.0)
	s[StateMemoryNorm] = clamp01(m.MemoryMB / 1000.0)
	s[StateCPUNorm] = clamp01(m.CPUPercent / 100.0)

	s[StateVariance] = clamp01(normalizeUnbounded(dc.Variance))
	s[StateTrendCode] = clamp01((dc.Trend + 1) / 2)
	if dc.HasSeasonality {
		s[StateSeasonalityFlag] = 1
	}
	s[StateOutlierRate] = clamp01(dc.OutlierRate)
	s[StateMissingRate] = clamp01(dc.MissingRate)

	s[StateRewardEMA] = clamp01(rewardEMA)
	return s
}

// normalizeRange maps v linearly from [lo,hi] to [0,1].
func normalizeRange(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// normalizeUnbounded squashes an unbounded non-negative magnitude (e.g.
// variance) into [0,1) via v/(1+v), so large values saturate instead of
// clipping discontinuously.
func normalizeUnbounded(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return v / (1 + v)
}

// methodCode maps a Method to a stable code in [0,1] for state encoding.
func methodCode(m Method) float64 {
	switch m {
	case MethodStatistical:
		return 0.0
	case MethodFrequency:
		return 0.25
	case MethodDTW:
		return 0.5
	case MethodWavelet:
		return 0.75
	case MethodHybrid:
		return 1.0
	default:
		return 0.0
	}
}

// Valid reports whether every component of s lies in [0,1], the invariant
// required of any state encoding produced by EncodeState.
func (s StateSpace) Valid() bool {
	for _, v := range s {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return true
}
