// Package adapt implements the adaptive learning engine (C9): translating
// streaming metrics into RL transitions, RL actions into parameter
// updates, and running the auto-tune control loop.
package adapt

import "github.com/vectorstream/patternengine/engine"

// RewardWeights are the linear reward-formula coefficients from spec.md
// section 4.9.
type RewardWeights struct {
	Accuracy   float64
	Latency    float64
	Memory     float64
	FalsePos   float64
	Throughput float64
}

// DefaultRewardWeights returns spec.md section 4.9's stated defaults.
func DefaultRewardWeights() RewardWeights {
	return RewardWeights{Accuracy: 1.0, Latency: -0.3, Memory: -0.2, FalsePos: -0.8, Throughput: 0.5}
}

const (
	latencyNormDivisor    = 1000.0  // ms
	memoryNormDivisor     = 1000.0  // MB
	throughputNormDivisor = 10000.0 // events/s
)

// Reward computes r = wa*acc + wL*latency_norm + wM*memory_norm +
// wFP*fpr + wT*throughput_norm, per spec.md section 4.9.
func Reward(w RewardWeights, m engine.StreamingMetrics) float64 {
	latencyNorm := m.P95LatencyMs / latencyNormDivisor
	memoryNorm := m.MemoryMB / memoryNormDivisor
	throughputNorm := m.ThroughputPerSec / throughputNormDivisor

	return w.Accuracy*m.Accuracy +
		w.Latency*latencyNorm +
		w.Memory*memoryNorm +
		w.FalsePos*m.FalsePositiveRate +
		w.Throughput*throughputNorm
}
