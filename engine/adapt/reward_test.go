package adapt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vectorstream/patternengine/engine"
)

func TestReward_MatchesLinearFormula(t *testing.T) {
	w := DefaultRewardWeights()
	m := engine.StreamingMetrics{
		Accuracy:          0.9,
		FalsePositiveRate: 0.1,
		P95LatencyMs:      200,
		ThroughputPerSec:  5000,
		MemoryMB:          500,
	}
	got := Reward(w, m)
	want := w.Accuracy*0.9 + w.Latency*(200.0/1000) + w.Memory*(500.0/1000) + w.FalsePos*0.1 + w.Throughput*(5000.0/10000)
	assert.InDelta(t, want, got, 1e-9)
}

func TestReward_PerfectMetricsYieldHighReward(t *testing.T) {
	w := DefaultRewardWeights()
	perfect := engine.StreamingMetrics{Accuracy: 1, FalsePositiveRate: 0, P95LatencyMs: 0, MemoryMB: 0, ThroughputPerSec: 10000}
	bad := engine.StreamingMetrics{Accuracy: 0, FalsePositiveRate: 1, P95LatencyMs: 1000, MemoryMB: 1000, ThroughputPerSec: 0}
	assert.Greater(t, Reward(w, perfect), Reward(w, bad))
}
