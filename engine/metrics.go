package engine

import "sort"

// StreamingMetrics is the concrete, named-field metrics record consumers
// read from (spec.md's "duck-typed metrics map" design note resolved into a
// real struct, not a map[string]interface{}).
type StreamingMetrics struct {
	Accuracy          float64
	Precision         float64
	Recall            float64
	FalsePositiveRate float64
	P95LatencyMs      float64
	ThroughputPerSec  float64
	MemoryMB          float64
	CPUPercent        float64
}

// StatsSnapshot is the periodic stats record exposed alongside the
// ProcessedEvent stream (spec.md section 6, egress).
type StatsSnapshot struct {
	ProcessedCount   int64
	AnomalyCount     int64
	DroppedInserts   int64
	EmbeddingLatency LatencyPercentiles
	StorageLatency   LatencyPercentiles
	SearchLatency    LatencyPercentiles
	TotalLatency     LatencyPercentiles
	CacheSize        int
	StoreSize        int
	IndexEdges       int
	RLEpisodeCount   int
	BestReward       float64
	ExplorationRate  float64
	OverheadPct      float64
	ErrorCounts      map[string]int64
}

// LatencyPercentiles holds p50/p95/p99 for one pipeline stage, in
// nanoseconds.
type LatencyPercentiles struct {
	P50 int64
	P95 int64
	P99 int64
}

// LatencyRecorder accumulates per-stage latency samples and computes
// percentiles on demand. Not safe for concurrent use without external
// locking, matching the coarse-grained locking discipline the rest of the
// engine uses for shared mutable state.
type LatencyRecorder struct {
	samples []int64
}

// Record appends one latency sample in nanoseconds.
func (r *LatencyRecorder) Record(ns int64) {
	r.samples = append(r.samples, ns)
}

// Percentiles computes p50/p95/p99 over all recorded samples. Returns the
// zero value if no samples have been recorded.
func (r *LatencyRecorder) Percentiles() LatencyPercentiles {
	n := len(r.samples)
	if n == 0 {
		return LatencyPercentiles{}
	}
	sorted := make([]int64, n)
	copy(sorted, r.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return LatencyPercentiles{
		P50: percentileOf(sorted, 0.50),
		P95: percentileOf(sorted, 0.95),
		P99: percentileOf(sorted, 0.99),
	}
}

// Reset clears recorded samples. Orchestrator never calls it, so its
// recorders accumulate over the orchestrator's whole lifetime.
func (r *LatencyRecorder) Reset() { r.samples = r.samples[:0] }

// percentileOf returns the value at quantile q in a pre-sorted slice: the
// element at index floor(q*(n-1)), with no interpolation between neighbors.
func percentileOf(sorted []int64, q float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(q * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
