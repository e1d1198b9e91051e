package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowSearcher blocks past the orchestrator's deadline before returning,
// to exercise the DeadlineExceeded verdict path.
type slowSearcher struct {
	delay time.Duration
	hits  []SearchHit
}

func (s slowSearcher) Search(query []float64, k int) ([]SearchHit, error) {
	time.Sleep(s.delay)
	return s.hits, nil
}

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(seq Sequence, method Method) (Embedding, error) {
	if f.err != nil {
		return Embedding{}, f.err
	}
	return Embedding{Vector: []float64{1, 0, 0}, Method: method}, nil
}

type fakeInserter struct {
	err      error
	inserted bool
}

func (f fakeInserter) Insert(id PatternId, vector []float64, meta SequenceMetadata, nowNs int64) (PatternId, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return id, f.inserted, nil
}

type fakeSearcher struct {
	hits []SearchHit
	err  error
}

func (f fakeSearcher) Search(query []float64, k int) ([]SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func sampleEvent() InboundEvent {
	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = float64(i)
	}
	return InboundEvent{ID: "ev1", TimestampNs: 1000, Samples: samples}
}

func TestOrchestrator_HappyPathScoresFromNeighbors(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(),
		fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.95}, {ID: "b", Similarity: 0.9}}},
		DefaultParams())

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.False(t, out.Anomaly)
	assert.InDelta(t, 1-0.925, out.Score, 1e-9)
	assert.Equal(t, "ev1", out.ID)
}

func TestOrchestrator_EmbeddingFailureIsFatal(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(),
		fakeEmbedder{err: ErrUnsupportedMethod}, fakeInserter{}, fakeSearcher{}, DefaultParams())

	_, err := o.Process(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestOrchestrator_StorageFailureDoesNotBlockSearch(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(),
		fakeEmbedder{}, fakeInserter{err: errors.New("disk full")},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.99}}}, DefaultParams())

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.False(t, out.Anomaly)
}

func TestOrchestrator_SearchFailureYieldsConservativeAnomaly(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(),
		fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{err: errors.New("index down")}, DefaultParams())

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.True(t, out.Anomaly)
	assert.Equal(t, 1.0, out.Score)
}

func TestOrchestrator_FewerThanMinNeighborsIsAnomaly(t *testing.T) {
	cfg := DefaultOrchestratorConfig()
	cfg.MinNeighbors = 2
	o := NewOrchestrator(cfg, fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.99}}}, DefaultParams())

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.True(t, out.Anomaly)
}

func TestOrchestrator_LowTopSimilarityIsAnomaly(t *testing.T) {
	p := DefaultParams()
	p.Threshold = 0.1 // requires top similarity >= 0.9
	o := NewOrchestrator(DefaultOrchestratorConfig(), fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.5}}}, p)

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.True(t, out.Anomaly)
}

func TestOrchestrator_StatsTrackProcessedAndAnomalyCounts(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(), fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.99}}}, DefaultParams())

	_, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	processed, anomalies, dropped := o.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(0), anomalies)
	assert.Equal(t, int64(0), dropped)
}

func TestOrchestrator_DeadlineExceededYieldsAnomalyVerdict(t *testing.T) {
	cfg := DefaultOrchestratorConfig()
	cfg.Deadline = time.Millisecond
	o := NewOrchestrator(cfg, fakeEmbedder{}, fakeInserter{inserted: true},
		slowSearcher{delay: 20 * time.Millisecond, hits: []SearchHit{{ID: "a", Similarity: 0.99}}},
		DefaultParams())

	out, err := o.Process(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.True(t, out.Anomaly)
	assert.Equal(t, "DeadlineExceeded", out.ErrorKind)

	_, anomalies, _ := o.Stats()
	assert.Equal(t, int64(1), anomalies)
}

func TestOrchestrator_StatsSnapshotReportsLatencyPercentiles(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(), fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.99}}}, DefaultParams())

	for i := 0; i < 5; i++ {
		_, err := o.Process(context.Background(), sampleEvent())
		require.NoError(t, err)
	}

	snap := o.StatsSnapshot()
	assert.Equal(t, int64(5), snap.ProcessedCount)
	assert.GreaterOrEqual(t, snap.EmbeddingLatency.P95, int64(0))
	assert.GreaterOrEqual(t, snap.TotalLatency.P95, snap.EmbeddingLatency.P50)
}

func TestOrchestrator_SetParamsIsReturnedByParams(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig(), fakeEmbedder{}, fakeInserter{inserted: true},
		fakeSearcher{hits: []SearchHit{{ID: "a", Similarity: 0.99}}}, DefaultParams())

	p := DefaultParams()
	p.Method = MethodStatistical
	o.SetParams(p)
	assert.Equal(t, MethodStatistical, o.Params().Method)
}
