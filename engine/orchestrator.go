package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDeadline is the per-event hard deadline, spec.md section 5.
const DefaultDeadline = 500 * time.Millisecond

// Stage budgets, monitored but non-fatal, per spec.md section 4.6.
const (
	EmbeddingBudget = 10 * time.Millisecond
	StorageBudget   = 10 * time.Millisecond
	SearchBudget    = 15 * time.Millisecond
	TotalBudget     = 100 * time.Millisecond
)

// InboundEvent is one item on the ingress stream: spec.md section 6.
type InboundEvent struct {
	ID          string
	TimestampNs int64
	Samples     []float64
	Metadata    map[string]string
}

// SearchHit is one neighbor returned by the search stage, independent of
// the concrete index implementation (engine/hnsw.Result has the same
// shape; the orchestrator depends only on this).
type SearchHit struct {
	ID         PatternId
	Similarity float64
}

// Embedder, Inserter, and Searcher are the orchestrator's three
// collaborator interfaces, letting engine/embed.Bridge, engine/store.Store,
// and engine/hnsw.Index (or test doubles) be wired in without the root
// engine package importing any of them directly — avoiding an import cycle
// since those packages already import engine for its data model types.
type Embedder interface {
	Embed(seq Sequence, method Method) (Embedding, error)
}

type Inserter interface {
	Insert(id PatternId, vector []float64, meta SequenceMetadata, nowNs int64) (PatternId, bool, error)
}

type Searcher interface {
	Search(query []float64, k int) ([]SearchHit, error)
}

// ProcessedEvent is the per-event result emitted by the orchestrator, per
// spec.md section 4.6.
type ProcessedEvent struct {
	ID          string
	TimestampNs int64
	EmbeddingNs int64
	StorageNs   int64
	SearchNs    int64
	TotalNs     int64
	Anomaly     bool
	Score       float64
	ErrorKind   string // empty unless the event could not complete
}

// OrchestratorConfig configures a Orchestrator's thresholds and budgets.
type OrchestratorConfig struct {
	MinNeighbors int
	TopK         int
	Deadline     time.Duration
	// AdmissionMax is not read by Process. Inserts are dropped only when the
	// Inserter reports inserted=false (e.g. a store with an admission limit
	// set via store.SetAdmissionLimit); Process counts those as DroppedInserts.
	AdmissionMax int
}

// DefaultOrchestratorConfig matches spec.md section 4.6's stated defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{MinNeighbors: 1, TopK: 10, Deadline: DefaultDeadline}
}

// Orchestrator runs the per-event embed -> store -> search -> score
// pipeline (C6). It holds a coarse-grained RWMutex over the current
// Params, matching spec.md section 5's "coarse-grained locking is
// acceptable at these scales" guidance.
type Orchestrator struct {
	cfg OrchestratorConfig

	embedder Embedder
	inserter Inserter
	searcher Searcher

	mu     sync.RWMutex
	params Params

	processedCount int64
	anomalyCount   int64
	droppedInserts int64

	// latMu guards the per-stage latency recorders, separately from mu
	// since Process runs the storage and search stages concurrently and
	// each records into a different recorder on its own goroutine.
	latMu          sync.Mutex
	embedLatency   LatencyRecorder
	storageLatency LatencyRecorder
	searchLatency  LatencyRecorder
	totalLatency   LatencyRecorder
}

func (o *Orchestrator) recordLatency(r *LatencyRecorder, ns int64) {
	o.latMu.Lock()
	r.Record(ns)
	o.latMu.Unlock()
}

// NewOrchestrator constructs an Orchestrator wired to the given
// collaborators, with initial parameters p.
func NewOrchestrator(cfg OrchestratorConfig, embedder Embedder, inserter Inserter, searcher Searcher, p Params) *Orchestrator {
	if cfg.TopK == 0 {
		cfg = DefaultOrchestratorConfig()
	}
	return &Orchestrator{cfg: cfg, embedder: embedder, inserter: inserter, searcher: searcher, params: p}
}

// SetParams atomically replaces the orchestrator's current parameters,
// the feedback path the adaptive learning engine (C9) drives.
func (o *Orchestrator) SetParams(p Params) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.params = p
}

// Params returns a copy of the orchestrator's current parameters.
func (o *Orchestrator) Params() Params {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.params
}

// Process runs one event through embed -> store -> search -> score,
// honoring per-stage budgets (monitored, non-fatal) and a hard deadline
// (fatal: aborts remaining stages with a DeadlineExceeded verdict).
//
// Failure semantics (spec.md section 4.6): embedding failure is fatal and
// propagated; storage failure is logged but does not block search; search
// failure yields anomaly=true, score=1.0.
func (o *Orchestrator) Process(ctx context.Context, ev InboundEvent) (ProcessedEvent, error) {
	start := time.Now()
	p := o.Params()

	seq, err := NewSequence(ev.Samples, ev.TimestampNs, SequenceMetadata{})
	if err != nil {
		return ProcessedEvent{}, err
	}

	deadline := o.cfg.Deadline
	if deadline == 0 {
		deadline = DefaultDeadline
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	out := ProcessedEvent{ID: ev.ID, TimestampNs: ev.TimestampNs}

	embedStart := time.Now()
	emb, err := o.embedder.Embed(seq, p.Method)
	out.EmbeddingNs = time.Since(embedStart).Nanoseconds()
	o.recordLatency(&o.embedLatency, out.EmbeddingNs)
	if err != nil {
		return ProcessedEvent{}, err
	}
	if out.EmbeddingNs > EmbeddingBudget.Nanoseconds() {
		logrus.Warnf("orchestrator: event %s embedding took %dns, budget %s", ev.ID, out.EmbeddingNs, EmbeddingBudget)
	}

	if deadlineCtx.Err() != nil {
		return o.deadlineExceeded(out, start), nil
	}

	var hits []SearchHit
	var searchErr error
	var storeErr error

	var wg sync.WaitGroup
	wg.Add(2)

	storageStart := time.Now()
	go func() {
		defer wg.Done()
		_, inserted, err := o.inserter.Insert(GeneratePatternId(ev.TimestampNs, ev.Samples), emb.Vector, seq.Metadata, ev.TimestampNs)
		if err != nil {
			storeErr = err
			return
		}
		if !inserted {
			o.mu.Lock()
			o.droppedInserts++
			o.mu.Unlock()
		}
	}()

	searchStart := time.Now()
	go func() {
		defer wg.Done()
		h, err := o.searcher.Search(emb.Vector, o.cfg.TopK)
		if err != nil {
			searchErr = err
			return
		}
		hits = h
	}()

	wg.Wait()
	out.StorageNs = time.Since(storageStart).Nanoseconds()
	out.SearchNs = time.Since(searchStart).Nanoseconds()
	o.recordLatency(&o.storageLatency, out.StorageNs)
	o.recordLatency(&o.searchLatency, out.SearchNs)

	if storeErr != nil {
		logrus.Warnf("orchestrator: event %s storage failed: %v", ev.ID, storeErr)
	}
	if out.StorageNs > StorageBudget.Nanoseconds() {
		logrus.Warnf("orchestrator: event %s storage took %dns, budget %s", ev.ID, out.StorageNs, StorageBudget)
	}
	if out.SearchNs > SearchBudget.Nanoseconds() {
		logrus.Warnf("orchestrator: event %s search took %dns, budget %s", ev.ID, out.SearchNs, SearchBudget)
	}

	if deadlineCtx.Err() != nil {
		return o.deadlineExceeded(out, start), nil
	}

	if searchErr != nil {
		out.Anomaly = true
		out.Score = 1.0
	} else {
		out.Anomaly, out.Score = scoreHits(hits, o.cfg.MinNeighbors, p.Threshold)
	}

	out.TotalNs = time.Since(start).Nanoseconds()
	o.recordLatency(&o.totalLatency, out.TotalNs)
	if out.TotalNs > TotalBudget.Nanoseconds() {
		logrus.Warnf("orchestrator: event %s total took %dns, budget %s", ev.ID, out.TotalNs, TotalBudget)
	}

	o.mu.Lock()
	o.processedCount++
	if out.Anomaly {
		o.anomalyCount++
	}
	o.mu.Unlock()

	return out, nil
}

// scoreHits implements spec.md section 4.6 step 3: flag anomaly if fewer
// than minNeighbors results or the top similarity < 1-threshold;
// otherwise score = 1 - mean(top-k similarity).
func scoreHits(hits []SearchHit, minNeighbors int, threshold float64) (anomaly bool, score float64) {
	if len(hits) < minNeighbors {
		return true, 1.0
	}
	if hits[0].Similarity < 1-threshold {
		return true, 1 - hits[0].Similarity
	}
	var sum float64
	for _, h := range hits {
		sum += h.Similarity
	}
	mean := sum / float64(len(hits))
	return false, 1 - mean
}

func (o *Orchestrator) deadlineExceeded(out ProcessedEvent, start time.Time) ProcessedEvent {
	out.Anomaly = true
	out.ErrorKind = "DeadlineExceeded"
	out.TotalNs = time.Since(start).Nanoseconds()
	o.recordLatency(&o.totalLatency, out.TotalNs)
	o.mu.Lock()
	o.processedCount++
	o.anomalyCount++
	o.mu.Unlock()
	return out
}

// Stats returns a snapshot of the orchestrator's running counters.
func (o *Orchestrator) Stats() (processed, anomalies, dropped int64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.processedCount, o.anomalyCount, o.droppedInserts
}

// StatsSnapshot assembles the orchestrator's portion of the periodic stats
// record (spec.md section 6 egress): processed/anomaly/dropped counters and
// per-stage latency percentiles. CacheSize/StoreSize/IndexEdges and the RL
// fields come from the embedding cache, store, index, and adaptive engine
// respectively — callers overlay those onto the returned value (see
// cmd/root.go's stream loop).
func (o *Orchestrator) StatsSnapshot() StatsSnapshot {
	o.mu.RLock()
	processed, anomalies, dropped := o.processedCount, o.anomalyCount, o.droppedInserts
	o.mu.RUnlock()

	o.latMu.Lock()
	defer o.latMu.Unlock()
	return StatsSnapshot{
		ProcessedCount:   processed,
		AnomalyCount:     anomalies,
		DroppedInserts:   dropped,
		EmbeddingLatency: o.embedLatency.Percentiles(),
		StorageLatency:   o.storageLatency.Percentiles(),
		SearchLatency:    o.searchLatency.Percentiles(),
		TotalLatency:     o.totalLatency.Percentiles(),
	}
}
