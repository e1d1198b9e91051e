package engine

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipelineBundle is the unified pipeline configuration, loadable from a
// YAML file. LoadPipelineBundle decodes the file over DefaultPipelineBundle,
// so keys omitted from the YAML keep their defaults; a key set explicitly to
// zero overrides its default with zero.
type PipelineBundle struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	HNSW      HNSWConfig      `yaml:"hnsw"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Adaptive  AdaptiveConfig  `yaml:"adaptive"`
	Seed      int64           `yaml:"seed"`
}

// EmbeddingConfig configures the embedding bridge.
type EmbeddingConfig struct {
	Method         string `yaml:"method"`
	TargetDim      int    `yaml:"target_dim"`
	IncludeWavelet bool   `yaml:"include_wavelet"`
	Normalize      bool   `yaml:"normalize"`
	CacheCapacity  int    `yaml:"cache_capacity"`
}

// StoreConfig configures the vector store's journal backend.
type StoreConfig struct {
	// Backend is "memory" (default) or "sqlite".
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxEntries int    `yaml:"max_entries"` // 0 = unbounded
	TTLSeconds int64  `yaml:"ttl_seconds"` // 0 = no TTL eviction
}

// HNSWConfig configures the approximate nearest-neighbor index.
type HNSWConfig struct {
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
	EfSearch       int `yaml:"ef_search"`
}

// PipelineConfig configures the orchestrator's per-event behavior.
type PipelineConfig struct {
	MinNeighbors      int     `yaml:"min_neighbors"`
	TopK              int     `yaml:"top_k"`
	DeadlineMs        int64   `yaml:"deadline_ms"`
	EmbeddingBudgetMs float64 `yaml:"embedding_budget_ms"`
	StorageBudgetMs   float64 `yaml:"storage_budget_ms"`
	SearchBudgetMs    float64 `yaml:"search_budget_ms"`
	TotalBudgetMs     float64 `yaml:"total_budget_ms"`
}

// AdaptiveConfig configures the adaptive learning engine's control loop.
type AdaptiveConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Algorithm        string  `yaml:"algorithm"`
	IntervalMs       int64   `yaml:"interval_ms"`
	BatchSize        int     `yaml:"batch_size"`
	LearningRate     float64 `yaml:"learning_rate"`
	Gamma            float64 `yaml:"gamma"`
	EpsilonInit      float64 `yaml:"epsilon_init"`
	EpsilonDecay     float64 `yaml:"epsilon_decay"`
	EpsilonMin       float64 `yaml:"epsilon_min"`
	TargetUpdateFreq int     `yaml:"target_update_frequency"`
}

// DefaultPipelineBundle returns the default configuration matching
// spec.md's stated defaults throughout sections 4.5, 4.8, and 4.9.
func DefaultPipelineBundle() PipelineBundle {
	return PipelineBundle{
		Embedding: EmbeddingConfig{
			Method:        string(MethodHybrid),
			TargetDim:     256,
			Normalize:     true,
			CacheCapacity: 1000,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		HNSW: HNSWConfig{
			M:              16,
			EfConstruction: 200,
			EfSearch:       50,
		},
		Pipeline: PipelineConfig{
			MinNeighbors:      1,
			TopK:              10,
			DeadlineMs:        500,
			EmbeddingBudgetMs: 10,
			StorageBudgetMs:   10,
			SearchBudgetMs:    15,
			TotalBudgetMs:     100,
		},
		Adaptive: AdaptiveConfig{
			Enabled:          true,
			Algorithm:        "actor-critic",
			IntervalMs:       1000,
			BatchSize:        32,
			LearningRate:     1e-3,
			Gamma:            0.99,
			EpsilonInit:      1.0,
			EpsilonDecay:     0.995,
			EpsilonMin:       0.01,
			TargetUpdateFreq: 100,
		},
		Seed: 1,
	}
}

var validStoreBackends = map[string]bool{"memory": true, "sqlite": true}
var validAlgorithms = map[string]bool{"actor-critic": true, "q-learning": true, "sarsa": true, "dqn": true}

// LoadPipelineBundle reads and strictly parses a YAML pipeline
// configuration file, rejecting unrecognized keys.
func LoadPipelineBundle(path string) (*PipelineBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline config: %w", err)
	}
	bundle := DefaultPipelineBundle()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing pipeline config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that the bundle's policy names and parameters are valid,
// returning a descriptive error on the first violation found.
func (b *PipelineBundle) Validate() error {
	if !IsValidMethod(Method(b.Embedding.Method)) {
		return fmt.Errorf("unknown embedding method %q; valid options: %s",
			b.Embedding.Method, strings.Join(methodNames(), ", "))
	}
	if !IsValidDimension(b.Embedding.TargetDim) {
		return fmt.Errorf("target_dim %d not one of %v", b.Embedding.TargetDim, ValidDimensions)
	}
	if !validStoreBackends[b.Store.Backend] {
		return fmt.Errorf("unknown store backend %q; valid options: %s", b.Store.Backend, strings.Join(validNames(validStoreBackends), ", "))
	}
	if b.Store.Backend == "sqlite" && b.Store.SQLitePath == "" {
		return fmt.Errorf("sqlite_path must be set when store.backend is sqlite")
	}
	if b.HNSW.M <= 0 {
		return fmt.Errorf("hnsw.m must be positive, got %d", b.HNSW.M)
	}
	if b.HNSW.EfConstruction <= 0 {
		return fmt.Errorf("hnsw.ef_construction must be positive, got %d", b.HNSW.EfConstruction)
	}
	if b.HNSW.EfSearch <= 0 {
		return fmt.Errorf("hnsw.ef_search must be positive, got %d", b.HNSW.EfSearch)
	}
	if b.Pipeline.TopK <= 0 {
		return fmt.Errorf("pipeline.top_k must be positive, got %d", b.Pipeline.TopK)
	}
	if !validAlgorithms[b.Adaptive.Algorithm] {
		return fmt.Errorf("unknown adaptive algorithm %q; valid options: %s", b.Adaptive.Algorithm, strings.Join(validNames(validAlgorithms), ", "))
	}
	if err := validateUnitInterval("adaptive.epsilon_init", b.Adaptive.EpsilonInit); err != nil {
		return err
	}
	if err := validateUnitInterval("adaptive.epsilon_min", b.Adaptive.EpsilonMin); err != nil {
		return err
	}
	return nil
}

func validateUnitInterval(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", name, v)
	}
	return nil
}

func methodNames() []string {
	methods := ValidMethods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return names
}

func validNames(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
