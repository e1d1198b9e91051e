// cmd/root.go
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vectorstream/patternengine/engine"
	"github.com/vectorstream/patternengine/engine/adapt"
	"github.com/vectorstream/patternengine/engine/embed"
	"github.com/vectorstream/patternengine/engine/hnsw"
	"github.com/vectorstream/patternengine/engine/store"
)

var (
	configPath string
	inputPath  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "patternengine",
	Short: "Streaming temporal pattern detection and adaptive tuning engine",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a stream of events through the detection pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		bundle := engine.DefaultPipelineBundle()
		if configPath != "" {
			loaded, err := engine.LoadPipelineBundle(configPath)
			if err != nil {
				return err
			}
			bundle = *loaded
		}
		if err := bundle.Validate(); err != nil {
			return fmt.Errorf("invalid pipeline config: %w", err)
		}

		p, err := buildPipeline(bundle)
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if inputPath != "" {
			f, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()
			in = f
		}

		logrus.Infof("starting pipeline: embedding=%s dim=%d hnsw(m=%d,ef_construction=%d,ef_search=%d) adaptive=%v",
			bundle.Embedding.Method, bundle.Embedding.TargetDim,
			bundle.HNSW.M, bundle.HNSW.EfConstruction, bundle.HNSW.EfSearch, bundle.Adaptive.Enabled)

		count, err := streamEvents(p, bundle, in)
		if err != nil {
			return err
		}

		snap := p.statsSnapshot()
		logrus.Infof("processed %d events (%d read), %d anomalies, %d dropped inserts",
			snap.ProcessedCount, count, snap.AnomalyCount, snap.DroppedInserts)
		return nil
	},
}

// pipeline bundles the wired collaborators a run needs: the orchestrator
// itself plus the components whose own counters feed the periodic
// StatsSnapshot (cache size, store size, index edges, RL progress).
type pipeline struct {
	orchestrator *engine.Orchestrator
	adaptive     *adapt.Engine
	bridge       *embed.Bridge
	store        *store.Store
	index        *hnsw.Index
}

// statsSnapshot assembles the full periodic stats record (spec.md section 6
// egress) by overlaying the embedding cache, store, index, and adaptive
// engine's own counters onto the orchestrator's StatsSnapshot.
func (p *pipeline) statsSnapshot() engine.StatsSnapshot {
	snap := p.orchestrator.StatsSnapshot()
	snap.CacheSize = p.bridge.CacheSize()
	snap.StoreSize = p.store.Len()
	snap.IndexEdges = p.index.Edges()
	if p.adaptive != nil {
		snap.RLEpisodeCount = p.adaptive.EpisodeCount()
		snap.BestReward = p.adaptive.BestReward()
		snap.ExplorationRate = p.adaptive.Epsilon()
	}
	return snap
}

// buildPipeline wires the embedding bridge, vector store, HNSW index, and
// orchestrator together from a validated PipelineBundle, along with an
// adaptive learning engine when enabled.
func buildPipeline(bundle engine.PipelineBundle) (*pipeline, error) {
	bridge := embed.NewBridge(bundle.Embedding.CacheCapacity)
	embedAdapter := embed.OrchestratorAdapter{
		Bridge: bridge,
		Opts: embed.Options{
			TargetDim:      bundle.Embedding.TargetDim,
			IncludeWavelet: bundle.Embedding.IncludeWavelet,
			Normalize:      bundle.Embedding.Normalize,
			UseCache:       true,
		},
	}

	var journal store.Journal
	if bundle.Store.Backend == "sqlite" {
		if store.NewSQLiteJournalFunc == nil {
			return nil, fmt.Errorf("store backend %q requires importing engine/store/sqlitejournal", bundle.Store.Backend)
		}
		j, err := store.NewSQLiteJournalFunc(bundle.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite journal: %w", err)
		}
		journal = j
	}

	vecStore := store.New(store.Config{
		Dim:        bundle.Embedding.TargetDim,
		MaxEntries: bundle.Store.MaxEntries,
		TTL:        time.Duration(bundle.Store.TTLSeconds) * time.Second,
		Journal:    journal,
	})
	storeAdapter := store.OrchestratorAdapter{Store: vecStore, Bits: engine.Bits8}

	index := hnsw.New(bundle.Embedding.TargetDim, hnsw.Config{
		M:              bundle.HNSW.M,
		EfConstruction: bundle.HNSW.EfConstruction,
		EfSearch:       bundle.HNSW.EfSearch,
		Seed:           bundle.Seed,
	})
	hnswAdapter := hnsw.OrchestratorAdapter{Index: index}

	params := engine.DefaultParams()
	orchCfg := engine.DefaultOrchestratorConfig()
	orchCfg.MinNeighbors = bundle.Pipeline.MinNeighbors
	orchCfg.TopK = bundle.Pipeline.TopK
	orchCfg.Deadline = time.Duration(bundle.Pipeline.DeadlineMs) * time.Millisecond

	o := engine.NewOrchestrator(orchCfg, embedAdapter, storeAdapter, hnswAdapter, params)

	var adaptEngine *adapt.Engine
	if bundle.Adaptive.Enabled {
		adaptCfg := adapt.DefaultConfig()
		adaptCfg.IntervalMs = int(bundle.Adaptive.IntervalMs)
		adaptCfg.BatchSize = bundle.Adaptive.BatchSize
		adaptCfg.AgentConfig.LearningRate = bundle.Adaptive.LearningRate
		adaptCfg.AgentConfig.Gamma = bundle.Adaptive.Gamma
		adaptCfg.AgentConfig.EpsilonInit = bundle.Adaptive.EpsilonInit
		adaptCfg.AgentConfig.EpsilonDecay = bundle.Adaptive.EpsilonDecay
		adaptCfg.AgentConfig.EpsilonMin = bundle.Adaptive.EpsilonMin
		adaptCfg.AgentConfig.TargetUpdateFrequency = bundle.Adaptive.TargetUpdateFreq
		adaptCfg.AgentConfig.Seed = bundle.Seed
		adaptEngine = adapt.New(adaptCfg, params)
	}

	return &pipeline{orchestrator: o, adaptive: adaptEngine, bridge: bridge, store: vecStore, index: index}, nil
}

// inboundRecord is the JSON-lines wire shape accepted on the run command's
// input stream: one InboundEvent per line.
type inboundRecord struct {
	ID          string            `json:"id"`
	TimestampNs int64             `json:"timestamp_ns"`
	Samples     []float64         `json:"samples"`
	Metadata    map[string]string `json:"metadata"`
}

// statsLogEvery controls how often streamEvents logs a full StatsSnapshot,
// independent of the adaptive engine's own tick cadence.
const statsLogEvery = 100

// streamEvents reads newline-delimited JSON events from r, runs each
// through the orchestrator, periodically drives the adaptive engine (when
// enabled) from the orchestrator's own running counters, and periodically
// logs a full StatsSnapshot (spec.md section 6 egress).
func streamEvents(p *pipeline, bundle engine.PipelineBundle, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	ctx := context.Background()
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec inboundRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			logrus.Warnf("skipping malformed event at line %d: %v", count+1, err)
			continue
		}
		count++

		ev := engine.InboundEvent{ID: rec.ID, TimestampNs: rec.TimestampNs, Samples: rec.Samples, Metadata: rec.Metadata}
		out, err := p.orchestrator.Process(ctx, ev)
		if err != nil {
			logrus.Warnf("event %s failed: %v", rec.ID, err)
			continue
		}

		encoded, _ := json.Marshal(out)
		fmt.Println(string(encoded))

		if p.adaptive != nil && bundle.Adaptive.BatchSize > 0 && count%bundle.Adaptive.BatchSize == 0 {
			metrics := metricsFromStats(p.orchestrator)
			next := p.adaptive.Tick(metrics, engine.DataCharacteristics{}, false)
			p.orchestrator.SetParams(next)
		}

		if count%statsLogEvery == 0 {
			snap := p.statsSnapshot()
			logrus.Infof("stats: processed=%d anomalies=%d dropped=%d cache=%d store=%d edges=%d embed_p95=%dns search_p95=%dns",
				snap.ProcessedCount, snap.AnomalyCount, snap.DroppedInserts,
				snap.CacheSize, snap.StoreSize, snap.IndexEdges,
				snap.EmbeddingLatency.P95, snap.SearchLatency.P95)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading input: %w", err)
	}
	return count, nil
}

// metricsFromStats approximates a StreamingMetrics snapshot from the
// orchestrator's running counters for feeding the adaptive engine's
// control loop; a host embedding this module in a live service would wire
// engine/host.MetricsSource to richer, externally-measured figures
// instead.
func metricsFromStats(o *engine.Orchestrator) engine.StreamingMetrics {
	processed, anomalies, dropped := o.Stats()
	fpr := 0.0
	if processed > 0 {
		fpr = float64(anomalies) / float64(processed)
	}
	return engine.StreamingMetrics{
		Accuracy:          1 - fpr,
		FalsePositiveRate: fpr,
		ThroughputPerSec:  float64(processed),
		MemoryMB:          float64(dropped), // proxy signal: rising drops implies memory pressure
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a pipeline YAML config (defaults built in if omitted)")
	runCmd.Flags().StringVar(&inputPath, "input", "", "Path to a newline-delimited JSON event file (defaults to stdin)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
}
