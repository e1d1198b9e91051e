// Package engine provides the core of a streaming temporal pattern analysis
// and detection pipeline: embed a sliding window of numeric samples into a
// fixed-dimensional vector, store and index it for approximate nearest
// neighbor search, score it against its neighbors, and continuously retune
// the pipeline's own parameters from observed reward.
//
// # Reading Guide
//
// Start with these files to understand the data model and control flow:
//   - sequence.go, features.go, embedding.go: what a window of samples becomes
//   - orchestrator.go: the per-event embed -> store -> search -> score loop
//   - params.go, statespace.go, actionspace.go: the knobs the adaptive loop tunes
//
// # Architecture
//
// The engine package defines the data model, the orchestrator, and the
// interfaces extension points are built against. Implementations live in
// sub-packages:
//   - engine/quantize: 4-bit/8-bit vector quantization
//   - engine/features: statistical, spectral, DTW, and wavelet extractors
//   - engine/embed: the embedding bridge and its LRU cache
//   - engine/store: the vector store and its pluggable journal backends
//   - engine/hnsw: the approximate nearest-neighbor index
//   - engine/rl: the experience buffer and actor-critic agent
//   - engine/adapt: the adaptive learning engine and auto-tune loop
//   - engine/host: interface-only stubs for out-of-scope collaborators
//
// Sub-packages plug into the orchestrator without an import cycle through
// their OrchestratorAdapter types, which implement the root package's
// Embedder, Inserter, and Searcher interfaces. engine/store/sqlitejournal
// registers its backend with engine/store via a factory variable set from
// init().
package engine
