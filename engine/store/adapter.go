package store

import "github.com/vectorstream/patternengine/engine"

// OrchestratorAdapter adapts a Store to engine.Inserter, inserting every
// vector at a fixed quantization level. The orchestrator's Insert contract
// doesn't expose quantization choice per event — that's a store-wide
// configuration decision, set once at construction.
type OrchestratorAdapter struct {
	Store *Store
	Bits  engine.QuantizationBits
}

// Insert implements engine.Inserter.
func (a OrchestratorAdapter) Insert(id engine.PatternId, vector []float64, meta engine.SequenceMetadata, nowNs int64) (engine.PatternId, bool, error) {
	return a.Store.Insert(id, vector, a.Bits, meta, nowNs)
}
