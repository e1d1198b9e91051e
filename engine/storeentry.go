package engine

// StoreEntry is a stored pattern: either a full-precision Embedding or a
// QuantizedVector, plus metadata fixed at insert time and access-tracking
// fields mutated by the store.
//
// Exactly one of Vector or Quantized is populated, selected by Quantized.Bits
// (Full means Vector is authoritative).
type StoreEntry struct {
	ID               PatternId
	Vector           []float64 // populated when Quantized.Bits == Full
	Quantized        QuantizedVector
	Metadata         SequenceMetadata
	InsertionTimeNs  int64
	LastAccessTimeNs int64
	Tombstoned       bool
}

// IsQuantized reports whether the entry is stored as a quantized code
// rather than full precision.
func (e StoreEntry) IsQuantized() bool { return e.Quantized.Bits != Full }
