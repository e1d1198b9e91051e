package engine

import (
	"math"
	"time"
)

// MinSequenceLength and MaxSequenceLength bound a Sequence's sample count,
// per the data model's N in [10, 1e5]. Feature extractors additionally
// accept single-sample sequences for the boundary cases in the testable
// properties (variance=0, spectral all-zero); MinSequenceLength governs
// Sequence construction, not extractor admissibility.
const (
	MinSequenceLength = 10
	MaxSequenceLength = 100_000
)

// SequenceMetadata carries optional descriptive tags for a Sequence. All
// fields are optional; the zero value is valid and means "unset".
type SequenceMetadata struct {
	Source     string
	Domain     string
	Tags       []string
	SampleRate float64 // Hz, 0 = unknown
}

// Sequence is an ordered, immutable set of real-valued samples with a
// timestamp and optional metadata. Once constructed via NewSequence, a
// Sequence's Samples slice must not be mutated by callers.
type Sequence struct {
	Samples     []float64
	TimestampNs int64
	Metadata    SequenceMetadata
}

// NewSequence validates and constructs a Sequence. It copies samples so the
// returned Sequence is safe from later caller mutation, matching the
// "immutable after creation" invariant in the data model.
//
// NewSequence enforces the length bound [MinSequenceLength,
// MaxSequenceLength] and rejects non-finite samples. Extractors that accept
// shorter/degenerate input (single-sample sequences, as required by the
// boundary-behavior tests) operate directly on a []float64 and do not go
// through NewSequence.
func NewSequence(samples []float64, timestampNs int64, meta SequenceMetadata) (Sequence, error) {
	if len(samples) < MinSequenceLength || len(samples) > MaxSequenceLength {
		return Sequence{}, InvalidInputf("sequence length %d out of range [%d, %d]",
			len(samples), MinSequenceLength, MaxSequenceLength)
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sequence{}, InvalidInputf("sample %d is non-finite: %v", i, v)
		}
	}
	cp := make([]float64, len(samples))
	copy(cp, samples)
	return Sequence{Samples: cp, TimestampNs: timestampNs, Metadata: meta}, nil
}

// Now returns the current time in nanoseconds since epoch, matching the
// ingress event timestamp convention in the external interface.
func Now() int64 { return time.Now().UnixNano() }
