package engine

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// PatternId opaquely identifies a stored pattern. Generated from
// (timestamp, short hash of first samples) so that two inserts of distinct
// data at distinct times essentially never collide within one process
// lifetime; see GeneratePatternId.
type PatternId string

// shortHashSampleCount bounds how many leading samples contribute to the
// id hash. Hashing the whole sequence would be wasted work for ids whose
// only job is unlikely-collision, not content-addressing.
const shortHashSampleCount = 16

// GeneratePatternId derives a PatternId from a timestamp and a short hash
// of the sequence's leading samples. Deterministic: the same (timestamp,
// samples) pair always yields the same id, which lets tests assert on ids
// without going through the store.
func GeneratePatternId(timestampNs int64, samples []float64) PatternId {
	h := fnv.New64a()
	n := len(samples)
	if n > shortHashSampleCount {
		n = shortHashSampleCount
	}
	for _, v := range samples[:n] {
		fmt.Fprintf(h, "%x", v)
	}
	return PatternId(fmt.Sprintf("%x-%x", timestampNs, h.Sum64()))
}

// GenerateFallbackPatternId returns a random PatternId for inserts that
// carry no sample data to hash against (e.g. metadata-only inserts). This
// supplements the data model's id scheme with a collision-free fallback;
// spec.md only specifies the timestamp+hash scheme for the common case.
func GenerateFallbackPatternId() PatternId {
	return PatternId(uuid.NewString())
}
