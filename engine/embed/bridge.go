// Package embed implements the embedding bridge (C3): it combines the
// feature extractors into a fixed-dimensional, L2-normalized Embedding and
// caches recent results behind an LRU.
package embed

import (
	"fmt"
	"hash/fnv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/vectorstream/patternengine/engine"
	"github.com/vectorstream/patternengine/engine/features"
)

// Options configures a single Embed call.
type Options struct {
	Method         engine.Method
	TargetDim      int
	IncludeWavelet bool
	Normalize      bool
	Templates      [][]float64
	UseCache       bool
}

// cachedEmbedding is what the LRU stores: the final vector only. The
// method and wavelet flag it was produced under are part of the cache key,
// and a cache hit reports a freshly-measured generation time without
// re-running extraction.
type cachedEmbedding struct {
	vector []float64
}

// Bridge accepts sequences and produces Embeddings, caching results keyed
// by (method, includeWavelet, short hash of samples).
type Bridge struct {
	cache *lruCache
}

// DefaultCacheCapacity matches spec.md section 4.3's stated default.
const DefaultCacheCapacity = 1000

// NewBridge constructs a Bridge with the given cache capacity. A capacity
// of 0 uses DefaultCacheCapacity.
func NewBridge(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Bridge{cache: newLRUCache(capacity)}
}

// Embed produces an Embedding for seq under opts. On a cache hit the
// returned vector is the cached one with a freshly-measured
// GenerationTimeNs; on a miss, extraction runs, the vector is cached
// (evicting the LRU entry if over capacity), and GenerationTimeNs reflects
// the real extraction cost.
func (b *Bridge) Embed(seq engine.Sequence, opts Options) (engine.Embedding, error) {
	start := time.Now()

	if opts.Method == engine.MethodLearned {
		return engine.Embedding{}, fmt.Errorf("embed: method %q is reserved: %w", opts.Method, engine.ErrUnsupportedMethod)
	}
	if !engine.IsValidMethod(opts.Method) {
		return engine.Embedding{}, fmt.Errorf("embed: method %q not recognized: %w", opts.Method, engine.ErrUnsupportedMethod)
	}
	if len(seq.Samples) < 2 {
		return engine.Embedding{}, fmt.Errorf("embed: sequence has %d samples: %w", len(seq.Samples), engine.ErrEmptySequence)
	}
	targetDim := opts.TargetDim
	if targetDim == 0 {
		targetDim = 256
	}
	if !engine.IsValidDimension(targetDim) {
		return engine.Embedding{}, engine.InvalidInputf("embed: target_dim %d not supported", targetDim)
	}

	key := cacheKey(opts.Method, opts.IncludeWavelet, seq.Samples)

	if opts.UseCache {
		if cached, ok := b.cache.get(key); ok {
			return engine.Embedding{
				Vector:           cached.vector,
				Method:           opts.Method,
				WindowSize:       len(seq.Samples),
				GenerationTimeNs: time.Since(start).Nanoseconds(),
				Metadata:         seq.Metadata,
			}, nil
		}
	}

	fb, err := features.Bundle(seq.Samples, opts.Method, opts.Templates, opts.IncludeWavelet)
	if err != nil {
		return engine.Embedding{}, err
	}

	vector := fb.Concat()
	if opts.Normalize {
		vector = l2Normalize(vector)
	}
	vector = resize(vector, targetDim)

	if opts.UseCache {
		b.cache.put(key, cachedEmbedding{vector: vector})
	}

	return engine.Embedding{
		Vector:           vector,
		Method:           opts.Method,
		WindowSize:       len(seq.Samples),
		GenerationTimeNs: time.Since(start).Nanoseconds(),
		Metadata:         seq.Metadata,
	}, nil
}

// CacheSize returns the number of entries currently cached.
func (b *Bridge) CacheSize() int { return b.cache.len() }

// l2Normalize scales v to unit L2 norm. A zero vector passes through
// unchanged, matching spec.md section 4.3 step 4.
func l2Normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}
	return floats.ScaleTo(make([]float64, len(v)), 1/norm, v)
}

// resize truncates v to n or zero-pads it to n.
func resize(v []float64, n int) []float64 {
	if len(v) == n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

// shortHashSampleCount bounds how many leading samples feed the cache key
// hash, matching the pattern-id scheme's tradeoff of cheap-but-sufficient
// collision avoidance over hashing a whole window.
const shortHashSampleCount = 32

func cacheKey(method engine.Method, includeWavelet bool, samples []float64) string {
	h := fnv.New64a()
	n := len(samples)
	if n > shortHashSampleCount {
		n = shortHashSampleCount
	}
	fmt.Fprintf(h, "%s|%v|%d|", method, includeWavelet, len(samples))
	for _, v := range samples[:n] {
		fmt.Fprintf(h, "%x", v)
	}
	return fmt.Sprintf("%x", h.Sum64())
}
