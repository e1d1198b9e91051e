package embed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine"
)

func sampleSeq(n int) engine.Sequence {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(float64(i))
	}
	seq, err := engine.NewSequence(samples, 1000, engine.SequenceMetadata{Source: "test"})
	if err != nil {
		panic(err)
	}
	return seq
}

func TestEmbed_NormalizedVectorHasUnitNorm(t *testing.T) {
	b := NewBridge(10)
	emb, err := b.Embed(sampleSeq(64), Options{
		Method:    engine.MethodHybrid,
		TargetDim: 128,
		Normalize: true,
	})
	require.NoError(t, err)

	var norm float64
	for _, v := range emb.Vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	assert.InDelta(t, 1.0, norm, engine.NormalizeEpsilon*10)
}

func TestEmbed_ResizesToTargetDim(t *testing.T) {
	b := NewBridge(10)
	emb, err := b.Embed(sampleSeq(64), Options{Method: engine.MethodStatistical, TargetDim: 256})
	require.NoError(t, err)
	assert.Len(t, emb.Vector, 256)
}

func TestEmbed_CacheHitIsBitIdentical(t *testing.T) {
	b := NewBridge(10)
	seq := sampleSeq(64)
	opts := Options{Method: engine.MethodHybrid, TargetDim: 128, Normalize: true, UseCache: true}

	first, err := b.Embed(seq, opts)
	require.NoError(t, err)
	second, err := b.Embed(seq, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, 1, b.CacheSize())
}

func TestEmbed_LearnedMethodUnsupported(t *testing.T) {
	b := NewBridge(10)
	_, err := b.Embed(sampleSeq(64), Options{Method: engine.MethodLearned, TargetDim: 128})
	assert.ErrorIs(t, err, engine.ErrUnsupportedMethod)
}

func TestEmbed_ShortSequenceIsEmptySequenceError(t *testing.T) {
	b := NewBridge(10)
	seq := engine.Sequence{Samples: []float64{1}}
	_, err := b.Embed(seq, Options{Method: engine.MethodStatistical, TargetDim: 128})
	assert.ErrorIs(t, err, engine.ErrEmptySequence)
}

func TestEmbed_CacheEvictsLeastRecentlyUsed(t *testing.T) {
	b := NewBridge(2)
	opts := Options{Method: engine.MethodStatistical, TargetDim: 128, UseCache: true}

	seqA := sampleSeq(64)
	seqB, _ := engine.NewSequence(negate(seqA.Samples), 2000, engine.SequenceMetadata{})
	seqC, _ := engine.NewSequence(scale(seqA.Samples, 3), 3000, engine.SequenceMetadata{})

	_, err := b.Embed(seqA, opts)
	require.NoError(t, err)
	_, err = b.Embed(seqB, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, b.CacheSize())

	// Touch A so B becomes LRU, then insert C, which should evict B.
	_, err = b.Embed(seqA, opts)
	require.NoError(t, err)
	_, err = b.Embed(seqC, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, b.CacheSize())

	keyB := cacheKey(opts.Method, opts.IncludeWavelet, seqB.Samples)
	_, ok := b.cache.get(keyB)
	assert.False(t, ok, "B should have been evicted as least-recently-used")
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func scale(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}
