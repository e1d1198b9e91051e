package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine"
)

func unitVector(dim int, rng *rand.Rand) []float64 {
	v := make([]float64, dim)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func TestIndex_InsertSearchFindsSelf(t *testing.T) {
	ix := New(8, DefaultConfig())
	rng := rand.New(rand.NewSource(1))
	v := unitVector(8, rng)
	require.NoError(t, ix.Insert("a", v))

	results, err := ix.Search(v, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, engine.PatternId("a"), results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestIndex_EmptyIndexSearchReturnsEmptyNotError(t *testing.T) {
	ix := New(8, DefaultConfig())
	results, err := ix.Search(make([]float64, 8), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_DimensionMismatchOnInsertAndSearch(t *testing.T) {
	ix := New(8, DefaultConfig())
	err := ix.Insert("a", make([]float64, 4))
	assert.ErrorIs(t, err, engine.ErrDimensionMismatch)

	require.NoError(t, ix.Insert("b", make([]float64, 8)))
	_, err = ix.Search(make([]float64, 4), 1)
	assert.ErrorIs(t, err, engine.ErrDimensionMismatch)
}

func TestIndex_DeleteRemovesFromSearchResults(t *testing.T) {
	ix := New(8, DefaultConfig())
	rng := rand.New(rand.NewSource(2))
	v := unitVector(8, rng)
	require.NoError(t, ix.Insert("a", v))
	require.NoError(t, ix.Insert("b", unitVector(8, rng)))

	require.NoError(t, ix.Delete("a"))
	results, err := ix.Search(v, 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, engine.PatternId("a"), r.ID)
	}
}

func TestIndex_DeleteUnknownIDErrors(t *testing.T) {
	ix := New(8, DefaultConfig())
	err := ix.Delete("nope")
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

// exactSearch brute-forces the top-k cosine neighbors for recall comparison.
func exactSearch(vectors map[engine.PatternId][]float64, query []float64, k int) []engine.PatternId {
	type scored struct {
		id  engine.PatternId
		sim float64
	}
	var all []scored
	for id, v := range vectors {
		all = append(all, scored{id: id, sim: dot(query, v)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].sim > all[j].sim })
	if len(all) > k {
		all = all[:k]
	}
	out := make([]engine.PatternId, len(all))
	for i, s := range all {
		out[i] = s.id
	}
	return out
}

func TestIndex_RecallAt10IsHighOnRandomData(t *testing.T) {
	const n = 500
	const dim = 32
	rng := rand.New(rand.NewSource(42))

	ix := New(dim, Config{M: 16, EfConstruction: 200, EfSearch: 80, Seed: 42})
	vectors := make(map[engine.PatternId][]float64, n)
	for i := 0; i < n; i++ {
		id := engine.PatternId(fmt.Sprintf("p%d", i))
		v := unitVector(dim, rng)
		vectors[id] = v
		require.NoError(t, ix.Insert(id, v))
	}

	const trials = 20
	const k = 10
	var totalRecall float64
	for t2 := 0; t2 < trials; t2++ {
		query := unitVector(dim, rng)
		exact := exactSearch(vectors, query, k)
		approx, err := ix.Search(query, k)
		require.NoError(t, err)

		exactSet := make(map[engine.PatternId]bool, len(exact))
		for _, id := range exact {
			exactSet[id] = true
		}
		hits := 0
		for _, r := range approx {
			if exactSet[r.ID] {
				hits++
			}
		}
		totalRecall += float64(hits) / float64(k)
	}
	avgRecall := totalRecall / trials
	assert.GreaterOrEqual(t, avgRecall, 0.7, "average recall@10 should be reasonably high")
}

func TestIndex_LenTracksLiveNodes(t *testing.T) {
	ix := New(4, DefaultConfig())
	require.NoError(t, ix.Insert("a", unitVector(4, rand.New(rand.NewSource(1)))))
	require.NoError(t, ix.Insert("b", unitVector(4, rand.New(rand.NewSource(2)))))
	assert.Equal(t, 2, ix.Len())

	require.NoError(t, ix.Delete("a"))
	assert.Equal(t, 1, ix.Len())
}
