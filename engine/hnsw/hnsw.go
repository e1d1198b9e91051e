// Package hnsw implements the HNSW approximate-nearest-neighbor index
// (C5): a multi-layer proximity graph over unit vectors, searched by
// cosine similarity (equivalently dot product, since vectors are unit
// norm). Nodes live in a flat arena addressed by integer index rather than
// a heap-pointer graph, so deletes tombstone a slot instead of
// invalidating pointers held elsewhere.
package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/vectorstream/patternengine/engine"
)

// Config tunes graph construction and search.
type Config struct {
	M              int // max neighbors per node per layer above 0
	EfConstruction int
	EfSearch       int
	Seed           int64
}

// DefaultConfig returns spec.md section 4.5's stated defaults.
func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 200, EfSearch: 50}
}

// node is one arena slot. A tombstoned node has live=false and its vector
// and neighbors slices released, but its index stays reserved so other
// nodes' neighbor lists (storing indices, not pointers) remain valid to
// dereference and skip.
type node struct {
	id        engine.PatternId
	vector    []float64
	topLayer  int
	neighbors [][]int32 // neighbors[layer] = indices into arena
	live      bool
}

// Index is an HNSW graph over fixed-dimension unit vectors.
type Index struct {
	cfg       Config
	dim       int
	rng       *rand.Rand
	mL        float64
	arena     []node
	idToIndex map[engine.PatternId]int32
	entry     int32 // -1 if empty
	maxLayer  int
}

// New constructs an empty Index for vectors of the given dimension.
func New(dim int, cfg Config) *Index {
	if cfg.M <= 0 {
		cfg = DefaultConfig()
	}
	return &Index{
		cfg:       cfg,
		dim:       dim,
		rng:       engine.NewPartitionedRNG(cfg.Seed).ForSubsystem(engine.SubsystemHNSW),
		mL:        1 / math.Log(float64(cfg.M)),
		idToIndex: make(map[engine.PatternId]int32),
		entry:     -1,
		maxLayer:  -1,
	}
}

// Len returns the number of live nodes.
func (ix *Index) Len() int {
	n := 0
	for _, nd := range ix.arena {
		if nd.live {
			n++
		}
	}
	return n
}

// Edges returns the total number of directed neighbor links across all
// layers of all live nodes, an observability figure for the periodic stats
// snapshot (spec.md section 6 egress).
func (ix *Index) Edges() int {
	n := 0
	for _, nd := range ix.arena {
		if !nd.live {
			continue
		}
		for _, layer := range nd.neighbors {
			n += len(layer)
		}
	}
	return n
}

func (ix *Index) maxNeighbors(layer int) int {
	if layer == 0 {
		return 2 * ix.cfg.M
	}
	return ix.cfg.M
}

// sampleLayer draws L = floor(-ln(U) * m_L), U in (0,1].
func (ix *Index) sampleLayer() int {
	u := ix.rng.Float64()
	if u <= 0 {
		u = 1e-12
	}
	return int(math.Floor(-math.Log(u) * ix.mL))
}

// Insert adds (id, vector) to the graph. vector must already be unit
// norm; Insert does not normalize it.
func (ix *Index) Insert(id engine.PatternId, vector []float64) error {
	if len(vector) != ix.dim {
		return fmt.Errorf("hnsw: vector dim %d != index dim %d: %w", len(vector), ix.dim, engine.ErrDimensionMismatch)
	}
	if idx, ok := ix.idToIndex[id]; ok {
		// Re-insert of an existing live id: treat as update-in-place of
		// the vector only, topology is left as-is.
		ix.arena[idx].vector = append([]float64(nil), vector...)
		return nil
	}

	level := ix.sampleLayer()
	newIdx := int32(len(ix.arena))
	nd := node{
		id:        id,
		vector:    append([]float64(nil), vector...),
		topLayer:  level,
		neighbors: make([][]int32, level+1),
		live:      true,
	}
	ix.arena = append(ix.arena, nd)
	ix.idToIndex[id] = newIdx

	if ix.entry == -1 {
		ix.entry = newIdx
		ix.maxLayer = level
		return nil
	}

	cur := ix.entry
	// Greedy descent with beam width 1 from the top layer down to level+1.
	for l := ix.maxLayer; l > level; l-- {
		cur = ix.greedyClosest(cur, vector, l)
	}

	// From level down to 0: beam search with ef_construction, connect.
	for l := min(level, ix.maxLayer); l >= 0; l-- {
		candidates := ix.searchLayer(vector, cur, ix.cfg.EfConstruction, l)
		selected := ix.selectNeighbors(vector, candidates, ix.maxNeighbors(l))
		ix.arena[newIdx].neighbors[l] = selected
		for _, nbr := range selected {
			ix.connect(nbr, newIdx, l)
		}
		if len(candidates) > 0 {
			cur = candidates[0].idx
		}
	}

	if level > ix.maxLayer {
		ix.maxLayer = level
		ix.entry = newIdx
	}
	return nil
}

// connect adds `to` as a neighbor of `from` at layer l, trimming from's
// neighbor list back to its cap via selectNeighbors if it overflows.
func (ix *Index) connect(from, to int32, l int) {
	nd := &ix.arena[from]
	if l > nd.topLayer {
		return
	}
	for len(nd.neighbors) <= l {
		nd.neighbors = append(nd.neighbors, nil)
	}
	nd.neighbors[l] = append(nd.neighbors[l], to)

	cap := ix.maxNeighbors(l)
	if len(nd.neighbors[l]) > cap {
		cands := make([]candidate, 0, len(nd.neighbors[l]))
		for _, n := range nd.neighbors[l] {
			if ix.arena[n].live {
				cands = append(cands, candidate{idx: n, dist: 1 - dot(nd.vector, ix.arena[n].vector)})
			}
		}
		nd.neighbors[l] = ix.selectNeighbors(nd.vector, cands, cap)
	}
}

// candidate pairs an arena index with its distance (1 - cosine similarity)
// from the query.
type candidate struct {
	idx  int32
	dist float64
}

// greedyClosest performs a single-step beam-width-1 greedy search at layer
// l starting from cur, returning the closest node found.
func (ix *Index) greedyClosest(cur int32, query []float64, l int) int32 {
	best := cur
	bestDist := 1 - dot(query, ix.arena[cur].vector)
	improved := true
	for improved {
		improved = false
		for _, nbr := range neighborsAt(&ix.arena[best], l) {
			if !ix.arena[nbr].live {
				continue
			}
			d := 1 - dot(query, ix.arena[nbr].vector)
			if d < bestDist {
				bestDist = d
				best = nbr
				improved = true
			}
		}
	}
	return best
}

func neighborsAt(nd *node, l int) []int32 {
	if l >= len(nd.neighbors) {
		return nil
	}
	return nd.neighbors[l]
}

// searchLayer runs a beam search of width ef at layer l starting from
// entry, returning up to ef candidates sorted by ascending distance.
func (ix *Index) searchLayer(query []float64, entry int32, ef int, l int) []candidate {
	visited := map[int32]bool{entry: true}
	entryDist := 1 - dot(query, ix.arena[entry].vector)

	candidatesHeap := []candidate{{idx: entry, dist: entryDist}}
	results := []candidate{{idx: entry, dist: entryDist}}

	for len(candidatesHeap) > 0 {
		sort.Slice(candidatesHeap, func(i, j int) bool { return candidatesHeap[i].dist < candidatesHeap[j].dist })
		c := candidatesHeap[0]
		candidatesHeap = candidatesHeap[1:]

		sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })
		worstResult := results[len(results)-1].dist
		if len(results) >= ef && c.dist > worstResult {
			break
		}

		for _, nbr := range neighborsAt(&ix.arena[c.idx], l) {
			if visited[nbr] || !ix.arena[nbr].live {
				continue
			}
			visited[nbr] = true
			d := 1 - dot(query, ix.arena[nbr].vector)

			sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })
			if len(results) < ef || d < results[len(results)-1].dist {
				candidatesHeap = append(candidatesHeap, candidate{idx: nbr, dist: d})
				results = append(results, candidate{idx: nbr, dist: d})
				if len(results) > ef {
					sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })
					results = results[:ef]
				}
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].dist != results[j].dist {
			return results[i].dist < results[j].dist
		}
		return ix.arena[results[i].idx].id < ix.arena[results[j].idx].id
	})
	return results
}

// selectNeighbors picks up to max closest candidates, the "simple: take M
// closest" heuristic from spec.md section 4.5.
func (ix *Index) selectNeighbors(query []float64, candidates []candidate, max int) []int32 {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return ix.arena[candidates[i].idx].id < ix.arena[candidates[j].idx].id
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]int32, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

// Result is one ranked hit from Search.
type Result struct {
	ID         engine.PatternId
	Similarity float64
}

// Search returns the k nearest neighbors of query by cosine similarity.
// An empty index returns an empty (not error) result, per spec.md section
// 4.5.
func (ix *Index) Search(query []float64, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("hnsw: query dim %d != index dim %d: %w", len(query), ix.dim, engine.ErrDimensionMismatch)
	}
	if ix.entry == -1 {
		return nil, nil
	}

	cur := ix.entry
	for l := ix.maxLayer; l >= 1; l-- {
		cur = ix.greedyClosest(cur, query, l)
	}

	candidates := ix.searchLayer(query, cur, max(ix.cfg.EfSearch, k), 0)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: ix.arena[c.idx].id, Similarity: 1 - c.dist}
	}
	return out, nil
}

// Delete unlinks id from every neighbor list and tombstones its arena
// slot. If id was the entry point, any remaining live node at the highest
// non-empty layer is promoted. Orphaned singletons may result, which is
// acceptable per spec.md section 4.5.
func (ix *Index) Delete(id engine.PatternId) error {
	idx, ok := ix.idToIndex[id]
	if !ok {
		return engine.InvalidInputf("hnsw: unknown id %q", id)
	}
	nd := &ix.arena[idx]
	for l, layerNeighbors := range nd.neighbors {
		for _, nbr := range layerNeighbors {
			ix.unlink(nbr, idx, l)
		}
	}
	nd.live = false
	nd.vector = nil
	nd.neighbors = nil
	delete(ix.idToIndex, id)

	if ix.entry == idx {
		ix.reassignEntry()
	}
	return nil
}

func (ix *Index) unlink(from, target int32, l int) {
	if l >= len(ix.arena[from].neighbors) {
		return
	}
	list := ix.arena[from].neighbors[l]
	out := list[:0]
	for _, n := range list {
		if n != target {
			out = append(out, n)
		}
	}
	ix.arena[from].neighbors[l] = out
}

func (ix *Index) reassignEntry() {
	for l := ix.maxLayer; l >= 0; l-- {
		for i := range ix.arena {
			if ix.arena[i].live && ix.arena[i].topLayer >= l {
				ix.entry = int32(i)
				ix.maxLayer = l
				return
			}
		}
	}
	ix.entry = -1
	ix.maxLayer = -1
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
