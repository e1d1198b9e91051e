package hnsw

import "github.com/vectorstream/patternengine/engine"

// OrchestratorAdapter adapts an Index to engine.Searcher.
type OrchestratorAdapter struct {
	Index *Index
}

// Search implements engine.Searcher.
func (a OrchestratorAdapter) Search(query []float64, k int) ([]engine.SearchHit, error) {
	results, err := a.Index.Search(query, k)
	if err != nil {
		return nil, err
	}
	out := make([]engine.SearchHit, len(results))
	for i, r := range results {
		out[i] = engine.SearchHit{ID: r.ID, Similarity: r.Similarity}
	}
	return out, nil
}
