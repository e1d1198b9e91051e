package embed

import "github.com/vectorstream/patternengine/engine"

// OrchestratorAdapter adapts a Bridge to engine.Embedder, embedding with a
// fixed target dimension and the remaining Options held constant; only the
// method varies per call, since that's the one embedding parameter the
// adaptive learning engine (C9) tunes per spec.md section 4.9.
type OrchestratorAdapter struct {
	Bridge *Bridge
	Opts   Options
}

// Embed implements engine.Embedder.
func (a OrchestratorAdapter) Embed(seq engine.Sequence, method engine.Method) (engine.Embedding, error) {
	opts := a.Opts
	opts.Method = method
	return a.Bridge.Embed(seq, opts)
}
