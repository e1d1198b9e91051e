package features

import (
	"math"

	"github.com/vectorstream/patternengine/engine"
)

// DTW extracts, for each of T templates, a 3-tuple (normalized distance,
// warping-path-length ratio, alignment score), for 3*T features total.
// T=0 yields the fixed 3-tuple ([0],[1],[1]) per spec.md section 4.2.
type DTW struct {
	// Templates are held by reference; changes to the slice take effect at
	// the next Extract call (spec.md section 6's templates interface).
	Templates [][]float64
}

// Extract computes the DTW feature 3-tuples against t.Templates. DTW
// tolerates length differences between query and template by design, so
// TemplateDimMismatch is never raised.
func (t DTW) Extract(samples []float64) ([]float64, error) {
	if len(t.Templates) == 0 {
		return []float64{0, 1, 1}, nil
	}
	out := make([]float64, 0, len(t.Templates)*engine.DTWFeaturesPerTemplate)
	for _, tmpl := range t.Templates {
		dist := distance(samples, tmpl)
		denom := math.Max(float64(len(samples)), float64(len(tmpl)))
		var normDist float64
		if denom > 0 {
			normDist = dist / denom
		}
		lengthRatio := 0.0
		if denom > 0 {
			lengthRatio = math.Abs(float64(len(samples)-len(tmpl))) / denom
		}
		alignment := 1.0 / (1.0 + normDist)
		out = append(out, normDist, lengthRatio, alignment)
	}
	return out, nil
}

// distance computes the DTW distance between a and b: the minimum
// accumulated cost over all monotone, contiguous alignment paths on a cost
// matrix using absolute-difference local cost and the standard
// three-predecessor recurrence (match, insertion, deletion). Uses a
// two-row rolling buffer since only the distance, not the alignment path,
// is needed here.
//
// No Sakoe-Chiba band is applied (spec.md leaves this to the
// implementer); every cell within the two sequences' full cross product is
// reachable.
func distance(a, b []float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}

	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	inf := math.Inf(1)

	for j := 1; j <= m; j++ {
		prev[j] = inf
	}

	for i := 1; i <= n; i++ {
		curr[0] = inf
		for j := 1; j <= m; j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			match := prev[j-1]
			insert := prev[j]
			del := curr[j-1]
			curr[j] = cost + min3(match, insert, del)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
