package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vectorstream/patternengine/engine"
)

// Statistical extracts the 12 moment/quantile features: mean, std,
// variance, skewness, kurtosis, min, max, range, median, q25, q75, iqr.
type Statistical struct{}

// Extract computes the statistical feature vector. A single-sample input
// is a legal boundary case: variance (and therefore std/skew/kurt) is
// defined as 0, matching the testable-properties boundary behavior.
func (Statistical) Extract(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, engine.InvalidInputf("statistical: empty input")
	}

	mean := stat.Mean(samples, nil)
	variance := sampleVariance(samples, mean)
	std := 0.0
	if variance > 0 {
		std = math.Sqrt(variance)
	}

	var skew, kurt float64
	if std > 0 {
		skew = stat.Skew(samples, nil)
		kurt = stat.ExKurtosis(samples, nil)
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	min := sorted[0]
	max := sorted[len(sorted)-1]
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	return []float64{
		mean, std, variance, skew, kurt,
		min, max, max - min, median, q25, q75, q75 - q25,
	}, nil
}

// sampleVariance computes the two-pass sample variance (population
// variance when len==1, returning 0 rather than NaN).
func sampleVariance(samples []float64, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var ss float64
	for _, v := range samples {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(samples)-1)
}

