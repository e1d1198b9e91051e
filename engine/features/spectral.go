package features

import (
	"math"
	"math/bits"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/vectorstream/patternengine/engine"
)

// spectralMagnitudeCount is the number of leading normalized FFT
// magnitudes carried into the feature vector.
const spectralMagnitudeCount = 32

// magnitudeFloor keeps the normalization divisor away from zero for an
// all-zero (or numerically negligible) spectrum.
const magnitudeFloor = 1e-10

// Spectral extracts 35 features: the first 32 normalized FFT magnitude
// coefficients, spectral entropy, centroid, and rolloff.
type Spectral struct{}

// Extract zero-pads samples to the next power of two, computes the real
// DFT, and derives the 35 spectral features. A single-sample input yields
// an all-zero feature vector (the boundary case the testable properties
// require): there is no meaningful frequency content to report.
func (Spectral) Extract(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, engine.InvalidInputf("spectral: empty input")
	}
	if len(samples) == 1 {
		return make([]float64, engine.SpectralFeatureCount), nil
	}

	n := nextPowerOfTwo(len(samples))
	padded := make([]float64, n)
	copy(padded, samples)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, padded)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplxAbs(c)
	}

	maxMag := 0.0
	for _, m := range mags {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag < magnitudeFloor {
		maxMag = magnitudeFloor
	}

	normalized := make([]float64, spectralMagnitudeCount)
	for i := 0; i < spectralMagnitudeCount; i++ {
		if i < len(mags) {
			normalized[i] = mags[i] / maxMag
		}
	}

	entropy := spectralEntropy(mags, maxMag)
	centroid := spectralCentroid(mags, n)
	rolloff := spectralRolloff(mags, n)

	out := make([]float64, 0, engine.SpectralFeatureCount)
	out = append(out, normalized...)
	out = append(out, entropy, centroid, rolloff)
	return out, nil
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 2, since
// a length-1 FFT carries no frequency information).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// spectralEntropy treats normalized magnitudes as a probability
// distribution and scales Shannon entropy by log2(N), per spec.md section
// 4.2.
func spectralEntropy(mags []float64, maxMag float64) float64 {
	sum := 0.0
	for _, m := range mags {
		sum += m
	}
	if sum <= 0 {
		return 0
	}
	entropy := 0.0
	for _, m := range mags {
		if m <= 0 {
			continue
		}
		p := m / sum
		entropy -= p * math.Log2(p)
	}
	n := float64(len(mags))
	if n <= 1 {
		return 0
	}
	return entropy / math.Log2(n)
}

// spectralCentroid is the magnitude-weighted mean index, divided by n.
func spectralCentroid(mags []float64, n int) float64 {
	var weighted, total float64
	for i, m := range mags {
		weighted += float64(i) * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return (weighted / total) / float64(n)
}

// spectralRolloff is the smallest index whose cumulative squared magnitude
// reaches 95% of total energy, divided by n.
func spectralRolloff(mags []float64, n int) float64 {
	var total float64
	for _, m := range mags {
		total += m * m
	}
	if total == 0 {
		return 0
	}
	threshold := 0.95 * total
	var cum float64
	for i, m := range mags {
		cum += m * m
		if cum >= threshold {
			return float64(i) / float64(n)
		}
	}
	return float64(len(mags)-1) / float64(n)
}
