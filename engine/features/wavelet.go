package features

import "github.com/vectorstream/patternengine/engine"

// waveletScales are the Haar analysis scales used to build the 64-float
// wavelet feature vector.
var waveletScales = []int{1, 2, 4, 8, 16, 32}

// coeffsPerScale is how many coefficients each scale contributes after
// uniform-stride subsampling, so that 6 scales * (10 coeffs + 1 energy)
// truncates/pads to exactly 64.
const coeffsPerScale = 10

// Wavelet extracts 64 features: Haar coefficients at scales
// {1,2,4,8,16,32}, each subsampled to 10 values, plus per-scale energy,
// concatenated and truncated/padded to exactly 64.
type Wavelet struct{}

// Extract computes the wavelet feature vector. Each scale's coefficient is
// the mean absolute deviation within non-overlapping windows of that
// scale's size.
func (Wavelet) Extract(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, engine.InvalidInputf("wavelet: empty input")
	}

	out := make([]float64, 0, engine.WaveletFeatureCount)
	for _, scale := range waveletScales {
		coeffs := haarCoefficients(samples, scale)
		sub := subsample(coeffs, coeffsPerScale)
		out = append(out, sub...)

		energy := 0.0
		for _, c := range coeffs {
			energy += c * c
		}
		out = append(out, energy)
	}

	return resize(out, engine.WaveletFeatureCount), nil
}

// haarCoefficients computes one coefficient per non-overlapping window of
// size scale: the mean absolute deviation of samples within that window. A
// window shorter than scale at the sequence's tail is still included, sized
// to what remains.
func haarCoefficients(samples []float64, scale int) []float64 {
	if scale < 1 {
		scale = 1
	}
	var coeffs []float64
	for start := 0; start < len(samples); start += scale {
		end := start + scale
		if end > len(samples) {
			end = len(samples)
		}
		window := samples[start:end]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(len(window))

		mad := 0.0
		for _, v := range window {
			d := v - mean
			if d < 0 {
				d = -d
			}
			mad += d
		}
		mad /= float64(len(window))
		coeffs = append(coeffs, mad)
	}
	if len(coeffs) == 0 {
		coeffs = []float64{0}
	}
	return coeffs
}

// subsample selects exactly k values from coeffs via uniform-stride
// selection. If coeffs has fewer than k elements, the result is
// zero-padded to length k.
func subsample(coeffs []float64, k int) []float64 {
	out := make([]float64, k)
	n := len(coeffs)
	if n == 0 {
		return out
	}
	for i := 0; i < k; i++ {
		idx := (i * n) / k
		if idx >= n {
			idx = n - 1
		}
		out[i] = coeffs[idx]
	}
	return out
}

// resize truncates or zero-pads v to exactly length n.
func resize(v []float64, n int) []float64 {
	if len(v) == n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}
