package engine

// Fixed feature-group widths from the data model. These are contracts: the
// extractors in engine/features must produce exactly these lengths, and the
// embedding bridge concatenates feature groups in this declared order.
const (
	StatisticalFeatureCount = 12
	SpectralFeatureCount    = 35
	WaveletFeatureCount     = 64
	// DTWFeaturesPerTemplate is the width of the 3-tuple (distance,
	// path-length ratio, alignment score) produced per template.
	DTWFeaturesPerTemplate = 3
)

// Method names the feature-extraction strategy used to build an Embedding.
// Method selection is a tagged union dispatched at embed-call time (see
// engine/features.Extractor); "learned" is reserved and always rejected
// with ErrUnsupportedMethod.
type Method string

const (
	MethodStatistical Method = "statistical"
	MethodFrequency   Method = "frequency"
	MethodDTW         Method = "dtw"
	MethodWavelet     Method = "wavelet"
	MethodHybrid      Method = "hybrid"
	MethodLearned     Method = "learned" // reserved, always unsupported
)

// ValidMethods lists the methods the engine accepts at construction time
// (excludes the reserved "learned").
func ValidMethods() []Method {
	return []Method{MethodStatistical, MethodFrequency, MethodDTW, MethodWavelet, MethodHybrid}
}

// IsValidMethod reports whether m is one of the implemented methods.
func IsValidMethod(m Method) bool {
	for _, v := range ValidMethods() {
		if v == m {
			return true
		}
	}
	return false
}

// FeatureBundle is the tagged union of feature groups produced for a
// Sequence. Groups not requested by the active Method are left nil/empty;
// the embedding bridge only concatenates the groups the method calls for.
type FeatureBundle struct {
	// Statistical holds the 12 moments/quantile features, always present
	// when Method is statistical or hybrid.
	Statistical []float64

	// Spectral holds the 35 FFT-derived features, present for frequency or
	// hybrid.
	Spectral []float64

	// DTW holds 3 floats per template (distance, path-ratio, alignment),
	// present for dtw, or hybrid with a non-empty template set.
	DTW []float64

	// Wavelet holds the 64 Haar-derived features, present for wavelet, or
	// hybrid with IncludeWavelet set.
	Wavelet []float64
}

// Concat returns the feature groups concatenated in the fixed, documented
// order: statistical, spectral, dtw, wavelet. Groups not populated
// contribute nothing to the result.
func (fb FeatureBundle) Concat() []float64 {
	total := len(fb.Statistical) + len(fb.Spectral) + len(fb.DTW) + len(fb.Wavelet)
	out := make([]float64, 0, total)
	out = append(out, fb.Statistical...)
	out = append(out, fb.Spectral...)
	out = append(out, fb.DTW...)
	out = append(out, fb.Wavelet...)
	return out
}
