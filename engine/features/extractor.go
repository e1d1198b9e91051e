// Package features implements the statistical, spectral, DTW, and wavelet
// feature extractors (C2) that feed the embedding bridge. Each extractor is
// pure and deterministic: same samples in, same feature vector out.
//
// Method selection is a tagged union dispatched at embed-call time (the
// "dynamic dispatch on feature methods" design note): Extractor is a single
// small interface with one Extract method per variant, no reflection.
package features

import (
	"github.com/vectorstream/patternengine/engine"
)

// Extractor produces a fixed-length feature vector from raw samples.
type Extractor interface {
	// Extract computes the feature vector for samples. Implementations
	// must be pure: no shared mutable state, no I/O.
	Extract(samples []float64) ([]float64, error)
}

// Bundle computes the FeatureBundle required by method, given the
// templates used by the DTW extractor (ignored for methods that don't use
// DTW) and whether wavelet features should be folded into a hybrid bundle.
func Bundle(samples []float64, method engine.Method, templates [][]float64, includeWavelet bool) (engine.FeatureBundle, error) {
	var fb engine.FeatureBundle
	var err error

	needStatistical := method == engine.MethodStatistical || method == engine.MethodHybrid
	needSpectral := method == engine.MethodFrequency || method == engine.MethodHybrid
	needDTW := method == engine.MethodDTW || (method == engine.MethodHybrid && len(templates) > 0)
	needWavelet := method == engine.MethodWavelet || (method == engine.MethodHybrid && includeWavelet)

	if needStatistical {
		fb.Statistical, err = (&Statistical{}).Extract(samples)
		if err != nil {
			return engine.FeatureBundle{}, err
		}
	}
	if needSpectral {
		fb.Spectral, err = (&Spectral{}).Extract(samples)
		if err != nil {
			return engine.FeatureBundle{}, err
		}
	}
	if needDTW {
		fb.DTW, err = (&DTW{Templates: templates}).Extract(samples)
		if err != nil {
			return engine.FeatureBundle{}, err
		}
	}
	if needWavelet {
		fb.Wavelet, err = (&Wavelet{}).Extract(samples)
		if err != nil {
			return engine.FeatureBundle{}, err
		}
	}
	return fb, nil
}
