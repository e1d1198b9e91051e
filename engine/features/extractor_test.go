package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine"
)

func TestBundle_HybridWithTemplatesAndWavelet(t *testing.T) {
	samples := make([]float64, 64)
	for i := range samples {
		samples[i] = float64(i)
	}
	templates := [][]float64{{1, 2, 3}}

	fb, err := Bundle(samples, engine.MethodHybrid, templates, true)
	require.NoError(t, err)
	assert.Len(t, fb.Statistical, engine.StatisticalFeatureCount)
	assert.Len(t, fb.Spectral, engine.SpectralFeatureCount)
	assert.Len(t, fb.DTW, engine.DTWFeaturesPerTemplate)
	assert.Len(t, fb.Wavelet, engine.WaveletFeatureCount)
}

func TestBundle_HybridWithoutTemplatesOrWavelet(t *testing.T) {
	samples := make([]float64, 32)
	fb, err := Bundle(samples, engine.MethodHybrid, nil, false)
	require.NoError(t, err)
	assert.NotEmpty(t, fb.Statistical)
	assert.NotEmpty(t, fb.Spectral)
	assert.Empty(t, fb.DTW)
	assert.Empty(t, fb.Wavelet)
}

func TestBundle_StatisticalOnly(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5}
	fb, err := Bundle(samples, engine.MethodStatistical, nil, false)
	require.NoError(t, err)
	assert.Len(t, fb.Statistical, engine.StatisticalFeatureCount)
	assert.Empty(t, fb.Spectral)
	assert.Empty(t, fb.DTW)
	assert.Empty(t, fb.Wavelet)
}
