package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine"
)

func TestStatistical_Length(t *testing.T) {
	out, err := (&Statistical{}).Extract([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Len(t, out, engine.StatisticalFeatureCount)
}

func TestStatistical_SingleElement(t *testing.T) {
	out, err := (&Statistical{}).Extract([]float64{42})
	require.NoError(t, err)
	require.Len(t, out, engine.StatisticalFeatureCount)
	// variance index 2, skewness index 3, kurtosis index 4
	assert.Equal(t, 0.0, out[2])
	assert.Equal(t, 0.0, out[3])
	assert.Equal(t, 0.0, out[4])
	assert.Equal(t, 42.0, out[0]) // mean
	assert.Equal(t, 42.0, out[5]) // min
	assert.Equal(t, 42.0, out[6]) // max
}

func TestStatistical_EmptyIsInvalid(t *testing.T) {
	_, err := (&Statistical{}).Extract(nil)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestStatistical_ConstantVectorZeroVariance(t *testing.T) {
	v := []float64{5, 5, 5, 5, 5}
	out, err := (&Statistical{}).Extract(v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[2]) // variance
	assert.Equal(t, 0.0, out[3]) // skewness
	assert.Equal(t, 0.0, out[4]) // kurtosis
}
