package quantize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine"
)

func sineVector(n int) []float64 {
	v := make([]float64, n)
	var sumSq float64
	for i := range v {
		v[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
		sumSq += v[i] * v[i]
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func rmse(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

func TestQuantize8_RMSEWithinBound(t *testing.T) {
	v := sineVector(64)
	q, err := Quantize8(v)
	require.NoError(t, err)
	deq, err := Dequantize8(q)
	require.NoError(t, err)
	assert.Less(t, rmse(v, deq), 0.01)
}

func TestQuantize4_RMSEWithinBound(t *testing.T) {
	v := sineVector(64)
	q, err := Quantize4(v)
	require.NoError(t, err)
	deq, err := Dequantize4(q)
	require.NoError(t, err)
	assert.Less(t, rmse(v, deq), 0.05)
}

func TestQuantize_ConstantVectorIsLegal(t *testing.T) {
	v := make([]float64, 16)
	for i := range v {
		v[i] = 3.0
	}
	q, err := Quantize8(v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Scale)
	for _, c := range q.Codes {
		assert.Equal(t, uint8(0), c)
	}
	deq, err := Dequantize8(q)
	require.NoError(t, err)
	for _, x := range deq {
		assert.Equal(t, 3.0, x)
	}
}

func TestQuantize_EmptyInputIsInvalid(t *testing.T) {
	_, err := Quantize8(nil)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestQuantize_NonFiniteIsInvalid(t *testing.T) {
	_, err := Quantize8([]float64{1, 2, math.NaN()})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	_, err = Quantize4([]float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestDequantize8_LengthMismatch(t *testing.T) {
	q := engine.QuantizedVector{Codes: []uint8{1, 2, 3}, Bits: engine.Bits8, Dim: 4}
	_, err := Dequantize8(q)
	assert.ErrorIs(t, err, engine.ErrLengthMismatch)
}

func TestDequantize4_LengthMismatch(t *testing.T) {
	q := engine.QuantizedVector{Codes: []uint8{1, 2, 3}, Bits: engine.Bits4, Dim: 100}
	_, err := Dequantize4(q)
	assert.ErrorIs(t, err, engine.ErrLengthMismatch)
}

func TestQuantize_Idempotent(t *testing.T) {
	v := sineVector(32)
	q, err := Quantize8(v)
	require.NoError(t, err)
	deq, err := Dequantize8(q)
	require.NoError(t, err)
	q2, err := Quantize8(deq)
	require.NoError(t, err)
	assert.Equal(t, q.Codes, q2.Codes)
}

func TestDequantize8_ElementwiseErrorBound(t *testing.T) {
	v := []float64{-2, -1, 0, 1, 2}
	q, err := Quantize8(v)
	require.NoError(t, err)
	deq, err := Dequantize8(q)
	require.NoError(t, err)
	bound := (4.0) / 255.0
	for i := range v {
		assert.LessOrEqual(t, math.Abs(v[i]-deq[i]), bound+1e-9)
	}
}
