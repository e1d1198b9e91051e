// Package quantize compresses and decompresses float64 vectors to 4-bit or
// 8-bit integer codes, implementing the Quantizer component (C1) of the
// pattern engine: scale = (max-min)/255 (8-bit) or /15 (4-bit), offset =
// min, code_i = round((v_i - offset) / scale).
package quantize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vectorstream/patternengine/engine"
)

// Quantize8 compresses v to 8-bit codes. A constant vector (max == min) is
// a legal edge case: scale is set to 1 and every code is 0, so dequantize
// reproduces the constant exactly.
func Quantize8(v []float64) (engine.QuantizedVector, error) {
	codes, scale, offset, err := quantizeCommon(v, 255)
	if err != nil {
		return engine.QuantizedVector{}, err
	}
	return engine.QuantizedVector{Codes: codes, Scale: scale, Offset: offset, Bits: engine.Bits8, Dim: len(v)}, nil
}

// Dequantize8 reconstructs an approximation of the original vector from an
// 8-bit QuantizedVector.
func Dequantize8(q engine.QuantizedVector) ([]float64, error) {
	if q.Bits != engine.Bits8 {
		return nil, engine.InvalidInputf("dequantize8: code is %d-bit, not 8-bit", q.Bits)
	}
	if len(q.Codes) != q.Dim {
		return nil, lengthMismatch(q.Dim, len(q.Codes))
	}
	out := make([]float64, q.Dim)
	for i, c := range q.Codes {
		out[i] = float64(c)*q.Scale + q.Offset
	}
	return out, nil
}

// Quantize4 compresses v to 4-bit codes packed two-per-byte: byte i holds
// (code[2i]<<4)|code[2i+1]. An odd tail's missing second code is zero.
func Quantize4(v []float64) (engine.QuantizedVector, error) {
	codes4, scale, offset, err := quantizeCommon(v, 15)
	if err != nil {
		return engine.QuantizedVector{}, err
	}
	packed := make([]uint8, (len(codes4)+1)/2)
	for i := 0; i < len(codes4); i += 2 {
		hi := codes4[i]
		var lo uint8
		if i+1 < len(codes4) {
			lo = codes4[i+1]
		}
		packed[i/2] = (hi << 4) | (lo & 0x0F)
	}
	return engine.QuantizedVector{Codes: packed, Scale: scale, Offset: offset, Bits: engine.Bits4, Dim: len(v)}, nil
}

// Dequantize4 reconstructs an approximation of the original vector from a
// 4-bit QuantizedVector.
func Dequantize4(q engine.QuantizedVector) ([]float64, error) {
	if q.Bits != engine.Bits4 {
		return nil, engine.InvalidInputf("dequantize4: code is %d-bit, not 4-bit", q.Bits)
	}
	expectedBytes := (q.Dim + 1) / 2
	if len(q.Codes) != expectedBytes {
		return nil, lengthMismatch(expectedBytes, len(q.Codes))
	}
	out := make([]float64, q.Dim)
	for i := 0; i < q.Dim; i++ {
		b := q.Codes[i/2]
		var code uint8
		if i%2 == 0 {
			code = (b >> 4) & 0x0F
		} else {
			code = b & 0x0F
		}
		out[i] = float64(code)*q.Scale + q.Offset
	}
	return out, nil
}

// quantizeCommon implements the shared scale/offset/code derivation for
// both bit widths; levels is 255 for 8-bit, 15 for 4-bit.
func quantizeCommon(v []float64, levels float64) (codes []uint8, scale, offset float64, err error) {
	if len(v) == 0 {
		return nil, 0, 0, engine.InvalidInputf("quantize: empty input")
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, 0, 0, engine.InvalidInputf("quantize: sample %d is non-finite: %v", i, x)
		}
	}

	minV := floats.Min(v)
	maxV := floats.Max(v)

	if maxV == minV {
		// Constant vector: legal edge case, scale=1, all codes=0.
		return make([]uint8, len(v)), 1, minV, nil
	}

	scale = (maxV - minV) / levels
	offset = minV
	codes = make([]uint8, len(v))
	for i, x := range v {
		code := math.Round((x - offset) / scale)
		if code < 0 {
			code = 0
		}
		if code > levels {
			code = levels
		}
		codes[i] = uint8(code)
	}
	return codes, scale, offset, nil
}

func lengthMismatch(want, got int) error {
	return fmt.Errorf("dequantize: expected %d code bytes, got %d: %w", want, got, engine.ErrLengthMismatch)
}
