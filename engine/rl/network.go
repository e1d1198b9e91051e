package rl

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/vectorstream/patternengine/engine"
)

// layerSizes is the shared hidden-layer topology for both actor and critic
// networks: state_dim=20 -> 128 -> 64 -> head.
var layerSizes = []int{engine.StateDim, 128, 64}

// denseLayer is a single fully-connected layer with weights, bias, and the
// pre-activation input cached from the last forward pass (needed for the
// backward pass).
type denseLayer struct {
	w, b     *mat.Dense
	lastIn   *mat.Dense
	lastPre  *mat.Dense
	activate func(float64) float64
	derivate func(float64) float64 // derivative in terms of the activated output
}

func newDenseLayer(in, out int, rng *rand.Rand, activate, derivate func(float64) float64) *denseLayer {
	w := mat.NewDense(out, in, nil)
	scale := math.Sqrt(2.0 / float64(in))
	for i := 0; i < out; i++ {
		for j := 0; j < in; j++ {
			w.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	b := mat.NewDense(out, 1, nil)
	return &denseLayer{w: w, b: b, activate: activate, derivate: derivate}
}

func (l *denseLayer) forward(x *mat.Dense) *mat.Dense {
	l.lastIn = x
	rows, _ := l.w.Dims()
	pre := mat.NewDense(rows, 1, nil)
	pre.Mul(l.w, x)
	pre.Add(pre, l.b)
	l.lastPre = mat.DenseCopyOf(pre)

	out := mat.NewDense(rows, 1, nil)
	out.Apply(func(i, j int, v float64) float64 { return l.activate(v) }, pre)
	return out
}

// backward takes dOut (gradient of loss w.r.t. this layer's activated
// output), applies the activation derivative, updates weights/bias in
// place with learning rate lr, and returns the gradient to propagate to
// the previous layer.
func (l *denseLayer) backward(dOut *mat.Dense, lr float64) *mat.Dense {
	rows, _ := dOut.Dims()
	delta := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		activated := l.activate(l.lastPre.At(i, 0))
		delta.Set(i, 0, dOut.At(i, 0)*l.derivate(activated))
	}

	var dW mat.Dense
	dW.Mul(delta, l.lastIn.T())

	var dPrev mat.Dense
	dPrev.Mul(l.w.T(), delta)

	l.w.Sub(l.w, scaledDense(&dW, lr))
	l.b.Sub(l.b, scaledDense(delta, lr))

	return &dPrev
}

func scaledDense(m *mat.Dense, s float64) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Scale(s, out)
	return out
}

func relu(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func reluDerivative(activated float64) float64 {
	if activated <= 0 {
		return 0
	}
	return 1
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func sigmoidDerivative(activated float64) float64 {
	return activated * (1 - activated)
}

func identity(v float64) float64 { return v }

func identityDerivative(float64) float64 { return 1 }

func vecToColumn(v []float64) *mat.Dense {
	return mat.NewDense(len(v), 1, append([]float64(nil), v...))
}

func columnToVec(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out
}
