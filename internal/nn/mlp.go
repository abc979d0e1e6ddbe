// Package nn implements the small fully connected networks used by the
// learner: batched forward passes, backpropagation, Adam and target-network
// soft updates, all on gonum dense matrices.
package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// outputInitRange bounds the uniform init of the last layer so fresh
// networks start with near-zero outputs.
const outputInitRange = 3e-3

// layer is an affine map x·W + b. W is in×out, b is 1×out.
type layer struct {
	w *mat.Dense
	b *mat.Dense
}

// MLP is a multilayer perceptron with ReLU hidden activations and a linear
// output layer. Rows of the input matrix are samples.
type MLP struct {
	sizes  []int
	layers []layer
}

// Trace keeps the intermediate values of a forward pass for Backward.
type Trace struct {
	inputs []*mat.Dense // input of each layer
	pre    []*mat.Dense // pre-activation output of each layer
}

// NewMLP builds a network with the given layer widths, input first. At
// least an input and an output width are required.
func NewMLP(sizes []int, rng *rand.Rand) *MLP {
	if len(sizes) < 2 {
		panic(fmt.Sprintf("nn: need at least 2 layer sizes, got %d", len(sizes)))
	}
	m := &MLP{sizes: append([]int(nil), sizes...)}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		bound := 1 / math.Sqrt(float64(in))
		if i+2 == len(sizes) {
			bound = outputInitRange
		}
		m.layers = append(m.layers, layer{
			w: uniformDense(in, out, bound, rng),
			b: uniformDense(1, out, bound, rng),
		})
	}
	return m
}

func uniformDense(r, c int, bound float64, rng *rand.Rand) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	return mat.NewDense(r, c, data)
}

// InputDim is the expected number of input columns.
func (m *MLP) InputDim() int { return m.sizes[0] }

// OutputDim is the number of output columns.
func (m *MLP) OutputDim() int { return m.sizes[len(m.sizes)-1] }

// Sizes returns a copy of the layer widths.
func (m *MLP) Sizes() []int { return append([]int(nil), m.sizes...) }

// Params returns the live parameter matrices in a fixed order
// (W0, b0, W1, b1, ...). Gradients from Backward use the same order.
func (m *MLP) Params() []*mat.Dense {
	params := make([]*mat.Dense, 0, 2*len(m.layers))
	for _, l := range m.layers {
		params = append(params, l.w, l.b)
	}
	return params
}

// Forward runs a batch through the network.
func (m *MLP) Forward(x mat.Matrix) (*mat.Dense, *Trace) {
	tr := &Trace{}
	a := mat.DenseCopyOf(x)
	last := len(m.layers) - 1
	for i, l := range m.layers {
		rows, _ := a.Dims()
		_, out := l.w.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(a, l.w)
		bias := l.b.RawRowView(0)
		for r := 0; r < rows; r++ {
			floats.Add(z.RawRowView(r), bias)
		}
		tr.inputs = append(tr.inputs, a)
		tr.pre = append(tr.pre, z)
		if i == last {
			a = z
			break
		}
		h := mat.NewDense(rows, out, nil)
		h.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
		a = h
	}
	return a, tr
}

// Predict is Forward without the trace.
func (m *MLP) Predict(x mat.Matrix) *mat.Dense {
	out, _ := m.Forward(x)
	return out
}

// Backward propagates dOut (the loss gradient with respect to the network
// output) through the pass recorded in tr. It returns parameter gradients
// in Params order and the gradient with respect to the input.
func (m *MLP) Backward(tr *Trace, dOut mat.Matrix) ([]*mat.Dense, *mat.Dense) {
	grads := make([]*mat.Dense, 2*len(m.layers))
	d := mat.DenseCopyOf(dOut)
	var dIn *mat.Dense
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		in, out := l.w.Dims()

		gw := mat.NewDense(in, out, nil)
		gw.Mul(tr.inputs[i].T(), d)
		gb := mat.NewDense(1, out, nil)
		rows, _ := d.Dims()
		for r := 0; r < rows; r++ {
			floats.Add(gb.RawRowView(0), d.RawRowView(r))
		}
		grads[2*i], grads[2*i+1] = gw, gb

		da := mat.NewDense(rows, in, nil)
		da.Mul(d, l.w.T())
		if i == 0 {
			dIn = da
			break
		}
		pre := tr.pre[i-1]
		da.Apply(func(r, c int, v float64) float64 {
			if pre.At(r, c) > 0 {
				return v
			}
			return 0
		}, da)
		d = da
	}
	return grads, dIn
}

// CopyFrom overwrites the parameters with those of src.
func (m *MLP) CopyFrom(src *MLP) {
	dst := m.Params()
	for i, p := range src.Params() {
		dst[i].Copy(p)
	}
}

// Clone returns a deep copy.
func (m *MLP) Clone() *MLP {
	c := &MLP{sizes: m.Sizes()}
	for _, l := range m.layers {
		c.layers = append(c.layers, layer{w: mat.DenseCopyOf(l.w), b: mat.DenseCopyOf(l.b)})
	}
	return c
}

// SoftUpdate moves target toward source: target = (1-tau)*target + tau*source.
func SoftUpdate(target, source *MLP, tau float64) {
	src := source.Params()
	for i, p := range target.Params() {
		p.Scale(1-tau, p)
		floats.AddScaled(p.RawMatrix().Data, tau, src[i].RawMatrix().Data)
	}
}
