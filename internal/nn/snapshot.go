package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a snapshot does not fit a network.
var ErrShapeMismatch = errors.New("network shape mismatch")

// Snapshot is the serializable form of an MLP's parameters. Matrices are
// stored row-major.
type Snapshot struct {
	Sizes   []int       `msgpack:"sizes" json:"sizes"`
	Weights [][]float64 `msgpack:"weights" json:"weights"`
	Biases  [][]float64 `msgpack:"biases" json:"biases"`
}

// Snapshot copies the current parameters out of the network.
func (m *MLP) Snapshot() Snapshot {
	s := Snapshot{Sizes: m.Sizes()}
	for _, l := range m.layers {
		s.Weights = append(s.Weights, append([]float64(nil), l.w.RawMatrix().Data...))
		s.Biases = append(s.Biases, append([]float64(nil), l.b.RawMatrix().Data...))
	}
	return s
}

// Restore loads parameters from a snapshot taken from a network of the
// same shape.
func (m *MLP) Restore(s Snapshot) error {
	if len(s.Sizes) != len(m.sizes) || len(s.Weights) != len(m.layers) || len(s.Biases) != len(m.layers) {
		return fmt.Errorf("%w: snapshot has %d layers, network has %d", ErrShapeMismatch, len(s.Sizes)-1, len(m.layers))
	}
	for i, size := range m.sizes {
		if s.Sizes[i] != size {
			return fmt.Errorf("%w: layer width %d is %d, want %d", ErrShapeMismatch, i, s.Sizes[i], size)
		}
	}
	for i, l := range m.layers {
		in, out := l.w.Dims()
		if len(s.Weights[i]) != in*out || len(s.Biases[i]) != out {
			return fmt.Errorf("%w: layer %d parameter count", ErrShapeMismatch, i)
		}
	}
	for i, l := range m.layers {
		in, out := l.w.Dims()
		l.w.Copy(mat.NewDense(in, out, s.Weights[i]))
		l.b.Copy(mat.NewDense(1, out, s.Biases[i]))
	}
	return nil
}

// FromSnapshot builds a network directly from a snapshot.
func FromSnapshot(s Snapshot) (*MLP, error) {
	if len(s.Sizes) < 2 {
		return nil, fmt.Errorf("%w: snapshot has %d layer sizes", ErrShapeMismatch, len(s.Sizes))
	}
	m := &MLP{sizes: append([]int(nil), s.Sizes...)}
	for i := 0; i+1 < len(s.Sizes); i++ {
		m.layers = append(m.layers, layer{
			w: mat.NewDense(s.Sizes[i], s.Sizes[i+1], nil),
			b: mat.NewDense(1, s.Sizes[i+1], nil),
		})
	}
	if err := m.Restore(s); err != nil {
		return nil, err
	}
	return m, nil
}
