package sac

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cartridge/arena-agent/internal/storage"
)

// Batch is a set of transitions stacked row-wise.
type Batch struct {
	Observations     *mat.Dense
	Actions          *mat.Dense
	Rewards          []float64
	NextObservations *mat.Dense
	Dones            []float64 // 1 for terminal transitions
}

// NewBatch stacks sampled transitions. All transitions must share
// observation and action widths.
func NewBatch(transitions []*storage.Transition) Batch {
	n := len(transitions)
	obsDim := len(transitions[0].Observation)
	actDim := len(transitions[0].Action)

	b := Batch{
		Observations:     mat.NewDense(n, obsDim, nil),
		Actions:          mat.NewDense(n, actDim, nil),
		Rewards:          make([]float64, n),
		NextObservations: mat.NewDense(n, obsDim, nil),
		Dones:            make([]float64, n),
	}
	for i, t := range transitions {
		b.Observations.SetRow(i, t.Observation)
		b.Actions.SetRow(i, t.Action)
		b.NextObservations.SetRow(i, t.NextObservation)
		b.Rewards[i] = t.Reward
		if t.Done {
			b.Dones[i] = 1
		}
	}
	return b
}

// Len returns the number of rows.
func (b Batch) Len() int {
	return len(b.Rewards)
}
