package sac

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cartridge/arena-agent/internal/nn"
	"github.com/cartridge/arena-agent/internal/policy"
)

const checkpointVersion = 1

// PolicyCheckpoint is the persisted form of the policy network.
type PolicyCheckpoint struct {
	Version     int         `msgpack:"version"`
	TrainSteps  int         `msgpack:"train_steps"`
	ActionLow   []float64   `msgpack:"action_low"`
	ActionHigh  []float64   `msgpack:"action_high"`
	LogStdRange [2]float64  `msgpack:"log_std_range"`
	Policy      nn.Snapshot `msgpack:"policy"`
}

// Checkpoint captures the current policy parameters.
func (l *Learner) Checkpoint() PolicyCheckpoint {
	return PolicyCheckpoint{
		Version:     checkpointVersion,
		TrainSteps:  l.steps,
		ActionLow:   append([]float64(nil), l.space.Low...),
		ActionHigh:  append([]float64(nil), l.space.High...),
		LogStdRange: [2]float64{l.cfg.LogStdMin, l.cfg.LogStdMax},
		Policy:      l.policy.Snapshot(),
	}
}

// SavePolicy writes the policy checkpoint to w as msgpack.
func (l *Learner) SavePolicy(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(l.Checkpoint()); err != nil {
		return fmt.Errorf("encode policy checkpoint: %w", err)
	}
	return nil
}

// ReadPolicyCheckpoint decodes a checkpoint written by SavePolicy.
func ReadPolicyCheckpoint(r io.Reader) (PolicyCheckpoint, error) {
	var cp PolicyCheckpoint
	if err := msgpack.NewDecoder(r).Decode(&cp); err != nil {
		return PolicyCheckpoint{}, fmt.Errorf("decode policy checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return PolicyCheckpoint{}, fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}
	return cp, nil
}

// ApplyCheckpoint replaces the policy parameters with those in cp. The
// checkpoint must match the learner's action and network shapes.
func (l *Learner) ApplyCheckpoint(cp PolicyCheckpoint) error {
	space, err := policy.NewActionSpace(cp.ActionLow, cp.ActionHigh)
	if err != nil {
		return fmt.Errorf("checkpoint action space: %w", err)
	}
	if space.Dim() != l.actDim {
		return fmt.Errorf("%w: checkpoint action dim %d, learner has %d", nn.ErrShapeMismatch, space.Dim(), l.actDim)
	}
	return l.policy.Restore(cp.Policy)
}
