package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseAt(t *testing.T) {
	assert.Equal(t, PhaseWarmup, PhaseAt(1, 1000))
	assert.Equal(t, PhaseWarmup, PhaseAt(1000, 1000))
	assert.Equal(t, PhasePolicy, PhaseAt(1001, 1000))
	assert.Equal(t, PhasePolicy, PhaseAt(1, 0))
	assert.Equal(t, "policy", PhasePolicy.String())
}

func TestAdvanceDoesNotMutateReceiver(t *testing.T) {
	s0 := NewState("ep")
	s1, ready := s0.Advance([]float64{1}, 0, 0, 10)
	assert.Nil(t, ready)
	assert.Nil(t, s1.Pending)
	s1 = s1.Remember([]float64{1}, []float64{0.1}, nil)

	s2, ready := s1.Advance([]float64{2}, 5, 3, 10)
	assert.Nil(t, ready)
	require.NotNil(t, s2.Pending)
	assert.Equal(t, []float64{1}, s2.Pending.Observation)
	assert.Equal(t, []float64{2}, s2.Pending.NextObservation)
	assert.Equal(t, 5.0, s2.Pending.Reward)
	assert.Equal(t, uint32(1), s2.Pending.StepNumber)
	assert.Equal(t, "ep", s2.Pending.EpisodeID)

	assert.Equal(t, int64(1), s1.Frame)
	assert.Nil(t, s1.Pending)
	assert.Zero(t, s1.EpisodeReward)
	assert.Equal(t, 5.0, s2.EpisodeReward)
	assert.Equal(t, 3.0, s2.LastDamage)
}

func TestTerminateCopiesPending(t *testing.T) {
	s := NewState("ep").Remember([]float64{1}, []float64{0}, nil)
	s, _ = s.Advance([]float64{2}, 1, 0, 10)
	pending := s.Pending

	next, terminal := s.Terminate()
	require.NotNil(t, terminal)
	assert.True(t, terminal.Done)
	assert.False(t, pending.Done)
	assert.Nil(t, next.Pending)

	_, none := next.Terminate()
	assert.Nil(t, none)
}

func TestNextEpisodeResetsAccumulators(t *testing.T) {
	s := NewState("a")
	s.Frame = 40
	s.EpisodeReward = 12
	s.LastDamage = 30
	s.Step = 9

	n := s.NextEpisode("b")
	assert.Equal(t, 2, n.Episode)
	assert.Equal(t, "b", n.EpisodeID)
	assert.Equal(t, int64(40), n.Frame)
	assert.Zero(t, n.EpisodeReward)
	assert.Zero(t, n.LastDamage)
	assert.Zero(t, n.Step)
}
