package agent

import (
	"github.com/cartridge/arena-agent/internal/reward"
	"github.com/cartridge/arena-agent/internal/storage"
)

// Phase is how actions are chosen.
type Phase int

const (
	// PhaseWarmup draws uniform random actions while the buffer fills.
	PhaseWarmup Phase = iota
	// PhasePolicy samples actions from the learned policy.
	PhasePolicy
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhasePolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// PhaseAt returns the phase for a global frame index. Frames up to and
// including warmup are random; the switch never reverts.
func PhaseAt(frame, warmup int64) Phase {
	if frame <= warmup {
		return PhaseWarmup
	}
	return PhasePolicy
}

// Previous is what the agent saw and did on the last tick.
type Previous struct {
	Observation []float64
	Action      []float64
	Snapshot    *reward.Snapshot // nil when the unit was missing
}

// State is the agent's bookkeeping between ticks. Values are never mutated
// in place; each step returns a new State.
type State struct {
	Frame         int64 // global, never reset
	Phase         Phase
	Episode       int // 1-based
	EpisodeID     string
	Step          uint32 // transitions completed this episode
	EpisodeReward float64
	LastDamage    float64
	Prev          *Previous
	Pending       *storage.Transition // completed, waiting to learn whether it was terminal
}

// NewState returns the state before the first tick of the first episode.
func NewState(episodeID string) State {
	return State{Episode: 1, EpisodeID: episodeID}
}

// Advance moves to the next frame. It credits r to the episode, completes
// the transition begun on the previous tick, and returns the transition
// that was pending before it, if any, for the replay buffer.
func (s State) Advance(observation []float64, r, lastDamage float64, warmup int64) (State, *storage.Transition) {
	next := s
	next.Frame++
	next.Phase = PhaseAt(next.Frame, warmup)
	next.EpisodeReward += r
	next.LastDamage = lastDamage

	if s.Prev == nil {
		return next, nil
	}
	next.Step++
	next.Pending = &storage.Transition{
		EpisodeID:       s.EpisodeID,
		StepNumber:      next.Step,
		Observation:     s.Prev.Observation,
		Action:          s.Prev.Action,
		Reward:          r,
		NextObservation: observation,
	}
	return next, s.Pending
}

// Remember records this tick's observation and action for the next one.
func (s State) Remember(observation, action []float64, snapshot *reward.Snapshot) State {
	next := s
	next.Prev = &Previous{Observation: observation, Action: action, Snapshot: snapshot}
	return next
}

// Terminate marks the pending transition terminal and hands it out.
func (s State) Terminate() (State, *storage.Transition) {
	next := s
	next.Pending = nil
	if s.Pending == nil {
		return next, nil
	}
	t := *s.Pending
	t.Done = true
	return next, &t
}

// BeginMatch clears the tick history and the episode accumulators. The
// episode number is kept, so a match abandoned before Finish is replayed
// under the same number.
func (s State) BeginMatch() State {
	next := s
	next.Prev = nil
	next.Pending = nil
	next.Step = 0
	next.EpisodeReward = 0
	next.LastDamage = 0
	return next
}

// NextEpisode closes the current episode.
func (s State) NextEpisode(episodeID string) State {
	next := s.BeginMatch()
	next.Episode++
	next.EpisodeID = episodeID
	return next
}
