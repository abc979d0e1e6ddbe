package policy

import (
	"math/rand"
	"time"
)

// RandomPolicy selects uniform random actions inside the action space. It
// drives the warm-up phase while the replay buffer fills.
type RandomPolicy struct {
	rng   *rand.Rand
	space ActionSpace
}

// NewRandom creates a new random policy for the given action space. A nil
// rng seeds one from the clock.
func NewRandom(space ActionSpace, rng *rand.Rand) *RandomPolicy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPolicy{rng: rng, space: space}
}

// SelectAction implements Policy interface
func (p *RandomPolicy) SelectAction(observation []float64) []float64 {
	action := make([]float64, p.space.Dim())
	for i := range action {
		low := p.space.Low[i]
		high := p.space.High[i]

		// Random value in [low, high)
		action[i] = low + p.rng.Float64()*(high-low)
	}
	return action
}
