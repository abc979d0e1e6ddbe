package storage

import (
	"errors"
	"time"
)

// ErrInsufficientData is returned when more transitions are requested than
// the buffer holds.
var ErrInsufficientData = errors.New("insufficient transitions for sampling")

// Transition represents a single experience transition
type Transition struct {
	ID              string    `json:"id"`
	EpisodeID       string    `json:"episode_id"`
	StepNumber      uint32    `json:"step_number"`
	Observation     []float64 `json:"observation"`
	Action          []float64 `json:"action"`
	Reward          float64   `json:"reward"`
	NextObservation []float64 `json:"next_observation"`
	Done            bool      `json:"done"`
	Timestamp       time.Time `json:"timestamp"`
}

// Stats represents replay buffer statistics
type Stats struct {
	Occupancy   int        `json:"occupancy"`
	Capacity    int        `json:"capacity"`
	TotalPushed uint64     `json:"total_pushed"`
	OldestAt    *time.Time `json:"oldest_at,omitempty"`
	NewestAt    *time.Time `json:"newest_at,omitempty"`
}

// Buffer defines the replay buffer used by the training loop
type Buffer interface {
	// Push stores a transition, overwriting the oldest one at capacity
	Push(transition *Transition)

	// Sample draws n distinct transitions uniformly at random
	Sample(n int) ([]*Transition, error)

	// Len returns the current occupancy
	Len() int

	// Stats returns buffer statistics
	Stats() Stats
}
