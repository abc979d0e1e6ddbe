package storage

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RingBuffer implements an in-memory fixed-capacity replay buffer
type RingBuffer struct {
	mu       sync.RWMutex
	slots    []*Transition
	position int    // next slot to write
	pushed   uint64 // transitions ever pushed
	rng      *rand.Rand
	now      func() time.Time
}

// NewRingBuffer creates a replay buffer holding at most capacity transitions
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be greater than zero, got %d", capacity)
	}
	return &RingBuffer{
		slots: make([]*Transition, 0, capacity),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}, nil
}

// WithRand replaces the sampling source; tests use it for determinism.
func (b *RingBuffer) WithRand(rng *rand.Rand) *RingBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rng = rng
	return b
}

// Push implements Buffer.Push
func (b *RingBuffer) Push(transition *Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Generate ID if not provided
	if transition.ID == "" {
		transition.ID = uuid.New().String()
	}

	// Set timestamp if not provided
	if transition.Timestamp.IsZero() {
		transition.Timestamp = b.now()
	}

	if len(b.slots) < cap(b.slots) {
		b.slots = append(b.slots, transition)
	} else {
		b.slots[b.position] = transition
	}
	b.position = (b.position + 1) % cap(b.slots)
	b.pushed++
}

// Sample implements Buffer.Sample
func (b *RingBuffer) Sample(n int) ([]*Transition, error) {
	// Write lock: the sampling source is not safe for concurrent use.
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.slots) {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrInsufficientData, n, len(b.slots))
	}
	if n <= 0 {
		return nil, nil
	}

	sampled := make([]*Transition, 0, n)
	for _, idx := range b.distinctIndices(n) {
		sampled = append(sampled, b.slots[idx])
	}
	return sampled, nil
}

// Len implements Buffer.Len
func (b *RingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.slots)
}

// Capacity returns the maximum occupancy
func (b *RingBuffer) Capacity() int {
	return cap(b.slots)
}

// Stats implements Buffer.Stats
func (b *RingBuffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{
		Occupancy:   len(b.slots),
		Capacity:    cap(b.slots),
		TotalPushed: b.pushed,
	}
	if len(b.slots) > 0 {
		oldest := b.slots[0]
		if len(b.slots) == cap(b.slots) {
			oldest = b.slots[b.position]
		}
		newest := b.slots[(b.position-1+cap(b.slots))%cap(b.slots)]
		stats.OldestAt = &oldest.Timestamp
		stats.NewestAt = &newest.Timestamp
	}
	return stats
}

// distinctIndices draws n distinct slot indexes with Floyd's algorithm, so
// the cost depends on n rather than on occupancy.
func (b *RingBuffer) distinctIndices(n int) []int {
	size := len(b.slots)
	chosen := make(map[int]struct{}, n)
	indices := make([]int, 0, n)
	for j := size - n; j < size; j++ {
		t := b.rng.Intn(j + 1)
		if _, taken := chosen[t]; taken {
			t = j
		}
		chosen[t] = struct{}{}
		indices = append(indices, t)
	}
	return indices
}
