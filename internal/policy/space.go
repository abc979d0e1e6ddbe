package policy

import (
	"fmt"
	"math"
)

// Action vector layout.
const (
	MoveX = iota
	MoveY
	AimX
	AimY
	Selector

	ActionDim
)

// ActionSpace is a box of per-dimension bounds.
type ActionSpace struct {
	Low  []float64
	High []float64
}

// DefaultActionSpace returns the bounds of the arena action vector: four
// movement/aim dimensions in [-1,1] and the discrete selector in [0,1].
func DefaultActionSpace() ActionSpace {
	return ActionSpace{
		Low:  []float64{-1, -1, -1, -1, 0},
		High: []float64{1, 1, 1, 1, 1},
	}
}

// NewActionSpace validates and builds an action space.
func NewActionSpace(low, high []float64) (ActionSpace, error) {
	if len(low) != len(high) {
		return ActionSpace{}, fmt.Errorf("continuous action space bounds mismatch: %d low vs %d high", len(low), len(high))
	}
	for i := range low {
		if !(low[i] < high[i]) {
			return ActionSpace{}, fmt.Errorf("action dimension %d has empty range [%v, %v]", i, low[i], high[i])
		}
	}
	return ActionSpace{Low: low, High: high}, nil
}

// Dim returns the number of action dimensions.
func (s ActionSpace) Dim() int {
	return len(s.Low)
}

// Center returns the midpoint of dimension i.
func (s ActionSpace) Center(i int) float64 {
	return (s.High[i] + s.Low[i]) / 2
}

// HalfRange returns half the width of dimension i.
func (s ActionSpace) HalfRange(i int) float64 {
	return (s.High[i] - s.Low[i]) / 2
}

// FromUnit maps a vector with every component in [-1,1] onto the bounds.
func (s ActionSpace) FromUnit(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = s.Center(i) + x*s.HalfRange(i)
	}
	return s.Clip(out)
}

// ToUnit is the inverse of FromUnit.
func (s ActionSpace) ToUnit(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		u := (x - s.Center(i)) / s.HalfRange(i)
		out[i] = math.Max(-1, math.Min(1, u))
	}
	return out
}

// Clip clamps every component into its bounds, in place.
func (s ActionSpace) Clip(v []float64) []float64 {
	for i := range v {
		v[i] = math.Max(s.Low[i], math.Min(s.High[i], v[i]))
	}
	return v
}

// Contains reports whether every component lies within its bounds.
func (s ActionSpace) Contains(v []float64) bool {
	if len(v) != s.Dim() {
		return false
	}
	for i, x := range v {
		if x < s.Low[i] || x > s.High[i] {
			return false
		}
	}
	return true
}
