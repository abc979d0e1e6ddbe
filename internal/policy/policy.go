// Package policy provides action selection strategies and the mapping
// between normalized action vectors and game orders.
package policy

// Policy interface for action selection
type Policy interface {
	// SelectAction chooses a normalized action vector for the given
	// observation vector.
	SelectAction(observation []float64) []float64
}
