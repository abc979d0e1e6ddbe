package sac

import "fmt"

// Config holds the learner hyperparameters.
type Config struct {
	HiddenDim int
	Gamma     float64 // discount
	Tau       float64 // target value soft-update rate
	ValueLR   float64
	SoftQLR   float64
	PolicyLR  float64
	LogStdMin float64
	LogStdMax float64
	Seed      int64
}

// DefaultConfig returns the hyperparameters used in live matches.
func DefaultConfig() Config {
	return Config{
		HiddenDim: 256,
		Gamma:     0.99,
		Tau:       0.01,
		ValueLR:   3e-4,
		SoftQLR:   3e-4,
		PolicyLR:  3e-4,
		LogStdMin: -20,
		LogStdMax: 2,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.HiddenDim <= 0 {
		return fmt.Errorf("hidden dim must be positive")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0,1], got %v", c.Gamma)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("tau must be in (0,1], got %v", c.Tau)
	}
	if c.ValueLR <= 0 || c.SoftQLR <= 0 || c.PolicyLR <= 0 {
		return fmt.Errorf("learning rates must be positive")
	}
	if c.LogStdMin >= c.LogStdMax {
		return fmt.Errorf("log std range is empty")
	}
	return nil
}
