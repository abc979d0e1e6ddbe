package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cartridge/arena-agent/internal/agent"
	"github.com/cartridge/arena-agent/internal/sac"
)

// Config holds all agent configuration
type Config struct {
	// Game server
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Token            string        `mapstructure:"token"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect-backoff"`
	MaxMatches       int           `mapstructure:"max-matches"`

	// Schedule
	WarmupFrames   int64 `mapstructure:"warmup-frames"`
	BatchSize      int   `mapstructure:"batch-size"`
	BufferCapacity int   `mapstructure:"buffer-capacity"`

	// Learner
	HiddenDim int     `mapstructure:"hidden-dim"`
	Gamma     float64 `mapstructure:"gamma"`
	Tau       float64 `mapstructure:"tau"`
	ValueLR   float64 `mapstructure:"value-lr"`
	SoftQLR   float64 `mapstructure:"soft-q-lr"`
	PolicyLR  float64 `mapstructure:"policy-lr"`
	Seed      int64   `mapstructure:"seed"`

	// Outputs
	CheckpointDir   string `mapstructure:"checkpoint-dir"`
	CheckpointEvery int    `mapstructure:"checkpoint-every"`
	PlotPath        string `mapstructure:"plot-path"`
	StatusAddr      string `mapstructure:"status-addr"`

	// Logging
	LogLevel  string `mapstructure:"log-level"`
	LogPretty bool   `mapstructure:"log-pretty"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	learner := sac.DefaultConfig()
	return &Config{
		Host:             "127.0.0.1",
		Port:             31001,
		Token:            "0000000000000000",
		ReconnectBackoff: time.Second,
		MaxMatches:       -1, // unlimited
		WarmupFrames:     1000,
		BatchSize:        128,
		BufferCapacity:   1_000_000,
		HiddenDim:        learner.HiddenDim,
		Gamma:            learner.Gamma,
		Tau:              learner.Tau,
		ValueLR:          learner.ValueLR,
		SoftQLR:          learner.SoftQLR,
		PolicyLR:         learner.PolicyLR,
		CheckpointDir:    "checkpoints",
		CheckpointEvery:  50,
		PlotPath:         "reward_graph.png",
		LogLevel:         "info",
	}
}

// ApplyArgs applies the positional [host] [port] [token] arguments.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 3 {
		return fmt.Errorf("expected at most 3 arguments, got %d", len(args))
	}
	if len(args) > 0 {
		c.Host = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		c.Port = port
	}
	if len(args) > 2 {
		c.Token = args[2]
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.ReconnectBackoff <= 0 {
		return fmt.Errorf("reconnect-backoff must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if c.BufferCapacity < c.BatchSize {
		return fmt.Errorf("buffer-capacity must be at least batch-size")
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("warmup-frames must not be negative")
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint-every must not be negative")
	}
	if c.CheckpointEvery > 0 && c.CheckpointDir == "" {
		return fmt.Errorf("checkpoint-dir is required when checkpoints are enabled")
	}
	if err := c.LearnerConfig().Validate(); err != nil {
		return fmt.Errorf("learner: %w", err)
	}
	return nil
}

// Addr returns the game server address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LearnerConfig returns the learner hyperparameters.
func (c *Config) LearnerConfig() sac.Config {
	lc := sac.DefaultConfig()
	lc.HiddenDim = c.HiddenDim
	lc.Gamma = c.Gamma
	lc.Tau = c.Tau
	lc.ValueLR = c.ValueLR
	lc.SoftQLR = c.SoftQLR
	lc.PolicyLR = c.PolicyLR
	lc.Seed = c.Seed
	return lc
}

// RuntimeConfig returns the tick loop schedule.
func (c *Config) RuntimeConfig() agent.Config {
	return agent.Config{
		WarmupFrames:    c.WarmupFrames,
		BatchSize:       c.BatchSize,
		CheckpointEvery: c.CheckpointEvery,
	}
}
