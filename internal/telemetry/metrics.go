package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/arena-agent/internal/sac"
)

// Collector emits metric events as structured log lines.
type Collector struct {
	logger zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// Track learner updates
func (c *Collector) TrainStep(step int, losses sac.Losses, duration time.Duration) {
	c.logger.Debug().
		Str("metric", "train_step").
		Int("step", step).
		Float64("soft_q1_loss", losses.SoftQ1).
		Float64("soft_q2_loss", losses.SoftQ2).
		Float64("value_loss", losses.Value).
		Float64("policy_loss", losses.Policy).
		Dur("duration", duration).
		Msg("Train step metric")
}

// Track completed episodes
func (c *Collector) EpisodeFinished(episode int, frame int64, reward float64) {
	c.logger.Info().
		Str("metric", "episode_finished").
		Int("episode", episode).
		Int64("frame", frame).
		Float64("reward", reward).
		Msg("Episode metric")
}

// Track phase transitions
func (c *Collector) PhaseTransition(frame int64, fromPhase, toPhase string) {
	c.logger.Info().
		Str("metric", "phase_transition").
		Int64("frame", frame).
		Str("from_phase", fromPhase).
		Str("to_phase", toPhase).
		Msg("Phase transition metric")
}

// Track persisted policies
func (c *Collector) CheckpointSaved(episode int, path string, duration time.Duration) {
	c.logger.Info().
		Str("metric", "checkpoint_saved").
		Int("episode", episode).
		Str("path", path).
		Dur("duration", duration).
		Msg("Checkpoint metric")
}
