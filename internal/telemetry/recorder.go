// Package telemetry records training progress for the status endpoint,
// the metric log and the reward chart.
package telemetry

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/arena-agent/internal/sac"
)

// Stats is a point-in-time copy of the recorded progress.
type Stats struct {
	Frame          int64      `json:"frame"`
	Episode        int        `json:"episode"`
	Phase          string     `json:"phase"`
	TrainSteps     int        `json:"train_steps"`
	LastLosses     sac.Losses `json:"last_losses"`
	EpisodeRewards []float64  `json:"episode_rewards"`
	LastCheckpoint string     `json:"last_checkpoint,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Recorder accumulates progress from the tick loop and serves copies to
// other goroutines. The zero value is not usable; call NewRecorder.
type Recorder struct {
	mu        sync.RWMutex
	stats     Stats
	collector *Collector
	plotPath  string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRecorder creates a recorder. An empty plotPath disables the chart.
func NewRecorder(logger zerolog.Logger, plotPath string) *Recorder {
	return &Recorder{
		collector: NewCollector(logger),
		plotPath:  plotPath,
		logger:    logger,
		now:       time.Now,
	}
}

// TrainStepCompleted records the losses of one learner update.
func (r *Recorder) TrainStepCompleted(losses sac.Losses, duration time.Duration) {
	r.mu.Lock()
	r.stats.TrainSteps++
	r.stats.LastLosses = losses
	r.stats.UpdatedAt = r.now()
	step := r.stats.TrainSteps
	r.mu.Unlock()

	r.collector.TrainStep(step, losses, duration)
}

// FrameObserved records the global frame counter, the current episode and
// the action-selection phase.
func (r *Recorder) FrameObserved(frame int64, episode int, phase string) {
	r.mu.Lock()
	r.stats.Frame = frame
	r.stats.Episode = episode
	r.stats.Phase = phase
	r.stats.UpdatedAt = r.now()
	r.mu.Unlock()
}

// PhaseChanged records a transition between action-selection phases.
func (r *Recorder) PhaseChanged(frame int64, from, to string) {
	r.mu.Lock()
	r.stats.Phase = to
	r.mu.Unlock()

	r.collector.PhaseTransition(frame, from, to)
}

// EpisodeFinished appends the episode's cumulative reward and redraws the
// reward chart.
func (r *Recorder) EpisodeFinished(episode int, frame int64, reward float64) {
	r.mu.Lock()
	r.stats.EpisodeRewards = append(r.stats.EpisodeRewards, reward)
	r.stats.Frame = frame
	r.stats.UpdatedAt = r.now()
	rewards := append([]float64(nil), r.stats.EpisodeRewards...)
	r.mu.Unlock()

	r.collector.EpisodeFinished(episode, frame, reward)
	if r.plotPath == "" {
		return
	}
	if err := RenderRewards(r.plotPath, frame, rewards); err != nil {
		r.logger.Warn().Err(err).Str("path", r.plotPath).Msg("Failed to render reward plot")
	}
}

// CheckpointSaved records the location of the newest policy checkpoint.
func (r *Recorder) CheckpointSaved(episode int, path string, duration time.Duration) {
	r.mu.Lock()
	r.stats.LastCheckpoint = path
	r.mu.Unlock()

	r.collector.CheckpointSaved(episode, path, duration)
}

// Snapshot returns a copy of the current stats.
func (r *Recorder) Snapshot() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.stats
	s.EpisodeRewards = append([]float64(nil), r.stats.EpisodeRewards...)
	return s
}
