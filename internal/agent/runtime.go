// Package agent runs the per-tick loop: encode the view, shape the reward,
// feed the replay buffer, train, and turn the next action into an order.
package agent

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartridge/arena-agent/internal/checkpoint"
	"github.com/cartridge/arena-agent/internal/game"
	"github.com/cartridge/arena-agent/internal/observation"
	"github.com/cartridge/arena-agent/internal/policy"
	"github.com/cartridge/arena-agent/internal/reward"
	"github.com/cartridge/arena-agent/internal/sac"
	"github.com/cartridge/arena-agent/internal/storage"
)

// Learner is the trainable policy.
type Learner interface {
	SelectAction(observation []float64) []float64
	TrainStep(batch sac.Batch) sac.Losses
	SavePolicy(w io.Writer) error
}

// Observer receives progress events. Implementations must be cheap; they
// run on the tick path.
type Observer interface {
	FrameObserved(frame int64, episode int, phase string)
	PhaseChanged(frame int64, from, to string)
	TrainStepCompleted(losses sac.Losses, duration time.Duration)
	EpisodeFinished(episode int, frame int64, reward float64)
	CheckpointSaved(episode int, path string, duration time.Duration)
}

// Config controls the runtime schedule.
type Config struct {
	WarmupFrames    int64
	BatchSize       int
	CheckpointEvery int // episodes; 0 disables
}

// Deps are the collaborators of a Runtime. Store and Observer are optional.
type Deps struct {
	Learner     Learner
	Explorer    policy.Policy
	Buffer      storage.Buffer
	Shaper      *reward.Shaper
	Observation observation.Space
	Store       checkpoint.Store
	Observer    Observer
	Logger      zerolog.Logger
}

// Runtime drives one agent across matches. It is meant for a single
// goroutine, the transport loop.
type Runtime struct {
	cfg          Config
	learner      Learner
	explorer     policy.Policy
	buffer       storage.Buffer
	shaper       *reward.Shaper
	obsSpace     observation.Space
	store        checkpoint.Store
	observer     Observer
	logger       zerolog.Logger
	constants    game.Constants
	state        State
	trainCount   int
	now          func() time.Time
	newEpisodeID func() string
}

// NewRuntime validates the configuration and wires the collaborators.
func NewRuntime(cfg Config, deps Deps) (*Runtime, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if cfg.WarmupFrames < 0 {
		return nil, fmt.Errorf("warmup frames must not be negative")
	}
	if deps.Learner == nil || deps.Explorer == nil || deps.Buffer == nil || deps.Shaper == nil {
		return nil, fmt.Errorf("learner, explorer, buffer and shaper are required")
	}
	observer := deps.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	r := &Runtime{
		cfg:          cfg,
		learner:      deps.Learner,
		explorer:     deps.Explorer,
		buffer:       deps.Buffer,
		shaper:       deps.Shaper,
		obsSpace:     deps.Observation,
		store:        deps.Store,
		observer:     observer,
		logger:       deps.Logger,
		now:          time.Now,
		newEpisodeID: func() string { return uuid.New().String() },
	}
	r.state = NewState(r.newEpisodeID())
	return r, nil
}

// State returns the current bookkeeping record.
func (r *Runtime) State() State { return r.state }

// TrainSteps returns how many learner updates have run.
func (r *Runtime) TrainSteps() int { return r.trainCount }

// Reset installs the constants of a new match.
func (r *Runtime) Reset(constants game.Constants) {
	r.constants = constants
	if r.state.Prev != nil {
		r.logger.Warn().Int("episode", r.state.Episode).Msg("Previous match ended without finish; discarding its history")
	}
	r.state = r.state.BeginMatch()
	r.logger.Info().
		Int("episode", r.state.Episode).
		Int("obstacles", len(constants.Obstacles)).
		Float64("max_speed", constants.MaxUnitForwardSpeed).
		Msg("Match constants received")
}

// Order runs one tick and returns the order to send.
func (r *Runtime) Order(view game.Game) (game.Order, error) {
	obs := r.obsSpace.Encode(view, r.constants)

	var snapshot *reward.Snapshot
	unit, haveUnit := view.SelfUnit()
	if haveUnit {
		player, _ := view.SelfPlayer()
		snapshot = &reward.Snapshot{Unit: unit, Damage: player.Damage}
	}

	var prevSnapshot *reward.Snapshot
	if r.state.Prev != nil {
		prevSnapshot = r.state.Prev.Snapshot
	}
	rew, lastDamage := 0.0, r.state.LastDamage
	if snapshot != nil {
		rew, lastDamage = r.shaper.Shape(prevSnapshot, *snapshot, r.state.LastDamage, r.constants)
	}

	prevPhase := r.state.Phase
	next, ready := r.state.Advance(obs, rew, lastDamage, r.cfg.WarmupFrames)
	r.state = next
	if next.Phase != prevPhase {
		r.observer.PhaseChanged(next.Frame, prevPhase.String(), next.Phase.String())
	}
	r.observer.FrameObserved(next.Frame, next.Episode, next.Phase.String())

	if ready != nil {
		r.buffer.Push(ready)
	}
	if err := r.maybeTrain(); err != nil {
		return game.Order{}, err
	}

	var action []float64
	if next.Phase == PhaseWarmup {
		action = r.explorer.SelectAction(obs)
	} else {
		action = r.learner.SelectAction(obs)
	}
	r.state = r.state.Remember(obs, action, snapshot)

	if !haveUnit {
		r.logger.Debug().Int32("tick", view.CurrentTick).Msg("No controlled unit this tick")
		return game.EmptyOrder(), nil
	}
	order := game.EmptyOrder()
	order.UnitOrders[unit.ID] = policy.Decode(action, r.constants, unit, view.Loot)
	return order, nil
}

// Finish closes the episode: it pushes the terminal transition, runs the
// terminal update and persists the policy on the checkpoint cadence.
func (r *Runtime) Finish() error {
	next, terminal := r.state.Terminate()
	r.state = next
	if terminal != nil {
		r.buffer.Push(terminal)
		if err := r.maybeTrain(); err != nil {
			return err
		}
	}

	episode := r.state.Episode
	r.observer.EpisodeFinished(episode, r.state.Frame, r.state.EpisodeReward)
	r.logger.Debug().
		Int("episode", episode).
		Int("buffer", r.buffer.Len()).
		Msg("Episode finished")

	var err error
	if r.store != nil && r.cfg.CheckpointEvery > 0 && episode%r.cfg.CheckpointEvery == 0 {
		err = r.saveCheckpoint(episode)
	}
	r.state = r.state.NextEpisode(r.newEpisodeID())
	return err
}

func (r *Runtime) maybeTrain() error {
	if r.buffer.Len() < r.cfg.BatchSize {
		return nil
	}
	start := r.now()
	transitions, err := r.buffer.Sample(r.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("sample replay buffer: %w", err)
	}
	losses := r.learner.TrainStep(sac.NewBatch(transitions))
	r.trainCount++
	r.observer.TrainStepCompleted(losses, r.now().Sub(start))
	return nil
}

func (r *Runtime) saveCheckpoint(episode int) error {
	start := r.now()
	path, err := r.store.Save(episode, r.learner.SavePolicy)
	if err != nil {
		return fmt.Errorf("save checkpoint for episode %d: %w", episode, err)
	}
	r.observer.CheckpointSaved(episode, path, r.now().Sub(start))
	return nil
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) FrameObserved(int64, int, string) {}
func (NopObserver) PhaseChanged(int64, string, string) {}
func (NopObserver) TrainStepCompleted(sac.Losses, time.Duration) {}
func (NopObserver) EpisodeFinished(int, int64, float64) {}
func (NopObserver) CheckpointSaved(int, string, time.Duration) {}
