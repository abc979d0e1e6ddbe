package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cartridge/arena-agent/internal/checkpoint"
	"github.com/cartridge/arena-agent/internal/nn"
	"github.com/cartridge/arena-agent/internal/observation"
	"github.com/cartridge/arena-agent/internal/policy"
	"github.com/cartridge/arena-agent/internal/sac"
)

var inspectEpisode int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe a saved policy checkpoint",
	Long: `Reads a policy checkpoint from --checkpoint-dir and prints its episode,
training steps and network shape as JSON, along with whether it fits a
learner built from the current configuration.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectEpisode, "episode", 0, "Checkpoint episode to read (0 for the latest)")
	rootCmd.AddCommand(inspectCmd)
}

type checkpointReport struct {
	Episodes   []int     `json:"episodes"`
	Episode    int       `json:"episode"`
	TrainSteps int       `json:"train_steps"`
	LayerSizes []int     `json:"layer_sizes"`
	ActionLow  []float64 `json:"action_low"`
	ActionHigh []float64 `json:"action_high"`
	Compatible bool      `json:"compatible"`
	Mismatch   string    `json:"mismatch,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := loadConfig(nil); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.CheckpointDir == "" {
		return fmt.Errorf("checkpoint-dir is required")
	}
	store, err := checkpoint.NewFileStore(cfg.CheckpointDir)
	if err != nil {
		return err
	}
	learner, err := sac.New(observation.DefaultSpace().Dim(), policy.DefaultActionSpace(), cfg.LearnerConfig())
	if err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	report, err := inspectCheckpoint(store, inspectEpisode, learner)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), report)
}

// inspectCheckpoint reads one checkpoint (the latest when episode is 0) and
// tries it against learner. A shape mismatch is reported, not returned.
func inspectCheckpoint(store *checkpoint.FileStore, episode int, learner *sac.Learner) (checkpointReport, error) {
	var report checkpointReport
	episodes, err := store.Episodes()
	if err != nil {
		return report, err
	}
	report.Episodes = episodes

	if episode == 0 {
		if episode, err = store.Latest(); err != nil {
			return report, err
		}
	}
	var cp sac.PolicyCheckpoint
	err = store.Load(episode, func(r io.Reader) error {
		cp, err = sac.ReadPolicyCheckpoint(r)
		return err
	})
	if err != nil {
		return report, err
	}

	net, err := nn.FromSnapshot(cp.Policy)
	if err != nil {
		return report, fmt.Errorf("episode %d: %w", episode, err)
	}
	report.Episode = episode
	report.TrainSteps = cp.TrainSteps
	report.LayerSizes = net.Sizes()
	report.ActionLow = cp.ActionLow
	report.ActionHigh = cp.ActionHigh

	switch err := learner.ApplyCheckpoint(cp); {
	case err == nil:
		report.Compatible = true
	case errors.Is(err, nn.ErrShapeMismatch):
		report.Mismatch = err.Error()
	default:
		return report, err
	}
	return report, nil
}

func writeReport(w io.Writer, report checkpointReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
