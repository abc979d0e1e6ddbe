package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartridge/arena-agent/internal/agent"
	"github.com/cartridge/arena-agent/internal/checkpoint"
	"github.com/cartridge/arena-agent/internal/config"
	statusHTTP "github.com/cartridge/arena-agent/internal/http"
	"github.com/cartridge/arena-agent/internal/observation"
	"github.com/cartridge/arena-agent/internal/policy"
	"github.com/cartridge/arena-agent/internal/reward"
	"github.com/cartridge/arena-agent/internal/sac"
	"github.com/cartridge/arena-agent/internal/storage"
	"github.com/cartridge/arena-agent/internal/telemetry"
	"github.com/cartridge/arena-agent/internal/transport"
)

var (
	_ transport.Handler = (*agent.Runtime)(nil)
	_ agent.Observer    = (*telemetry.Recorder)(nil)
)

var (
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "agent [host] [port] [token]",
	Short: "Arena SAC agent",
	Long: `Agent that plays arena matches against the game server and learns
online with soft actor-critic.

Each match is one episode. The agent reconnects after every match until
--max-matches is reached or it receives a shutdown signal.`,
	Args:         cobra.MaximumNArgs(3),
	SilenceUsage: true,
	RunE:         runAgent,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml)")

	// Game server
	flags.StringVar(&cfg.Host, "host", cfg.Host, "Game server host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "Game server port")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Player token")
	flags.DurationVar(&cfg.ReconnectBackoff, "reconnect-backoff", cfg.ReconnectBackoff, "Delay between connection attempts")
	flags.IntVar(&cfg.MaxMatches, "max-matches", cfg.MaxMatches, "Matches to play (-1 for unlimited)")

	// Schedule
	flags.Int64Var(&cfg.WarmupFrames, "warmup-frames", cfg.WarmupFrames, "Frames of random actions before the policy takes over")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Training batch size")
	flags.IntVar(&cfg.BufferCapacity, "buffer-capacity", cfg.BufferCapacity, "Replay buffer capacity")

	// Learner
	flags.IntVar(&cfg.HiddenDim, "hidden-dim", cfg.HiddenDim, "Hidden layer width")
	flags.Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "Discount factor")
	flags.Float64Var(&cfg.Tau, "tau", cfg.Tau, "Target value soft-update rate")
	flags.Float64Var(&cfg.ValueLR, "value-lr", cfg.ValueLR, "Value network learning rate")
	flags.Float64Var(&cfg.SoftQLR, "soft-q-lr", cfg.SoftQLR, "Soft-Q networks learning rate")
	flags.Float64Var(&cfg.PolicyLR, "policy-lr", cfg.PolicyLR, "Policy network learning rate")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 seeds from the clock)")

	// Outputs
	flags.StringVar(&cfg.CheckpointDir, "checkpoint-dir", cfg.CheckpointDir, "Directory for policy checkpoints")
	flags.IntVar(&cfg.CheckpointEvery, "checkpoint-every", cfg.CheckpointEvery, "Save the policy every N episodes (0 disables)")
	flags.StringVar(&cfg.PlotPath, "plot-path", cfg.PlotPath, "Reward chart output (empty disables)")
	flags.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "Status HTTP listen address (empty disables)")

	// Logging
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human-readable console logs")

	// Bind flags to viper for environment variable support
	viper.BindPFlags(flags)
	viper.SetEnvPrefix("AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfig(args []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.ApplyArgs(args); err != nil {
		return err
	}
	return cfg.Validate()
}

func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	var out io.Writer = os.Stdout
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func runAgent(cmd *cobra.Command, args []string) error {
	if err := loadConfig(args); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	obsSpace := observation.DefaultSpace()
	actions := policy.DefaultActionSpace()

	learner, err := sac.New(obsSpace.Dim(), actions, cfg.LearnerConfig())
	if err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	buffer, err := storage.NewRingBuffer(cfg.BufferCapacity)
	if err != nil {
		return fmt.Errorf("create replay buffer: %w", err)
	}
	var store checkpoint.Store
	if cfg.CheckpointEvery > 0 {
		fs, err := checkpoint.NewFileStore(cfg.CheckpointDir)
		if err != nil {
			return err
		}
		store = fs
	}
	recorder := telemetry.NewRecorder(logger, cfg.PlotPath)

	runtime, err := agent.NewRuntime(cfg.RuntimeConfig(), agent.Deps{
		Learner:     learner,
		Explorer:    policy.NewRandom(actions, nil),
		Buffer:      buffer,
		Shaper:      reward.NewShaper(reward.DefaultWeights()),
		Observation: obsSpace,
		Store:       store,
		Observer:    recorder,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           statusHTTP.NewServer(recorder, buffer, &logger).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.StatusAddr).Msg("Status server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("Status server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Status server shutdown failed")
			}
		}()
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("observation_dim", obsSpace.Dim()).
		Int("action_dim", actions.Dim()).
		Int64("warmup_frames", cfg.WarmupFrames).
		Msg("Starting agent")

	err = playMatches(ctx, runtime, logger)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("Agent stopped gracefully")
		return nil
	}
	return err
}

// playMatches connects once per match until the match budget is spent.
func playMatches(ctx context.Context, runtime *agent.Runtime, logger zerolog.Logger) error {
	dial := transport.DialConfig{
		Addr:    cfg.Addr(),
		Token:   cfg.Token,
		Backoff: cfg.ReconnectBackoff,
		Logger:  logger,
	}
	for played := 0; cfg.MaxMatches < 0 || played < cfg.MaxMatches; {
		conn, err := transport.Dial(ctx, dial)
		if err != nil {
			return err
		}
		err = transport.Serve(ctx, conn, runtime)
		conn.Close()

		switch {
		case err == nil:
			played++
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			logger.Warn().Err(err).Msg("Game server closed the connection mid-match; reconnecting")
		default:
			return err
		}
	}
	logger.Info().Int("matches", cfg.MaxMatches).Msg("Match budget reached")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
