package telemetry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/arena-agent/internal/sac"
)

func TestRecorderSnapshotIsACopy(t *testing.T) {
	rec := NewRecorder(zerolog.New(io.Discard), "")

	rec.FrameObserved(7, 1, "warmup")
	rec.TrainStepCompleted(sac.Losses{SoftQ1: 1, Value: 2}, time.Millisecond)
	rec.EpisodeFinished(1, 9, 42)

	snap := rec.Snapshot()
	assert.Equal(t, int64(9), snap.Frame)
	assert.Equal(t, 1, snap.TrainSteps)
	assert.Equal(t, 2.0, snap.LastLosses.Value)
	require.Equal(t, []float64{42}, snap.EpisodeRewards)

	snap.EpisodeRewards[0] = -1
	assert.Equal(t, []float64{42}, rec.Snapshot().EpisodeRewards)
}

func TestRecorderRendersRewardPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reward_graph.png")
	rec := NewRecorder(zerolog.New(io.Discard), path)

	rec.EpisodeFinished(1, 100, 10)
	rec.EpisodeFinished(2, 250, -5)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRenderRewardsSkipsEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, RenderRewards(path, 0, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCollectorLogsMetricEvents(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(zerolog.New(&buf), "")

	rec.PhaseChanged(1001, "warmup", "policy")
	rec.CheckpointSaved(50, "checkpoints/policy_50.msgpack", time.Second)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "phase_transition", first["metric"])
	assert.Equal(t, "policy", first["to_phase"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "checkpoint_saved", second["metric"])
	assert.Equal(t, "policy", rec.Snapshot().Phase)
	assert.Equal(t, "checkpoints/policy_50.msgpack", rec.Snapshot().LastCheckpoint)
}
