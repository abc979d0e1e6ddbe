package sac

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cartridge/arena-agent/internal/nn"
	"github.com/cartridge/arena-agent/internal/policy"
	"github.com/cartridge/arena-agent/internal/storage"
)

const testObsDim = 6

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HiddenDim = 32
	cfg.Seed = 11
	return cfg
}

func newTestLearner(t *testing.T, cfg Config) *Learner {
	t.Helper()
	l, err := New(testObsDim, policy.DefaultActionSpace(), cfg)
	require.NoError(t, err)
	return l
}

func randomTransitions(rng *rand.Rand, n int) []*storage.Transition {
	space := policy.DefaultActionSpace()
	random := policy.NewRandom(space, rng)
	out := make([]*storage.Transition, n)
	for i := range out {
		obs := make([]float64, testObsDim)
		next := make([]float64, testObsDim)
		for j := range obs {
			obs[j] = rng.NormFloat64()
			next[j] = rng.NormFloat64()
		}
		out[i] = &storage.Transition{
			Observation:     obs,
			Action:          random.SelectAction(obs),
			Reward:          rng.NormFloat64(),
			NextObservation: next,
			Done:            i%5 == 4,
		}
	}
	return out
}

func TestNewCopiesValueIntoTarget(t *testing.T) {
	l := newTestLearner(t, testConfig())

	x := mat.NewDense(3, testObsDim, nil)
	x.Apply(func(i, j int, _ float64) float64 { return float64(i - j) }, x)
	assert.True(t, mat.Equal(l.value.Predict(x), l.targetValue.Predict(x)))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Tau = 0
	_, err := New(testObsDim, policy.DefaultActionSpace(), cfg)
	assert.Error(t, err)

	_, err = New(0, policy.DefaultActionSpace(), testConfig())
	assert.Error(t, err)
}

func TestSelectActionWithinBounds(t *testing.T) {
	l := newTestLearner(t, testConfig())
	space := policy.DefaultActionSpace()
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 200; i++ {
		obs := make([]float64, testObsDim)
		for j := range obs {
			obs[j] = 10 * rng.NormFloat64()
		}
		action := l.SelectAction(obs)
		require.Len(t, action, policy.ActionDim)
		require.True(t, space.Contains(action), "action %v out of bounds", action)
	}
}

func TestTrainStepSoftUpdatesTarget(t *testing.T) {
	l := newTestLearner(t, testConfig())
	batch := NewBatch(randomTransitions(rand.New(rand.NewSource(1)), 16))

	before := l.targetValue.Clone()
	l.TrainStep(batch)

	value := l.value.Params()
	old := before.Params()
	moved := false
	for i, p := range l.targetValue.Params() {
		for j, got := range p.RawMatrix().Data {
			v := value[i].RawMatrix().Data[j]
			o := old[i].RawMatrix().Data[j]
			require.InDelta(t, 0.99*o+0.01*v, got, 1e-12)
			if v != o {
				moved = true
				assert.NotEqual(t, v, got, "target must not be a hard copy")
			}
		}
	}
	assert.True(t, moved, "value network did not change")
	assert.Equal(t, 1, l.Steps())
}

func TestCriticLossDecreasesOnFixedBatch(t *testing.T) {
	cfg := testConfig()
	cfg.SoftQLR = 1e-2
	l := newTestLearner(t, cfg)
	batch := NewBatch(randomTransitions(rand.New(rand.NewSource(2)), 16))

	first := l.TrainStep(batch)
	var last Losses
	for i := 0; i < 200; i++ {
		last = l.TrainStep(batch)
	}

	assert.Less(t, last.SoftQ1, first.SoftQ1)
	assert.Less(t, last.SoftQ2, first.SoftQ2)
}

func softQTarget(l *Learner, b Batch) *mat.Dense {
	n := b.Len()
	nextV := l.targetValue.Predict(b.NextObservations)
	target := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		target.Set(i, 0, b.Rewards[i]+(1-b.Dones[i])*l.cfg.Gamma*nextV.At(i, 0))
	}
	return target
}

func TestCriticsTrainOnStoredActions(t *testing.T) {
	l := newTestLearner(t, testConfig())
	batch := NewBatch(randomTransitions(rand.New(rand.NewSource(8)), 16))

	var stored mat.Dense
	stored.Augment(batch.Observations, batch.Actions)
	target := softQTarget(l, batch)
	want1, _ := nn.MSE(l.softQ1.Predict(&stored), target)
	want2, _ := nn.MSE(l.softQ2.Predict(&stored), target)

	losses := l.TrainStep(batch)
	assert.InDelta(t, want1, losses.SoftQ1, 1e-12)
	assert.InDelta(t, want2, losses.SoftQ2, 1e-12)
}

func TestValueRegressesOntoFreshActionTarget(t *testing.T) {
	cfg := testConfig()
	l := newTestLearner(t, cfg)
	batch := NewBatch(randomTransitions(rand.New(rand.NewSource(9)), 16))
	n := batch.Len()

	// The value step sees the critics after their first update.
	var stored mat.Dense
	stored.Augment(batch.Observations, batch.Actions)
	target := softQTarget(l, batch)
	q1, q2 := l.softQ1.Clone(), l.softQ2.Clone()
	fitCritic(q1, nn.NewAdam(q1.Params(), cfg.SoftQLR), &stored, target)
	fitCritic(q2, nn.NewAdam(q2.Params(), cfg.SoftQLR), &stored, target)

	l.rng = rand.New(rand.NewSource(77))
	rng := rand.New(rand.NewSource(77))
	eps := mat.NewDense(n, l.actDim, nil)
	for i := range eps.RawMatrix().Data {
		eps.RawMatrix().Data[i] = rng.NormFloat64()
	}
	s := l.squash(l.policy.Predict(batch.Observations), eps)

	var fresh mat.Dense
	fresh.Augment(batch.Observations, s.actions)
	freshQ1, freshQ2 := q1.Predict(&fresh), q2.Predict(&fresh)
	storedQ1, storedQ2 := q1.Predict(&stored), q2.Predict(&stored)
	vTarget := mat.NewDense(n, 1, nil)
	storedTarget := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		vTarget.Set(i, 0, math.Min(freshQ1.At(i, 0), freshQ2.At(i, 0))-s.logProb[i])
		storedTarget.Set(i, 0, math.Min(storedQ1.At(i, 0), storedQ2.At(i, 0))-s.logProb[i])
	}
	prediction := l.value.Predict(batch.Observations)
	want, _ := nn.MSE(prediction, vTarget)
	notWant, _ := nn.MSE(prediction, storedTarget)

	losses := l.TrainStep(batch)
	assert.InDelta(t, want, losses.Value, 1e-12)
	assert.NotEqual(t, notWant, losses.Value)
}

func TestNewBatchMarksTerminals(t *testing.T) {
	ts := randomTransitions(rand.New(rand.NewSource(3)), 5)
	b := NewBatch(ts)

	require.Equal(t, 5, b.Len())
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, b.Dones)
	assert.Equal(t, ts[2].Action, b.Actions.RawRowView(2))
	assert.Equal(t, ts[4].Reward, b.Rewards[4])
}

// A linear critic Q(a) = c·a makes dQ/da constant, so the analytic policy
// gradient can be checked against finite differences of the head.
func TestPolicyGradientMatchesFiniteDifferences(t *testing.T) {
	l := newTestLearner(t, testConfig())
	rng := rand.New(rand.NewSource(7))
	const rows = 3
	d := l.actDim

	head := mat.NewDense(rows, 2*d, nil)
	for r := 0; r < rows; r++ {
		for j := 0; j < d; j++ {
			head.Set(r, j, 0.5*rng.NormFloat64())
			head.Set(r, d+j, -0.5+0.3*rng.NormFloat64())
		}
	}
	eps := l.noise(rows)
	c := []float64{0.7, -1.1, 0.4, 2.0, -0.6}
	dQ := mat.NewDense(rows, d, nil)
	for r := 0; r < rows; r++ {
		dQ.SetRow(r, c)
	}

	objective := func() float64 {
		s := l.squash(head, eps)
		var total float64
		for r := 0; r < rows; r++ {
			total += s.logProb[r]
			for j := 0; j < d; j++ {
				total -= c[j] * s.actions.At(r, j)
			}
		}
		return total / rows
	}

	analytic := l.policyGradient(l.squash(head, eps), dQ)

	const h = 1e-6
	data := head.RawMatrix().Data
	for k := range data {
		orig := data[k]
		data[k] = orig + h
		plus := objective()
		data[k] = orig - h
		minus := objective()
		data[k] = orig

		numeric := (plus - minus) / (2 * h)
		require.InDelta(t, numeric, analytic.RawMatrix().Data[k], 1e-5, "head entry %d", k)
	}
}

func TestClampedLogStdHasNoGradient(t *testing.T) {
	l := newTestLearner(t, testConfig())
	d := l.actDim
	head := mat.NewDense(1, 2*d, nil)
	for j := 0; j < d; j++ {
		head.Set(0, d+j, 5) // above the log std ceiling
	}
	s := l.squash(head, l.noise(1))
	grad := l.policyGradient(s, mat.NewDense(1, d, nil))

	for j := 0; j < d; j++ {
		assert.Zero(t, grad.At(0, d+j))
	}
}

func TestPolicyCheckpointRoundTrip(t *testing.T) {
	a := newTestLearner(t, testConfig())
	a.TrainStep(NewBatch(randomTransitions(rand.New(rand.NewSource(4)), 8)))

	var buf bytes.Buffer
	require.NoError(t, a.SavePolicy(&buf))

	cfg := testConfig()
	cfg.Seed = 99
	b := newTestLearner(t, cfg)
	cp, err := ReadPolicyCheckpoint(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.TrainSteps)
	require.NoError(t, b.ApplyCheckpoint(cp))

	x := mat.NewDense(2, testObsDim, []float64{1, 2, 3, 4, 5, 6, -1, -2, -3, -4, -5, -6})
	assert.True(t, mat.Equal(a.policy.Predict(x), b.policy.Predict(x)))
}

func TestApplyCheckpointRejectsShapeMismatch(t *testing.T) {
	a := newTestLearner(t, testConfig())
	var buf bytes.Buffer
	require.NoError(t, a.SavePolicy(&buf))

	cfg := testConfig()
	cfg.HiddenDim = 16
	b := newTestLearner(t, cfg)
	cp, err := ReadPolicyCheckpoint(&buf)
	require.NoError(t, err)
	assert.ErrorIs(t, b.ApplyCheckpoint(cp), nn.ErrShapeMismatch)
}
