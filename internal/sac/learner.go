// Package sac implements a soft actor-critic learner over a continuous,
// bounded action space.
package sac

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cartridge/arena-agent/internal/nn"
	"github.com/cartridge/arena-agent/internal/policy"
)

const logProbEpsilon = 1e-6

var halfLog2Pi = 0.5 * math.Log(2*math.Pi)

// Losses reports the scalar losses of one training step.
type Losses struct {
	SoftQ1 float64 `json:"soft_q1"`
	SoftQ2 float64 `json:"soft_q2"`
	Value  float64 `json:"value"`
	Policy float64 `json:"policy"`
}

// Learner owns the policy, the twin soft-Q critics and the value networks.
// It is not safe for concurrent use.
type Learner struct {
	cfg    Config
	space  policy.ActionSpace
	obsDim int
	actDim int

	policy      *nn.MLP // obs -> [mean | log std]
	softQ1      *nn.MLP // [obs | action] -> Q
	softQ2      *nn.MLP
	value       *nn.MLP // obs -> V
	targetValue *nn.MLP

	policyOpt *nn.Adam
	softQ1Opt *nn.Adam
	softQ2Opt *nn.Adam
	valueOpt  *nn.Adam

	rng   *rand.Rand
	steps int
}

// New builds a learner with freshly initialized networks. The target value
// network starts as an exact copy of the value network.
func New(obsDim int, space policy.ActionSpace, cfg Config) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if obsDim <= 0 {
		return nil, fmt.Errorf("observation dim must be positive, got %d", obsDim)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	actDim := space.Dim()
	h := cfg.HiddenDim

	l := &Learner{
		cfg:         cfg,
		space:       space,
		obsDim:      obsDim,
		actDim:      actDim,
		policy:      nn.NewMLP([]int{obsDim, h, h, 2 * actDim}, rng),
		softQ1:      nn.NewMLP([]int{obsDim + actDim, h, h, 1}, rng),
		softQ2:      nn.NewMLP([]int{obsDim + actDim, h, h, 1}, rng),
		value:       nn.NewMLP([]int{obsDim, h, h, 1}, rng),
		targetValue: nn.NewMLP([]int{obsDim, h, h, 1}, rng),
		rng:         rng,
	}
	l.targetValue.CopyFrom(l.value)

	l.policyOpt = nn.NewAdam(l.policy.Params(), cfg.PolicyLR)
	l.softQ1Opt = nn.NewAdam(l.softQ1.Params(), cfg.SoftQLR)
	l.softQ2Opt = nn.NewAdam(l.softQ2.Params(), cfg.SoftQLR)
	l.valueOpt = nn.NewAdam(l.value.Params(), cfg.ValueLR)
	return l, nil
}

// ObservationDim returns the expected observation width.
func (l *Learner) ObservationDim() int { return l.obsDim }

// Steps returns the number of completed training steps.
func (l *Learner) Steps() int { return l.steps }

// SelectAction samples a stochastic action for a single observation. The
// result always lies within the action bounds.
func (l *Learner) SelectAction(observation []float64) []float64 {
	x := mat.NewDense(1, l.obsDim, append([]float64(nil), observation...))
	head := l.policy.Predict(x)
	s := l.squash(head, l.noise(1))
	return l.space.Clip(s.actions.RawRowView(0))
}

// TrainStep runs one SAC update on the batch and soft-updates the target
// value network.
func (l *Learner) TrainStep(b Batch) Losses {
	var losses Losses
	n := b.Len()

	// Soft-Q target: r + (1 - done) * gamma * V_target(s').
	nextV := l.targetValue.Predict(b.NextObservations)
	qTarget := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		qTarget.Set(i, 0, b.Rewards[i]+(1-b.Dones[i])*l.cfg.Gamma*nextV.At(i, 0))
	}

	var stored mat.Dense
	stored.Augment(b.Observations, b.Actions)
	losses.SoftQ1 = fitCritic(l.softQ1, l.softQ1Opt, &stored, qTarget)
	losses.SoftQ2 = fitCritic(l.softQ2, l.softQ2Opt, &stored, qTarget)

	// Fresh reparameterized actions from the current policy.
	head, policyTrace := l.policy.Forward(b.Observations)
	s := l.squash(head, l.noise(n))

	var fresh mat.Dense
	fresh.Augment(b.Observations, s.actions)
	q1, trace1 := l.softQ1.Forward(&fresh)
	q2, trace2 := l.softQ2.Forward(&fresh)

	minQ := make([]float64, n)
	pick1 := mat.NewDense(n, 1, nil)
	pick2 := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if a, c := q1.At(i, 0), q2.At(i, 0); a <= c {
			minQ[i] = a
			pick1.Set(i, 0, 1)
		} else {
			minQ[i] = c
			pick2.Set(i, 0, 1)
		}
	}

	// Value regresses onto min Q minus the mean per-dimension log-prob.
	vTarget := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		vTarget.Set(i, 0, minQ[i]-s.logProb[i])
	}
	losses.Value = fitCritic(l.value, l.valueOpt, b.Observations, vTarget)

	// dQmin/da via whichever critic produced the minimum per row.
	_, dIn1 := l.softQ1.Backward(trace1, pick1)
	_, dIn2 := l.softQ2.Backward(trace2, pick2)
	dQ := mat.NewDense(n, l.actDim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < l.actDim; j++ {
			dQ.Set(i, j, dIn1.At(i, l.obsDim+j)+dIn2.At(i, l.obsDim+j))
		}
	}

	losses.Policy = (floats.Sum(s.logProb) - floats.Sum(minQ)) / float64(n)
	grads, _ := l.policy.Backward(policyTrace, l.policyGradient(s, dQ))
	l.policyOpt.Step(grads)

	nn.SoftUpdate(l.targetValue, l.value, l.cfg.Tau)
	l.steps++
	return losses
}

// fitCritic runs one MSE regression step of net onto target.
func fitCritic(net *nn.MLP, opt *nn.Adam, x mat.Matrix, target *mat.Dense) float64 {
	pred, tr := net.Forward(x)
	loss, grad := nn.MSE(pred, target)
	grads, _ := net.Backward(tr, grad)
	opt.Step(grads)
	return loss
}

func (l *Learner) noise(rows int) *mat.Dense {
	eps := mat.NewDense(rows, l.actDim, nil)
	data := eps.RawMatrix().Data
	for i := range data {
		data[i] = l.rng.NormFloat64()
	}
	return eps
}

// squashed holds a tanh-Gaussian sample and what the backward pass needs.
type squashed struct {
	actions *mat.Dense // bounded actions, rows x actDim
	tanh    *mat.Dense // squashed unit actions
	std     *mat.Dense
	eps     *mat.Dense
	clamped []bool // log std hit a bound, row-major
	logProb []float64
}

// squash maps a policy head [mean | log std] and standard normal noise to
// bounded actions and their mean per-dimension log-probability.
func (l *Learner) squash(head, eps *mat.Dense) squashed {
	rows, _ := head.Dims()
	d := l.actDim
	s := squashed{
		actions: mat.NewDense(rows, d, nil),
		tanh:    mat.NewDense(rows, d, nil),
		std:     mat.NewDense(rows, d, nil),
		eps:     eps,
		clamped: make([]bool, rows*d),
		logProb: make([]float64, rows),
	}
	for r := 0; r < rows; r++ {
		var lp float64
		for j := 0; j < d; j++ {
			mean := head.At(r, j)
			logStd := head.At(r, d+j)
			if logStd < l.cfg.LogStdMin || logStd > l.cfg.LogStdMax {
				s.clamped[r*d+j] = true
				logStd = math.Max(l.cfg.LogStdMin, math.Min(l.cfg.LogStdMax, logStd))
			}
			std := math.Exp(logStd)
			e := eps.At(r, j)
			a := math.Tanh(mean + std*e)
			half := l.space.HalfRange(j)

			s.std.Set(r, j, std)
			s.tanh.Set(r, j, a)
			s.actions.Set(r, j, l.space.Center(j)+half*a)
			lp += -0.5*e*e - logStd - halfLog2Pi - math.Log(1-a*a+logProbEpsilon) - math.Log(half)
		}
		s.logProb[r] = lp / float64(d)
	}
	return s
}

// policyGradient returns d(policy loss)/d(head) where the loss is
// mean over rows of (logProb - Qmin) and dQ holds dQmin/d(bounded action).
func (l *Learner) policyGradient(s squashed, dQ *mat.Dense) *mat.Dense {
	rows, d := s.tanh.Dims()
	grad := mat.NewDense(rows, 2*d, nil)
	invRows := 1 / float64(rows)
	invDim := 1 / float64(d)
	for r := 0; r < rows; r++ {
		for j := 0; j < d; j++ {
			a := s.tanh.At(r, j)
			oneMinus := 1 - a*a
			noise := s.std.At(r, j) * s.eps.At(r, j)

			// log-prob through the tanh correction term.
			dLogPdU := 2 * a * oneMinus / (oneMinus + logProbEpsilon)
			dQdU := dQ.At(r, j) * l.space.HalfRange(j) * oneMinus

			dMean := invDim*dLogPdU - dQdU
			dLogStd := invDim*(dLogPdU*noise-1) - dQdU*noise
			if s.clamped[r*d+j] {
				dLogStd = 0
			}
			grad.Set(r, j, dMean*invRows)
			grad.Set(r, d+j, dLogStd*invRows)
		}
	}
	return grad
}
