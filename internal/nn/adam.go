package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam is the Adam optimizer bound to one parameter set.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	params []*mat.Dense
	m, v   []*mat.Dense
	t      int
}

// NewAdam creates an optimizer over params with the usual moment defaults.
func NewAdam(params []*mat.Dense, lr float64) *Adam {
	a := &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8, params: params}
	for _, p := range params {
		r, c := p.Dims()
		a.m = append(a.m, mat.NewDense(r, c, nil))
		a.v = append(a.v, mat.NewDense(r, c, nil))
	}
	return a
}

// Step applies one update from grads, which must follow the parameter order.
func (a *Adam) Step(grads []*mat.Dense) {
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, p := range a.params {
		pd := p.RawMatrix().Data
		gd := grads[i].RawMatrix().Data
		md := a.m[i].RawMatrix().Data
		vd := a.v[i].RawMatrix().Data
		for j, g := range gd {
			md[j] = a.Beta1*md[j] + (1-a.Beta1)*g
			vd[j] = a.Beta2*vd[j] + (1-a.Beta2)*g*g
			pd[j] -= a.LR * (md[j] / c1) / (math.Sqrt(vd[j]/c2) + a.Eps)
		}
	}
}

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int { return a.t }
