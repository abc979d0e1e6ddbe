package nn

import (
	"gonum.org/v1/gonum/mat"
)

// MSE returns the mean squared error between pred and target and its
// gradient with respect to pred. Target is treated as a constant.
func MSE(pred, target mat.Matrix) (float64, *mat.Dense) {
	r, c := pred.Dims()
	n := float64(r * c)
	diff := mat.NewDense(r, c, nil)
	diff.Sub(pred, target)

	var loss float64
	for _, d := range diff.RawMatrix().Data {
		loss += d * d
	}
	diff.Scale(2/n, diff)
	return loss / n, diff
}
