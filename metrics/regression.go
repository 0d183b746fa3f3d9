// Package metrics implements the regression metrics used during training and
// validation. All functions accept dense matrices so they apply directly to
// batched node features (nodes × variables).
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/pkg/errors"
)

// MSE computes the mean squared error over all entries of yTrue and yPred.
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError("metrics.MSE", "empty matrix")
	}
	if r != rp || c != cp {
		return 0, errors.NewShapeError("metrics.MSE", []int{r, c}, []int{rp, cp}, "")
	}

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(r*c), nil
}

// MSEGradient returns d(MSE)/d(yPred) = 2(yPred − yTrue)/N, the gradient fed
// into Module.Backward.
func MSEGradient(yTrue, yPred mat.Matrix) (*mat.Dense, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError("metrics.MSEGradient", "empty matrix")
	}
	if r != rp || c != cp {
		return nil, errors.NewShapeError("metrics.MSEGradient", []int{r, c}, []int{rp, cp}, "")
	}

	n := float64(r * c)
	grad := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			grad.Set(i, j, 2*(yPred.At(i, j)-yTrue.At(i, j))/n)
		}
	}
	return grad, nil
}

// MAE computes the mean absolute error over all entries.
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError("metrics.MAE", "empty matrix")
	}
	if r != rp || c != cp {
		return 0, errors.NewShapeError("metrics.MAE", []int{r, c}, []int{rp, cp}, "")
	}

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += math.Abs(yTrue.At(i, j) - yPred.At(i, j))
		}
	}
	return sum / float64(r*c), nil
}

// R2 computes the coefficient of determination over all entries, 1 for a
// perfect fit. A constant yTrue makes the score undefined; that returns an
// error rather than a misleading value.
func R2(yTrue, yPred mat.Matrix) (float64, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError("metrics.R2", "empty matrix")
	}
	if r != rp || c != cp {
		return 0, errors.NewShapeError("metrics.R2", []int{r, c}, []int{rp, cp}, "")
	}

	var mean float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			mean += yTrue.At(i, j)
		}
	}
	mean /= float64(r * c)

	var ssRes, ssTot float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := yTrue.At(i, j) - yPred.At(i, j)
			ssRes += d * d
			t := yTrue.At(i, j) - mean
			ssTot += t * t
		}
	}
	if ssTot == 0 {
		return 0, errors.NewValueError("metrics.R2", "constant ground truth, score undefined")
	}
	return 1 - ssRes/ssTot, nil
}
