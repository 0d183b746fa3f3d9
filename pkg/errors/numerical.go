package errors

import (
	"math"
)

// CheckLoss validates a scalar loss value. A NaN or Inf loss halts training
// before the corrupt state can reach a checkpoint.
func CheckLoss(operation string, value float64, epoch, minibatch int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, epoch, minibatch, value)
	}
	return nil
}

// CheckMatrix scans a matrix for NaN or Inf entries. Used by gradient checks
// and parameter updates where a single bad entry poisons the whole run.
func CheckMatrix(operation string, m interface{ At(int, int) float64 }, rows, cols, epoch, minibatch int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewNumericalInstabilityError(operation, epoch, minibatch, v)
			}
		}
	}
	return nil
}
