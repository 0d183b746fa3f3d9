package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// linear is a fully connected layer y = x·W + b applied row-wise to node
// features.
type linear struct {
	w *Parameter // in × out
	b *Parameter // 1 × out

	x *mat.Dense // cached input for backward
}

func newLinear(name string, in, out int, rng *rand.Rand) *linear {
	return &linear{
		w: NewParameter(name+".weight", randomMatrix(in, out, rng)),
		b: NewParameter(name+".bias", mat.NewDense(1, out, nil)),
	}
}

// randomMatrix draws fan-in scaled normal weights.
func randomMatrix(in, out int, rng *rand.Rand) *mat.Dense {
	scale := 1.0 / math.Sqrt(float64(in))
	w := mat.NewDense(in, out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	return w
}

func (l *linear) forward(x *mat.Dense, cache bool) *mat.Dense {
	rows, _ := x.Dims()
	_, out := l.w.Data.Dims()

	y := mat.NewDense(rows, out, nil)
	y.Mul(x, l.w.Data)
	for i := 0; i < rows; i++ {
		for j := 0; j < out; j++ {
			y.Set(i, j, y.At(i, j)+l.b.Data.At(0, j))
		}
	}

	if cache {
		l.x = x
	} else {
		l.x = nil
	}
	return y
}

// backward accumulates dW = xᵀ·dy and db = Σrows(dy), and returns dx = dy·Wᵀ.
func (l *linear) backward(dy *mat.Dense) *mat.Dense {
	rows, out := dy.Dims()
	in, _ := l.w.Data.Dims()

	var dw mat.Dense
	dw.Mul(l.x.T(), dy)
	l.w.AddGrad(&dw)

	db := mat.NewDense(1, out, nil)
	for j := 0; j < out; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += dy.At(i, j)
		}
		db.Set(0, j, sum)
	}
	l.b.AddGrad(db)

	dx := mat.NewDense(rows, in, nil)
	dx.Mul(dy, l.w.Data.T())
	return dx
}

func (l *linear) parameters() []*Parameter {
	return []*Parameter{l.w, l.b}
}
