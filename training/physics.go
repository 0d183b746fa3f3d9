package training

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/pkg/errors"
)

// PhysicsLoss is an optional residual term added to the data loss as
// total = data + weight·physics. Implementations receive the batched
// per-node predictions plus the node-to-graph assignment and return the
// scalar residual loss together with its gradient with respect to the
// predictions. The default configuration carries no physics term (weight 0).
type PhysicsLoss interface {
	Loss(pred *mat.Dense, index []int, numGraphs int) (float64, *mat.Dense, error)
}

// DiffusionResidual penalizes the mean absolute second spatial derivative of
// one predicted variable, a diffusion-equation residual with constant
// diffusivity evaluated by central finite differences over each profile.
type DiffusionResidual struct {
	// Variable is the output-variable column the residual applies to.
	Variable int
	// Diffusivity scales the residual.
	Diffusivity float64
}

// Loss implements PhysicsLoss. Nodes of each graph are taken in appearance
// order, which for profile graphs is spatial order.
func (d *DiffusionResidual) Loss(pred *mat.Dense, index []int, numGraphs int) (float64, *mat.Dense, error) {
	rows, cols := pred.Dims()
	if d.Variable < 0 || d.Variable >= cols {
		return 0, nil, errors.NewValueError("training.DiffusionResidual", "variable index out of range")
	}
	groups, err := groupByGraph(index, rows, numGraphs, "training.DiffusionResidual")
	if err != nil {
		return 0, nil, err
	}

	grad := mat.NewDense(rows, cols, nil)
	var total float64
	var count int
	for _, nodes := range groups {
		n := len(nodes)
		if n < 3 {
			continue
		}
		h := 1.0 / float64(n-1)
		u := make([]float64, n)
		for j, row := range nodes {
			u[j] = pred.At(row, d.Variable)
		}
		curvature := DDx(u, h)
		scale := d.Diffusivity / (h * h)
		for j := 1; j < n-1; j++ {
			res := d.Diffusivity * curvature[j]
			total += math.Abs(res)
			count++

			// Adjoint of the stencil through the L1 sign.
			s := sign(res) * scale
			grad.Set(nodes[j-1], d.Variable, grad.At(nodes[j-1], d.Variable)+s)
			grad.Set(nodes[j], d.Variable, grad.At(nodes[j], d.Variable)-2*s)
			grad.Set(nodes[j+1], d.Variable, grad.At(nodes[j+1], d.Variable)+s)
		}
	}
	if count == 0 {
		return 0, grad, nil
	}

	grad.Scale(1/float64(count), grad)
	return total / float64(count), grad, nil
}

// AdvectionResidual penalizes the mean absolute first spatial derivative of
// one predicted variable scaled by a constant velocity, a steady-state
// advection residual evaluated by central finite differences. Useful as a
// smoothness prior on profiles that should vary slowly along the chain.
type AdvectionResidual struct {
	// Variable is the output-variable column the residual applies to.
	Variable int
	// Velocity scales the residual.
	Velocity float64
}

// Loss implements PhysicsLoss. Nodes of each graph are taken in appearance
// order, which for profile graphs is spatial order.
func (a *AdvectionResidual) Loss(pred *mat.Dense, index []int, numGraphs int) (float64, *mat.Dense, error) {
	rows, cols := pred.Dims()
	if a.Variable < 0 || a.Variable >= cols {
		return 0, nil, errors.NewValueError("training.AdvectionResidual", "variable index out of range")
	}
	groups, err := groupByGraph(index, rows, numGraphs, "training.AdvectionResidual")
	if err != nil {
		return 0, nil, err
	}

	grad := mat.NewDense(rows, cols, nil)
	var total float64
	var count int
	for _, nodes := range groups {
		n := len(nodes)
		if n < 3 {
			continue
		}
		h := 1.0 / float64(n-1)
		u := make([]float64, n)
		for j, row := range nodes {
			u[j] = pred.At(row, a.Variable)
		}
		slope := Dx(u, h)
		scale := a.Velocity / (2 * h)
		for j := 1; j < n-1; j++ {
			res := a.Velocity * slope[j]
			total += math.Abs(res)
			count++

			// Adjoint of the stencil through the L1 sign.
			s := sign(res) * scale
			grad.Set(nodes[j+1], a.Variable, grad.At(nodes[j+1], a.Variable)+s)
			grad.Set(nodes[j-1], a.Variable, grad.At(nodes[j-1], a.Variable)-s)
		}
	}
	if count == 0 {
		return 0, grad, nil
	}

	grad.Scale(1/float64(count), grad)
	return total / float64(count), grad, nil
}

// Dx computes the first central difference of a profile with zero padding at
// both ends, with spacing h.
func Dx(u []float64, h float64) []float64 {
	out := make([]float64, len(u))
	for j := 1; j < len(u)-1; j++ {
		out[j] = (u[j+1] - u[j-1]) / (2 * h)
	}
	return out
}

// DDx computes the second central difference of a profile with zero padding
// at both ends, with spacing h.
func DDx(u []float64, h float64) []float64 {
	out := make([]float64, len(u))
	for j := 1; j < len(u)-1; j++ {
		out[j] = (u[j-1] - 2*u[j] + u[j+1]) / (h * h)
	}
	return out
}

// groupByGraph collects node rows per graph, preserving appearance order.
func groupByGraph(index []int, rows, numGraphs int, op string) ([][]int, error) {
	if len(index) != rows {
		return nil, errors.NewShapeError(op,
			[]int{rows}, []int{len(index)}, "assignment vector length")
	}
	groups := make([][]int, numGraphs)
	for i, g := range index {
		if g < 0 || g >= numGraphs {
			return nil, errors.Newf("%s: assignment %d outside [0, %d)", op, g, numGraphs)
		}
		groups[g] = append(groups[g], i)
	}
	return groups, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
