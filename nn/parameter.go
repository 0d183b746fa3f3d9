package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Parameter is a learnable weight matrix with its gradient accumulator.
// Gradients accumulate across Backward calls until ZeroGrad.
type Parameter struct {
	Name string
	Data *mat.Dense
	Grad *mat.Dense
}

// NewParameter allocates a parameter and a zeroed gradient of the same shape.
func NewParameter(name string, data *mat.Dense) *Parameter {
	r, c := data.Dims()
	return &Parameter{
		Name: name,
		Data: data,
		Grad: mat.NewDense(r, c, nil),
	}
}

// ZeroGrad clears the gradient accumulator.
func (p *Parameter) ZeroGrad() {
	p.Grad.Zero()
}

// AddGrad accumulates g into the gradient.
func (p *Parameter) AddGrad(g mat.Matrix) {
	p.Grad.Add(p.Grad, g)
}

// ParamState is the serializable snapshot of one parameter, used by the
// checkpoint store (plain fields so encoding/gob handles it directly).
type ParamState struct {
	Rows int
	Cols int
	Data []float64
}

// State snapshots the parameter values.
func (p *Parameter) State() ParamState {
	r, c := p.Data.Dims()
	data := make([]float64, r*c)
	copy(data, p.Data.RawMatrix().Data)
	return ParamState{Rows: r, Cols: c, Data: data}
}

// LoadState restores parameter values from a snapshot.
func (p *Parameter) LoadState(s ParamState) error {
	r, c := p.Data.Dims()
	if s.Rows != r || s.Cols != c {
		return errors.NewShapeError("nn.Parameter.LoadState",
			[]int{r, c}, []int{s.Rows, s.Cols}, "checkpoint shape differs for "+p.Name)
	}
	copy(p.Data.RawMatrix().Data, s.Data)
	return nil
}

// stateDict collects snapshots for a parameter list.
func stateDict(params []*Parameter) map[string]ParamState {
	out := make(map[string]ParamState, len(params))
	for _, p := range params {
		out[p.Name] = p.State()
	}
	return out
}

// loadStateDict restores a parameter list from snapshots, requiring every
// parameter to be present.
func loadStateDict(params []*Parameter, state map[string]ParamState) error {
	for _, p := range params {
		s, ok := state[p.Name]
		if !ok {
			return errors.Newf("nn: checkpoint is missing parameter %q", p.Name)
		}
		if err := p.LoadState(s); err != nil {
			return err
		}
	}
	return nil
}
