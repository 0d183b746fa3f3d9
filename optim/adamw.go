// Package optim implements the optimizer and learning-rate schedule driven by
// the training loop: AdamW with decoupled weight decay and an exponential
// per-epoch decay schedule. Both carry serializable state so a resumed run
// continues exactly where the checkpoint left off.
package optim

import (
	"math"

	"github.com/heliosml/profgnn/nn"
	"github.com/heliosml/profgnn/pkg/errors"
)

// Optimizer updates parameters from their accumulated gradients.
type Optimizer interface {
	Step() error
	ZeroGrad()
	LR() float64
	SetLR(lr float64)
	State() State
	LoadState(state State) error
}

// State is the serializable snapshot of an optimizer: timestep, current
// learning rate and per-parameter moment estimates.
type State struct {
	T  int
	LR float64
	M  map[string][]float64
	V  map[string][]float64
}

// AdamWConfig holds AdamW hyperparameters. Zero values select the usual
// defaults (lr 1e-3, betas 0.9/0.999, eps 1e-8); weight decay defaults to 0.
type AdamWConfig struct {
	LR          float64    `json:"lr"`
	Betas       [2]float64 `json:"betas"`
	Eps         float64    `json:"eps"`
	WeightDecay float64    `json:"weight_decay"`
}

// AdamW implements Adam with decoupled weight decay: the decay term is
// applied to the parameter directly instead of being folded into the
// gradient.
type AdamW struct {
	params      []*nn.Parameter
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	t           int
	m           map[string][]float64
	v           map[string][]float64
}

// NewAdamW creates an AdamW optimizer over the given parameters.
func NewAdamW(params []*nn.Parameter, cfg AdamWConfig) *AdamW {
	if cfg.LR == 0 {
		cfg.LR = 1e-3
	}
	if cfg.Betas[0] == 0 {
		cfg.Betas[0] = 0.9
	}
	if cfg.Betas[1] == 0 {
		cfg.Betas[1] = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &AdamW{
		params:      params,
		lr:          cfg.LR,
		beta1:       cfg.Betas[0],
		beta2:       cfg.Betas[1],
		eps:         cfg.Eps,
		weightDecay: cfg.WeightDecay,
		m:           make(map[string][]float64, len(params)),
		v:           make(map[string][]float64, len(params)),
	}
}

// Step applies one AdamW update to every parameter from its accumulated
// gradient. Gradients are left in place; call ZeroGrad before the next
// backward pass.
func (a *AdamW) Step() error {
	a.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, p := range a.params {
		data := p.Data.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data

		m, ok := a.m[p.Name]
		if !ok {
			m = make([]float64, len(data))
			a.m[p.Name] = m
		}
		v, ok := a.v[p.Name]
		if !ok {
			v = make([]float64, len(data))
			a.v[p.Name] = v
		}
		if len(m) != len(data) || len(v) != len(data) {
			return errors.NewShapeError("optim.AdamW.Step",
				[]int{len(data)}, []int{len(m)}, "moment buffers for "+p.Name)
		}

		for i := range data {
			g := grad[i]
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2

			// Decoupled weight decay, then the Adam step.
			data[i] -= a.lr * a.weightDecay * data[i]
			data[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
	return nil
}

// ZeroGrad clears every parameter's gradient accumulator.
func (a *AdamW) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (a *AdamW) LR() float64 { return a.lr }

// SetLR replaces the learning rate; used by schedulers.
func (a *AdamW) SetLR(lr float64) { a.lr = lr }

// State snapshots the optimizer for checkpointing.
func (a *AdamW) State() State {
	m := make(map[string][]float64, len(a.m))
	for k, buf := range a.m {
		cp := make([]float64, len(buf))
		copy(cp, buf)
		m[k] = cp
	}
	v := make(map[string][]float64, len(a.v))
	for k, buf := range a.v {
		cp := make([]float64, len(buf))
		copy(cp, buf)
		v[k] = cp
	}
	return State{T: a.t, LR: a.lr, M: m, V: v}
}

// LoadState restores the optimizer from a checkpoint snapshot.
func (a *AdamW) LoadState(state State) error {
	for _, p := range a.params {
		rows, cols := p.Data.Dims()
		if buf, ok := state.M[p.Name]; ok && len(buf) != rows*cols {
			return errors.NewShapeError("optim.AdamW.LoadState",
				[]int{rows * cols}, []int{len(buf)}, "first moment for "+p.Name)
		}
		if buf, ok := state.V[p.Name]; ok && len(buf) != rows*cols {
			return errors.NewShapeError("optim.AdamW.LoadState",
				[]int{rows * cols}, []int{len(buf)}, "second moment for "+p.Name)
		}
	}
	a.t = state.T
	a.lr = state.LR
	a.m = make(map[string][]float64, len(state.M))
	for k, buf := range state.M {
		cp := make([]float64, len(buf))
		copy(cp, buf)
		a.m[k] = cp
	}
	a.v = make(map[string][]float64, len(state.V))
	for k, buf := range state.V {
		cp := make([]float64, len(buf))
		copy(cp, buf)
		a.v[k] = cp
	}
	return nil
}
