package optim

import (
	"math"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Scheduler advances a learning-rate schedule once per epoch.
type Scheduler interface {
	Step()
	State() SchedulerState
	LoadState(state SchedulerState) error
}

// SchedulerState is the serializable snapshot of a scheduler.
type SchedulerState struct {
	StepCount int
	Gamma     float64
	BaseLR    float64
}

// ExponentialLR multiplies the optimizer learning rate by Gamma on every
// Step, so lr(epoch) = baseLR · gamma^epoch.
type ExponentialLR struct {
	opt       Optimizer
	gamma     float64
	baseLR    float64
	stepCount int
}

// NewExponentialLR creates the schedule around an optimizer. Gamma must be in
// (0, 1]; the base learning rate is captured from the optimizer at
// construction.
func NewExponentialLR(opt Optimizer, gamma float64) (*ExponentialLR, error) {
	if gamma <= 0 || gamma > 1 {
		return nil, errors.NewValueError("optim.NewExponentialLR", "gamma must be in (0, 1]")
	}
	return &ExponentialLR{opt: opt, gamma: gamma, baseLR: opt.LR()}, nil
}

// Step advances the schedule one epoch.
func (s *ExponentialLR) Step() {
	s.stepCount++
	s.opt.SetLR(s.opt.LR() * s.gamma)
}

// State snapshots the schedule for checkpointing.
func (s *ExponentialLR) State() SchedulerState {
	return SchedulerState{StepCount: s.stepCount, Gamma: s.gamma, BaseLR: s.baseLR}
}

// LoadState restores the schedule and re-derives the optimizer learning rate
// from the base rate, keeping scheduler and optimizer consistent even if the
// optimizer state predates the scheduler step.
func (s *ExponentialLR) LoadState(state SchedulerState) error {
	if state.Gamma <= 0 || state.Gamma > 1 {
		return errors.NewValueError("optim.ExponentialLR.LoadState", "gamma must be in (0, 1]")
	}
	s.stepCount = state.StepCount
	s.gamma = state.Gamma
	s.baseLR = state.BaseLR
	s.opt.SetLR(state.BaseLR * math.Pow(state.Gamma, float64(state.StepCount)))
	return nil
}
