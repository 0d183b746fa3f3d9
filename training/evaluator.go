package training

import (
	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/graph"
	"github.com/heliosml/profgnn/metrics"
	"github.com/heliosml/profgnn/nn"
	"github.com/heliosml/profgnn/pkg/errors"
	"github.com/heliosml/profgnn/pkg/log"
	"github.com/heliosml/profgnn/preprocessing"
	"github.com/heliosml/profgnn/viz"
)

// VariableSpec names one output variable and carries its display hints for
// the profile plots.
type VariableSpec struct {
	Name     string  `json:"name"`
	YMin     float64 `json:"y_min"`
	YMax     float64 `json:"y_max"`
	LogScale bool    `json:"log_scale"`
}

// Evaluator runs the validation pass of a training epoch: a sample-weighted
// mean of the minibatch losses plus, on visualization epochs, denormalized
// true-vs-predicted profile plots for every output variable.
type Evaluator struct {
	model      nn.Module
	loader     *graph.Loader
	outputInfo preprocessing.NormalizationInfo
	sink       viz.Sink
	vizEvery   int
	vars       []VariableSpec
	device     graph.Device
	logger     log.Logger
}

// NewEvaluator wires a validation loader to a model. outputInfo describes the
// normalization of the target variables so plots show physical values;
// vizEvery is the epoch cadence of plot emission (0 disables plots entirely).
func NewEvaluator(model nn.Module, loader *graph.Loader, outputInfo preprocessing.NormalizationInfo,
	sink viz.Sink, vizEvery int, vars []VariableSpec, device graph.Device) (*Evaluator, error) {
	if model == nil || loader == nil {
		return nil, errors.NewValueError("training.NewEvaluator", "model and loader are required")
	}
	if sink == nil {
		sink = viz.DiscardSink{}
	}
	return &Evaluator{
		model:      model,
		loader:     loader,
		outputInfo: outputInfo,
		sink:       sink,
		vizEvery:   vizEvery,
		vars:       vars,
		device:     device,
		logger:     log.GetLoggerWithName("training.evaluator"),
	}, nil
}

// Run evaluates one epoch. The returned loss is weighted by the number of
// samples in each minibatch, so a short trailing batch does not skew the
// mean. The model is left in inference mode; the trainer switches it back.
func (e *Evaluator) Run(epoch int) (float64, error) {
	e.model.Eval()

	batches, err := e.loader.Batches()
	if err != nil {
		return 0, err
	}
	if len(batches) == 0 {
		return 0, errors.NewValueError("training.Evaluator.Run", "validation loader produced no batches")
	}

	visualize := e.vizEvery > 0 && epoch%e.vizEvery == 0

	var (
		weighted  float64
		samples   int
		truthData []float64
		predData  []float64
		positions int
		varCount  int
	)
	for i, b := range batches {
		if b.Device != e.device {
			return 0, errors.NewDeviceMismatchError("training.Evaluator.Run", string(e.device), string(b.Device))
		}

		out, err := e.model.Forward(b.X, b.EdgeIndex, b.EdgeAttr, b.Index)
		if err != nil {
			return 0, errors.Wrapf(err, "validation forward, epoch %d minibatch %d", epoch, i)
		}
		loss, err := metrics.MSE(b.Y, out)
		if err != nil {
			return 0, err
		}
		if err := errors.CheckLoss("validation loss", loss, epoch, i); err != nil {
			return 0, err
		}
		weighted += loss * float64(b.NumGraphs)
		samples += b.NumGraphs

		if !visualize {
			continue
		}
		truth, err := graph.ReshapeNodeFeatures(b.Y, b.Index, b.NumGraphs)
		if err != nil {
			return 0, err
		}
		pred, err := graph.ReshapeNodeFeatures(out, b.Index, b.NumGraphs)
		if err != nil {
			return 0, err
		}
		shape := truth.Shape()
		if positions == 0 {
			positions, varCount = shape[1], shape[2]
		} else if shape[1] != positions || shape[2] != varCount {
			return 0, errors.NewShapeError("training.Evaluator.Run",
				[]int{-1, positions, varCount}, shape, "minibatches disagree on profile shape")
		}
		truthData = append(truthData, truth.Data().([]float64)...)
		predData = append(predData, pred.Data().([]float64)...)
	}

	meanLoss := weighted / float64(samples)
	e.logger.Info("validation epoch complete",
		log.PhaseKey, log.PhaseValidation,
		log.EpochKey, epoch,
		log.ValidationLossKey, meanLoss,
		log.SamplesKey, samples,
	)

	if visualize {
		if err := e.emitProfiles(epoch, truthData, predData, samples, positions, varCount); err != nil {
			return 0, err
		}
	}
	return meanLoss, nil
}

// emitProfiles denormalizes the accumulated truth and prediction tensors and
// hands one per-variable profile set to the sink.
func (e *Evaluator) emitProfiles(epoch int, truthData, predData []float64, samples, positions, varCount int) error {
	truth := tensor.New(tensor.WithShape(samples, positions, varCount), tensor.WithBacking(truthData))
	pred := tensor.New(tensor.WithShape(samples, positions, varCount), tensor.WithBacking(predData))

	truthPhys, err := preprocessing.Denormalize(truth, e.outputInfo)
	if err != nil {
		return err
	}
	predPhys, err := preprocessing.Denormalize(pred, e.outputInfo)
	if err != nil {
		return err
	}

	if len(e.vars) != varCount {
		return errors.NewShapeError("training.Evaluator.emitProfiles",
			[]int{varCount}, []int{len(e.vars)}, "variable specs must cover every output variable")
	}

	tData := truthPhys.Data().([]float64)
	pData := predPhys.Data().([]float64)
	for v, spec := range e.vars {
		ps := viz.ProfileSpec{
			Epoch:    epoch,
			Variable: spec.Name,
			Truth:    extractVariable(tData, samples, positions, varCount, v),
			Pred:     extractVariable(pData, samples, positions, varCount, v),
			YMin:     spec.YMin,
			YMax:     spec.YMax,
			LogScale: spec.LogScale,
		}
		if err := e.sink.SaveProfiles(ps); err != nil {
			return errors.Wrapf(err, "saving profiles for variable %q, epoch %d", spec.Name, epoch)
		}
	}
	return nil
}

// extractVariable slices one variable column out of a row-major
// (samples, positions, variables) backing array.
func extractVariable(data []float64, samples, positions, varCount, v int) [][]float64 {
	out := make([][]float64, samples)
	for s := 0; s < samples; s++ {
		row := make([]float64, positions)
		base := s * positions * varCount
		for j := 0; j < positions; j++ {
			row[j] = data[base+j*varCount+v]
		}
		out[s] = row
	}
	return out
}
