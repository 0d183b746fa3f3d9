package training

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/graph"
	"github.com/heliosml/profgnn/metrics"
	"github.com/heliosml/profgnn/nn"
	"github.com/heliosml/profgnn/optim"
	"github.com/heliosml/profgnn/pkg/errors"
	"github.com/heliosml/profgnn/pkg/log"
)

// Config carries the run-level training hyperparameters.
type Config struct {
	MaxEpochs          int     `json:"max_epochs"`
	BatchSize          int     `json:"batch_size"`
	VizEvery           int     `json:"viz_every"`
	CheckpointDir      string  `json:"checkpoint_dir"`
	CheckpointPerEpoch bool    `json:"checkpoint_per_epoch"`
	PhysicsWeight      float64 `json:"physics_weight"`
	Seed               int64   `json:"seed"`
	Device             string  `json:"device"`
}

// Trainer drives the full optimization loop: shuffled minibatches, AdamW
// steps, per-epoch learning-rate decay, validation, and checkpointing.
type Trainer struct {
	cfg        Config
	model      nn.Module
	opt        optim.Optimizer
	sched      optim.Scheduler
	loader     *graph.Loader
	evaluator  *Evaluator
	physics    PhysicsLoss
	device     graph.Device
	logger     log.Logger
	startEpoch int
}

// NewTrainer wires a model, optimizer, scheduler and data loaders into a
// runnable loop. The evaluator may be nil for runs without a validation set.
func NewTrainer(cfg Config, model nn.Module, opt optim.Optimizer, sched optim.Scheduler,
	loader *graph.Loader, evaluator *Evaluator) (*Trainer, error) {
	if model == nil || opt == nil || sched == nil || loader == nil {
		return nil, errors.NewValueError("training.NewTrainer", "model, optimizer, scheduler and loader are required")
	}
	if cfg.MaxEpochs <= 0 {
		return nil, errors.NewValueError("training.NewTrainer", "max_epochs must be positive")
	}
	device := graph.Device(cfg.Device)
	if device == "" {
		device = graph.CPU
	}
	return &Trainer{
		cfg:       cfg,
		model:     model,
		opt:       opt,
		sched:     sched,
		loader:    loader,
		evaluator: evaluator,
		device:    device,
		logger:    log.GetLoggerWithName("training.trainer"),
	}, nil
}

// WithPhysicsLoss attaches an optional physics residual term. The term only
// contributes when cfg.PhysicsWeight is nonzero.
func (t *Trainer) WithPhysicsLoss(p PhysicsLoss) *Trainer {
	t.physics = p
	return t
}

// Resume restores model, optimizer and scheduler state from a checkpoint and
// continues from the epoch after the one recorded.
func (t *Trainer) Resume(ck *Checkpoint) error {
	if err := t.model.LoadStateDict(ck.Model); err != nil {
		return errors.Wrapf(err, "restoring model from checkpoint (epoch %d)", ck.Epoch)
	}
	if err := t.opt.LoadState(ck.Optimizer); err != nil {
		return errors.Wrapf(err, "restoring optimizer from checkpoint (epoch %d)", ck.Epoch)
	}
	if err := t.sched.LoadState(ck.Scheduler); err != nil {
		return errors.Wrapf(err, "restoring scheduler from checkpoint (epoch %d)", ck.Epoch)
	}
	t.startEpoch = ck.Epoch + 1
	t.logger.Info("resumed from checkpoint",
		log.EpochKey, ck.Epoch,
		log.LearningRateKey, t.opt.LR(),
	)
	return nil
}

// Run executes epochs [startEpoch, MaxEpochs). Each epoch trains over all
// minibatches, decays the learning rate, validates, and persists a
// checkpoint. A non-finite loss aborts the run before any state is saved.
func (t *Trainer) Run() error {
	for epoch := t.startEpoch; epoch < t.cfg.MaxEpochs; epoch++ {
		if err := t.runEpoch(epoch); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trainer) runEpoch(epoch int) error {
	t.model.Train()
	start := time.Now()

	batches, err := t.loader.Batches()
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return errors.NewValueError("training.Trainer.runEpoch", "training loader produced no batches")
	}

	var sumData, sumPhysics float64
	for i, b := range batches {
		if err := t.step(epoch, i, b, &sumData, &sumPhysics); err != nil {
			return err
		}
	}

	n := float64(len(batches))
	t.logger.Info("training epoch complete",
		log.PhaseKey, log.PhaseTrain,
		log.EpochKey, epoch,
		log.NumMinibatchKey, len(batches),
		log.DataLossKey, sumData/n,
		log.PhysicsLossKey, sumPhysics/n,
		log.LearningRateKey, t.opt.LR(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	t.sched.Step()

	if t.evaluator != nil {
		if _, err := t.evaluator.Run(epoch); err != nil {
			return err
		}
	}
	if t.cfg.CheckpointDir != "" {
		ck := &Checkpoint{
			Epoch:     epoch,
			Model:     t.model.StateDict(),
			Optimizer: t.opt.State(),
			Scheduler: t.sched.State(),
		}
		path, err := SaveCheckpoint(t.cfg.CheckpointDir, ck, t.cfg.CheckpointPerEpoch)
		if err != nil {
			return err
		}
		t.logger.Info("checkpoint saved",
			log.PhaseKey, log.PhaseCheckpoint,
			log.EpochKey, epoch,
			log.CheckpointPathKey, path,
		)
	}
	return nil
}

// step runs one minibatch: forward, loss, gradient, optimizer update.
func (t *Trainer) step(epoch, i int, b *graph.Batch, sumData, sumPhysics *float64) error {
	if b.Device != t.device {
		return errors.NewDeviceMismatchError("training.Trainer.step", string(t.device), string(b.Device))
	}
	t.opt.ZeroGrad()

	return errors.SafeExecute("training step", func() error {
		out, err := t.model.Forward(b.X, b.EdgeIndex, b.EdgeAttr, b.Index)
		if err != nil {
			return errors.Wrapf(err, "forward, epoch %d minibatch %d", epoch, i)
		}

		lossData, err := metrics.MSE(b.Y, out)
		if err != nil {
			return err
		}
		grad, err := metrics.MSEGradient(b.Y, out)
		if err != nil {
			return err
		}

		var lossPhysics float64
		if t.physics != nil && t.cfg.PhysicsWeight != 0 {
			lp, gp, err := t.physics.Loss(out, b.Index, b.NumGraphs)
			if err != nil {
				return err
			}
			lossPhysics = lp
			var scaled mat.Dense
			scaled.Scale(t.cfg.PhysicsWeight, gp)
			grad.Add(grad, &scaled)
		}

		total := lossData + t.cfg.PhysicsWeight*lossPhysics
		if err := errors.CheckLoss("training loss", total, epoch, i); err != nil {
			return err
		}

		if err := t.model.Backward(grad); err != nil {
			return errors.Wrapf(err, "backward, epoch %d minibatch %d", epoch, i)
		}
		if err := t.opt.Step(); err != nil {
			return err
		}

		*sumData += lossData
		*sumPhysics += lossPhysics
		t.logger.Debug("minibatch step",
			log.PhaseKey, log.PhaseTrain,
			log.EpochKey, epoch,
			log.MinibatchKey, i,
			log.DataLossKey, lossData,
			log.PhysicsLossKey, lossPhysics,
			log.TotalLossKey, total,
		)
		return nil
	})
}
