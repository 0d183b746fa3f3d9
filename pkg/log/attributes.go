package log

// Standard attribute keys. Using these constants keeps training records
// consistent across the trainer, evaluator and preprocessing packages, which
// makes the JSON log stream greppable per run concern.
const (
	// ComponentKey identifies the package or component emitting the record.
	ComponentKey = "component"

	// PhaseKey distinguishes lifecycle phases: "train", "valid", "checkpoint".
	PhaseKey = "phase"

	// EpochKey is the zero-based epoch index.
	EpochKey = "training.epoch"

	// MinibatchKey is the zero-based minibatch index within an epoch.
	MinibatchKey = "training.minibatch"

	// NumMinibatchKey is the number of minibatches per epoch.
	NumMinibatchKey = "training.num_minibatch"

	// DataLossKey is the mean-squared-error data term of the loss.
	DataLossKey = "loss.data"

	// PhysicsLossKey is the physics-residual term of the loss (zero-weighted by default).
	PhysicsLossKey = "loss.physics"

	// TotalLossKey is the weighted sum of loss terms.
	TotalLossKey = "loss.total"

	// ValidationLossKey is the sample-weighted mean validation loss of an epoch.
	ValidationLossKey = "loss.validation"

	// LearningRateKey is the optimizer learning rate at the time of logging.
	LearningRateKey = "hyperparams.learning_rate"

	// SamplesKey is a sample count (dataset size, batch size in samples).
	SamplesKey = "data.samples"

	// NodesKey is a node count inside a graph batch.
	NodesKey = "data.nodes"

	// VariablesKey is the number of profile variables in a tensor.
	VariablesKey = "data.variables"

	// DeviceKey is the compute device tag of the tensors involved.
	DeviceKey = "config.device"

	// SeedKey is the RNG seed of the run.
	SeedKey = "config.random_seed"

	// CheckpointPathKey is the path a checkpoint was written to or read from.
	CheckpointPathKey = "checkpoint.path"

	// DurationMsKey is the wall-clock duration of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Standard phase values.
const (
	PhaseTrain      = "train"
	PhaseValidation = "valid"
	PhaseCheckpoint = "checkpoint"
)
