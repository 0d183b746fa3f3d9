package graph

import (
	"math/rand"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Loader batches graph samples for one pass over a dataset. The training
// loader shuffles sample order every epoch with its own seeded RNG; the
// validation loader keeps the stable dataset order so diagnostics line up
// across epochs.
type Loader struct {
	samples   []*Sample
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	device    Device
}

// NewLoader creates a loader over samples. A non-positive batchSize is
// rejected; a batchSize larger than the dataset yields a single batch.
func NewLoader(samples []*Sample, batchSize int, shuffle bool, seed int64, device Device) (*Loader, error) {
	if batchSize <= 0 {
		return nil, errors.NewValueError("graph.NewLoader", "batch size must be positive")
	}
	if len(samples) == 0 {
		return nil, errors.NewValueError("graph.NewLoader", "empty dataset")
	}
	return &Loader{
		samples:   samples,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		device:    device,
	}, nil
}

// NumSamples returns the dataset size.
func (l *Loader) NumSamples() int {
	return len(l.samples)
}

// NumBatches returns the number of batches per epoch. The final batch may be
// smaller than the rest.
func (l *Loader) NumBatches() int {
	return (len(l.samples) + l.batchSize - 1) / l.batchSize
}

// Batches materializes one epoch's worth of batches. When shuffling is
// enabled each call permutes the sample order anew.
func (l *Loader) Batches() ([]*Batch, error) {
	order := make([]int, len(l.samples))
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	batches := make([]*Batch, 0, l.NumBatches())
	for start := 0; start < len(order); start += l.batchSize {
		end := start + l.batchSize
		if end > len(order) {
			end = len(order)
		}
		chunk := make([]*Sample, 0, end-start)
		for _, idx := range order[start:end] {
			chunk = append(chunk, l.samples[idx])
		}
		batch, err := NewBatch(chunk, l.device)
		if err != nil {
			return nil, errors.Wrap(err, "graph.Loader.Batches")
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
