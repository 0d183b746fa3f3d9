// Package profile loads solar-wind profile datasets: dense profile tensors
// stored in NumPy format and the per-variable normalization metadata saved
// alongside them by the preprocessing pipeline.
package profile

import (
	"encoding/json"
	"os"

	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/pkg/errors"
	"github.com/heliosml/profgnn/preprocessing"
)

// LoadTensor reads a 3-D profile tensor from a .npy file. Files are stored
// as (samples, variables, positions); the result is transposed to
// (samples, positions, variables), the layout the rest of the pipeline uses.
// float32 payloads are widened to float64.
func LoadTensor(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening tensor file %q", path)
	}
	defer f.Close()

	var raw tensor.Dense
	if err := raw.ReadNpy(f); err != nil {
		return nil, errors.Wrapf(err, "decoding npy tensor %q", path)
	}

	shape := raw.Shape()
	if len(shape) != 3 {
		return nil, errors.NewShapeError("profile.LoadTensor", []int{-1, -1, -1}, shape, "want (samples, variables, positions)")
	}
	samples, variables, positions := shape[0], shape[1], shape[2]

	var src []float64
	switch data := raw.Data().(type) {
	case []float64:
		src = data
	case []float32:
		src = make([]float64, len(data))
		for i, v := range data {
			src[i] = float64(v)
		}
	default:
		return nil, errors.Newf("profile.LoadTensor: unsupported element type %v in %q", raw.Dtype(), path)
	}

	// Transpose (s, v, p) -> (s, p, v).
	out := make([]float64, len(src))
	for s := 0; s < samples; s++ {
		for v := 0; v < variables; v++ {
			for p := 0; p < positions; p++ {
				out[(s*positions+p)*variables+v] = src[(s*variables+v)*positions+p]
			}
		}
	}
	return tensor.New(
		tensor.WithShape(samples, positions, variables),
		tensor.WithBacking(out),
	), nil
}

// LoadNormalizationInfo reads the per-variable normalization metadata JSON
// written during preprocessing.
func LoadNormalizationInfo(path string) (preprocessing.NormalizationInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading normalization info %q", path)
	}
	var info preprocessing.NormalizationInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrapf(err, "decoding normalization info %q", path)
	}
	if err := info.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating normalization info %q", path)
	}
	return info, nil
}
