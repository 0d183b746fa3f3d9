package preprocessing

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/pkg/errors"
	"github.com/heliosml/profgnn/pkg/parallel"
)

// Denormalize reconstructs physical-space values from a normalized tensor
// shaped (samples, positions, variables). Each variable's slice is inverse
// transformed according to its descriptor:
//
//	standardization:      x*std + mean
//	log_standardization:  expm1(x*std + mean)
//	log_robust_scaling:   expm1(scaler.InverseTransform(x))
//
// Variables absent from the mapping are left unmodified. The input tensor is
// never mutated; validation diagnostics and the raw normalized tensors must
// remain independently usable, so the result is always a copy.
func Denormalize(x *tensor.Dense, info NormalizationInfo) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 3 {
		return nil, errors.NewShapeError("Denormalize", []int{-1, -1, -1}, shape, "want (samples, positions, variables)")
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}

	samples, positions, variables := shape[0], shape[1], shape[2]
	for idx := range info {
		if idx < 0 || idx >= variables {
			return nil, errors.Newf("Denormalize: normalization info names variable %d, tensor has %d variables", idx, variables)
		}
	}

	out := x.Clone().(*tensor.Dense)
	data, ok := out.Data().([]float64)
	if !ok {
		return nil, errors.NewValueError("Denormalize",
			fmt.Sprintf("unsupported element type %v, want float64", x.Dtype()))
	}

	for v, desc := range info {
		parallel.RunThreshold(samples, 256, func(start, end int) {
			for i := start; i < end; i++ {
				base := (i*positions)*variables + v
				for j := 0; j < positions; j++ {
					at := base + j*variables
					switch desc.Method {
					case MethodStandardization:
						data[at] = data[at]*desc.Std + desc.Mean
					case MethodLogStandardization:
						data[at] = math.Expm1(data[at]*desc.Std + desc.Mean)
					case MethodLogRobustScaling:
						data[at] = math.Expm1(desc.Scaler.inverseScalar(data[at]))
					}
				}
			}
		})
	}
	return out, nil
}
