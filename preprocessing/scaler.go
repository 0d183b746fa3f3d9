// Package preprocessing implements the normalization transforms used by the
// profile surrogate: a robust (median/IQR) scaler and the per-variable
// denormalizer that reconstructs physical-space tensors from normalized ones.
package preprocessing

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/heliosml/profgnn/pkg/errors"
)

// RobustScaler normalizes values by centering on the median and dividing by
// the interquartile range, which keeps outliers from dominating the scale.
// Fit must be called exactly once before Transform or InverseTransform;
// scalers decoded from normalization metadata files count as fitted.
type RobustScaler struct {
	Median float64 `json:"median"`
	IQR    float64 `json:"iqr"`

	fitted bool
}

// NewRobustScaler creates an unfitted RobustScaler.
func NewRobustScaler() *RobustScaler {
	return &RobustScaler{}
}

// IsFitted reports whether Fit has been called (or the scaler was decoded
// from persisted metadata).
func (s *RobustScaler) IsFitted() bool {
	return s.fitted
}

// Fit computes the median and interquartile range of the flattened input.
// Quartiles use linear interpolation between order statistics, matching the
// convention the normalization metadata was produced with.
//
// A zero IQR (degenerate distribution) is reported through the warning hook;
// Transform on such a scaler produces non-finite values and callers are
// expected to guard against degenerate inputs.
func (s *RobustScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.NewValueError("RobustScaler.Fit", "empty input")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Median = orderStatQuantile(sorted, 0.5)
	q1 := orderStatQuantile(sorted, 0.25)
	q3 := orderStatQuantile(sorted, 0.75)
	s.IQR = q3 - q1
	s.fitted = true

	if s.IQR == 0 {
		errors.Warn(errors.Newf("RobustScaler.Fit: zero interquartile range (median=%v); Transform will produce non-finite values", s.Median))
	}
	return nil
}

// Transform returns (values - median) / IQR elementwise. The input is not
// modified.
func (s *RobustScaler) Transform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("RobustScaler", "Transform")
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Median) / s.IQR
	}
	return out, nil
}

// InverseTransform returns values*IQR + median elementwise, the exact left
// inverse of Transform under floating-point tolerance.
func (s *RobustScaler) InverseTransform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("RobustScaler", "InverseTransform")
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*s.IQR + s.Median
	}
	return out, nil
}

// inverseScalar is the scalar form of InverseTransform, used by the
// denormalizer's per-element loop.
func (s *RobustScaler) inverseScalar(v float64) float64 {
	return v*s.IQR + s.Median
}

// UnmarshalJSON decodes a persisted scaler and marks it fitted.
func (s *RobustScaler) UnmarshalJSON(data []byte) error {
	type plain RobustScaler
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s.Median = p.Median
	s.IQR = p.IQR
	s.fitted = true
	return nil
}

// String returns a short description of the scaler.
func (s *RobustScaler) String() string {
	if !s.fitted {
		return "RobustScaler(unfitted)"
	}
	return fmt.Sprintf("RobustScaler(median=%g, iqr=%g)", s.Median, s.IQR)
}

// orderStatQuantile computes the p-quantile of sorted data by linear
// interpolation at position p*(n-1). gonum's stat.Quantile interpolates the
// empirical CDF instead, which disagrees with the convention used when the
// metadata files were generated, so the rule is implemented directly.
func orderStatQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
