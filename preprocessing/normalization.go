package preprocessing

import (
	"encoding/json"
	"strconv"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Normalization methods recognized by the denormalizer.
const (
	// MethodStandardization is (x - mean) / std.
	MethodStandardization = "standardization"
	// MethodLogStandardization is standardization applied after log1p.
	MethodLogStandardization = "log_standardization"
	// MethodLogRobustScaling is robust scaling applied after log1p.
	MethodLogRobustScaling = "log_robust_scaling"
)

// VarNormalization describes how one profile variable was normalized.
// Standardization methods carry (mean, std); robust scaling carries a fitted
// scaler.
type VarNormalization struct {
	Method string        `json:"method"`
	Mean   float64       `json:"mean,omitempty"`
	Std    float64       `json:"std,omitempty"`
	Scaler *RobustScaler `json:"scaler,omitempty"`
}

// NormalizationInfo maps a variable index to its normalization descriptor.
// One mapping exists per tensor role (inputs, outputs); both are loaded once
// and treated as read-only for the life of a run.
type NormalizationInfo map[int]VarNormalization

// UnmarshalJSON accepts the on-disk form, which keys variables by decimal
// strings.
func (n *NormalizationInfo) UnmarshalJSON(data []byte) error {
	var raw map[string]VarNormalization
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(NormalizationInfo, len(raw))
	for key, v := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return errors.Wrapf(err, "normalization info: variable key %q is not an index", key)
		}
		out[idx] = v
	}
	*n = out
	return nil
}

// MarshalJSON writes the on-disk form with string variable keys.
func (n NormalizationInfo) MarshalJSON() ([]byte, error) {
	raw := make(map[string]VarNormalization, len(n))
	for idx, v := range n {
		raw[strconv.Itoa(idx)] = v
	}
	return json.Marshal(raw)
}

// Validate checks that every descriptor names a known method and carries the
// state that method needs. Unknown methods are a configuration error and are
// rejected up front rather than silently passed through during validation.
func (n NormalizationInfo) Validate() error {
	for idx, v := range n {
		switch v.Method {
		case MethodStandardization, MethodLogStandardization:
			// mean/std are plain floats; zero std is the caller's problem the
			// same way a zero IQR is.
		case MethodLogRobustScaling:
			if v.Scaler == nil || !v.Scaler.IsFitted() {
				return errors.NewValueError("NormalizationInfo.Validate",
					"log_robust_scaling for variable "+strconv.Itoa(idx)+" has no fitted scaler")
			}
		default:
			return errors.NewNormalizationMethodError(idx, v.Method)
		}
	}
	return nil
}
