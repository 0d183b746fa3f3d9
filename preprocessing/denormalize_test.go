package preprocessing

import (
	"math"
	"testing"

	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/pkg/errors"
)

// profiles builds a (samples, positions, variables) tensor from a flat
// row-major backing slice.
func profiles(samples, positions, variables int, data []float64) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(samples, positions, variables),
		tensor.WithBacking(data),
	)
}

func TestDenormalizeStandardization(t *testing.T) {
	x := profiles(1, 2, 1, []float64{0, 1})
	info := NormalizationInfo{
		0: {Method: MethodStandardization, Mean: 10, Std: 2},
	}
	out, err := Denormalize(x, info)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	got := out.Data().([]float64)
	want := []float64{10, 12}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenormalizeLogStandardization(t *testing.T) {
	x := profiles(1, 2, 1, []float64{0, 1})
	info := NormalizationInfo{
		0: {Method: MethodLogStandardization, Mean: 1, Std: 0.5},
	}
	out, err := Denormalize(x, info)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	got := out.Data().([]float64)
	want := []float64{math.Expm1(1), math.Expm1(1.5)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenormalizeLogRobustScaling(t *testing.T) {
	scaler := &RobustScaler{Median: 2, IQR: 3, fitted: true}
	x := profiles(1, 2, 1, []float64{0, 1})
	info := NormalizationInfo{
		0: {Method: MethodLogRobustScaling, Scaler: scaler},
	}
	out, err := Denormalize(x, info)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	got := out.Data().([]float64)
	want := []float64{math.Expm1(2), math.Expm1(5)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenormalizePerVariableAndUntouched(t *testing.T) {
	// Two variables; only variable 0 has a descriptor, variable 1 passes
	// through unchanged.
	x := profiles(2, 2, 2, []float64{
		0, 100,
		1, 200,
		2, 300,
		3, 400,
	})
	info := NormalizationInfo{
		0: {Method: MethodStandardization, Mean: 1, Std: 10},
	}
	out, err := Denormalize(x, info)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	got := out.Data().([]float64)
	want := []float64{
		1, 100,
		11, 200,
		21, 300,
		31, 400,
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenormalizeDoesNotMutateInput(t *testing.T) {
	backing := []float64{1, 2, 3, 4}
	x := profiles(1, 4, 1, backing)
	info := NormalizationInfo{
		0: {Method: MethodStandardization, Mean: 100, Std: 1},
	}
	if _, err := Denormalize(x, info); err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	for i, v := range []float64{1, 2, 3, 4} {
		if backing[i] != v {
			t.Fatalf("input mutated at %d: got %v, want %v", i, backing[i], v)
		}
	}
}

func TestDenormalizeUnknownMethod(t *testing.T) {
	x := profiles(1, 1, 1, []float64{0})
	info := NormalizationInfo{
		0: {Method: "minmax"},
	}
	_, err := Denormalize(x, info)
	if err == nil {
		t.Fatal("unknown method did not fail")
	}
	var nm *errors.NormalizationMethodError
	if !errors.As(err, &nm) {
		t.Fatalf("error = %T, want *errors.NormalizationMethodError", err)
	}
}

func TestDenormalizeShapeAndRangeErrors(t *testing.T) {
	flat := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float64{1, 2, 3, 4}))
	if _, err := Denormalize(flat, nil); err == nil {
		t.Error("2-D input did not fail")
	}

	x := profiles(1, 1, 1, []float64{0})
	info := NormalizationInfo{
		3: {Method: MethodStandardization, Std: 1},
	}
	if _, err := Denormalize(x, info); err == nil {
		t.Error("out-of-range variable index did not fail")
	}
}

func TestDenormalizeRejectsNonFloat64(t *testing.T) {
	x := tensor.New(
		tensor.WithShape(1, 2, 1),
		tensor.WithBacking([]float32{1, 2}),
	)
	info := NormalizationInfo{
		0: {Method: MethodStandardization, Mean: 1, Std: 1},
	}
	_, err := Denormalize(x, info)
	if err == nil {
		t.Fatal("float32 tensor did not fail")
	}
	var ve *errors.ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *errors.ValueError", err)
	}
}

func TestDenormalizeUnfittedScalerRejected(t *testing.T) {
	x := profiles(1, 1, 1, []float64{0})
	info := NormalizationInfo{
		0: {Method: MethodLogRobustScaling, Scaler: NewRobustScaler()},
	}
	if _, err := Denormalize(x, info); err == nil {
		t.Fatal("unfitted scaler did not fail validation")
	}
}
