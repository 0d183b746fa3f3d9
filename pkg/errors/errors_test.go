package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("RobustScaler", "Transform")
	if err == nil {
		t.Fatal("constructor returned nil")
	}
	var nf *NotFittedError
	if !As(err, &nf) {
		t.Fatalf("As() failed for %T", err)
	}
	if nf.TransformName != "RobustScaler" || nf.Method != "Transform" {
		t.Errorf("fields = %+v", nf)
	}
	if !strings.Contains(err.Error(), "RobustScaler") {
		t.Errorf("message %q does not name the transform", err.Error())
	}
}

func TestShapeError(t *testing.T) {
	err := NewShapeError("Denormalize", []int{2, 3, 4}, []int{2, 3}, "rank")
	var se *ShapeError
	if !As(err, &se) {
		t.Fatalf("As() failed for %T", err)
	}
	msg := err.Error()
	for _, want := range []string{"Denormalize", "2", "3", "4", "rank"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestNormalizationMethodError(t *testing.T) {
	err := NewNormalizationMethodError(2, "minmax")
	var nm *NormalizationMethodError
	if !As(err, &nm) {
		t.Fatalf("As() failed for %T", err)
	}
	if nm.Variable != 2 || nm.Method != "minmax" {
		t.Errorf("fields = %+v", nm)
	}
}

func TestNumericalInstabilityError(t *testing.T) {
	err := NewNumericalInstabilityError("training loss", 4, 12, math.NaN())
	var ni *NumericalInstabilityError
	if !As(err, &ni) {
		t.Fatalf("As() failed for %T", err)
	}
	if ni.Epoch != 4 || ni.Minibatch != 12 {
		t.Errorf("fields = %+v", ni)
	}
}

func TestErrorsCarryStacktraces(t *testing.T) {
	err := NewValueError("op", "bad input")
	verbose := fmt.Sprintf("%+v", err)
	if !strings.Contains(verbose, "errors_test") {
		t.Error("constructor did not attach a stack trace")
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewDeviceMismatchError("step", "cpu", "accel")
	wrapped := Wrapf(base, "epoch %d", 3)

	var dm *DeviceMismatchError
	if !As(wrapped, &dm) {
		t.Fatal("wrapping lost the typed error")
	}
	if dm.Want != "cpu" || dm.Got != "accel" {
		t.Errorf("fields = %+v", dm)
	}
	if !strings.Contains(wrapped.Error(), "epoch 3") {
		t.Errorf("message %q missing wrap context", wrapped.Error())
	}
}

func TestCheckLoss(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"finite", 0.25, false},
		{"zero", 0, false},
		{"nan", math.NaN(), true},
		{"positive inf", math.Inf(1), true},
		{"negative inf", math.Inf(-1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLoss("training loss", tt.value, 1, 2)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckLoss(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

type fakeMatrix struct{ vals [][]float64 }

func (m fakeMatrix) At(i, j int) float64 { return m.vals[i][j] }

func TestCheckMatrix(t *testing.T) {
	ok := fakeMatrix{vals: [][]float64{{1, 2}, {3, 4}}}
	if err := CheckMatrix("grad", ok, 2, 2, 0, 0); err != nil {
		t.Errorf("finite matrix flagged: %v", err)
	}

	bad := fakeMatrix{vals: [][]float64{{1, 2}, {math.Inf(1), 4}}}
	if err := CheckMatrix("grad", bad, 2, 2, 0, 0); err == nil {
		t.Error("Inf entry not flagged")
	}
}

func TestWarningHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(err error) { got = err })
	defer SetWarningHandler(nil)

	warning := New("degenerate scale")
	Warn(warning)
	if got == nil || got.Error() != "degenerate scale" {
		t.Errorf("handler received %v", got)
	}

	// A nil handler must not panic.
	SetWarningHandler(nil)
	Warn(New("dropped"))
}

func TestSafeExecute(t *testing.T) {
	if err := SafeExecute("noop", func() error { return nil }); err != nil {
		t.Errorf("clean run returned %v", err)
	}

	base := New("inner failure")
	if err := SafeExecute("failing", func() error { return base }); !Is(err, base) {
		t.Errorf("error not passed through: %v", err)
	}

	err := SafeExecute("panicking", func() error { panic("index blew up") })
	if err == nil {
		t.Fatal("panic was not converted to an error")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("error = %T, want *PanicError", err)
	}
	if pe.Operation != "panicking" || pe.StackTrace == "" {
		t.Errorf("panic error = %+v", pe)
	}
}
