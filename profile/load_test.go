package profile

import (
	"os"
	"path/filepath"
	"testing"

	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/preprocessing"
)

func writeNpy(t *testing.T, d *tensor.Dense) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.npy")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := d.WriteNpy(f); err != nil {
		t.Fatalf("WriteNpy() error = %v", err)
	}
	return path
}

func TestLoadTensorTransposes(t *testing.T) {
	// On disk: (samples=2, variables=3, positions=4).
	src := make([]float64, 2*3*4)
	for i := range src {
		src[i] = float64(i)
	}
	disk := tensor.New(tensor.WithShape(2, 3, 4), tensor.WithBacking(src))
	path := writeNpy(t, disk)

	got, err := LoadTensor(path)
	if err != nil {
		t.Fatalf("LoadTensor() error = %v", err)
	}
	shape := got.Shape()
	if shape[0] != 2 || shape[1] != 4 || shape[2] != 3 {
		t.Fatalf("shape = %v, want (2, 4, 3)", shape)
	}

	// Disk value at (s, v, p) must land at (s, p, v).
	data := got.Data().([]float64)
	for s := 0; s < 2; s++ {
		for v := 0; v < 3; v++ {
			for p := 0; p < 4; p++ {
				want := src[(s*3+v)*4+p]
				at := (s*4+p)*3 + v
				if data[at] != want {
					t.Fatalf("value at (s=%d, p=%d, v=%d) = %v, want %v", s, p, v, data[at], want)
				}
			}
		}
	}
}

func TestLoadTensorWidensFloat32(t *testing.T) {
	src := []float32{1.5, 2.5, 3.5, 4.5, 5.5, 6.5}
	disk := tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking(src))
	path := writeNpy(t, disk)

	got, err := LoadTensor(path)
	if err != nil {
		t.Fatalf("LoadTensor() error = %v", err)
	}
	data := got.Data().([]float64)
	if data[0] != 1.5 {
		t.Errorf("data[0] = %v, want 1.5", data[0])
	}
}

func TestLoadTensorRejectsWrongRank(t *testing.T) {
	disk := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}))
	path := writeNpy(t, disk)
	if _, err := LoadTensor(path); err == nil {
		t.Error("2-D tensor did not fail")
	}
}

func TestLoadTensorMissingFile(t *testing.T) {
	if _, err := LoadTensor(filepath.Join(t.TempDir(), "nope.npy")); err == nil {
		t.Error("missing file did not fail")
	}
}

func TestLoadNormalizationInfo(t *testing.T) {
	raw := `{
		"0": {"method": "log_robust_scaling", "scaler": {"median": 10, "iqr": 4}},
		"1": {"method": "standardization", "mean": 300, "std": 80}
	}`
	path := filepath.Join(t.TempDir(), "norm.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := LoadNormalizationInfo(path)
	if err != nil {
		t.Fatalf("LoadNormalizationInfo() error = %v", err)
	}
	if len(info) != 2 {
		t.Fatalf("decoded %d variables, want 2", len(info))
	}
	if info[0].Method != preprocessing.MethodLogRobustScaling {
		t.Errorf("variable 0 method = %q", info[0].Method)
	}
	if info[0].Scaler == nil || !info[0].Scaler.IsFitted() {
		t.Error("variable 0 scaler not fitted after decode")
	}
}

func TestLoadNormalizationInfoRejectsUnknownMethod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "norm.json")
	if err := os.WriteFile(path, []byte(`{"0": {"method": "minmax"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadNormalizationInfo(path); err == nil {
		t.Error("unknown method did not fail")
	}
}
