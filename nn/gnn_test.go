package nn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testConfig() Config {
	return Config{
		InputDim:  2,
		EdgeDim:   1,
		HiddenDim: 4,
		OutputDim: 1,
		NumLayers: 2,
		Seed:      7,
	}
}

// chainBatch builds a 3-node chain with bidirectional edges.
func chainBatch() (*mat.Dense, [][2]int, *mat.Dense, []int) {
	x := mat.NewDense(3, 2, []float64{
		0.5, -1.0,
		1.5, 0.25,
		-0.75, 2.0,
	})
	edgeIndex := [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
	edgeAttr := mat.NewDense(4, 1, []float64{0.5, -0.5, 0.5, -0.5})
	index := []int{0, 0, 0}
	return x, edgeIndex, edgeAttr, index
}

func TestNewGNNValidation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero input dim", func(c *Config) { c.InputDim = 0 }},
		{"zero hidden dim", func(c *Config) { c.HiddenDim = 0 }},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }},
		{"negative output dim", func(c *Config) { c.OutputDim = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mod(&cfg)
			if _, err := NewGNN(cfg); err == nil {
				t.Error("invalid config did not fail")
			}
		})
	}
}

func TestGNNForwardShape(t *testing.T) {
	g, err := NewGNN(testConfig())
	if err != nil {
		t.Fatalf("NewGNN() error = %v", err)
	}
	x, ei, ea, idx := chainBatch()
	out, err := g.Forward(x, ei, ea, idx)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	r, c := out.Dims()
	if r != 3 || c != 1 {
		t.Errorf("output dims = (%d, %d), want (3, 1)", r, c)
	}
}

func TestGNNForwardIsSeedDeterministic(t *testing.T) {
	x, ei, ea, idx := chainBatch()
	outs := make([]*mat.Dense, 2)
	for i := range outs {
		g, err := NewGNN(testConfig())
		if err != nil {
			t.Fatalf("NewGNN() error = %v", err)
		}
		out, err := g.Forward(x, ei, ea, idx)
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		outs[i] = out
	}
	if !mat.EqualApprox(outs[0], outs[1], 0) {
		t.Error("same seed produced different outputs")
	}
}

func TestGNNForwardValidation(t *testing.T) {
	g, _ := NewGNN(testConfig())
	x, ei, ea, idx := chainBatch()

	wide := mat.NewDense(3, 5, nil)
	if _, err := g.Forward(wide, ei, ea, idx); err == nil {
		t.Error("wrong feature width did not fail")
	}
	if _, err := g.Forward(x, ei, ea, []int{0}); err == nil {
		t.Error("short assignment vector did not fail")
	}
	bad := [][2]int{{0, 9}, {1, 0}, {1, 2}, {2, 1}}
	if _, err := g.Forward(x, bad, ea, idx); err == nil {
		t.Error("out-of-range edge did not fail")
	}
}

func TestGNNBackwardGuards(t *testing.T) {
	g, _ := NewGNN(testConfig())
	grad := mat.NewDense(3, 1, nil)

	if err := g.Backward(grad); err == nil {
		t.Error("Backward without Forward did not fail")
	}

	x, ei, ea, idx := chainBatch()
	g.Eval()
	if _, err := g.Forward(x, ei, ea, idx); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if err := g.Backward(grad); err == nil {
		t.Error("Backward in inference mode did not fail")
	}
}

// TestGNNGradientCheck compares analytic parameter gradients against central
// finite differences of the summed output.
func TestGNNGradientCheck(t *testing.T) {
	g, err := NewGNN(testConfig())
	if err != nil {
		t.Fatalf("NewGNN() error = %v", err)
	}
	x, ei, ea, idx := chainBatch()

	sumOutput := func() float64 {
		out, err := g.Forward(x, ei, ea, idx)
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		var s float64
		r, c := out.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				s += out.At(i, j)
			}
		}
		return s
	}

	// Analytic pass: dL/dout is all ones for a summed output.
	g.Train()
	if _, err := g.Forward(x, ei, ea, idx); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	ones := mat.NewDense(3, 1, []float64{1, 1, 1})
	if err := g.Backward(ones); err != nil {
		t.Fatalf("Backward() error = %v", err)
	}

	const eps = 1e-6
	for _, p := range g.Parameters() {
		rows, cols := p.Data.Dims()
		// Spot-check a handful of entries per parameter.
		entries := [][2]int{{0, 0}, {rows - 1, cols - 1}, {rows / 2, cols / 2}}
		for _, e := range entries {
			i, j := e[0], e[1]
			analytic := p.Grad.At(i, j)

			orig := p.Data.At(i, j)
			p.Data.Set(i, j, orig+eps)
			plus := sumOutput()
			p.Data.Set(i, j, orig-eps)
			minus := sumOutput()
			p.Data.Set(i, j, orig)

			numeric := (plus - minus) / (2 * eps)
			scale := math.Max(1, math.Max(math.Abs(analytic), math.Abs(numeric)))
			if math.Abs(analytic-numeric)/scale > 1e-5 {
				t.Errorf("%s[%d,%d]: analytic %v vs numeric %v", p.Name, i, j, analytic, numeric)
			}
		}
	}
}

func TestGNNStateDictRoundTrip(t *testing.T) {
	a, _ := NewGNN(testConfig())
	cfg := testConfig()
	cfg.Seed = 99
	b, _ := NewGNN(cfg)

	if err := b.LoadStateDict(a.StateDict()); err != nil {
		t.Fatalf("LoadStateDict() error = %v", err)
	}
	x, ei, ea, idx := chainBatch()
	outA, err := a.Forward(x, ei, ea, idx)
	if err != nil {
		t.Fatalf("Forward(a) error = %v", err)
	}
	outB, err := b.Forward(x, ei, ea, idx)
	if err != nil {
		t.Fatalf("Forward(b) error = %v", err)
	}
	if !mat.EqualApprox(outA, outB, 1e-15) {
		t.Error("restored model disagrees with source model")
	}
}

func TestGNNLoadStateDictRejectsMismatch(t *testing.T) {
	g, _ := NewGNN(testConfig())
	state := g.StateDict()
	delete(state, "encoder.weight")
	if err := g.LoadStateDict(state); err == nil {
		t.Error("missing parameter did not fail")
	}
}
