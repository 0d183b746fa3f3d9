package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/heliosml/profgnn/pkg/errors"
)

// PlotSink writes one PNG per (variable, epoch) into Dir: ground-truth
// profiles in grey, predictions in blue.
type PlotSink struct {
	Dir string
}

// NewPlotSink creates the output directory if needed.
func NewPlotSink(dir string) (*PlotSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "viz: creating plot directory %s", dir)
	}
	return &PlotSink{Dir: dir}, nil
}

// SaveProfiles implements Sink.
func (s *PlotSink) SaveProfiles(spec ProfileSpec) error {
	if len(spec.Truth) != len(spec.Pred) {
		return errors.NewShapeError("viz.PlotSink.SaveProfiles",
			[]int{len(spec.Truth)}, []int{len(spec.Pred)}, "truth and prediction sample counts differ")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s true vs predicted (epoch %d)", spec.Variable, spec.Epoch)
	p.X.Label.Text = "position"
	p.Y.Label.Text = spec.Variable
	if spec.LogScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if spec.YMax > spec.YMin {
		p.Y.Min = spec.YMin
		p.Y.Max = spec.YMax
	}

	truthColor := color.RGBA{R: 140, G: 140, B: 140, A: 255}
	predColor := color.RGBA{R: 30, G: 90, B: 200, A: 255}

	for _, profile := range spec.Truth {
		line, err := plotter.NewLine(profileXYs(profile))
		if err != nil {
			return errors.Wrap(err, "viz: truth line")
		}
		line.Color = truthColor
		line.Width = vg.Points(0.8)
		p.Add(line)
	}
	for _, profile := range spec.Pred {
		line, err := plotter.NewLine(profileXYs(profile))
		if err != nil {
			return errors.Wrap(err, "viz: prediction line")
		}
		line.Color = predColor
		line.Width = vg.Points(0.8)
		p.Add(line)
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%s_epoch_%d.png", spec.Variable, spec.Epoch))
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "viz: saving %s", path)
	}
	return nil
}

func profileXYs(profile []float64) plotter.XYs {
	xys := make(plotter.XYs, len(profile))
	for i, v := range profile {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
