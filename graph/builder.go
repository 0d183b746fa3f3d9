package graph

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/pkg/errors"
	"github.com/heliosml/profgnn/pkg/parallel"
)

// ProfilesToGraphs converts normalized profile tensors into graph samples.
// x and y are shaped (samples, positions, variables); each profile becomes a
// chain graph with one node per spatial position, bidirectional edges between
// neighbors and the signed normalized hop distance as the single edge
// feature. Node features are the input variables at that position, targets
// the output variables.
func ProfilesToGraphs(x, y *tensor.Dense) ([]*Sample, error) {
	xShape, yShape := x.Shape(), y.Shape()
	if len(xShape) != 3 {
		return nil, errors.NewShapeError("graph.ProfilesToGraphs", []int{-1, -1, -1}, xShape, "want (samples, positions, variables)")
	}
	if len(yShape) != 3 {
		return nil, errors.NewShapeError("graph.ProfilesToGraphs", []int{-1, -1, -1}, yShape, "want (samples, positions, variables)")
	}
	if xShape[0] != yShape[0] || xShape[1] != yShape[1] {
		return nil, errors.NewShapeError("graph.ProfilesToGraphs",
			xShape[:2], yShape[:2], "inputs and targets disagree on samples or positions")
	}

	samples, positions := xShape[0], xShape[1]
	inVars, outVars := xShape[2], yShape[2]
	if positions < 2 {
		return nil, errors.NewValueError("graph.ProfilesToGraphs", "need at least two positions to build edges")
	}

	xData := x.Data().([]float64)
	yData := y.Data().([]float64)

	// Chain connectivity and edge features are identical for every profile.
	hop := 1.0 / float64(positions-1)
	edgeIndex := make([][2]int, 0, 2*(positions-1))
	edgeAttrData := make([]float64, 0, 2*(positions-1))
	for i := 0; i < positions-1; i++ {
		edgeIndex = append(edgeIndex, [2]int{i, i + 1}, [2]int{i + 1, i})
		edgeAttrData = append(edgeAttrData, hop, -hop)
	}

	out := make([]*Sample, samples)
	parallel.RunThreshold(samples, 64, func(start, end int) {
		for s := start; s < end; s++ {
			nodeX := mat.NewDense(positions, inVars, nil)
			nodeY := mat.NewDense(positions, outVars, nil)
			for p := 0; p < positions; p++ {
				xRow := xData[(s*positions+p)*inVars : (s*positions+p+1)*inVars]
				yRow := yData[(s*positions+p)*outVars : (s*positions+p+1)*outVars]
				nodeX.SetRow(p, xRow)
				nodeY.SetRow(p, yRow)
			}

			edgeAttr := mat.NewDense(len(edgeIndex), 1, nil)
			for e, v := range edgeAttrData {
				edgeAttr.Set(e, 0, v)
			}

			out[s] = &Sample{
				X:         nodeX,
				EdgeIndex: edgeIndex,
				EdgeAttr:  edgeAttr,
				Y:         nodeY,
			}
		}
	})
	return out, nil
}
