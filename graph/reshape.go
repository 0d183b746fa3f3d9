package graph

import (
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/heliosml/profgnn/pkg/errors"
)

// ReshapeNodeFeatures converts batch-concatenated node features x
// (totalNodes × featureDim) into a dense per-sample tensor
// (numGraphs, nodesPerGraph, featureDim). Row g of the output holds the rows
// of x assigned to graph g by index, in the order they appear in x. The
// gather masks per graph rather than slicing, so it is correct even when a
// sample's nodes are not contiguous in x; that costs
// O(numGraphs × totalNodes), which is acceptable at diagnostic cadence.
//
// Every graph must contribute the same node count; otherwise the dense shape
// is undefined and a ShapeError is returned instead of silently corrupting
// the output.
func ReshapeNodeFeatures(x mat.Matrix, index []int, numGraphs int) (*tensor.Dense, error) {
	totalNodes, featureDim := x.Dims()
	if len(index) != totalNodes {
		return nil, errors.NewShapeError("graph.ReshapeNodeFeatures",
			[]int{totalNodes}, []int{len(index)}, "assignment vector length differs from node count")
	}
	if numGraphs <= 0 {
		return nil, errors.NewValueError("graph.ReshapeNodeFeatures", "numGraphs must be positive")
	}

	counts := make([]int, numGraphs)
	for _, g := range index {
		if g < 0 || g >= numGraphs {
			return nil, errors.Newf("graph.ReshapeNodeFeatures: assignment %d outside [0, %d)", g, numGraphs)
		}
		counts[g]++
	}
	nodesPerGraph := counts[0]
	for g, c := range counts {
		if c != nodesPerGraph {
			return nil, errors.NewShapeError("graph.ReshapeNodeFeatures",
				[]int{nodesPerGraph}, []int{c},
				"non-uniform node count for graph "+strconv.Itoa(g))
		}
	}

	data := make([]float64, numGraphs*nodesPerGraph*featureDim)
	for g := 0; g < numGraphs; g++ {
		row := 0
		for i := 0; i < totalNodes; i++ {
			if index[i] != g {
				continue
			}
			base := (g*nodesPerGraph + row) * featureDim
			for j := 0; j < featureDim; j++ {
				data[base+j] = x.At(i, j)
			}
			row++
		}
	}

	return tensor.New(
		tensor.WithShape(numGraphs, nodesPerGraph, featureDim),
		tensor.WithBacking(data),
	), nil
}
