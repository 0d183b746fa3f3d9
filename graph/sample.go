package graph

import (
	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Sample is one profile expressed as a graph: node features X (nodes ×
// inputDim), connectivity EdgeIndex as (source, target) pairs, edge features
// EdgeAttr (edges × edgeDim) and per-node targets Y (nodes × outputDim).
// Samples are immutable after construction.
type Sample struct {
	X         *mat.Dense
	EdgeIndex [][2]int
	EdgeAttr  *mat.Dense
	Y         *mat.Dense
}

// NumNodes returns the node count of the sample.
func (s *Sample) NumNodes() int {
	r, _ := s.X.Dims()
	return r
}

// Batch concatenates several samples along the node axis. Index maps each
// node row to the originating sample in [0, NumGraphs); edge indices are
// offset so they keep addressing their own sample's nodes.
type Batch struct {
	X         *mat.Dense
	Y         *mat.Dense
	EdgeIndex [][2]int
	EdgeAttr  *mat.Dense
	Index     []int
	NumGraphs int
	Device    Device
}

// NewBatch builds a batch from samples, all of which must agree on feature
// dimensions. Node counts may differ between samples here; uniformity is only
// required when reshaping back to a dense per-sample tensor.
func NewBatch(samples []*Sample, device Device) (*Batch, error) {
	if len(samples) == 0 {
		return nil, errors.NewValueError("graph.NewBatch", "no samples")
	}

	_, inputDim := samples[0].X.Dims()
	_, outputDim := samples[0].Y.Dims()
	_, edgeDim := samples[0].EdgeAttr.Dims()

	totalNodes, totalEdges := 0, 0
	for _, s := range samples {
		nodes, in := s.X.Dims()
		yNodes, out := s.Y.Dims()
		edges, ed := s.EdgeAttr.Dims()
		if in != inputDim || out != outputDim || ed != edgeDim {
			return nil, errors.NewShapeError("graph.NewBatch",
				[]int{inputDim, outputDim, edgeDim}, []int{in, out, ed},
				"samples disagree on feature dimensions")
		}
		if yNodes != nodes {
			return nil, errors.NewShapeError("graph.NewBatch",
				[]int{nodes}, []int{yNodes}, "target node count differs from input node count")
		}
		totalNodes += nodes
		totalEdges += edges
	}

	x := mat.NewDense(totalNodes, inputDim, nil)
	y := mat.NewDense(totalNodes, outputDim, nil)
	edgeAttr := mat.NewDense(totalEdges, edgeDim, nil)
	edgeIndex := make([][2]int, 0, totalEdges)
	index := make([]int, totalNodes)

	nodeOffset, edgeOffset := 0, 0
	for g, s := range samples {
		nodes := s.NumNodes()
		for i := 0; i < nodes; i++ {
			x.SetRow(nodeOffset+i, mat.Row(nil, i, s.X))
			y.SetRow(nodeOffset+i, mat.Row(nil, i, s.Y))
			index[nodeOffset+i] = g
		}
		for e, pair := range s.EdgeIndex {
			edgeIndex = append(edgeIndex, [2]int{pair[0] + nodeOffset, pair[1] + nodeOffset})
			edgeAttr.SetRow(edgeOffset+e, mat.Row(nil, e, s.EdgeAttr))
		}
		nodeOffset += nodes
		edgeOffset += len(s.EdgeIndex)
	}

	return &Batch{
		X:         x,
		Y:         y,
		EdgeIndex: edgeIndex,
		EdgeAttr:  edgeAttr,
		Index:     index,
		NumGraphs: len(samples),
		Device:    device,
	}, nil
}

// NumNodes returns the total node count across all samples in the batch.
func (b *Batch) NumNodes() int {
	return len(b.Index)
}

// On retags the batch with a device. Data movement is a no-op on this build;
// the tag is what operations check before touching the data.
func (b *Batch) On(device Device) *Batch {
	clone := *b
	clone.Device = device
	return &clone
}
