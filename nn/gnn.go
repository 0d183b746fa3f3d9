package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/heliosml/profgnn/pkg/errors"
)

// Config holds the construction parameters of the reference GNN.
type Config struct {
	InputDim  int   `json:"input_dim"`
	EdgeDim   int   `json:"edge_dim"`
	HiddenDim int   `json:"hidden_dim"`
	OutputDim int   `json:"output_dim"`
	NumLayers int   `json:"num_layers"`
	Seed      int64 `json:"seed"`
}

// GNN is a message-passing network over profile graphs: a linear encoder,
// NumLayers rounds of edge-gated neighbor aggregation with ReLU, and a linear
// decoder producing per-node output variables.
type GNN struct {
	cfg      Config
	encoder  *linear
	layers   []*mpLayer
	decoder  *linear
	params   []*Parameter
	training bool

	forwardDone bool
}

// NewGNN constructs a GNN from config, initializing weights from the config
// seed so runs are reproducible.
func NewGNN(cfg Config) (*GNN, error) {
	if cfg.InputDim <= 0 || cfg.EdgeDim <= 0 || cfg.HiddenDim <= 0 || cfg.OutputDim <= 0 {
		return nil, errors.NewValueError("nn.NewGNN", "all dimensions must be positive")
	}
	if cfg.NumLayers <= 0 {
		return nil, errors.NewValueError("nn.NewGNN", "need at least one message-passing layer")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	g := &GNN{
		cfg:      cfg,
		encoder:  newLinear("encoder", cfg.InputDim, cfg.HiddenDim, rng),
		decoder:  newLinear("decoder", cfg.HiddenDim, cfg.OutputDim, rng),
		training: true,
	}
	for i := 0; i < cfg.NumLayers; i++ {
		g.layers = append(g.layers, newMPLayer(fmt.Sprintf("mp%d", i), cfg.HiddenDim, cfg.EdgeDim, rng))
	}

	g.params = append(g.params, g.encoder.parameters()...)
	for _, l := range g.layers {
		g.params = append(g.params, l.parameters()...)
	}
	g.params = append(g.params, g.decoder.parameters()...)
	return g, nil
}

// Train puts the module in training mode (activations cached for Backward).
func (g *GNN) Train() { g.training = true }

// Eval puts the module in inference mode; Forward skips activation caching
// and Backward is rejected.
func (g *GNN) Eval() { g.training = false; g.forwardDone = false }

// Parameters returns the learnable parameters in a stable order.
func (g *GNN) Parameters() []*Parameter { return g.params }

// Forward runs the network over one graph batch.
func (g *GNN) Forward(x *mat.Dense, edgeIndex [][2]int, edgeAttr *mat.Dense, index []int) (*mat.Dense, error) {
	nodes, in := x.Dims()
	if in != g.cfg.InputDim {
		return nil, errors.NewShapeError("nn.GNN.Forward", []int{nodes, g.cfg.InputDim}, []int{nodes, in}, "node feature width")
	}
	edges, ed := edgeAttr.Dims()
	if ed != g.cfg.EdgeDim {
		return nil, errors.NewShapeError("nn.GNN.Forward", []int{edges, g.cfg.EdgeDim}, []int{edges, ed}, "edge feature width")
	}
	if len(edgeIndex) != edges {
		return nil, errors.NewShapeError("nn.GNN.Forward", []int{edges}, []int{len(edgeIndex)}, "edge list length")
	}
	if len(index) != nodes {
		return nil, errors.NewShapeError("nn.GNN.Forward", []int{nodes}, []int{len(index)}, "assignment vector length")
	}
	for _, pair := range edgeIndex {
		if pair[0] < 0 || pair[0] >= nodes || pair[1] < 0 || pair[1] >= nodes {
			return nil, errors.Newf("nn.GNN.Forward: edge (%d,%d) outside node range [0,%d)", pair[0], pair[1], nodes)
		}
	}

	h := g.encoder.forward(x, g.training)
	for _, l := range g.layers {
		h = l.forward(h, edgeIndex, edgeAttr, g.training)
	}
	out := g.decoder.forward(h, g.training)
	g.forwardDone = g.training
	return out, nil
}

// Backward propagates the loss gradient through the most recent Forward and
// accumulates parameter gradients.
func (g *GNN) Backward(grad *mat.Dense) error {
	if !g.training {
		return errors.New("nn.GNN.Backward: module is in inference mode")
	}
	if !g.forwardDone {
		return errors.New("nn.GNN.Backward: no cached forward pass")
	}
	dh := g.decoder.backward(grad)
	for i := len(g.layers) - 1; i >= 0; i-- {
		dh = g.layers[i].backward(dh)
	}
	g.encoder.backward(dh)
	g.forwardDone = false
	return nil
}

// StateDict snapshots all parameters for checkpointing.
func (g *GNN) StateDict() map[string]ParamState {
	return stateDict(g.params)
}

// LoadStateDict restores all parameters from a checkpoint snapshot.
func (g *GNN) LoadStateDict(state map[string]ParamState) error {
	return loadStateDict(g.params, state)
}

// mpLayer is one round of message passing: each edge carries a scalar gate
// computed from its features, target nodes aggregate gated neighbor states,
// and the node update mixes self and aggregated states through a ReLU.
type mpLayer struct {
	wSelf *Parameter // hidden × hidden
	wNbr  *Parameter // hidden × hidden
	wEdge *Parameter // edgeDim × 1
	b     *Parameter // 1 × hidden

	// forward cache
	h         *mat.Dense
	m         *mat.Dense
	gate      []float64
	mask      *mat.Dense
	edgeIndex [][2]int
	edgeAttr  *mat.Dense
}

func newMPLayer(name string, hidden, edgeDim int, rng *rand.Rand) *mpLayer {
	return &mpLayer{
		wSelf: NewParameter(name+".w_self", randomMatrix(hidden, hidden, rng)),
		wNbr:  NewParameter(name+".w_nbr", randomMatrix(hidden, hidden, rng)),
		wEdge: NewParameter(name+".w_edge", randomMatrix(edgeDim, 1, rng)),
		b:     NewParameter(name+".bias", mat.NewDense(1, hidden, nil)),
	}
}

func (l *mpLayer) forward(h *mat.Dense, edgeIndex [][2]int, edgeAttr *mat.Dense, cache bool) *mat.Dense {
	nodes, hidden := h.Dims()
	edges, edgeDim := edgeAttr.Dims()

	// Scalar gate per edge from its features.
	gate := make([]float64, edges)
	for e := 0; e < edges; e++ {
		var v float64
		for k := 0; k < edgeDim; k++ {
			v += edgeAttr.At(e, k) * l.wEdge.Data.At(k, 0)
		}
		gate[e] = v
	}

	// Aggregate gated neighbor states into targets.
	m := mat.NewDense(nodes, hidden, nil)
	for e, pair := range edgeIndex {
		src, dst := pair[0], pair[1]
		for k := 0; k < hidden; k++ {
			m.Set(dst, k, m.At(dst, k)+gate[e]*h.At(src, k))
		}
	}

	var z mat.Dense
	z.Mul(h, l.wSelf.Data)
	var zn mat.Dense
	zn.Mul(m, l.wNbr.Data)
	z.Add(&z, &zn)
	for i := 0; i < nodes; i++ {
		for k := 0; k < hidden; k++ {
			z.Set(i, k, z.At(i, k)+l.b.Data.At(0, k))
		}
	}

	out := mat.NewDense(nodes, hidden, nil)
	mask := mat.NewDense(nodes, hidden, nil)
	for i := 0; i < nodes; i++ {
		for k := 0; k < hidden; k++ {
			if v := z.At(i, k); v > 0 {
				out.Set(i, k, v)
				mask.Set(i, k, 1)
			}
		}
	}

	if cache {
		l.h, l.m, l.gate, l.mask = h, m, gate, mask
		l.edgeIndex, l.edgeAttr = edgeIndex, edgeAttr
	} else {
		l.h, l.m, l.gate, l.mask = nil, nil, nil, nil
		l.edgeIndex, l.edgeAttr = nil, nil
	}
	return out
}

func (l *mpLayer) backward(dout *mat.Dense) *mat.Dense {
	nodes, hidden := dout.Dims()
	edgeDim, _ := l.wEdge.Data.Dims()

	// Through the ReLU.
	dz := mat.NewDense(nodes, hidden, nil)
	dz.MulElem(dout, l.mask)

	var dwSelf, dwNbr mat.Dense
	dwSelf.Mul(l.h.T(), dz)
	l.wSelf.AddGrad(&dwSelf)
	dwNbr.Mul(l.m.T(), dz)
	l.wNbr.AddGrad(&dwNbr)

	db := mat.NewDense(1, hidden, nil)
	for k := 0; k < hidden; k++ {
		var sum float64
		for i := 0; i < nodes; i++ {
			sum += dz.At(i, k)
		}
		db.Set(0, k, sum)
	}
	l.b.AddGrad(db)

	dh := mat.NewDense(nodes, hidden, nil)
	dh.Mul(dz, l.wSelf.Data.T())
	var dm mat.Dense
	dm.Mul(dz, l.wNbr.Data.T())

	// Through the aggregation: m[dst] = Σ gate_e · h[src].
	dwEdge := mat.NewDense(edgeDim, 1, nil)
	for e, pair := range l.edgeIndex {
		src, dst := pair[0], pair[1]
		var dgate float64
		for k := 0; k < hidden; k++ {
			dh.Set(src, k, dh.At(src, k)+l.gate[e]*dm.At(dst, k))
			dgate += dm.At(dst, k) * l.h.At(src, k)
		}
		for k := 0; k < edgeDim; k++ {
			dwEdge.Set(k, 0, dwEdge.At(k, 0)+dgate*l.edgeAttr.At(e, k))
		}
	}
	l.wEdge.AddGrad(dwEdge)

	return dh
}

func (l *mpLayer) parameters() []*Parameter {
	return []*Parameter{l.wSelf, l.wNbr, l.wEdge, l.b}
}
