// Package nn defines the model interface the training loop drives and a
// reference graph neural network implementing it. The trainer treats any
// Module as an opaque capability: forward over batched node features,
// backward to accumulate parameter gradients, and access to the parameters
// for the optimizer and the checkpoint store.
package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Module is a trainable model over graph batches.
//
// Forward consumes concatenated node features x (totalNodes × inputDim), the
// batch edge list, edge features (edges × edgeDim) and the node-to-graph
// assignment vector, and returns predictions (totalNodes × outputDim).
// Backward propagates the loss gradient with respect to the predictions and
// accumulates parameter gradients from the most recent Forward.
//
// Modules are single-owner: Forward, Backward and parameter updates must not
// run concurrently.
type Module interface {
	Forward(x *mat.Dense, edgeIndex [][2]int, edgeAttr *mat.Dense, index []int) (*mat.Dense, error)
	Backward(grad *mat.Dense) error
	Parameters() []*Parameter

	// Train and Eval switch between training and inference mode. In inference
	// mode Backward is unavailable and the module skips activation caching.
	Train()
	Eval()

	// StateDict and LoadStateDict expose the learnable state for
	// checkpointing.
	StateDict() map[string]ParamState
	LoadStateDict(state map[string]ParamState) error
}
