// Package ops implements the differentiable operations recorded on the tape.
//
// Each operation keeps back-references to its input and output tensors from
// the forward pass and computes input gradients from the output gradient
// during the reverse pass (the chain rule, one op at a time).
package ops

import "github.com/trace-ml/trace/internal/tensor"

// Operation is a recorded differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for the operation's inputs given the
	// gradient of the loss with respect to its output. The returned slice
	// is aligned with Inputs(); a nil entry means no gradient flows to
	// that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the differentiable input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by the forward pass.
	Output() *tensor.RawTensor
}
