package ops

import "github.com/trace-ml/trace/internal/tensor"

// ReshapeOp records output = reshape(x, newShape).
//
// Reshape must be recorded even though it only relabels the layout: without
// it, gradients computed for the reshaped view never reach the original
// tensor (a bias reshaped for broadcasting would silently stop training).
type ReshapeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// Inputs returns [x].
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor { return op.output }
