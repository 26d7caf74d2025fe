package ops

import "github.com/trace-ml/trace/internal/tensor"

// TransposeOp records output = transpose(x, axes).
//
// The backend materializes transposes as new tensors, so the op must be
// recorded: gradients computed for the transposed tensor are carried back
// to the original through the inverse permutation.
type TransposeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a TransposeOp. axes must be the full permutation.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{inputs: []*tensor.RawTensor{x}, output: output, axes: axes}
}

// Backward applies the inverse permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs returns [x].
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor { return op.output }
