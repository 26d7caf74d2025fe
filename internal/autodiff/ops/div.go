package ops

import "github.com/trace-ml/trace/internal/tensor"

// DivOp records output = a / b (element-wise).
//
// d(a/b)/da = 1/b, d(a/b)/db = -a/b².
type DivOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates a DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := reduceBroadcast(backend.Div(outputGrad, b), a.Shape(), backend)

	// grad_b = -grad * a / b²
	bSquared := backend.Mul(b, b)
	gradB := backend.Neg(backend.Div(backend.Mul(outputGrad, a), bSquared))
	gradB = reduceBroadcast(gradB, b.Shape(), backend)

	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns [a, b].
func (op *DivOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns a / b.
func (op *DivOp) Output() *tensor.RawTensor { return op.output }
