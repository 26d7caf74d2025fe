package ops

import "github.com/trace-ml/trace/internal/tensor"

// ScalarOp records an element-wise operation against a Go scalar:
// x+s, x-s, x*s or x/s. Shift ops pass the gradient through unchanged;
// scale ops scale it by s (or 1/s).
//
// These must be recorded like any other op: expressions such as y = x + 2
// and z = 3·y² would otherwise silently stop gradient flow at the shift.
type ScalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	kind   scalarKind
	scalar float64
}

type scalarKind int

const (
	// scalarAdd is output = x + s.
	scalarAdd scalarKind = iota
	// scalarSub is output = x - s.
	scalarSub
	// scalarMul is output = x * s.
	scalarMul
	// scalarDiv is output = x / s.
	scalarDiv
)

// NewAddScalarOp records output = x + s.
func NewAddScalarOp(x, output *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{inputs: []*tensor.RawTensor{x}, output: output, kind: scalarAdd, scalar: s}
}

// NewSubScalarOp records output = x - s.
func NewSubScalarOp(x, output *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{inputs: []*tensor.RawTensor{x}, output: output, kind: scalarSub, scalar: s}
}

// NewMulScalarOp records output = x * s.
func NewMulScalarOp(x, output *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{inputs: []*tensor.RawTensor{x}, output: output, kind: scalarMul, scalar: s}
}

// NewDivScalarOp records output = x / s.
func NewDivScalarOp(x, output *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{inputs: []*tensor.RawTensor{x}, output: output, kind: scalarDiv, scalar: s}
}

// Backward computes the input gradient.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case scalarAdd, scalarSub:
		return []*tensor.RawTensor{outputGrad.Clone()}
	case scalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case scalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		return []*tensor.RawTensor{nil}
	}
}

// Inputs returns [x].
func (op *ScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the result tensor.
func (op *ScalarOp) Output() *tensor.RawTensor { return op.output }
