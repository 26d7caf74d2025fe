package ops

import "github.com/trace-ml/trace/internal/tensor"

// NegOp records output = -x.
type NegOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewNegOp creates a NegOp.
func NewNegOp(x, output *tensor.RawTensor) *NegOp {
	return &NegOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward negates the output gradient.
func (op *NegOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Neg(outputGrad)}
}

// Inputs returns [x].
func (op *NegOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns -x.
func (op *NegOp) Output() *tensor.RawTensor { return op.output }

// ExpOp records output = exp(x).
//
// d(exp(x))/dx = exp(x) = output, so the saved output doubles as the local
// derivative.
type ExpOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates an ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad * exp(x).
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns exp(x).
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp records output = log(x).
//
// d(log(x))/dx = 1/x.
type LogOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// Inputs returns [x].
func (op *LogOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns log(x).
func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// SqrtOp records output = sqrt(x).
//
// d(sqrt(x))/dx = 1/(2·sqrt(x)) = 1/(2·output).
type SqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad / (2·sqrt(x)).
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	twice := backend.MulScalar(op.output, 2.0)
	return []*tensor.RawTensor{backend.Div(outputGrad, twice)}
}

// Inputs returns [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sqrt(x).
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }
