package ops

import "github.com/trace-ml/trace/internal/tensor"

// ReLUOp records output = max(0, x).
//
// The gradient passes through where x > 0 and is blocked elsewhere.
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward masks the gradient by the sign of the forward input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xd, gd, out := x.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range xd {
			if xd[i] > 0 {
				out[i] = gd[i]
			}
		}
	case tensor.Float64:
		xd, gd, out := x.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range xd {
			if xd[i] > 0 {
				out[i] = gd[i]
			}
		}
	default:
		panic("relu backward: only float32 and float64 are supported")
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// SigmoidOp records output = σ(x) = 1/(1+exp(-x)).
//
// dσ/dx = σ(x)·(1-σ(x)), expressed with the saved output.
type SigmoidOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad · σ(x) · (1 - σ(x)).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	oneMinus := backend.AddScalar(backend.Neg(out), 1.0)
	return []*tensor.RawTensor{backend.Mul(backend.Mul(outputGrad, out), oneMinus)}
}

// Inputs returns [x].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns σ(x).
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

// TanhOp records output = tanh(x).
//
// d(tanh(x))/dx = 1 - tanh²(x).
type TanhOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad · (1 - tanh²(x)).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	squared := backend.Mul(op.output, op.output)
	oneMinus := backend.AddScalar(backend.Neg(squared), 1.0)
	return []*tensor.RawTensor{backend.Mul(outputGrad, oneMinus)}
}

// Inputs returns [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }

// SoftmaxOp records output = softmax(x, dim).
//
// The Jacobian contracts to:
//
//	grad_x = out · (grad - Σ_dim(grad · out))
type SoftmaxOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a SoftmaxOp. dim must already be normalized.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{inputs: []*tensor.RawTensor{x}, output: output, dim: dim}
}

// Backward computes the softmax input gradient.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	dot := backend.SumDim(backend.Mul(outputGrad, out), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(out, backend.Sub(outputGrad, dot))}
}

// Inputs returns [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns softmax(x, dim).
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
