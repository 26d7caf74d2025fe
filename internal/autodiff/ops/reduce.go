package ops

import "github.com/trace-ml/trace/internal/tensor"

// SumOp records the full reduction output = Σx (a scalar).
//
// Every element contributes with weight 1, so the scalar output gradient
// is broadcast uniformly back over the input.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward fills the input shape with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	return []*tensor.RawTensor{fullLike(x.Shape(), x.DType(), x.Device(), scalarValue(outputGrad))}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns Σx.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// MeanOp records the full reduction output = mean(x) (a scalar).
//
// Each element contributes with weight 1/N. This is the reduction behind
// the classic worked example where mean over four elements turns a local
// derivative of 18 into a uniform gradient of 4.5.
type MeanOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates a MeanOp.
func NewMeanOp(x, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward fills the input shape with grad/N.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	value := scalarValue(outputGrad) / float64(x.NumElements())
	return []*tensor.RawTensor{fullLike(x.Shape(), x.DType(), x.Device(), value)}
}

// Inputs returns [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns mean(x).
func (op *MeanOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp records output = sum(x, dim, keepDim).
type SumDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a SumDimOp. dim must already be normalized.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{inputs: []*tensor.RawTensor{x}, output: output, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the output gradient back over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := outputGrad
	if !op.keepDim {
		// Reinstate the reduced dimension as size 1 so broadcasting lines up.
		grad = backend.Reshape(grad, keepDimShape(x.Shape(), op.dim))
	}
	return []*tensor.RawTensor{broadcastTo(grad, x.Shape(), backend)}
}

// Inputs returns [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sum(x, dim).
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp records output = mean(x, dim, keepDim).
type MeanDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a MeanDimOp. dim must already be normalized.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{inputs: []*tensor.RawTensor{x}, output: output, dim: dim, keepDim: keepDim}
}

// Backward broadcasts grad/n back over the reduced dimension.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	n := x.Shape()[op.dim]
	grad := backend.DivScalar(outputGrad, float64(n))
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(x.Shape(), op.dim))
	}
	return []*tensor.RawTensor{broadcastTo(grad, x.Shape(), backend)}
}

// Inputs returns [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns mean(x, dim).
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }

// keepDimShape is the input shape with dim collapsed to 1.
func keepDimShape(shape tensor.Shape, dim int) tensor.Shape {
	out := shape.Clone()
	out[dim] = 1
	return out
}
