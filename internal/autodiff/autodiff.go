// Package autodiff implements reverse-mode automatic differentiation.
//
// Backend is a decorator: it wraps any tensor.Backend, delegates every
// forward computation to it, and records the operation on a Tape whenever
// recording is on and a tracked tensor is involved. A reverse pass walks
// the tape backwards, applying each operation's chain rule and accumulating
// per-tensor gradients.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
//	y := x.AddScalar(2)
//	z := y.Mul(y).MulScalar(3)
//	out := z.Mean()
//
//	grads, err := autodiff.Backward(out, backend)
//	// grads[x.Raw()] is uniformly 4.5
package autodiff

import (
	"github.com/trace-ml/trace/internal/autodiff/ops"
	"github.com/trace-ml/trace/internal/tensor"
)

// Backend wraps an inner compute backend and records differentiable
// operations on a gradient tape.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *Tape
}

// New creates an autodiff Backend wrapping inner.
func New[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{inner: inner, tape: NewTape()}
}

// Tape returns the gradient tape for recording control.
func (b *Backend[B]) Tape() *Tape {
	return b.tape
}

// GetTape implements TapeBackend.
func (b *Backend[B]) GetTape() *Tape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Name returns the decorated backend name.
func (b *Backend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the wrapped backend's device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// shouldRecord gates recording: the tape must be on and at least one input
// must carry the gradient-tracking flag.
func (b *Backend[B]) shouldRecord(inputs ...*tensor.RawTensor) bool {
	if !b.tape.IsRecording() {
		return false
	}
	for _, in := range inputs {
		if in.RequiresGrad() {
			return true
		}
	}
	return false
}

// record marks the result as tracked (it now has a producing operation on
// the tape) and appends the op.
func (b *Backend[B]) record(op ops.Operation) {
	op.Output().SetRequiresGrad(true)
	b.tape.Record(op)
}

// Add performs element-wise addition, recording the operation.
//
// ForceNonUnique pins the inputs so the inner backend cannot take its
// in-place fast path: recorded inputs must keep their forward values for
// the reverse pass.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	result := b.inner.Add(x, y)
	if b.shouldRecord(x, y) {
		b.record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction, recording the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	result := b.inner.Sub(x, y)
	if b.shouldRecord(x, y) {
		b.record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication, recording the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	result := b.inner.Mul(x, y)
	if b.shouldRecord(x, y) {
		b.record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division, recording the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	result := b.inner.Div(x, y)
	if b.shouldRecord(x, y) {
		b.record(ops.NewDivOp(x, y, result))
	}
	return result
}

// MatMul performs matrix multiplication, recording the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	result := b.inner.MatMul(x, y)
	if b.shouldRecord(x, y) {
		b.record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// AddScalar adds a scalar element-wise, recording the operation.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.AddScalar(x, scalar)
	if b.shouldRecord(x) {
		b.record(ops.NewAddScalarOp(x, result, toFloat64(scalar)))
	}
	return result
}

// SubScalar subtracts a scalar element-wise, recording the operation.
func (b *Backend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.SubScalar(x, scalar)
	if b.shouldRecord(x) {
		b.record(ops.NewSubScalarOp(x, result, toFloat64(scalar)))
	}
	return result
}

// MulScalar multiplies by a scalar element-wise, recording the operation.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.MulScalar(x, scalar)
	if b.shouldRecord(x) {
		b.record(ops.NewMulScalarOp(x, result, toFloat64(scalar)))
	}
	return result
}

// DivScalar divides by a scalar element-wise, recording the operation.
func (b *Backend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.DivScalar(x, scalar)
	if b.shouldRecord(x) {
		b.record(ops.NewDivScalarOp(x, result, toFloat64(scalar)))
	}
	return result
}

// Neg negates element-wise, recording the operation.
func (b *Backend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Neg(x)
	if b.shouldRecord(x) {
		b.record(ops.NewNegOp(x, result))
	}
	return result
}

// Exp computes the element-wise exponential, recording the operation.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Exp(x)
	if b.shouldRecord(x) {
		b.record(ops.NewExpOp(x, result))
	}
	return result
}

// Log computes the element-wise natural logarithm, recording the operation.
func (b *Backend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Log(x)
	if b.shouldRecord(x) {
		b.record(ops.NewLogOp(x, result))
	}
	return result
}

// Sqrt computes the element-wise square root, recording the operation.
func (b *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Sqrt(x)
	if b.shouldRecord(x) {
		b.record(ops.NewSqrtOp(x, result))
	}
	return result
}

// ReLU applies the rectifier, recording the operation.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.ReLU(x)
	if b.shouldRecord(x) {
		b.record(ops.NewReLUOp(x, result))
	}
	return result
}

// Sigmoid applies the logistic function, recording the operation.
func (b *Backend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Sigmoid(x)
	if b.shouldRecord(x) {
		b.record(ops.NewSigmoidOp(x, result))
	}
	return result
}

// Tanh applies the hyperbolic tangent, recording the operation.
func (b *Backend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Tanh(x)
	if b.shouldRecord(x) {
		b.record(ops.NewTanhOp(x, result))
	}
	return result
}

// Softmax applies softmax along dim, recording the operation.
func (b *Backend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Softmax(x, dim)
	if b.shouldRecord(x) {
		if dim < 0 {
			dim += len(x.Shape())
		}
		b.record(ops.NewSoftmaxOp(x, result, dim))
	}
	return result
}

// Sum reduces to a scalar, recording the operation.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Sum(x)
	if b.shouldRecord(x) {
		b.record(ops.NewSumOp(x, result))
	}
	return result
}

// Mean reduces to the scalar mean, recording the operation.
func (b *Backend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Mean(x)
	if b.shouldRecord(x) {
		b.record(ops.NewMeanOp(x, result))
	}
	return result
}

// SumDim sums along dim, recording the operation.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.SumDim(x, dim, keepDim)
	if b.shouldRecord(x) {
		if dim < 0 {
			dim += len(x.Shape())
		}
		b.record(ops.NewSumDimOp(x, result, dim, keepDim))
	}
	return result
}

// MeanDim averages along dim, recording the operation.
func (b *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.MeanDim(x, dim, keepDim)
	if b.shouldRecord(x) {
		if dim < 0 {
			dim += len(x.Shape())
		}
		b.record(ops.NewMeanDimOp(x, result, dim, keepDim))
	}
	return result
}

// Reshape relabels the layout, recording the operation so gradients reach
// the pre-reshape tensor.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Reshape(x, newShape)
	if b.shouldRecord(x) {
		b.record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Transpose permutes dimensions, recording the operation so gradients reach
// the pre-transpose tensor (a transposed weight is a new tensor; without
// the record the original parameter would never receive a gradient).
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	ndim := len(x.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(x, axes...)
	if b.shouldRecord(x) {
		b.record(ops.NewTransposeOp(x, result, axes))
	}
	return result
}

// CrossEntropy computes the classification loss, recording the operation.
// Targets are class indices and receive no gradient.
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	defer logits.ForceNonUnique()()
	result := b.inner.CrossEntropy(logits, targets)
	if b.shouldRecord(logits) {
		b.record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}

func toFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint8:
		return float64(v)
	default:
		panic("unsupported scalar type")
	}
}
