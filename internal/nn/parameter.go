package nn

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// Parameter is a named, trainable tensor.
//
// Creating a Parameter turns on gradient tracking for the underlying
// tensor, so any forward pass that touches it gets recorded on the tape.
// The accumulated gradient lives on the tensor itself (Tensor.Grad).
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter wraps t as a trainable parameter and enables gradient
// tracking on it.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	t.RequireGrad()
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name (e.g. "weight", "bias").
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil before the first
// backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.tensor.Grad()
}

// SetGrad stores grad as the parameter's accumulated gradient.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.tensor.SetGrad(grad)
}

// ZeroGrad drops the accumulated gradient. Call between training
// iterations so gradients from separate batches don't mix.
func (p *Parameter[B]) ZeroGrad() {
	p.tensor.ZeroGrad()
}
