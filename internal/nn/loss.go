package nn

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// MSELoss computes mean squared error: mean((predictions - targets)²).
//
// The loss is built from tracked tensor operations, so gradients flow
// from the scalar loss back to the model parameters.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates an MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns the scalar loss for predictions against targets of the
// same shape.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}
	diff := predictions.Sub(targets)
	return diff.Mul(diff).Mean()
}

// Parameters returns nil: loss functions have no trainable parameters.
func (m *MSELoss[B]) Parameters() []*Parameter[B] { return nil }
