package nn

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the rectifier.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns nil: activations are parameter-free.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)) element-wise, squashing values
// into (0, 1).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the logistic function.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Sigmoid()
}

// Parameters returns nil: activations are parameter-free.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (s *Sigmoid[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (s *Sigmoid[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Tanh applies the hyperbolic tangent element-wise, squashing values into
// (-1, 1).
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns nil: activations are parameter-free.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (t *Tanh[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
