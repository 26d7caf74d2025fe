package optim

import (
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum.
//
// Without momentum:
//
//	param -= lr * grad
//
// With momentum:
//
//	velocity = momentum * velocity + grad
//	param -= lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]][]float32
}

// SGDConfig configures an SGD optimizer.
type SGDConfig struct {
	LR       float32 // learning rate, default 0.01
	Momentum float32 // momentum factor in [0, 1), default 0
}

// NewSGD creates an SGD optimizer for the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one SGD update to every parameter with a gradient.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := gradientFor(param, grads)
		if grad == nil {
			continue
		}

		data := param.Tensor().Data()
		gradData := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * gradData[i]
			}
			continue
		}

		velocity, ok := s.velocities[param]
		if !ok {
			velocity = make([]float32, len(data))
			s.velocities[param] = velocity
		}
		for i := range data {
			velocity[i] = s.momentum*velocity[i] + gradData[i]
			data[i] -= s.lr * velocity[i]
		}
	}
}

// ZeroGrad clears accumulated gradients on all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for schedules.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
