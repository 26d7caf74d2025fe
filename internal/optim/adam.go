package optim

import (
	"math"

	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// Adam implements adaptive moment estimation (Kingma & Ba, 2015).
//
// Per parameter element:
//
//	m = beta1*m + (1-beta1)*grad
//	v = beta2*v + (1-beta2)*grad²
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	param -= lr * mHat / (sqrt(vHat) + eps)
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	step   int

	m map[*nn.Parameter[B]][]float32 // first moment
	v map[*nn.Parameter[B]][]float32 // second moment
}

// AdamConfig configures an Adam optimizer. Zero fields take the usual
// defaults: lr 0.001, beta1 0.9, beta2 0.999, eps 1e-8.
type AdamConfig struct {
	LR    float32
	Beta1 float32
	Beta2 float32
	Eps   float32
}

// NewAdam creates an Adam optimizer for the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Beta1,
		beta2:  config.Beta2,
		eps:    config.Eps,
		m:      make(map[*nn.Parameter[B]][]float32),
		v:      make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one Adam update to every parameter with a gradient.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++

	// Bias correction shared by all parameters this step.
	correction1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	correction2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))

	for _, param := range a.params {
		grad := gradientFor(param, grads)
		if grad == nil {
			continue
		}

		data := param.Tensor().Data()
		gradData := grad.AsFloat32()

		m, ok := a.m[param]
		if !ok {
			m = make([]float32, len(data))
			a.m[param] = m
			a.v[param] = make([]float32, len(data))
		}
		v := a.v[param]

		for i := range data {
			g := gradData[i]
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g

			mHat := m[i] / correction1
			vHat := v[i] / correction2
			data[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears accumulated gradients on all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float32 {
	return a.lr
}

// SetLR updates the learning rate, for schedules.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}
