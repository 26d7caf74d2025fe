// Package optim implements optimization algorithms for training.
//
// Provided optimizers:
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moment estimation with bias correction
//
// Optimizers consume the gradient map produced by a reverse pass and
// update parameter buffers in place. Updates are plain slice arithmetic,
// so they are never recorded on the gradient tape regardless of its state.
//
// Training loop shape:
//
//	backend.Tape().StartRecording()
//	for epoch := 0; epoch < epochs; epoch++ {
//	    backend.Tape().Clear()
//	    loss := criterion.Forward(model.Forward(x), y)
//	    grads, err := autodiff.Backward(loss, backend)
//	    if err != nil { ... }
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// Optimizer is the interface all optimization algorithms implement.
type Optimizer interface {
	// Step applies one gradient update to every parameter that appears
	// in the gradient map. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears accumulated parameter gradients. Call between
	// iterations so batches don't bleed into each other.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32
}

// gradientFor looks up the gradient computed for a parameter, or nil when
// the parameter never entered the computation.
func gradientFor[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
