// Package nn implements neural network building blocks on top of the
// tensor and autodiff packages.
//
// Provided modules:
//   - Module interface: the contract every component satisfies
//   - Parameter: a tracked tensor with a name
//   - Linear: fully connected layer
//   - ReLU, Sigmoid, Tanh: activation modules
//   - MSELoss, CrossEntropyLoss: loss functions
//   - Sequential: chains modules into a pipeline
//
// Layers create their parameters with gradient tracking enabled, so a
// forward pass through an autodiff backend records everything needed for
// the reverse pass.
package nn

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// Module is the interface every network component implements.
//
// Modules compose:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the module's trainable parameters, including
	// those of nested modules. Parameter-free modules return nil.
	Parameters() []*Parameter[B]

	// StateDict returns parameter name -> raw tensor for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
