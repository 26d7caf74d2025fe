package nn

import (
	"fmt"
	"strings"

	"github.com/trace-ml/trace/internal/tensor"
)

// Sequential chains modules: each module's output feeds the next module.
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies all modules in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, m := range s.modules {
		output = m.Forward(output)
	}
	return output
}

// Parameters collects trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Add appends a module to the end of the chain.
func (s *Sequential[B]) Add(m Module[B]) {
	s.modules = append(s.modules, m)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index. Panics when out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// StateDict exports all module parameters, keys prefixed with the module
// index ("0.weight", "2.bias") to avoid collisions.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, raw := range m.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return state
}

// LoadStateDict distributes index-prefixed entries to the matching modules.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := make(map[string]*tensor.RawTensor)
		for key, raw := range stateDict {
			if strings.HasPrefix(key, prefix) {
				sub[strings.TrimPrefix(key, prefix)] = raw
			}
		}
		if len(sub) == 0 {
			continue
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
