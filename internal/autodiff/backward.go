package autodiff

import (
	"fmt"

	"github.com/trace-ml/trace/internal/tensor"
)

// Grads maps each tensor reached during the reverse pass to its accumulated
// gradient.
type Grads map[*tensor.RawTensor]*tensor.RawTensor

// Get returns the gradient accumulated for t, or nil if the reverse pass
// never reached it.
func (g Grads) Get(t *tensor.RawTensor) *tensor.RawTensor {
	return g[t]
}

// TapeBackend is a backend that carries a gradient tape. *Backend[B]
// satisfies it for any wrapped B.
type TapeBackend interface {
	tensor.Backend
	GetTape() *Tape
}

// Backward runs the reverse pass from a scalar output, seeding the chain
// with dOut/dOut = 1. For non-scalar outputs use BackwardWithGrad and
// supply the seed explicitly.
func Backward[T tensor.DType, B TapeBackend](output *tensor.Tensor[T, B], backend B) (Grads, error) {
	if !output.Shape().IsScalar() {
		return nil, fmt.Errorf("backward: output has shape %v; gradient seed required for non-scalar outputs", output.Shape())
	}

	seed, err := onesSeed(output.Raw().Shape(), output.Raw().DType(), output.Raw().Device())
	if err != nil {
		return nil, err
	}
	return backwardFrom(output.Raw(), seed, backend)
}

// BackwardWithGrad runs the reverse pass from output seeded with an
// explicit gradient. The seed plays the role of dL/dOutput for some
// downstream scalar L and must match the output's shape exactly.
func BackwardWithGrad[T tensor.DType, B TapeBackend](output, seed *tensor.Tensor[T, B], backend B) (Grads, error) {
	if !seed.Shape().Equal(output.Shape()) {
		return nil, fmt.Errorf("backward: seed gradient shape %v does not match output shape %v", seed.Shape(), output.Shape())
	}
	return backwardFrom(output.Raw(), seed.Raw(), backend)
}

func backwardFrom(output, seed *tensor.RawTensor, backend TapeBackend) (Grads, error) {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		return nil, fmt.Errorf("backward: tape is empty; enable recording before the forward pass")
	}
	return Grads(tape.Backward(output, seed, backend)), nil
}

// Accumulate folds computed gradients into the tensors' Grad slots, summing
// with any gradient already present. Tensors the reverse pass never reached
// are left untouched.
func Accumulate[T tensor.DType, B TapeBackend](grads Grads, backend B, tensors ...*tensor.Tensor[T, B]) {
	for _, t := range tensors {
		grad, ok := grads[t.Raw()]
		if !ok {
			continue
		}
		if existing := t.Grad(); existing != nil {
			grad = backend.Add(existing.Raw(), grad)
		}
		t.SetGrad(tensor.New[T, B](grad, backend))
	}
}

// NoGrad runs fn with recording suspended. Parameter updates and metric
// computations go here so they never land on the tape.
func NoGrad[B TapeBackend](backend B, fn func()) {
	tape := backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()
	fn()
}

// onesSeed builds the implicit scalar seed gradient.
func onesSeed(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case tensor.Float32:
		data := raw.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := raw.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		return nil, fmt.Errorf("backward: cannot differentiate dtype %s", dtype)
	}
	return raw, nil
}
