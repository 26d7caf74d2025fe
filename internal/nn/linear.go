package nn

import (
	"fmt"

	"github.com/trace-ml/trace/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W.T + b.
//
// Shapes:
//   - input x: [batch, inFeatures]
//   - weight W: [outFeatures, inFeatures]
//   - bias b: [outFeatures]
//   - output y: [batch, outFeatures]
//
// Weights use Xavier initialization, biases start at zero. Both are
// tracked parameters, so forward passes through an autodiff backend
// record the layer for the reverse pass.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B] // nil when built without bias
}

// NewLinear creates a Linear layer with bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	bias := Zeros[B](tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
	}
}

// NewLinearNoBias creates a Linear layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
	}
}

// Forward computes y = x @ W.T + b for input [batch, inFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected %d input features, got %d", l.inFeatures, shape[1]))
	}

	// [batch, in] @ [in, out] = [batch, out]
	output := input.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		// Reshape [out] to [1, out] so broadcasting adds it per row.
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return output
}

// Parameters returns [weight, bias], or [weight] for a bias-free layer.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// StateDict exports the layer parameters.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"weight": l.weight.Tensor().Raw()}
	if l.bias != nil {
		state["bias"] = l.bias.Tensor().Raw()
	}
	return state
}

// LoadStateDict copies weight and bias values from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParam(l.weight, stateDict, "weight", tensor.Shape{l.outFeatures, l.inFeatures}); err != nil {
		return err
	}
	if l.bias != nil {
		return loadParam(l.bias, stateDict, "bias", tensor.Shape{l.outFeatures})
	}
	return nil
}

// loadParam validates shape and dtype, then copies values into the
// parameter's existing buffer.
func loadParam[B tensor.Backend](p *Parameter[B], stateDict map[string]*tensor.RawTensor, name string, want tensor.Shape) error {
	raw, ok := stateDict[name]
	if !ok {
		return fmt.Errorf("missing %q in state dict", name)
	}
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %s", name, raw.DType())
	}
	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}
