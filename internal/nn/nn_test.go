package nn_test

import (
	"testing"

	"github.com/trace-ml/trace/internal/autodiff"
	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

type Backend = *autodiff.Backend[*cpu.CPUBackend]

func newBackend() Backend {
	return autodiff.New(cpu.New())
}

func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func TestParameter(t *testing.T) {
	backend := newBackend()

	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("weight", data)

	if param.Name() != "weight" {
		t.Errorf("Name() = %s, want weight", param.Name())
	}
	if param.Tensor() != data {
		t.Error("Tensor() should return the wrapped tensor")
	}
	if !data.RequiresGrad() {
		t.Error("NewParameter must enable gradient tracking")
	}
	if param.Grad() != nil {
		t.Error("Grad() should start nil")
	}

	grad, _ := tensor.FromSlice([]float32{0.1, 0.2, 0.3}, tensor.Shape{3}, backend)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("SetGrad/Grad mismatch")
	}
	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("ZeroGrad should clear the gradient")
	}
}

func TestLinear_Forward(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(3, 2, backend)

	// Known weights: y = x @ W.T + b.
	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 0, 1, 0})
	copy(layer.Bias().Tensor().Data(), []float32{10, 20})

	input, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("output shape = %v, want [2 2]", output.Shape())
	}
	want := []float32{11, 22, 14, 25}
	for i, v := range output.Data() {
		if !floatEqual(v, want[i], 1e-5) {
			t.Errorf("output[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestLinear_Parameters(t *testing.T) {
	backend := newBackend()

	layer := nn.NewLinear(4, 2, backend)
	if len(layer.Parameters()) != 2 {
		t.Errorf("Parameters() = %d, want 2", len(layer.Parameters()))
	}

	noBias := nn.NewLinearNoBias(4, 2, backend)
	if len(noBias.Parameters()) != 1 {
		t.Errorf("bias-free Parameters() = %d, want 1", len(noBias.Parameters()))
	}
	if noBias.Bias() != nil {
		t.Error("bias-free layer should report nil bias")
	}
}

func TestLinear_BadInput(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(3, 2, backend)

	defer func() {
		if recover() == nil {
			t.Error("Forward should panic on feature mismatch")
		}
	}()
	input := tensor.Ones[float32](tensor.Shape{2, 5}, backend)
	layer.Forward(input)
}

func TestActivationModules(t *testing.T) {
	backend := newBackend()
	input, _ := tensor.FromSlice([]float32{-1, 0, 1}, tensor.Shape{3}, backend)

	relu := nn.NewReLU[Backend]().Forward(input)
	for i, v := range []float32{0, 0, 1} {
		if relu.Data()[i] != v {
			t.Errorf("ReLU[%d] = %v, want %v", i, relu.Data()[i], v)
		}
	}

	sig := nn.NewSigmoid[Backend]().Forward(input)
	if !floatEqual(sig.Data()[1], 0.5, 1e-6) {
		t.Errorf("Sigmoid(0) = %v, want 0.5", sig.Data()[1])
	}

	tanh := nn.NewTanh[Backend]().Forward(input)
	if !floatEqual(tanh.Data()[1], 0, 1e-6) {
		t.Errorf("Tanh(0) = %v, want 0", tanh.Data()[1])
	}

	if nn.NewReLU[Backend]().Parameters() != nil {
		t.Error("activations must be parameter-free")
	}
}

func TestSequential(t *testing.T) {
	backend := newBackend()

	model := nn.NewSequential[Backend](
		nn.NewLinear(4, 8, backend),
		nn.NewReLU[Backend](),
		nn.NewLinear(8, 2, backend),
	)

	if model.Len() != 3 {
		t.Errorf("Len() = %d, want 3", model.Len())
	}
	if len(model.Parameters()) != 4 {
		t.Errorf("Parameters() = %d, want 4", len(model.Parameters()))
	}

	input := tensor.Randn[float32](tensor.Shape{5, 4}, backend)
	output := model.Forward(input)
	if !output.Shape().Equal(tensor.Shape{5, 2}) {
		t.Errorf("output shape = %v, want [5 2]", output.Shape())
	}
}

func TestSequential_StateDictRoundtrip(t *testing.T) {
	backend := newBackend()

	src := nn.NewSequential[Backend](
		nn.NewLinear(3, 4, backend),
		nn.NewReLU[Backend](),
		nn.NewLinear(4, 2, backend),
	)
	dst := nn.NewSequential[Backend](
		nn.NewLinear(3, 4, backend),
		nn.NewReLU[Backend](),
		nn.NewLinear(4, 2, backend),
	)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	srcParams := src.Parameters()
	dstParams := dst.Parameters()
	for i := range srcParams {
		srcData := srcParams[i].Tensor().Data()
		dstData := dstParams[i].Tensor().Data()
		for j := range srcData {
			if srcData[j] != dstData[j] {
				t.Fatalf("parameter %d differs after roundtrip", i)
			}
		}
	}
}

func TestLinear_LoadStateDictErrors(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(3, 2, backend)

	if err := layer.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("expected error for missing weight")
	}

	wrong := tensor.Ones[float32](tensor.Shape{5, 5}, backend)
	err := layer.LoadStateDict(map[string]*tensor.RawTensor{"weight": wrong.Raw()})
	if err == nil {
		t.Error("expected error for shape mismatch")
	}
}

func TestMSELoss(t *testing.T) {
	backend := newBackend()

	pred, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	target, _ := tensor.FromSlice([]float32{2, 2, 5}, tensor.Shape{3}, backend)

	loss := nn.NewMSELoss[Backend]().Forward(pred, target)
	// ((1)² + 0 + (2)²) / 3
	if !floatEqual(loss.Item(), 5.0/3, 1e-5) {
		t.Errorf("MSE = %v, want %v", loss.Item(), 5.0/3)
	}
}

// MSE built from tracked operations must carry gradients to predictions.
func TestMSELoss_Differentiable(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	pred, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	pred.RequireGrad()
	target, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)

	loss := nn.NewMSELoss[Backend]().Forward(pred, target)
	grads, err := autodiff.Backward(loss, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	// d mean((p-t)²) / dp = 2(p-t)/n = p here.
	grad := grads.Get(pred.Raw()).AsFloat32()
	for i, v := range []float32{1, 2} {
		if !floatEqual(grad[i], v, 1e-5) {
			t.Errorf("grad[%d] = %v, want %v", i, grad[i], v)
		}
	}
}

func TestCrossEntropyLoss(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	// Strongly favor the correct class: loss should be small.
	logits, _ := tensor.FromSlice([]float32{10, 0, 0, 0, 10, 0}, tensor.Shape{2, 3}, backend)
	logits.RequireGrad()
	targets, _ := tensor.FromSlice([]int64{0, 1}, tensor.Shape{2}, backend)

	loss := nn.NewCrossEntropyLoss[Backend]().Forward(logits, targets)
	if loss.Item() > 0.01 {
		t.Errorf("confident correct predictions should give near-zero loss, got %v", loss.Item())
	}

	grads, err := autodiff.Backward(loss, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if grads.Get(logits.Raw()) == nil {
		t.Error("cross-entropy must provide logits gradient")
	}
}

func TestXavier_Range(t *testing.T) {
	backend := newBackend()
	w := nn.Xavier(100, 100, tensor.Shape{100, 100}, backend)

	bound := float32(0.1732 * 1.001) // sqrt(6/200) with slack
	for _, v := range w.Data() {
		if v > bound || v < -bound {
			t.Fatalf("Xavier value %v outside ±%v", v, bound)
		}
	}
}
