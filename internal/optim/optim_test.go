package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trace-ml/trace/internal/autodiff"
	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/optim"
	"github.com/trace-ml/trace/internal/tensor"
)

type Backend = *autodiff.Backend[*cpu.CPUBackend]

func newBackend() Backend {
	return autodiff.New(cpu.New())
}

// makeParam builds a parameter with known values and a matching gradient
// map entry.
func makeParam(t *testing.T, backend Backend, values, gradValues []float32) (*nn.Parameter[Backend], map[*tensor.RawTensor]*tensor.RawTensor) {
	t.Helper()
	data, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	param := nn.NewParameter("p", data)

	grad, err := tensor.FromSlice(gradValues, tensor.Shape{len(gradValues)}, backend)
	require.NoError(t, err)
	grads := map[*tensor.RawTensor]*tensor.RawTensor{data.Raw(): grad.Raw()}
	return param, grads
}

func TestSGD_Step(t *testing.T) {
	backend := newBackend()
	param, grads := makeParam(t, backend, []float32{1, 2, 3}, []float32{1, 1, 1})

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 0.1})
	sgd.Step(grads)

	want := []float32{0.9, 1.9, 2.9}
	for i, v := range param.Tensor().Data() {
		assert.InDelta(t, want[i], v, 1e-6)
	}
}

func TestSGD_Momentum(t *testing.T) {
	backend := newBackend()
	param, grads := makeParam(t, backend, []float32{1}, []float32{1})

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: velocity = 1, param = 1 - 0.1 = 0.9.
	sgd.Step(grads)
	assert.InDelta(t, 0.9, param.Tensor().Data()[0], 1e-6)

	// Step 2: velocity = 0.9 + 1 = 1.9, param = 0.9 - 0.19 = 0.71.
	sgd.Step(grads)
	assert.InDelta(t, 0.71, param.Tensor().Data()[0], 1e-6)
}

func TestSGD_SkipsParamsWithoutGradient(t *testing.T) {
	backend := newBackend()
	param, _ := makeParam(t, backend, []float32{1, 2}, []float32{1, 1})

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 0.1})
	sgd.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	assert.Equal(t, []float32{1, 2}, param.Tensor().Data())
}

func TestSGD_Defaults(t *testing.T) {
	sgd := optim.NewSGD[Backend](nil, optim.SGDConfig{})
	assert.InDelta(t, 0.01, sgd.LR(), 1e-9)

	sgd.SetLR(0.5)
	assert.InDelta(t, 0.5, sgd.LR(), 1e-9)
}

func TestAdam_Step(t *testing.T) {
	backend := newBackend()
	param, grads := makeParam(t, backend, []float32{1}, []float32{1})

	adam := optim.NewAdam([]*nn.Parameter[Backend]{param}, optim.AdamConfig{LR: 0.1})
	adam.Step(grads)

	// With bias correction, the first step moves by almost exactly lr.
	assert.InDelta(t, 0.9, param.Tensor().Data()[0], 1e-4)
}

func TestAdam_ConvergesOnQuadratic(t *testing.T) {
	backend := newBackend()
	data, err := tensor.FromSlice([]float32{5}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	param := nn.NewParameter("x", data)

	adam := optim.NewAdam([]*nn.Parameter[Backend]{param}, optim.AdamConfig{LR: 0.1})

	// Minimize f(x) = x² by feeding grad = 2x.
	for i := 0; i < 500; i++ {
		x := param.Tensor().Data()[0]
		grad, gerr := tensor.FromSlice([]float32{2 * x}, tensor.Shape{1}, backend)
		require.NoError(t, gerr)
		adam.Step(map[*tensor.RawTensor]*tensor.RawTensor{data.Raw(): grad.Raw()})
	}

	assert.InDelta(t, 0, param.Tensor().Data()[0], 0.05)
}

func TestZeroGrad(t *testing.T) {
	backend := newBackend()
	param, _ := makeParam(t, backend, []float32{1}, []float32{1})

	grad, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	param.SetGrad(grad)

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{})
	sgd.ZeroGrad()
	assert.Nil(t, param.Grad())
}

// End to end: a linear model trained with SGD drives the loss down.
func TestTraining_LossDecreases(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	// y = 2x targets for a 1-feature linear model.
	features, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4, 1}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]float32{2, 4, 6, 8}, tensor.Shape{4, 1}, backend)
	require.NoError(t, err)

	model := nn.NewLinear(1, 1, backend)
	criterion := nn.NewMSELoss[Backend]()
	sgd := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01})

	var first, last float32
	for epoch := 0; epoch < 100; epoch++ {
		backend.Tape().Clear()

		loss := criterion.Forward(model.Forward(features), targets)
		last = loss.Item()
		if epoch == 0 {
			first = last
		}

		grads, err := autodiff.Backward(loss, backend)
		require.NoError(t, err)
		sgd.Step(grads)
		sgd.ZeroGrad()
	}

	assert.Less(t, last, first, "loss should decrease: first %v, last %v", first, last)
	assert.Less(t, last, float32(0.1))
}
