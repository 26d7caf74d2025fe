package autodiff_test

import (
	"testing"

	"github.com/trace-ml/trace/internal/autodiff"
	"github.com/trace-ml/trace/internal/tensor"
)

// checkGradients compares reverse-pass gradients against central finite
// differences of f at x. f must rebuild the graph from scratch on every
// call: the forward value is read from the returned scalar.
func checkGradients(t *testing.T, x []float64, shape tensor.Shape, f func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend]) {
	t.Helper()
	const eps = 1e-6
	const tolerance = 1e-4

	eval := func(values []float64) float64 {
		backend := newBackend()
		backend.Tape().StartRecording()
		in, err := tensor.FromSlice(values, shape, backend)
		if err != nil {
			t.Fatalf("FromSlice: %v", err)
		}
		return f(in, backend).Item()
	}

	// Analytic gradient.
	backend := newBackend()
	backend.Tape().StartRecording()
	in, err := tensor.FromSlice(x, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	in.RequireGrad()
	out := f(in, backend)
	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	analytic := grads.Get(in.Raw()).AsFloat64()

	// Numeric gradient per coordinate.
	for i := range x {
		bumped := make([]float64, len(x))

		copy(bumped, x)
		bumped[i] += eps
		plus := eval(bumped)

		bumped[i] -= 2 * eps
		minus := eval(bumped)

		numeric := (plus - minus) / (2 * eps)
		diff := analytic[i] - numeric
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("grad[%d]: analytic %v vs numeric %v", i, analytic[i], numeric)
		}
	}
}

func TestGradientCheck_Polynomial(t *testing.T) {
	// f(x) = mean(3*(x+2)²)
	checkGradients(t, []float64{1, -0.5, 2, 0.25}, tensor.Shape{2, 2},
		func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend] {
			y := x.AddScalar(2)
			return y.Mul(y).MulScalar(3).Mean()
		})
}

func TestGradientCheck_DivSqrt(t *testing.T) {
	// f(x) = sum(sqrt(x) / (x+1))
	checkGradients(t, []float64{0.5, 1.5, 2.5}, tensor.Shape{3},
		func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend] {
			return x.Sqrt().Div(x.AddScalar(1)).Sum()
		})
}

func TestGradientCheck_ExpLog(t *testing.T) {
	// f(x) = sum(exp(x) * log(x))
	checkGradients(t, []float64{0.5, 1, 2}, tensor.Shape{3},
		func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend] {
			return x.Exp().Mul(x.Log()).Sum()
		})
}

func TestGradientCheck_Tanh(t *testing.T) {
	// f(x) = sum(tanh(x))
	checkGradients(t, []float64{-1, 0, 1}, tensor.Shape{3},
		func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend] {
			return x.Tanh().Sum()
		})
}

func TestGradientCheck_SumDim(t *testing.T) {
	// f(x) = sum(sumdim(x, 1)²) exercises the dim-reduction backward.
	checkGradients(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3},
		func(x *tensor.Tensor[float64, Backend], backend Backend) *tensor.Tensor[float64, Backend] {
			s := x.SumDim(1, false)
			return s.Mul(s).Sum()
		})
}
