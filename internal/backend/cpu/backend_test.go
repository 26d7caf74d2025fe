package cpu_test

import (
	"math"
	"testing"

	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/tensor"
)

func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func fromValues(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x.Raw()
}

func TestElementwise(t *testing.T) {
	backend := cpu.New()
	a := fromValues(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromValues(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	tests := []struct {
		name string
		op   func(x, y *tensor.RawTensor) *tensor.RawTensor
		want []float32
	}{
		{"add", backend.Add, []float32{6, 8, 10, 12}},
		{"sub", backend.Sub, []float32{-4, -4, -4, -4}},
		{"mul", backend.Mul, []float32{5, 12, 21, 32}},
		{"div", backend.Div, []float32{0.2, 1.0 / 3, 3.0 / 7, 0.5}},
	}
	for _, tt := range tests {
		// Clone: same-shape ops mutate unique inputs in place.
		got := tt.op(a.DeepClone(), b).AsFloat32()
		for i := range tt.want {
			if !floatEqual(got[i], tt.want[i], 1e-6) {
				t.Errorf("%s[%d] = %v, want %v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestInplaceWhenUnique(t *testing.T) {
	backend := cpu.New()
	a := fromValues(t, []float32{1, 2}, tensor.Shape{2})
	b := fromValues(t, []float32{10, 20}, tensor.Shape{2})

	result := backend.Add(a, b)
	if result != a {
		t.Error("same-shape add on a unique tensor should reuse its buffer")
	}

	// A shared tensor must not be modified.
	c := fromValues(t, []float32{1, 2}, tensor.Shape{2})
	clone := c.Clone() // bumps the refcount
	result = backend.Add(c, b)
	if result == c {
		t.Error("shared tensor must not be updated in place")
	}
	if clone.AsFloat32()[0] != 1 {
		t.Error("shared buffer was mutated")
	}
}

func TestBroadcastAdd(t *testing.T) {
	backend := cpu.New()
	a := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromValues(t, []float32{10, 20, 30}, tensor.Shape{3})

	got := backend.Add(a, b)
	if !got.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", got.Shape())
	}
	want := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("broadcast add[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestBroadcastColumn(t *testing.T) {
	backend := cpu.New()
	a := fromValues(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	b := fromValues(t, []float32{10, 20}, tensor.Shape{1, 2})

	got := backend.Mul(a, b)
	want := []float32{10, 20, 20, 40, 30, 60}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("broadcast mul[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestScalarOps(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	got := backend.AddScalar(x, float32(2)).AsFloat32()
	want := []float32{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AddScalar[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got = backend.MulScalar(x, float32(3)).AsFloat32()
	want = []float32{3, 6, 9, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MulScalar[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got = backend.Neg(x).AsFloat32()
	for i, v := range []float32{-1, -2, -3, -4} {
		if got[i] != v {
			t.Errorf("Neg[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()
	a := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromValues(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	got := backend.MatMul(a, b)
	if !got.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", got.Shape())
	}
	want := []float32{58, 64, 139, 154}
	for i, v := range got.AsFloat32() {
		if !floatEqual(v, want[i], 1e-4) {
			t.Errorf("matmul[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMatMul_Float64(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	identity, err := tensor.FromSlice([]float64{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}

	got := backend.MatMul(a.Raw(), identity.Raw()).AsFloat64()
	for i, v := range []float64{1, 2, 3, 4} {
		if got[i] != v {
			t.Errorf("matmul identity[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestReductions(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := backend.Sum(x)
	if !sum.Shape().Equal(tensor.Shape{}) {
		t.Fatalf("Sum shape = %v, want scalar", sum.Shape())
	}
	if sum.AsFloat32()[0] != 21 {
		t.Errorf("Sum = %v, want 21", sum.AsFloat32()[0])
	}

	mean := backend.Mean(x)
	if !floatEqual(mean.AsFloat32()[0], 3.5, 1e-6) {
		t.Errorf("Mean = %v, want 3.5", mean.AsFloat32()[0])
	}
}

func TestSumDim(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	rows := backend.SumDim(x, 0, false)
	if !rows.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("SumDim(0) shape = %v, want [3]", rows.Shape())
	}
	for i, v := range []float32{5, 7, 9} {
		if rows.AsFloat32()[i] != v {
			t.Errorf("SumDim(0)[%d] = %v, want %v", i, rows.AsFloat32()[i], v)
		}
	}

	cols := backend.SumDim(x, 1, true)
	if !cols.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("SumDim(1, keep) shape = %v, want [2 1]", cols.Shape())
	}
	for i, v := range []float32{6, 15} {
		if cols.AsFloat32()[i] != v {
			t.Errorf("SumDim(1)[%d] = %v, want %v", i, cols.AsFloat32()[i], v)
		}
	}

	meanCols := backend.MeanDim(x, 1, false)
	for i, v := range []float32{2, 5} {
		if !floatEqual(meanCols.AsFloat32()[i], v, 1e-6) {
			t.Errorf("MeanDim(1)[%d] = %v, want %v", i, meanCols.AsFloat32()[i], v)
		}
	}
}

func TestUnaryMath(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{0, 1, 4, 9}, tensor.Shape{4})

	sqrt := backend.Sqrt(x).AsFloat32()
	for i, v := range []float32{0, 1, 2, 3} {
		if !floatEqual(sqrt[i], v, 1e-6) {
			t.Errorf("Sqrt[%d] = %v, want %v", i, sqrt[i], v)
		}
	}

	exp := backend.Exp(fromValues(t, []float32{0, 1}, tensor.Shape{2})).AsFloat32()
	if !floatEqual(exp[0], 1, 1e-6) || !floatEqual(exp[1], float32(math.E), 1e-5) {
		t.Errorf("Exp = %v, want [1 e]", exp)
	}
}

func TestActivations(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{-2, -1, 0, 1, 2}, tensor.Shape{5})

	relu := backend.ReLU(x).AsFloat32()
	for i, v := range []float32{0, 0, 0, 1, 2} {
		if relu[i] != v {
			t.Errorf("ReLU[%d] = %v, want %v", i, relu[i], v)
		}
	}

	sig := backend.Sigmoid(fromValues(t, []float32{0}, tensor.Shape{1})).AsFloat32()
	if !floatEqual(sig[0], 0.5, 1e-6) {
		t.Errorf("Sigmoid(0) = %v, want 0.5", sig[0])
	}

	tanh := backend.Tanh(fromValues(t, []float32{0}, tensor.Shape{1})).AsFloat32()
	if !floatEqual(tanh[0], 0, 1e-6) {
		t.Errorf("Tanh(0) = %v, want 0", tanh[0])
	}
}

func TestSoftmax(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{1, 2, 3, 1, 2, 3}, tensor.Shape{2, 3})

	got := backend.Softmax(x, -1).AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 3; col++ {
			sum += got[row*3+col]
		}
		if !floatEqual(sum, 1, 1e-5) {
			t.Errorf("softmax row %d sums to %v, want 1", row, sum)
		}
	}
	// Larger logits get larger probabilities.
	if !(got[0] < got[1] && got[1] < got[2]) {
		t.Errorf("softmax not monotone: %v", got[:3])
	}
}

func TestReshapeTranspose(t *testing.T) {
	backend := cpu.New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	reshaped := backend.Reshape(x, tensor.Shape{3, 2})
	if !reshaped.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v", reshaped.Shape())
	}
	if reshaped.AsFloat32()[2] != 3 {
		t.Error("Reshape must preserve element order")
	}

	transposed := backend.Transpose(x)
	if !transposed.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v", transposed.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range transposed.AsFloat32() {
		if v != want[i] {
			t.Errorf("transpose[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestCrossEntropy(t *testing.T) {
	backend := cpu.New()
	// Uniform logits: loss is ln(3) regardless of targets.
	logits := fromValues(t, []float32{1, 1, 1, 1, 1, 1}, tensor.Shape{2, 3})
	targets, err := tensor.FromSlice([]int64{0, 2}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}

	loss := backend.CrossEntropy(logits, targets.Raw())
	got := loss.AsFloat32()[0]
	want := float32(math.Log(3))
	if !floatEqual(got, want, 1e-5) {
		t.Errorf("CrossEntropy = %v, want ln(3) = %v", got, want)
	}
}
