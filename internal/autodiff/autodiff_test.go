package autodiff_test

import (
	"testing"

	"github.com/trace-ml/trace/internal/autodiff"
	"github.com/trace-ml/trace/internal/backend/cpu"
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

func TestBackend_Name(t *testing.T) {
	backend := newBackend()
	if backend.Name() != "Autodiff(CPU)" {
		t.Errorf("Name() = %s, want Autodiff(CPU)", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", backend.Device())
	}
}

func TestTape_Recording(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()

	if tape.IsRecording() {
		t.Error("tape should start stopped")
	}

	tape.StartRecording()
	x := tensor.Ones[float32](tensor.Shape{2}, backend).RequireGrad()
	_ = x.AddScalar(1)
	if tape.NumOps() != 1 {
		t.Errorf("NumOps() = %d, want 1", tape.NumOps())
	}

	tape.StopRecording()
	_ = x.AddScalar(1)
	if tape.NumOps() != 1 {
		t.Error("stopped tape must not record")
	}

	tape.Clear()
	if tape.NumOps() != 0 {
		t.Error("Clear should drop recorded ops")
	}
}

// Tracking gates recording: operations on untracked tensors stay off the
// tape even while it is recording.
func TestRecording_RequiresTrackedInput(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2}, backend)
	y := x.AddScalar(2)
	if backend.Tape().NumOps() != 0 {
		t.Errorf("untracked input recorded %d ops", backend.Tape().NumOps())
	}
	if y.RequiresGrad() {
		t.Error("output of untracked op should stay untracked")
	}

	x.RequireGrad()
	z := x.AddScalar(2)
	if backend.Tape().NumOps() != 1 {
		t.Error("tracked input should record")
	}
	if !z.RequiresGrad() {
		t.Error("output of a recorded op must be tracked")
	}
}

// The canonical walkthrough: x = ones(2,2), y = x+2, z = 3y², out = mean(z).
// dout/dx = 6(x+2)/4 = 4.5 everywhere.
func TestBackward_Walkthrough(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	y := x.AddScalar(2)
	z := y.Mul(y).MulScalar(3)
	out := z.Mean()

	if !floatEqual(out.Item(), 27, 1e-5) {
		t.Fatalf("out = %v, want 27", out.Item())
	}

	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	grad := grads.Get(x.Raw())
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	if !grad.Shape().Equal(x.Shape()) {
		t.Fatalf("grad shape = %v, want %v", grad.Shape(), x.Shape())
	}
	for i, v := range grad.AsFloat32() {
		if !floatEqual(v, 4.5, 1e-5) {
			t.Errorf("grad[%d] = %v, want 4.5", i, v)
		}
	}
}

// A tensor feeding two operations accumulates both contributions.
func TestBackward_Accumulation(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2}, backend).RequireGrad()
	// out = sum(x*x + x): dout/dx = 2x + 1 = 3 at x = 1.
	out := x.Mul(x).Add(x).Sum()

	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	for i, v := range grads.Get(x.Raw()).AsFloat32() {
		if !floatEqual(v, 3, 1e-5) {
			t.Errorf("grad[%d] = %v, want 3", i, v)
		}
	}
}

func TestBackward_EmptyTape(t *testing.T) {
	backend := newBackend()
	x := tensor.Ones[float32](tensor.Shape{}, backend)
	if _, err := autodiff.Backward(x, backend); err == nil {
		t.Error("expected error for empty tape")
	}
}

func TestBackward_NonScalarNeedsSeed(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	y := x.MulScalar(2)

	if _, err := autodiff.Backward(y, backend); err == nil {
		t.Error("expected error for non-scalar output without a seed")
	}
}

func TestBackwardWithGrad(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	y := x.MulScalar(2)

	seed := tensor.Full[float32](tensor.Shape{2, 2}, 0.5, backend)
	grads, err := autodiff.BackwardWithGrad(y, seed, backend)
	if err != nil {
		t.Fatalf("BackwardWithGrad: %v", err)
	}
	// dy/dx = 2 scaled by seed 0.5 = 1.
	for i, v := range grads.Get(x.Raw()).AsFloat32() {
		if !floatEqual(v, 1, 1e-5) {
			t.Errorf("grad[%d] = %v, want 1", i, v)
		}
	}
}

func TestBackwardWithGrad_ShapeMismatch(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	y := x.MulScalar(2)

	seed := tensor.Ones[float32](tensor.Shape{3}, backend)
	if _, err := autodiff.BackwardWithGrad(y, seed, backend); err == nil {
		t.Error("expected error for seed shape mismatch")
	}
}

func TestBackward_Broadcast(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	// bias [3] broadcast across rows [2,3]; its gradient sums over rows.
	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	bias := tensor.Ones[float32](tensor.Shape{3}, backend).RequireGrad()

	out := x.Add(bias).Sum()
	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	grad := grads.Get(bias.Raw())
	if !grad.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("bias grad shape = %v, want [3]", grad.Shape())
	}
	for i, v := range grad.AsFloat32() {
		if !floatEqual(v, 2, 1e-5) {
			t.Errorf("bias grad[%d] = %v, want 2", i, v)
		}
	}
}

func TestBackward_MatMul(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	a.RequireGrad()
	b, _ := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	b.RequireGrad()

	out := a.MatMul(b).Sum()
	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	// d sum(A@B) / dA = ones @ B^T: row sums of B per column.
	wantA := []float32{11, 15, 11, 15}
	for i, v := range grads.Get(a.Raw()).AsFloat32() {
		if !floatEqual(v, wantA[i], 1e-4) {
			t.Errorf("gradA[%d] = %v, want %v", i, v, wantA[i])
		}
	}
	// d sum(A@B) / dB = A^T @ ones: column sums of A per row.
	wantB := []float32{4, 4, 6, 6}
	for i, v := range grads.Get(b.Raw()).AsFloat32() {
		if !floatEqual(v, wantB[i], 1e-4) {
			t.Errorf("gradB[%d] = %v, want %v", i, v, wantB[i])
		}
	}
}

func TestAccumulate(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2}, backend).RequireGrad()
	out := x.MulScalar(3).Sum()

	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	autodiff.Accumulate(grads, backend, x)
	if x.Grad() == nil {
		t.Fatal("Accumulate should populate Grad")
	}
	for i, v := range x.Grad().Data() {
		if !floatEqual(v, 3, 1e-5) {
			t.Errorf("Grad[%d] = %v, want 3", i, v)
		}
	}

	// A second pass sums into the existing gradient.
	backend.Tape().Clear()
	out = x.MulScalar(3).Sum()
	grads, err = autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	autodiff.Accumulate(grads, backend, x)
	for i, v := range x.Grad().Data() {
		if !floatEqual(v, 6, 1e-5) {
			t.Errorf("accumulated Grad[%d] = %v, want 6", i, v)
		}
	}

	x.ZeroGrad()
	if x.Grad() != nil {
		t.Error("ZeroGrad should clear Grad")
	}
}

func TestNoGrad(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2}, backend).RequireGrad()
	autodiff.NoGrad(backend, func() {
		_ = x.AddScalar(1)
	})
	if backend.Tape().NumOps() != 0 {
		t.Error("NoGrad must suppress recording")
	}
	if !backend.Tape().IsRecording() {
		t.Error("NoGrad must restore recording state")
	}
}

func TestDetachStopsGradient(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Ones[float32](tensor.Shape{2}, backend).RequireGrad()
	y := x.MulScalar(2)
	d := y.Detach()
	out := d.MulScalar(3).Sum()

	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if grads.Get(x.Raw()) != nil {
		t.Error("gradient must not flow through Detach")
	}
}

// Chained activations keep their closed-form gradients intact.
func TestBackward_Activations(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x := tensor.Zeros[float32](tensor.Shape{1}, backend).RequireGrad()
	out := x.Sigmoid().Sum()

	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// sigmoid'(0) = 0.25
	got := grads.Get(x.Raw()).AsFloat32()[0]
	if !floatEqual(got, 0.25, 1e-5) {
		t.Errorf("sigmoid grad = %v, want 0.25", got)
	}
}
