//go:build windows

package webgpu

import (
	"encoding/binary"
	"testing"

	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/tensor"
)

// newGPUBackend creates a backend or skips when no adapter is available.
func newGPUBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(backend.Release)
	return backend
}

// fallbackBackend builds a backend without a GPU device. Only the CPU
// fallback paths may be exercised on it.
func fallbackBackend() *Backend {
	return &Backend{CPUBackend: cpu.New()}
}

func makeFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestAddGPU(t *testing.T) {
	backend := newGPUBackend(t)

	a := makeFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := makeFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	got := backend.Add(a, b).AsFloat32()
	for i, want := range []float32{6, 8, 10, 12} {
		if got[i] != want {
			t.Errorf("add[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestMatMulGPU(t *testing.T) {
	backend := newGPUBackend(t)

	a := makeFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := makeFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", result.Shape())
	}
	got := result.AsFloat32()
	for i, want := range []float32{58, 64, 139, 154} {
		if got[i] != want {
			t.Errorf("matmul[%d] = %v, want %v", i, got[i], want)
		}
	}
}

// Non-square output exercises the 2D workgroup grid in both directions.
func TestMatMulGPU_Rectangular(t *testing.T) {
	backend := newGPUBackend(t)

	const m, k, n = 33, 5, 17 // not multiples of the tile edge
	aData := make([]float32, m*k)
	bData := make([]float32, k*n)
	for i := range aData {
		aData[i] = float32(i % 7)
	}
	for i := range bData {
		bData[i] = float32(i % 5)
	}
	a := makeFloat32(t, aData, tensor.Shape{m, k})
	b := makeFloat32(t, bData, tensor.Shape{k, n})

	got := backend.MatMul(a, b).AsFloat32()
	want := cpu.New().MatMul(a, b).AsFloat32()
	for i := range want {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-3 {
			t.Fatalf("matmul[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// Float64 and non-2D inputs must route to the CPU backend; no GPU device
// is needed for that path.
func TestMatMul_CPUFallback(t *testing.T) {
	backend := fallbackBackend()

	a, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(a.AsFloat64(), []float64{1, 2, 3, 4})
	identity, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(identity.AsFloat64(), []float64{1, 0, 0, 1})

	got := backend.MatMul(a, identity).AsFloat64()
	for i, want := range []float64{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("fallback matmul[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestMatmulParams(t *testing.T) {
	params := matmulParams(3, 5, 7)
	if len(params) != 16 {
		t.Fatalf("uniform block size = %d, want 16", len(params))
	}
	for i, want := range []uint32{3, 5, 7} {
		got := binary.LittleEndian.Uint32(params[i*4:])
		if got != want {
			t.Errorf("params[%d] = %d, want %d", i, got, want)
		}
	}
}
