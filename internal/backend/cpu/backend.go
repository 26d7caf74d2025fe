// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/trace-ml/trace/internal/parallel"
	"github.com/trace-ml/trace/internal/tensor"
)

// CPUBackend implements tensor.Backend with pure Go kernels. Matrix
// multiplication is delegated to gonum's BLAS implementation; large
// element-wise loops are chunked across goroutines.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(a, b, opAdd, "add")
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(a, b, opSub, "sub")
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(a, b, opMul, "mul")
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(a, b, opDiv, "div")
}

func (cpu *CPUBackend) binary(a, b *tensor.RawTensor, kind binKind, name string) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast {
		// Fast path: identical shapes. Update a in place when nothing else
		// references its buffer.
		if a.IsUnique() {
			cpu.binaryInplace(a, b, kind)
			return a
		}
		result := newRaw(outShape, a.DType(), cpu.device, name)
		cpu.binaryVectorized(result, a, b, kind)
		return result
	}

	result := newRaw(outShape, a.DType(), cpu.device, name)
	cpu.binaryBroadcast(result, a, b, outShape, kind)
	return result
}

// newRaw allocates a result tensor, panicking with op context on failure.
// Shapes reaching backends are already validated, so failure is a bug.
func newRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, op string) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return raw
}
