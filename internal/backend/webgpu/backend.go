//go:build windows

// Package webgpu implements a GPU compute backend on WebGPU, using
// go-webgpu for zero-CGO bindings.
//
// Element-wise arithmetic, the common activations, and 2D matmul run as
// WGSL compute shaders. Everything else (reductions, shape ops, losses)
// falls back to the embedded CPU backend, as do dtypes other than float32
// and broadcasting shapes. Shader modules and pipelines are compiled once
// and cached per backend.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/tensor"
)

// Backend implements tensor operations on a WebGPU device.
type Backend struct {
	// CPU fallback for operations without a GPU path.
	*cpu.CPUBackend

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfo

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
}

// New creates a WebGPU backend, or returns an error when no adapter or
// native library is available.
func New() (backend *Backend, err error) {
	// wgpu_native panics instead of returning an error when the shared
	// library is missing.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", adapterErr)
	}

	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: no default queue")
	}

	return &Backend{
		CPUBackend:  cpu.New(),
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &adapterInfo,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release frees all cached pipelines, shaders and WebGPU objects. The
// backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name with the adapter it runs on.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Name, b.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// Device returns tensor.WebGPU.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the selected GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfo {
	return b.adapterInfo
}

// gpuEligible reports whether a same-shape float32 binary op can run on
// the GPU path.
func gpuEligible(a, other *tensor.RawTensor) bool {
	return a.DType() == tensor.Float32 && a.Shape().Equal(other.Shape())
}

// Add performs element-wise addition.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.CPUBackend.Add(x, y)
	}
	return b.mustBinaryOp(x, y, "add", addShader)
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.CPUBackend.Sub(x, y)
	}
	return b.mustBinaryOp(x, y, "sub", subShader)
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.CPUBackend.Mul(x, y)
	}
	return b.mustBinaryOp(x, y, "mul", mulShader)
}

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.CPUBackend.Div(x, y)
	}
	return b.mustBinaryOp(x, y, "div", divShader)
}

// MatMul multiplies 2D float32 matrices on the GPU. Other dtypes and
// ranks fall back to the CPU backend, which also validates shapes.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 || y.DType() != tensor.Float32 ||
		len(x.Shape()) != 2 || len(y.Shape()) != 2 || x.Shape()[1] != y.Shape()[0] {
		return b.CPUBackend.MatMul(x, y)
	}
	result, err := b.runMatMul(x, y)
	if err != nil {
		panic(fmt.Sprintf("webgpu matmul: %v", err))
	}
	return result
}

// Neg negates element-wise.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "neg", negShader, b.CPUBackend.Neg)
}

// Exp computes the element-wise exponential.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "exp", expShader, b.CPUBackend.Exp)
}

// Log computes the element-wise natural logarithm.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "log", logShader, b.CPUBackend.Log)
}

// Sqrt computes the element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "sqrt", sqrtShader, b.CPUBackend.Sqrt)
}

// ReLU applies the rectifier.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "relu", reluShader, b.CPUBackend.ReLU)
}

// Sigmoid applies the logistic function.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "sigmoid", sigmoidShader, b.CPUBackend.Sigmoid)
}

// Tanh applies the hyperbolic tangent.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOrFallback(x, "tanh", tanhShader, b.CPUBackend.Tanh)
}

func (b *Backend) unaryOrFallback(x *tensor.RawTensor, name, shader string, fallback func(*tensor.RawTensor) *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return fallback(x)
	}
	result, err := b.runUnaryOp(x, name, shader)
	if err != nil {
		panic(fmt.Sprintf("webgpu %s: %v", name, err))
	}
	return result
}

func (b *Backend) mustBinaryOp(x, y *tensor.RawTensor, name, shader string) *tensor.RawTensor {
	result, err := b.runBinaryOp(x, y, name, shader)
	if err != nil {
		panic(fmt.Sprintf("webgpu %s: %v", name, err))
	}
	return result
}
