//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/trace-ml/trace/internal/tensor"
)

// compileShader returns the cached ShaderModule for name, compiling the
// WGSL source on first use.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, ok := b.shaders[name]; ok {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// getOrCreatePipeline returns the cached ComputePipeline for name,
// building one with auto layout on first use.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()
	return pipeline
}

// createBuffer allocates a GPU buffer and uploads data through the
// mapped-at-creation range.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mapped := buffer.GetMappedRange(0, size)
	//nolint:gosec // zero-copy view over the mapped range
	copy(unsafe.Slice((*byte)(mapped), size), data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer allocates a uniform buffer. Uniform bindings need
// 16-byte aligned sizes.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mapped := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // zero-copy view over the mapped range
	copy(unsafe.Slice((*byte)(mapped), alignedSize), data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a storage buffer back to host memory via a staging
// buffer (storage buffers cannot be mapped directly).
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, size)
	result := make([]byte, size)
	//nolint:gosec // zero-copy view over the mapped range
	copy(result, unsafe.Slice((*byte)(mapped), size))
	return result, nil
}

// sizeParams packs the element count into a 16-byte uniform block.
func sizeParams(numElements int) []byte {
	params := make([]byte, 16)
	//nolint:gosec // element counts are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	return params
}

// dispatch runs pipeline over ceil(numElements/workgroupSize) workgroups
// with the given bind group.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, numElements int) {
	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // workgroup count is non-negative
	pass.DispatchWorkgroups(uint32((numElements+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))
}

// matmulParams packs the matrix dimensions into a 16-byte uniform block.
func matmulParams(m, k, n int) []byte {
	params := make([]byte, 16)
	//nolint:gosec // matrix dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	//nolint:gosec
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	//nolint:gosec
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))
	return params
}

// runMatMul executes the matmul shader on 2D float32 tensors with
// compatible inner dimensions.
func (b *Backend) runMatMul(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	m := x.Shape()[0]
	k := x.Shape()[1]
	n := y.Shape()[1]

	shader := b.compileShader("matmul", matmulShader)
	pipeline := b.getOrCreatePipeline("matmul", shader)

	bufferX := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferX.Release()
	bufferY := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferY.Release()

	resultSize := uint64(m * n * 4)
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(matmulParams(m, k, n))
	defer bufferParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferX, 0, uint64(x.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferY, 0, uint64(y.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // workgroup counts are non-negative
	pass.DispatchWorkgroups(
		uint32((n+matmulTile-1)/matmulTile),
		uint32((m+matmulTile-1)/matmulTile),
		1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	data, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}

// runBinaryOp executes an element-wise binary shader on same-shape
// float32 tensors.
func (b *Backend) runBinaryOp(x, y *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	numElements := x.NumElements()
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	bufferX := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferX.Release()
	bufferY := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferY.Release()

	resultSize := uint64(x.ByteSize())
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(sizeParams(numElements))
	defer bufferParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferX, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferY, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, numElements)

	data, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}

// runUnaryOp executes an element-wise unary shader on a float32 tensor.
func (b *Backend) runUnaryOp(x *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	numElements := x.NumElements()
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	bufferX := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferX.Release()

	resultSize := uint64(x.ByteSize())
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(sizeParams(numElements))
	defer bufferParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferX, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, numElements)

	data, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}
