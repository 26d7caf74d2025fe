package cpu

import (
	"fmt"

	"github.com/trace-ml/trace/internal/tensor"
)

// Reshape returns a tensor with the same elements in a new shape.
// The element count must be preserved.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	result := newRaw(newShape, t.DType(), cpu.device, "reshape")
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes dimensions. With no axes, all dimensions are reversed
// (the standard 2-D transpose).
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes permutation %v for shape %v", axes, shape))
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	result := newRaw(outShape, t.DType(), cpu.device, "transpose")
	switch t.DType() {
	case tensor.Float32:
		transposeKernel(result.AsFloat32(), t.AsFloat32(), shape, outShape, axes)
	case tensor.Float64:
		transposeKernel(result.AsFloat64(), t.AsFloat64(), shape, outShape, axes)
	case tensor.Int32:
		transposeKernel(result.AsInt32(), t.AsInt32(), shape, outShape, axes)
	case tensor.Int64:
		transposeKernel(result.AsInt64(), t.AsInt64(), shape, outShape, axes)
	default:
		panic("transpose: unsupported dtype " + t.DType().String())
	}
	return result
}

func transposeKernel[T number](dst, src []T, inShape, outShape tensor.Shape, axes []int) {
	inStrides := inShape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
}
