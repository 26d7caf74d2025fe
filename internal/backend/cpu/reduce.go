package cpu

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// Sum reduces all elements to a scalar (empty shape) tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := newRaw(tensor.Shape{}, x.DType(), cpu.device, "sum")
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumAll(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumAll(x.AsInt64())
	default:
		panic("sum: unsupported dtype " + x.DType().String())
	}
	return result
}

// Mean reduces all elements to their scalar mean.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := newRaw(tensor.Shape{}, x.DType(), cpu.device, "mean")
	n := x.NumElements()
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(x.AsFloat32()) / float32(n)
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(x.AsFloat64()) / float64(n)
	default:
		panic("mean: only float32 and float64 are supported")
	}
	return result
}

// SumDim sums along dim. With keepDim the reduced dimension stays as size 1,
// otherwise it is dropped (a fully reduced 1-D input yields a scalar).
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along dim with the same shape rules as SumDim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	name := "sumdim"
	if mean {
		name = "meandim"
	}
	dim = normalizeDim(dim, len(shape), name)

	outShape := reducedShape(shape, dim, keepDim)
	result := newRaw(outShape, x.DType(), cpu.device, name)
	outer, n, inner := splitDims(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		reduceKernel(result.AsFloat32(), x.AsFloat32(), outer, n, inner, mean)
	case tensor.Float64:
		reduceKernel(result.AsFloat64(), x.AsFloat64(), outer, n, inner, mean)
	default:
		panic(name + ": only float32 and float64 are supported")
	}
	return result
}

// reducedShape drops or keeps the reduced dimension.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	return out
}

func reduceKernel[T ~float32 | ~float64](dst, src []T, outer, n, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum T
			base := o * n * inner
			for j := 0; j < n; j++ {
				sum += src[base+j*inner+i]
			}
			if mean {
				sum /= T(n)
			}
			dst[o*inner+i] = sum
		}
	}
}

func sumAll[T number](data []T) T {
	var sum T
	for _, v := range data {
		sum += v
	}
	return sum
}
