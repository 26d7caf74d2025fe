package cpu

import (
	"math"

	"github.com/trace-ml/trace/internal/parallel"
	"github.com/trace-ml/trace/internal/tensor"
)

// Exp computes the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, math.Exp, "exp")
}

// Log computes the element-wise natural logarithm.
// Inputs must be positive; non-positive values produce -Inf/NaN as math.Log does.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, math.Log, "log")
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, math.Sqrt, "sqrt")
}

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, "relu")
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	}, "sigmoid")
}

// Tanh applies the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat(x, math.Tanh, "tanh")
}

func (cpu *CPUBackend) unaryFloat(x *tensor.RawTensor, f func(float64) float64, name string) *tensor.RawTensor {
	result := newRaw(x.Shape(), x.DType(), cpu.device, name)
	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.Ranges(len(src), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = float32(f(float64(src[i])))
			}
		}, cpu.par)
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.Ranges(len(src), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = f(src[i])
			}
		}, cpu.par)
	default:
		panic(name + ": only float32 and float64 are supported")
	}
	return result
}

// Softmax applies softmax along dim with max-shifting for numerical
// stability. Negative dims count from the end.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "softmax")

	result := newRaw(shape, x.DType(), cpu.device, "softmax")
	outer, n, inner := splitDims(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		softmaxKernel(result.AsFloat32(), x.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		softmaxKernel(result.AsFloat64(), x.AsFloat64(), outer, n, inner)
	default:
		panic("softmax: only float32 and float64 are supported")
	}
	return result
}

func softmaxKernel[T ~float32 | ~float64](dst, src []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o * n * inner

			maxVal := src[base+i]
			for j := 1; j < n; j++ {
				if v := src[base+j*inner+i]; v > maxVal {
					maxVal = v
				}
			}

			var sum T
			for j := 0; j < n; j++ {
				e := T(math.Exp(float64(src[base+j*inner+i] - maxVal)))
				dst[base+j*inner+i] = e
				sum += e
			}

			for j := 0; j < n; j++ {
				dst[base+j*inner+i] /= sum
			}
		}
	}
}

// normalizeDim resolves negative dims and bounds-checks.
func normalizeDim(dim, ndim int, op string) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(op + ": dimension out of range")
	}
	return dim
}

// splitDims factors a shape around dim into (outer, n, inner) loop bounds.
func splitDims(shape tensor.Shape, dim int) (outer, n, inner int) {
	outer, n, inner = 1, shape[dim], 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, n, inner
}
