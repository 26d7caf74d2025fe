package cpu

import (
	"github.com/trace-ml/trace/internal/parallel"
	"github.com/trace-ml/trace/internal/tensor"
)

// binKind selects the arithmetic applied by the shared binary kernels.
type binKind int

const (
	opAdd binKind = iota
	opSub
	opMul
	opDiv
)

// number covers the dtypes the arithmetic kernels operate on.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

func (cpu *CPUBackend) binaryInplace(a, b *tensor.RawTensor, kind binKind) {
	switch a.DType() {
	case tensor.Float32:
		vectorized(a.AsFloat32(), a.AsFloat32(), b.AsFloat32(), kind, cpu.par)
	case tensor.Float64:
		vectorized(a.AsFloat64(), a.AsFloat64(), b.AsFloat64(), kind, cpu.par)
	case tensor.Int32:
		vectorized(a.AsInt32(), a.AsInt32(), b.AsInt32(), kind, cpu.par)
	case tensor.Int64:
		vectorized(a.AsInt64(), a.AsInt64(), b.AsInt64(), kind, cpu.par)
	default:
		panic("binary op: unsupported dtype " + a.DType().String())
	}
}

func (cpu *CPUBackend) binaryVectorized(dst, a, b *tensor.RawTensor, kind binKind) {
	switch a.DType() {
	case tensor.Float32:
		vectorized(dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), kind, cpu.par)
	case tensor.Float64:
		vectorized(dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), kind, cpu.par)
	case tensor.Int32:
		vectorized(dst.AsInt32(), a.AsInt32(), b.AsInt32(), kind, cpu.par)
	case tensor.Int64:
		vectorized(dst.AsInt64(), a.AsInt64(), b.AsInt64(), kind, cpu.par)
	default:
		panic("binary op: unsupported dtype " + a.DType().String())
	}
}

func (cpu *CPUBackend) binaryBroadcast(dst, a, b *tensor.RawTensor, outShape tensor.Shape, kind binKind) {
	switch a.DType() {
	case tensor.Float32:
		broadcastKernel(dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, kind)
	case tensor.Float64:
		broadcastKernel(dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, kind)
	case tensor.Int32:
		broadcastKernel(dst.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, kind)
	case tensor.Int64:
		broadcastKernel(dst.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, kind)
	default:
		panic("binary op: unsupported dtype " + a.DType().String())
	}
}

func vectorized[T number](dst, a, b []T, kind binKind, cfg parallel.Config) {
	switch kind {
	case opAdd:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] + b[i]
			}
		}, cfg)
	case opSub:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] - b[i]
			}
		}, cfg)
	case opMul:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] * b[i]
			}
		}, cfg)
	case opDiv:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] / b[i]
			}
		}, cfg)
	}
}

// effectiveStrides aligns src strides to the out shape, zeroing strides for
// broadcast dimensions so repeated reads hit the same source element.
func effectiveStrides(src, out tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	eff := make([]int, len(out))
	shift := len(out) - len(src)
	for d := range out {
		sd := d - shift
		if sd < 0 || src[sd] == 1 {
			eff[d] = 0
		} else {
			eff[d] = srcStrides[sd]
		}
	}
	return eff
}

func broadcastKernel[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape, kind binKind) {
	outStrides := outShape.ComputeStrides()
	aStrides := effectiveStrides(aShape, outShape)
	bStrides := effectiveStrides(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		switch kind {
		case opAdd:
			dst[i] = a[aIdx] + b[bIdx]
		case opSub:
			dst[i] = a[aIdx] - b[bIdx]
		case opMul:
			dst[i] = a[aIdx] * b[bIdx]
		case opDiv:
			dst[i] = a[aIdx] / b[bIdx]
		}
	}
}
