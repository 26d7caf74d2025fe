package cpu

import (
	"fmt"

	"github.com/trace-ml/trace/internal/parallel"
	"github.com/trace-ml/trace/internal/tensor"
)

// scalarToFloat64 widens any supported scalar to float64 for dispatch.
func scalarToFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint8:
		return float64(v)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(x, scalarToFloat64(scalar), opAdd, "addscalar")
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(x, scalarToFloat64(scalar), opSub, "subscalar")
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(x, scalarToFloat64(scalar), opMul, "mulscalar")
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(x, scalarToFloat64(scalar), opDiv, "divscalar")
}

// Neg negates every element.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	result := newRaw(x.Shape(), x.DType(), cpu.device, "neg")
	switch x.DType() {
	case tensor.Float32:
		negKernel(result.AsFloat32(), x.AsFloat32(), cpu.par)
	case tensor.Float64:
		negKernel(result.AsFloat64(), x.AsFloat64(), cpu.par)
	case tensor.Int32:
		negKernel(result.AsInt32(), x.AsInt32(), cpu.par)
	case tensor.Int64:
		negKernel(result.AsInt64(), x.AsInt64(), cpu.par)
	default:
		panic("neg: unsupported dtype " + x.DType().String())
	}
	return result
}

func (cpu *CPUBackend) scalarOp(x *tensor.RawTensor, scalar float64, kind binKind, name string) *tensor.RawTensor {
	result := newRaw(x.Shape(), x.DType(), cpu.device, name)
	switch x.DType() {
	case tensor.Float32:
		scalarKernel(result.AsFloat32(), x.AsFloat32(), float32(scalar), kind, cpu.par)
	case tensor.Float64:
		scalarKernel(result.AsFloat64(), x.AsFloat64(), scalar, kind, cpu.par)
	case tensor.Int32:
		scalarKernel(result.AsInt32(), x.AsInt32(), int32(scalar), kind, cpu.par)
	case tensor.Int64:
		scalarKernel(result.AsInt64(), x.AsInt64(), int64(scalar), kind, cpu.par)
	default:
		panic(name + ": unsupported dtype " + x.DType().String())
	}
	return result
}

func scalarKernel[T number](dst, src []T, scalar T, kind binKind, cfg parallel.Config) {
	switch kind {
	case opAdd:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = src[i] + scalar
			}
		}, cfg)
	case opSub:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = src[i] - scalar
			}
		}, cfg)
	case opMul:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = src[i] * scalar
			}
		}, cfg)
	case opDiv:
		parallel.Ranges(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = src[i] / scalar
			}
		}, cfg)
	}
}

func negKernel[T number](dst, src []T, cfg parallel.Config) {
	parallel.Ranges(len(dst), func(s, e int) {
		for i := s; i < e; i++ {
			dst[i] = -src[i]
		}
	}, cfg)
}
