package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/trace-ml/trace/internal/tensor"
)

// MatMul performs 2-D matrix multiplication (M, K) @ (K, N) -> (M, N)
// using gonum's BLAS GEMM.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := newRaw(tensor.Shape{m, n}, a.DType(), cpu.device, "matmul")

	switch a.DType() {
	case tensor.Float32:
		blas32.Implementation().Sgemm(blas.NoTrans, blas.NoTrans,
			m, n, k,
			1, a.AsFloat32(), k,
			b.AsFloat32(), n,
			0, result.AsFloat32(), n)
	case tensor.Float64:
		blas64.Implementation().Dgemm(blas.NoTrans, blas.NoTrans,
			m, n, k,
			1, a.AsFloat64(), k,
			b.AsFloat64(), n,
			0, result.AsFloat64(), n)
	default:
		panic("matmul: only float32 and float64 are supported")
	}

	return result
}
