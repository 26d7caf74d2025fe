package ops

import (
	"fmt"

	"github.com/trace-ml/trace/internal/tensor"
)

// reduceBroadcast reduces a gradient to match the target (pre-broadcast)
// input shape by summing along the dimensions the forward pass expanded.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		// Clone so shared gradients can't be mutated in place downstream.
		return grad.Clone()
	}

	result := grad
	// Sum away leading dimensions the target never had.
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}
	// Sum dimensions the forward pass expanded from size 1.
	for i, dim := range targetShape {
		if dim == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// broadcastTo expands a tensor to targetShape by adding it to zeros of that
// shape, reusing the backend's broadcast kernels.
func broadcastTo(t *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if t.Shape().Equal(targetShape) {
		return t.Clone()
	}
	zeros, err := tensor.NewRaw(targetShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("broadcastTo: %v", err))
	}
	return backend.Add(zeros, t)
}

// fullLike creates a tensor of shape with every element set to value.
func fullLike(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, value float64) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("fullLike: %v", err))
	}
	switch dtype {
	case tensor.Float32:
		data := raw.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case tensor.Float64:
		data := raw.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic("fullLike: only float32 and float64 are supported")
	}
	return raw
}

// scalarValue reads the single element of a scalar tensor as float64.
func scalarValue(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic("scalarValue: only float32 and float64 are supported")
	}
}
