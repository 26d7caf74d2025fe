package nn

import (
	"math"
	"math/rand"

	"github.com/trace-ml/trace/internal/tensor"
)

// Xavier initializes a weight tensor with the Glorot uniform distribution:
// U(-b, b) with b = sqrt(6 / (fanIn + fanOut)). Keeps activation variance
// roughly constant across layers.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	data := raw.AsFloat32()
	for i := range data {
		//nolint:gosec // weight initialization, not security-sensitive
		data[i] = float32((rand.Float64()*2 - 1) * bound)
	}

	return tensor.New[float32, B](raw, backend)
}

// Zeros creates a zero-filled float32 tensor. Common for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Randn creates a float32 tensor drawn from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, backend)
}
