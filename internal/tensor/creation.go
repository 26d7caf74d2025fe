package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	// Buffer memory is already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	var one any
	switch any(dummy).(type) {
	case float32:
		one = float32(1)
	case float64:
		one = float64(1)
	case int32:
		one = int32(1)
	case int64:
		one = int64(1)
	case uint8:
		one = uint8(1)
	case bool:
		one = true
	}
	return Full[T, B](shape, one.(T), b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Scalar creates a 0-D tensor holding value.
func Scalar[T DType, B Backend](value T, b B) *Tensor[T, B] {
	return Full[T, B](Shape{}, value, b)
}

// Arange creates a 1-D tensor with values [start, end) stepping by 1.
// Only float and int element types are supported.
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	if end < start {
		panic("Arange: end must be >= start")
	}
	n := end - start
	if n == 0 {
		n = 1 // Shape{0} is invalid; empty ranges are a caller bug anyway.
	}
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	switch d := any(data).(type) {
	case []float32:
		for i := range d {
			d[i] = float32(start + i)
		}
	case []float64:
		for i := range d {
			d[i] = float64(start + i)
		}
	case []int32:
		for i := range d {
			d[i] = int32(start + i)
		}
	case []int64:
		for i := range d {
			d[i] = int64(start + i)
		}
	default:
		panic("Arange: unsupported element type")
	}
	return t
}

// Rand creates a tensor with uniform random values in [0, 1).
// Uses math/rand: statistical quality is what training needs, not crypto.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = rand.Float32()
		}
	case []float64:
		for i := range data {
			data[i] = rand.Float64()
		}
	default:
		panic("Rand: only float32 and float64 are supported")
	}
	return t
}

// Randn creates a tensor with standard normal random values using the
// Box-Muller transform.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = float32(z0)
			if i+1 < len(data) {
				data[i+1] = float32(z1)
			}
		}
	case []float64:
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = z0
			if i+1 < len(data) {
				data[i+1] = z1
			}
		}
	default:
		panic("Randn: only float32 and float64 are supported")
	}
	return t
}

func boxMuller() (float64, float64) {
	u1 := rand.Float64()
	for u1 == 0 {
		u1 = rand.Float64()
	}
	u2 := rand.Float64()
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2*math.Pi*u2), r * math.Sin(2*math.Pi*u2)
}
