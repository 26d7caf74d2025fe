// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API for tensor construction and arithmetic.
//
// Core types:
//   - Tensor[T, B]: typed generic tensor bound to a compute backend
//   - RawTensor: untyped storage the backends operate on
//   - Shape, DataType, Device: structural definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend)
//	y := x.AddScalar(2)
package tensor

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// DType is the constraint for tensor element types:
// float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType identifies a tensor's element type at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device identifies where tensor data lives.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape holds tensor dimensions: Shape{2, 3} is a 2×3 matrix, Shape{} a
// scalar.
type Shape = tensor.Shape

// Tensor is a typed tensor bound to a compute backend. Operations are
// methods delegating to the backend, so the same code runs on CPU, GPU,
// or an autodiff wrapper.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// RawTensor is the untyped storage backends operate on.
type RawTensor = tensor.RawTensor

// New wraps a RawTensor in a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, backend B) *Tensor[T, B] {
	return tensor.New[T, B](raw, backend)
}

// NewRaw allocates untyped zeroed storage.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a tensor by copying data from a Go slice. Returns an
// error when the slice length does not match the shape's element count.
func FromSlice[T DType, B Backend](data []T, shape Shape, backend B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, backend)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, backend)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, backend B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, backend)
}

// Scalar creates a zero-dimensional tensor holding value.
func Scalar[T DType, B Backend](value T, backend B) *Tensor[T, B] {
	return tensor.Scalar[T, B](value, backend)
}

// Arange creates a 1-D tensor of consecutive values in [start, end).
func Arange[T DType, B Backend](start, end int, backend B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, backend)
}

// Rand creates a tensor of uniform random values in [0, 1).
func Rand[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, backend)
}

// Randn creates a tensor of standard normal random values.
func Randn[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, backend)
}

// BroadcastShapes computes the NumPy-style broadcast result of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
