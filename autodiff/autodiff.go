// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff is the public API for reverse-mode automatic
// differentiation.
//
// Wrap any compute backend, record a forward pass, and run the reverse
// pass from a scalar output:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
//	y := x.AddScalar(2)
//	z := y.Mul(y).MulScalar(3)
//	out := z.Mean()
//
//	grads, err := autodiff.Backward(out, backend)
//	// grads.Get(x.Raw()) holds dOut/dx, uniformly 4.5
package autodiff

import (
	"github.com/trace-ml/trace/internal/autodiff"
	"github.com/trace-ml/trace/internal/tensor"
)

// Backend wraps a compute backend with a gradient tape.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// New creates an autodiff backend wrapping inner.
func New[B tensor.Backend](inner B) *Backend[B] {
	return autodiff.New(inner)
}

// Tape records operations during forward passes.
type Tape = autodiff.Tape

// NewTape creates an empty gradient tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// TapeBackend is a backend carrying a gradient tape.
type TapeBackend = autodiff.TapeBackend

// Grads maps tensors to their accumulated gradients.
type Grads = autodiff.Grads

// Backward runs the reverse pass from a scalar output with the implicit
// seed gradient of 1. Non-scalar outputs need BackwardWithGrad.
func Backward[T tensor.DType, B TapeBackend](output *tensor.Tensor[T, B], backend B) (Grads, error) {
	return autodiff.Backward(output, backend)
}

// BackwardWithGrad runs the reverse pass from output with an explicit
// seed gradient of the same shape.
func BackwardWithGrad[T tensor.DType, B TapeBackend](output, seed *tensor.Tensor[T, B], backend B) (Grads, error) {
	return autodiff.BackwardWithGrad(output, seed, backend)
}

// Accumulate folds computed gradients into the tensors' Grad slots.
func Accumulate[T tensor.DType, B TapeBackend](grads Grads, backend B, tensors ...*tensor.Tensor[T, B]) {
	autodiff.Accumulate(grads, backend, tensors...)
}

// NoGrad runs fn with recording suspended.
func NoGrad[B TapeBackend](backend B, fn func()) {
	autodiff.NoGrad(backend, fn)
}
