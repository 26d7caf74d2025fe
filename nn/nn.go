// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public API for neural network modules.
package nn

import (
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// Module is the interface every network component implements.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named, trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter wraps t as a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer computing y = x @ W.T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a Linear layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies the logistic function element-wise.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Sequential chains modules into a pipeline.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// MSELoss computes mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// CrossEntropyLoss computes softmax cross-entropy over class logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// Xavier initializes a weight tensor with the Glorot uniform distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}
