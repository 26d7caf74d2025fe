// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim is the public API for optimization algorithms.
package optim

import (
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/optim"
	"github.com/trace-ml/trace/internal/tensor"
)

// Optimizer is the interface all optimization algorithms implement.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures an SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer for the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(params, config)
}

// Adam is the adaptive moment estimation optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures an Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer for the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(params, config)
}
