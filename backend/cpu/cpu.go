// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu is the public API for the CPU compute backend.
package cpu

import (
	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/parallel"
)

// Backend executes tensor operations on the CPU, parallelized across
// cores for large tensors and BLAS-backed for matrix multiplication.
type Backend = cpu.CPUBackend

// New creates a CPU backend with default parallelism.
func New() *Backend {
	return cpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg Config) *Backend {
	return cpu.NewWithConfig(cfg)
}

// Config controls worker parallelism for CPU kernels.
type Config = parallel.Config
