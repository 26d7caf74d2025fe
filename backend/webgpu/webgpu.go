// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu is the public API for the WebGPU compute backend.
//
// GPU support requires the wgpu_native shared library; New returns an
// error on platforms where it is unavailable, and callers fall back to
// the CPU backend.
package webgpu

import (
	"github.com/trace-ml/trace/internal/backend/webgpu"
)

// Backend executes element-wise tensor operations as WGSL compute
// shaders, falling back to CPU kernels for everything else.
type Backend = webgpu.Backend

// New creates a WebGPU backend, or returns an error when no GPU adapter
// is available.
func New() (*Backend, error) {
	return webgpu.New()
}
