//go:build !windows

// Package webgpu implements a GPU compute backend on WebGPU. Prebuilt
// wgpu_native binaries ship for windows only, so on other platforms New
// always returns an error and the type exists only to keep callers
// compiling.
package webgpu

import (
	"errors"

	"github.com/trace-ml/trace/internal/backend/cpu"
	"github.com/trace-ml/trace/internal/tensor"
)

// Backend is unavailable on this platform.
type Backend struct {
	*cpu.CPUBackend
}

// New always fails on non-windows platforms.
func New() (*Backend, error) {
	return nil, errors.New("webgpu: not supported on this platform")
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name identifies the unavailable backend.
func (b *Backend) Name() string {
	return "WebGPU (unavailable)"
}

// Device returns tensor.WebGPU.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}
