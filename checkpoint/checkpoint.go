// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint is the public API for saving and loading model
// state in the .trace format.
package checkpoint

import (
	"github.com/trace-ml/trace/internal/checkpoint"
	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// Header is the metadata block of a .trace file.
type Header = checkpoint.Header

// TensorMeta locates one tensor inside a .trace file.
type TensorMeta = checkpoint.TensorMeta

// TrainingMeta carries optimizer and progress state for resumable
// checkpoints.
type TrainingMeta = checkpoint.TrainingMeta

// SaveOptions control how a state dictionary is written.
type SaveOptions = checkpoint.SaveOptions

// Sentinel errors, matched with errors.Is.
var (
	ErrInvalidMagic       = checkpoint.ErrInvalidMagic
	ErrUnsupportedVersion = checkpoint.ErrUnsupportedVersion
	ErrChecksumMismatch   = checkpoint.ErrChecksumMismatch
	ErrTruncated          = checkpoint.ErrTruncated
	ErrHeaderTooLarge     = checkpoint.ErrHeaderTooLarge
	ErrBadTensorMeta      = checkpoint.ErrBadTensorMeta
	ErrOffsetOverlap      = checkpoint.ErrOffsetOverlap
	ErrOutOfBounds        = checkpoint.ErrOutOfBounds
)

// Save writes a state dictionary to path.
func Save(path string, stateDict map[string]*tensor.RawTensor, opts SaveOptions) error {
	return checkpoint.Save(path, stateDict, opts)
}

// Load reads a .trace file and materializes its tensors on device.
func Load(path string, device tensor.Device) (map[string]*tensor.RawTensor, *Header, error) {
	return checkpoint.Load(path, device)
}

// SaveModule writes a module's parameters to path.
func SaveModule[B tensor.Backend](path string, module nn.Module[B], opts SaveOptions) error {
	return checkpoint.SaveModule(path, module, opts)
}

// LoadModule restores a module's parameters from path.
func LoadModule[B tensor.Backend](path string, module nn.Module[B], backend B) (*Header, error) {
	return checkpoint.LoadModule(path, module, backend)
}
