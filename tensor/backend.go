// Copyright 2025 The Trace Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// Backend is the compute interface device implementations satisfy. The
// autodiff decorator wraps any Backend and records differentiable
// operations before delegating to it.
type Backend = tensor.Backend
