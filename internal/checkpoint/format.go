// Package checkpoint reads and writes model state in the .trace format.
//
// Layout of a .trace file:
//
//	magic "TRCE" (4 bytes)
//	format version (uint32, little-endian)
//	flags (uint32, little-endian)
//	header size (uint64, little-endian)
//	header JSON
//	padding to 64-byte alignment
//	tensor data, little-endian, at the offsets the header records
//	CRC-32C of everything above (uint32, little-endian)
//
// Float32 tensors can optionally be narrowed to IEEE 754 half precision
// on disk (FlagFloat16), halving checkpoint size at the cost of ~3
// decimal digits of mantissa. They are widened back on load.
package checkpoint

import (
	"time"

	"github.com/trace-ml/trace/internal/tensor"
)

// Format constants.
const (
	Magic         = "TRCE"
	FormatVersion = 1
	DataAlignment = 64 // tensor data starts on a 64-byte boundary

	fixedPrefixSize = 4 + 4 + 4 + 8 // magic + version + flags + header size
	footerSize      = 4             // CRC-32C
)

// Flags stored in the fixed prefix.
const (
	// FlagFloat16 marks float32 tensor data stored as float16 on disk.
	FlagFloat16 uint32 = 1 << 0
	// FlagHasTraining marks a file carrying training state metadata.
	FlagHasTraining uint32 = 1 << 1
)

// Header is the JSON header of a .trace file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	ModelType     string            `json:"model_type"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Training      *TrainingMeta     `json:"training,omitempty"`
}

// TensorMeta locates one tensor inside the data section.
//
// Offset and Size describe the bytes on disk: for float16-narrowed
// tensors Size is half the in-memory byte size.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// TrainingMeta carries optimizer and progress state for resumable
// training checkpoints.
type TrainingMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
	LR        float64 `json:"lr,omitempty"`
}

// Data type names used in headers.
const (
	dtypeFloat32 = "float32"
	dtypeFloat64 = "float64"
	dtypeInt32   = "int32"
	dtypeInt64   = "int64"
	dtypeUint8   = "uint8"
	dtypeBool    = "bool"
)

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return dtypeFloat32
	case tensor.Float64:
		return dtypeFloat64
	case tensor.Int32:
		return dtypeInt32
	case tensor.Int64:
		return dtypeInt64
	case tensor.Uint8:
		return dtypeUint8
	case tensor.Bool:
		return dtypeBool
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case dtypeFloat32:
		return tensor.Float32, true
	case dtypeFloat64:
		return tensor.Float64, true
	case dtypeInt32:
		return tensor.Int32, true
	case dtypeInt64:
		return tensor.Int64, true
	case dtypeUint8:
		return tensor.Uint8, true
	case dtypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
