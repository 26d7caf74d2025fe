package checkpoint

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned by Load and Save. Wrap context is added with
// errors.Wrap, so match with errors.Is.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTruncated          = errors.New("file truncated")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrBadTensorMeta      = errors.New("invalid tensor metadata")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
)

// maxHeaderSize caps the JSON header to keep a corrupted size field from
// driving a huge allocation.
const maxHeaderSize = 64 << 20
