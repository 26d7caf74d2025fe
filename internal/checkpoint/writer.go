package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/trace-ml/trace/internal/tensor"
)

// crcTable is the Castagnoli polynomial, hardware-accelerated on amd64
// and arm64.
var crcTable = crc32.MakeTable(crc32.Castagnoli)

// SaveOptions control how a state dictionary is written.
type SaveOptions struct {
	// ModelType names the architecture ("Sequential", "Linear", ...).
	ModelType string
	// Metadata is arbitrary key/value context stored in the header.
	Metadata map[string]string
	// Training, when set, marks the file as a resumable checkpoint.
	Training *TrainingMeta
	// Float16 narrows float32 tensors to half precision on disk.
	Float16 bool
}

// Save writes a state dictionary to path in the .trace format.
//
// The file is assembled in memory and written in one WriteFile call: a
// partially written checkpoint after a crash would fail its checksum, and
// buffering keeps the CRC computation a single pass.
func Save(path string, stateDict map[string]*tensor.RawTensor, opts SaveOptions) error {
	// Deterministic tensor order: map iteration would move offsets
	// around between saves of identical state.
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		ModelType:     opts.ModelType,
		Metadata:      opts.Metadata,
		Training:      opts.Training,
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
	}

	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())
		if opts.Float16 && raw.DType() == tensor.Float32 {
			size /= 2
		}
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}
	if len(headerJSON) > maxHeaderSize {
		return ErrHeaderTooLarge
	}

	var flags uint32
	if opts.Float16 {
		flags |= FlagFloat16
	}
	if opts.Training != nil {
		flags |= FlagHasTraining
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeUint32(&buf, FormatVersion)
	writeUint32(&buf, flags)
	writeUint64(&buf, uint64(len(headerJSON)))
	buf.Write(headerJSON)

	if pad := padTo(int64(buf.Len()), DataAlignment); pad > 0 {
		buf.Write(make([]byte, pad))
	}

	for _, name := range names {
		raw := stateDict[name]
		if opts.Float16 && raw.DType() == tensor.Float32 {
			writeFloat16(&buf, raw.AsFloat32())
			continue
		}
		buf.Write(raw.Data())
	}

	writeUint32(&buf, crc32.Checksum(buf.Bytes(), crcTable))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeFloat16(buf *bytes.Buffer, data []float32) {
	var scratch [2]byte
	for _, v := range data {
		binary.LittleEndian.PutUint16(scratch[:], float16.Fromfloat32(v).Bits())
		buf.Write(scratch[:])
	}
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	buf.Write(scratch[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	buf.Write(scratch[:])
}

// padTo returns the byte count needed to advance pos to the next multiple
// of align.
func padTo(pos, align int64) int64 {
	return (align - pos%align) % align
}
