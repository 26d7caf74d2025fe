package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/trace-ml/trace/internal/tensor"
)

// Load reads a .trace file and materializes its tensors on device.
//
// The whole file is verified against the trailing CRC-32C before any
// header field is trusted.
func Load(path string, device tensor.Device) (map[string]*tensor.RawTensor, *Header, error) {
	//nolint:gosec // G304: checkpoint paths come from the caller by design
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}

	if len(data) < fixedPrefixSize+footerSize {
		return nil, nil, ErrTruncated
	}

	body := data[:len(data)-footerSize]
	stored := binary.LittleEndian.Uint32(data[len(data)-footerSize:])
	if crc32.Checksum(body, crcTable) != stored {
		return nil, nil, ErrChecksumMismatch
	}

	if string(body[:4]) != Magic {
		return nil, nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(body[4:8])
	if version != FormatVersion {
		return nil, nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
	flags := binary.LittleEndian.Uint32(body[8:12])
	headerSize := binary.LittleEndian.Uint64(body[12:20])

	if headerSize > maxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}
	if uint64(len(body)) < fixedPrefixSize+headerSize {
		return nil, nil, ErrTruncated
	}

	var header Header
	headerJSON := body[fixedPrefixSize : fixedPrefixSize+int(headerSize)]
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, errors.Wrap(err, "parse header")
	}

	dataStart := int64(fixedPrefixSize) + int64(headerSize)
	dataStart += padTo(dataStart, DataAlignment)
	if dataStart > int64(len(body)) {
		return nil, nil, ErrTruncated
	}
	section := body[dataStart:]

	if err := validateLayout(header.Tensors, int64(len(section))); err != nil {
		return nil, nil, err
	}

	halved := flags&FlagFloat16 != 0
	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		raw, err := materialize(meta, section, halved, device)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "tensor %q", meta.Name)
		}
		tensors[meta.Name] = raw
	}

	return tensors, &header, nil
}

// validateLayout rejects metadata that would read outside the data
// section or alias another tensor's bytes.
func validateLayout(metas []TensorMeta, sectionSize int64) error {
	sorted := make([]TensorMeta, len(metas))
	copy(sorted, metas)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var prevEnd int64
	var prevName string
	for _, meta := range sorted {
		if meta.Offset < 0 || meta.Size < 0 {
			return errors.Wrapf(ErrBadTensorMeta, "%q: negative offset or size", meta.Name)
		}
		if meta.Offset+meta.Size > sectionSize {
			return errors.Wrapf(ErrOutOfBounds, "%q: [%d, %d) in section of %d bytes",
				meta.Name, meta.Offset, meta.Offset+meta.Size, sectionSize)
		}
		if meta.Offset < prevEnd {
			return errors.Wrapf(ErrOffsetOverlap, "%q overlaps %q", meta.Name, prevName)
		}
		prevEnd = meta.Offset + meta.Size
		prevName = meta.Name
	}
	return nil
}

func materialize(meta TensorMeta, section []byte, halved bool, device tensor.Device) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, errors.Wrapf(ErrBadTensorMeta, "unknown dtype %q", meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}

	src := section[meta.Offset : meta.Offset+meta.Size]

	if halved && dtype == tensor.Float32 {
		if int64(raw.NumElements())*2 != meta.Size {
			return nil, errors.Wrapf(ErrBadTensorMeta,
				"float16 size %d does not match %d elements", meta.Size, raw.NumElements())
		}
		dst := raw.AsFloat32()
		for i := range dst {
			bits := binary.LittleEndian.Uint16(src[i*2:])
			dst[i] = float16.Frombits(bits).Float32()
		}
		return raw, nil
	}

	if int64(raw.ByteSize()) != meta.Size {
		return nil, errors.Wrapf(ErrBadTensorMeta,
			"size %d does not match shape %v of dtype %s", meta.Size, shape, dtype)
	}
	copy(raw.Data(), src)
	return raw, nil
}
