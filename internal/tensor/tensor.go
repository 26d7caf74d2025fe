package tensor

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Tensor is a typed view over a RawTensor bound to a compute backend.
//
// Type parameters:
//   - T: element type (DType constraint)
//   - B: compute backend
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
//	y := x.AddScalar(2)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
	grad    *Tensor[T, B] // accumulated gradient, populated by reverse passes
}

// New wraps a RawTensor in a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor by copying data from a Go slice.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the compute backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Grad returns the accumulated gradient, or nil before any reverse pass.
func (t *Tensor[T, B]) Grad() *Tensor[T, B] {
	return t.grad
}

// SetGrad sets the accumulated gradient.
func (t *Tensor[T, B]) SetGrad(grad *Tensor[T, B]) {
	t.grad = grad
}

// ZeroGrad clears the accumulated gradient.
func (t *Tensor[T, B]) ZeroGrad() {
	t.grad = nil
}

// RequireGrad marks the tensor for gradient tracking: subsequent operations
// involving it are recorded on the tape of an autodiff backend. Returns the
// tensor for chaining.
func (t *Tensor[T, B]) RequireGrad() *Tensor[T, B] {
	t.raw.SetRequiresGrad(true)
	return t
}

// RequiresGrad reports whether the tensor is tracked for differentiation.
func (t *Tensor[T, B]) RequiresGrad() bool {
	return t.raw.RequiresGrad()
}

// Detach returns a tensor sharing the same data with gradient tracking
// severed: operations on it are not recorded and no gradient flows through
// it back to the original.
func (t *Tensor[T, B]) Detach() *Tensor[T, B] {
	raw := t.raw.Clone()
	raw.SetRequiresGrad(false)
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}

// Clone creates a deep copy. Gradient state is not cloned.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.DeepClone(), backend: t.backend}
}

// Data returns a typed slice view of the tensor's memory (zero-copy).
// Writes through the slice modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	case int32:
		return any(t.raw.AsInt32()).([]T)
	case int64:
		return any(t.raw.AsInt64()).([]T)
	case uint8:
		return any(t.raw.AsUint8()).([]T)
	case bool:
		return any(t.raw.AsBool()).([]T)
	default:
		panic("tensor: unsupported element type")
	}
}

// Item returns the value of a single-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() requires a scalar tensor, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// String returns a short human-readable description.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.DType(), t.Shape(), t.Device())
}

// MemSize returns the tensor's memory footprint as a human-readable string.
func (t *Tensor[T, B]) MemSize() string {
	return humanize.IBytes(uint64(t.raw.ByteSize()))
}
