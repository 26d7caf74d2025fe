package tensor

import (
	"testing"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShape_IsScalar(t *testing.T) {
	if !(Shape{}).IsScalar() {
		t.Error("empty shape should be scalar")
	}
	if !(Shape{1}).IsScalar() {
		t.Error("single-element shapes count as scalar")
	}
	if (Shape{2}).IsScalar() {
		t.Error("Shape{2} should not be scalar")
	}
}

func TestShape_Equal(t *testing.T) {
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("equal shapes reported unequal")
	}
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("different shapes reported equal")
	}
	if (Shape{2}).Equal(Shape{2, 1}) {
		t.Error("different ranks reported equal")
	}
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides() = %v, want %v", strides, want)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b   Shape
		want   Shape
		needed bool
	}{
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false},
		{Shape{2, 3}, Shape{3}, Shape{2, 3}, true},
		{Shape{3, 1}, Shape{3, 4}, Shape{3, 4}, true},
		{Shape{1}, Shape{5, 2}, Shape{5, 2}, true},
		{Shape{}, Shape{2, 2}, Shape{2, 2}, true},
	}
	for _, tt := range tests {
		got, needed, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Fatalf("BroadcastShapes(%v, %v): %v", tt.a, tt.b, err)
		}
		if !got.Equal(tt.want) || needed != tt.needed {
			t.Errorf("BroadcastShapes(%v, %v) = %v, %v; want %v, %v",
				tt.a, tt.b, got, needed, tt.want, tt.needed)
		}
	}
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	if _, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4}); err == nil {
		t.Error("expected error for incompatible shapes")
	}
}
