// Package tensor provides a dense, row-major N-dimensional array of binary
// samples. Rank-3 tensors hold one member's (instance × label × iteration)
// trajectory; rank-4 tensors hold the stacked ensemble samples
// (instance × label × iteration × member).
package tensor

import (
	"fmt"

	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// Binary is a dense N-dimensional array of 0/1 values.
type Binary struct {
	shape   []int
	strides []int
	data    []uint8
}

// NewBinary allocates a zero-filled tensor with the given shape.
// Every dimension must be positive.
func NewBinary(shape ...int) (*Binary, error) {
	if len(shape) == 0 {
		return nil, errors.NewValueError("tensor.NewBinary", "shape must have at least one dimension")
	}
	size := 1
	for axis, d := range shape {
		if d <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("shape[%d]", axis), "dimension must be positive", d)
		}
		size *= d
	}
	t := &Binary{
		shape:   append([]int(nil), shape...),
		strides: make([]int, len(shape)),
		data:    make([]uint8, size),
	}
	stride := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		t.strides[axis] = stride
		stride *= shape[axis]
	}
	return t, nil
}

// Rank returns the number of dimensions.
func (t *Binary) Rank() int { return len(t.shape) }

// Shape returns a copy of the dimensions.
func (t *Binary) Shape() []int { return append([]int(nil), t.shape...) }

// Dim returns the size of one axis.
func (t *Binary) Dim(axis int) int { return t.shape[axis] }

// Len returns the total number of cells.
func (t *Binary) Len() int { return len(t.data) }

// At returns the value at idx. It panics on a wrong index count or an
// out-of-range index, like gonum's mat accessors.
func (t *Binary) At(idx ...int) uint8 {
	return t.data[t.offset(idx)]
}

// Set stores v at idx. v must be 0 or 1.
func (t *Binary) Set(v uint8, idx ...int) {
	if v > 1 {
		panic(fmt.Sprintf("tensor: non-binary value %d", v))
	}
	t.data[t.offset(idx)] = v
}

// CountOnes returns the number of ones along axis, holding every other
// coordinate of idx fixed. idx[axis] is ignored.
func (t *Binary) CountOnes(axis int, idx ...int) int {
	if axis < 0 || axis >= len(t.shape) {
		panic(fmt.Sprintf("tensor: axis %d out of range for rank %d", axis, len(t.shape)))
	}
	start := append([]int(nil), idx...)
	if len(start) == len(t.shape) {
		start[axis] = 0
	}
	base := t.offset(start)
	n := 0
	for k := 0; k < t.shape[axis]; k++ {
		n += int(t.data[base+k*t.strides[axis]])
	}
	return n
}

// Clone returns a deep copy.
func (t *Binary) Clone() *Binary {
	return &Binary{
		shape:   append([]int(nil), t.shape...),
		strides: append([]int(nil), t.strides...),
		data:    append([]uint8(nil), t.data...),
	}
}

// Equal reports whether u has the same shape and contents.
func (t *Binary) Equal(u *Binary) bool {
	if t == nil || u == nil {
		return t == u
	}
	if len(t.shape) != len(u.shape) {
		return false
	}
	for i := range t.shape {
		if t.shape[i] != u.shape[i] {
			return false
		}
	}
	for i := range t.data {
		if t.data[i] != u.data[i] {
			return false
		}
	}
	return true
}

func (t *Binary) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index has %d components, tensor rank is %d", len(idx), len(t.shape)))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= t.shape[axis] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) on axis %d", i, t.shape[axis], axis))
		}
		off += i * t.strides[axis]
	}
	return off
}
