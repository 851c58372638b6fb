package geoarrow

import (
	"fmt"
)

// Array is the read contract shared by every finished geometry array. Arrays
// are immutable and safe for concurrent reads.
type Array interface {
	// DataType returns the array's native type.
	DataType() NativeType
	// CoordLayout returns the coordinate layout.
	CoordLayout() CoordLayout
	// Len returns the number of slots.
	Len() int
	// IsNull reports whether slot i is null.
	IsNull(i int) bool
	// NullCount returns the number of null slots.
	NullCount() int
	// Validity returns the validity bitmap, or nil when no slot is null.
	Validity() *Bitmap
	// Value returns the geometry in slot i, or nil when the slot is null.
	Value(i int) Geometry

	sliceArray(offset, length int) Array
	ownedSliceArray(offset, length int) Array
}

// Slice returns a zero-copy view of length slots starting at offset.
func Slice(arr Array, offset, length int) (Array, error) {
	if err := checkBounds(arr.Len(), offset, length); err != nil {
		return nil, err
	}
	return arr.sliceArray(offset, length), nil
}

// OwnedSlice returns an independent copy of length slots starting at offset,
// with every offset level rebased to zero.
func OwnedSlice(arr Array, offset, length int) (Array, error) {
	if err := checkBounds(arr.Len(), offset, length); err != nil {
		return nil, err
	}
	return arr.ownedSliceArray(offset, length), nil
}

// Values returns every slot of arr in order, with nil for nulls.
func Values(arr Array) []Geometry {
	out := make([]Geometry, arr.Len())
	for i := range out {
		out[i] = arr.Value(i)
	}
	return out
}

func checkBounds(n, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > n {
		return fmt.Errorf("%w: slice [%d:%d] of array with length %d", ErrOutOfRange, offset, offset+length, n)
	}
	return nil
}

func mustBounds(n, offset, length int) {
	if err := checkBounds(n, offset, length); err != nil {
		panic(err)
	}
}

func checkValidity(validity *Bitmap, n int) error {
	if validity != nil && validity.Len() != n {
		return fmt.Errorf("%w: validity length %d does not match %d slots", ErrInvalidData, validity.Len(), n)
	}
	return nil
}

func checkWidths(levels ...OffsetBuffer) error {
	for _, level := range levels[1:] {
		if level.Width() != levels[0].Width() {
			return fmt.Errorf("%w: offset levels mix %s and %s", ErrInvalidData, levels[0].Width(), level.Width())
		}
	}
	return nil
}
