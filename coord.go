package geoarrow

import (
	"fmt"
	"math"
	"slices"
)

// Coord is one coordinate tuple. Ordinates the dimension does not carry are
// ignored on write and read back as NaN.
type Coord struct {
	X, Y, Z, M float64
}

// NaNCoord returns a coordinate with every ordinate set to NaN. Empty points
// are stored this way.
func NaNCoord() Coord {
	nan := math.NaN()
	return Coord{X: nan, Y: nan, Z: nan, M: nan}
}

// IsEmpty reports whether the coordinate marks an empty point.
func (c Coord) IsEmpty() bool {
	return math.IsNaN(c.X) && math.IsNaN(c.Y)
}

// ordinate returns the k-th stored ordinate under dim.
func (c Coord) ordinate(dim Dimension, k int) float64 {
	switch k {
	case 0:
		return c.X
	case 1:
		return c.Y
	case 2:
		if dim == XYM {
			return c.M
		}
		return c.Z
	default:
		return c.M
	}
}

func (c *Coord) setOrdinate(dim Dimension, k int, v float64) {
	switch k {
	case 0:
		c.X = v
	case 1:
		c.Y = v
	case 2:
		if dim == XYM {
			c.M = v
		} else {
			c.Z = v
		}
	default:
		c.M = v
	}
}

// normalize clears the ordinates dim does not store.
func (c Coord) normalize(dim Dimension) Coord {
	if !dim.HasZ() {
		c.Z = math.NaN()
	}
	if !dim.HasM() {
		c.M = math.NaN()
	}
	return c
}

// CoordBuffer is an immutable buffer of coordinate tuples. Slicing shares the
// backing storage.
type CoordBuffer struct {
	layout CoordLayout
	dim    Dimension
	values []float64   // interleaved
	axes   [][]float64 // separated, one per ordinate
}

// NewInterleavedCoordBuffer wraps xyxy... storage.
func NewInterleavedCoordBuffer(values []float64, dim Dimension) (CoordBuffer, error) {
	if len(values)%dim.Size() != 0 {
		return CoordBuffer{}, fmt.Errorf("%w: %d values is not a multiple of %d", ErrInvalidData, len(values), dim.Size())
	}
	return CoordBuffer{layout: Interleaved, dim: dim, values: values}, nil
}

// NewSeparatedCoordBuffer wraps one buffer per ordinate.
func NewSeparatedCoordBuffer(axes [][]float64, dim Dimension) (CoordBuffer, error) {
	if len(axes) != dim.Size() {
		return CoordBuffer{}, fmt.Errorf("%w: %d axes for dimension %s", ErrInvalidData, len(axes), dim)
	}
	for _, axis := range axes[1:] {
		if len(axis) != len(axes[0]) {
			return CoordBuffer{}, fmt.Errorf("%w: axis lengths differ", ErrInvalidData)
		}
	}
	return CoordBuffer{layout: Separated, dim: dim, axes: axes}, nil
}

// Len returns the number of coordinate tuples.
func (b CoordBuffer) Len() int {
	if b.layout == Separated {
		if len(b.axes) == 0 {
			return 0
		}
		return len(b.axes[0])
	}
	return len(b.values) / b.dim.Size()
}

// Layout returns the physical layout.
func (b CoordBuffer) Layout() CoordLayout { return b.layout }

// Dim returns the coordinate dimension.
func (b CoordBuffer) Dim() Dimension { return b.dim }

// At returns the i-th coordinate.
func (b CoordBuffer) At(i int) Coord {
	c := Coord{Z: math.NaN(), M: math.NaN()}
	size := b.dim.Size()
	if b.layout == Separated {
		for k := 0; k < size; k++ {
			c.setOrdinate(b.dim, k, b.axes[k][i])
		}
		return c
	}
	base := i * size
	for k := 0; k < size; k++ {
		c.setOrdinate(b.dim, k, b.values[base+k])
	}
	return c
}

// Values returns the interleaved storage, or nil for a separated buffer.
func (b CoordBuffer) Values() []float64 { return b.values }

// Axis returns the k-th ordinate buffer of a separated buffer.
func (b CoordBuffer) Axis(k int) []float64 {
	if b.layout != Separated {
		return nil
	}
	return b.axes[k]
}

// Slice returns a window of n coordinates starting at start, sharing storage.
func (b CoordBuffer) Slice(start, n int) CoordBuffer {
	out := CoordBuffer{layout: b.layout, dim: b.dim}
	if b.layout == Separated {
		out.axes = make([][]float64, len(b.axes))
		for k, axis := range b.axes {
			out.axes[k] = axis[start : start+n : start+n]
		}
		return out
	}
	size := b.dim.Size()
	out.values = b.values[start*size : (start+n)*size : (start+n)*size]
	return out
}

// Copy returns an independent copy of n coordinates starting at start.
func (b CoordBuffer) Copy(start, n int) CoordBuffer {
	s := b.Slice(start, n)
	if s.layout == Separated {
		for k, axis := range s.axes {
			s.axes[k] = slices.Clone(axis)
		}
		return s
	}
	s.values = slices.Clone(s.values)
	return s
}

// ToLayout returns the buffer in the requested layout, copying only when the
// layout changes.
func (b CoordBuffer) ToLayout(layout CoordLayout) CoordBuffer {
	if b.layout == layout {
		return b
	}
	builder := NewCoordBufferBuilder(layout, b.dim, b.Len())
	for i := 0; i < b.Len(); i++ {
		builder.PushCoord(b.At(i))
	}
	return builder.Finish()
}

// CoordBufferBuilder appends coordinate tuples.
type CoordBufferBuilder struct {
	layout CoordLayout
	dim    Dimension
	values []float64
	axes   [][]float64
}

// NewCoordBufferBuilder creates a builder with room for capacity coordinates.
func NewCoordBufferBuilder(layout CoordLayout, dim Dimension, capacity int) *CoordBufferBuilder {
	b := &CoordBufferBuilder{layout: layout, dim: dim}
	if layout == Separated {
		b.axes = make([][]float64, dim.Size())
		for k := range b.axes {
			b.axes[k] = make([]float64, 0, capacity)
		}
	} else {
		b.values = make([]float64, 0, capacity*dim.Size())
	}
	return b
}

// PushCoord appends one coordinate.
func (b *CoordBufferBuilder) PushCoord(c Coord) {
	size := b.dim.Size()
	if b.layout == Separated {
		for k := 0; k < size; k++ {
			b.axes[k] = append(b.axes[k], c.ordinate(b.dim, k))
		}
		return
	}
	for k := 0; k < size; k++ {
		b.values = append(b.values, c.ordinate(b.dim, k))
	}
}

// Reserve grows capacity for at least additional coordinates.
func (b *CoordBufferBuilder) Reserve(additional int) {
	if b.layout == Separated {
		for k := range b.axes {
			b.axes[k] = slices.Grow(b.axes[k], additional)
		}
		return
	}
	b.values = slices.Grow(b.values, additional*b.dim.Size())
}

// ReserveExact grows capacity to exactly Len()+additional coordinates.
func (b *CoordBufferBuilder) ReserveExact(additional int) {
	if b.layout == Separated {
		for k, axis := range b.axes {
			if cap(axis)-len(axis) >= additional {
				continue
			}
			grown := make([]float64, len(axis), len(axis)+additional)
			copy(grown, axis)
			b.axes[k] = grown
		}
		return
	}
	need := additional * b.dim.Size()
	if cap(b.values)-len(b.values) >= need {
		return
	}
	grown := make([]float64, len(b.values), len(b.values)+need)
	copy(grown, b.values)
	b.values = grown
}

// Len returns the number of coordinates pushed so far.
func (b *CoordBufferBuilder) Len() int {
	if b.layout == Separated {
		return len(b.axes[0])
	}
	return len(b.values) / b.dim.Size()
}

// truncate drops every coordinate after the first n.
func (b *CoordBufferBuilder) truncate(n int) {
	if n >= b.Len() {
		return
	}
	if b.layout == Separated {
		for k := range b.axes {
			b.axes[k] = b.axes[k][:n]
		}
		return
	}
	b.values = b.values[:n*b.dim.Size()]
}

// Capacity returns the number of coordinates that fit without reallocating.
func (b *CoordBufferBuilder) Capacity() int {
	if b.layout == Separated {
		return cap(b.axes[0])
	}
	return cap(b.values) / b.dim.Size()
}

// Dim returns the builder's dimension.
func (b *CoordBufferBuilder) Dim() Dimension { return b.dim }

// Finish moves the pushed coordinates into an immutable buffer.
func (b *CoordBufferBuilder) Finish() CoordBuffer {
	out := CoordBuffer{layout: b.layout, dim: b.dim, values: b.values, axes: b.axes}
	b.values, b.axes = nil, nil
	return out
}
