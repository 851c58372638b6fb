package geoarrow

import (
	"fmt"
)

// PointArray stores one coordinate per slot. Null and empty slots hold a NaN
// coordinate.
type PointArray struct {
	dt       NativeType
	coords   CoordBuffer
	validity *Bitmap
}

// NewPointArray validates and wraps finished buffers.
func NewPointArray(coords CoordBuffer, validity *Bitmap) (*PointArray, error) {
	if err := checkValidity(validity, coords.Len()); err != nil {
		return nil, err
	}
	dt := NativeType{Kind: KindPoint, Layout: coords.Layout(), Dim: coords.Dim(), Width: Narrow}
	return &PointArray{dt: dt, coords: coords, validity: validity}, nil
}

func (a *PointArray) DataType() NativeType     { return a.dt }
func (a *PointArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *PointArray) Len() int                 { return a.coords.Len() }
func (a *PointArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *PointArray) NullCount() int           { return a.validity.NullCount() }
func (a *PointArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *PointArray) Coords() CoordBuffer { return a.coords }

// Value returns slot i as a Point, or nil when the slot is null.
func (a *PointArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	return pointValue{coords: a.coords, i: i}
}

// BufferLengths returns the buffer lengths in PointCapacity form.
func (a *PointArray) BufferLengths() PointCapacity {
	return PointCapacity{Geoms: a.Len()}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *PointArray) Slice(offset, length int) *PointArray {
	mustBounds(a.Len(), offset, length)
	return &PointArray{
		dt:       a.dt,
		coords:   a.coords.Slice(offset, length),
		validity: a.validity.Slice(offset, length),
	}
}

// OwnedSlice returns an independent copy. It panics when the range is out of
// bounds.
func (a *PointArray) OwnedSlice(offset, length int) *PointArray {
	mustBounds(a.Len(), offset, length)
	return &PointArray{
		dt:       a.dt,
		coords:   a.coords.Copy(offset, length),
		validity: a.validity.Copy(offset, length),
	}
}

func (a *PointArray) sliceArray(offset, length int) Array      { return a.Slice(offset, length) }
func (a *PointArray) ownedSliceArray(offset, length int) Array { return a.OwnedSlice(offset, length) }

// PointBuilder appends points.
type PointBuilder struct {
	opts     BuilderOptions
	coords   *CoordBufferBuilder
	validity *BitmapBuilder
}

// NewPointBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewPointBuilder(opts *BuilderOptions) *PointBuilder {
	return NewPointBuilderWithCapacity(PointCapacity{}, opts)
}

// NewPointBuilderWithCapacity creates a builder sized for c.
func NewPointBuilderWithCapacity(c PointCapacity, opts *BuilderOptions) *PointBuilder {
	o := builderOptions(opts)
	return &PointBuilder{
		opts:     o,
		coords:   NewCoordBufferBuilder(o.Layout, o.Dim, c.Geoms),
		validity: NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *PointBuilder) Reserve(c PointCapacity) {
	b.coords.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *PointBuilder) ReserveExact(c PointCapacity) {
	b.coords.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *PointBuilder) Len() int { return b.validity.Len() }

// PushPoint appends a point. A nil point appends a null slot.
func (b *PointBuilder) PushPoint(p Point) error {
	if p == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(p, b.opts.Dim); err != nil {
		return err
	}
	c, ok := p.Coord()
	if !ok {
		b.PushEmpty()
		return nil
	}
	b.coords.PushCoord(c)
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid empty point.
func (b *PointBuilder) PushEmpty() {
	b.coords.PushCoord(NaNCoord())
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *PointBuilder) PushNull() {
	b.coords.PushCoord(NaNCoord())
	b.validity.Append(false)
}

func (b *PointBuilder) truncate(n int) {
	b.coords.truncate(n)
	b.validity.truncate(n)
}

// PushGeometry appends a Point or a single-point MultiPoint.
func (b *PointBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	switch g.Kind() {
	case KindPoint:
		p, err := asPoint(g)
		if err != nil {
			return err
		}
		return b.PushPoint(p)
	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return err
		}
		if mp.NumPoints() == 1 {
			return b.PushPoint(mp.PointAt(0))
		}
	}
	return incorrectType(g, KindPoint)
}

// ExtendPoints pushes every point, stopping at the first failure.
func (b *PointBuilder) ExtendPoints(points []Point) error {
	for i, p := range points {
		if err := b.PushPoint(p); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *PointBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *PointBuilder) Raw() *PointRawBuilder {
	return &PointRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *PointBuilder) Finish() *PointArray {
	return &PointArray{
		dt:       b.opts.nativeType(KindPoint),
		coords:   b.coords.Finish(),
		validity: b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *PointBuilder) NewArray() Array { return b.Finish() }

// PointRawBuilder writes point buffers without validation.
//
// Invariant: every PushCoord must be followed by exactly one PushValidity, and
// coordinates must already match the builder's dimension.
type PointRawBuilder struct {
	b *PointBuilder
}

// PushCoord appends one coordinate.
func (r *PointRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *PointRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }

// extendGeometries pushes geoms into any builder, wrapping the first failure
// with its index.
func extendGeometries(b ArrayBuilder, geoms []Geometry) error {
	for i, g := range geoms {
		if err := b.PushGeometry(g); err != nil {
			return fmt.Errorf("geometry %d: %w", i, err)
		}
	}
	return nil
}
