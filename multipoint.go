package geoarrow

import (
	"fmt"
)

// MultiPointArray stores one coordinate range per slot.
type MultiPointArray struct {
	dt          NativeType
	coords      CoordBuffer
	geomOffsets OffsetBuffer
	validity    *Bitmap
}

// NewMultiPointArray validates and wraps finished buffers.
func NewMultiPointArray(coords CoordBuffer, geomOffsets OffsetBuffer, validity *Bitmap) (*MultiPointArray, error) {
	if err := geomOffsets.check("geometry", coords.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	return &MultiPointArray{
		dt:          NativeType{Kind: KindMultiPoint, Layout: coords.Layout(), Dim: coords.Dim(), Width: geomOffsets.Width()},
		coords:      coords,
		geomOffsets: geomOffsets,
		validity:    validity,
	}, nil
}

func (a *MultiPointArray) DataType() NativeType     { return a.dt }
func (a *MultiPointArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *MultiPointArray) Len() int                 { return a.geomOffsets.Len() }
func (a *MultiPointArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *MultiPointArray) NullCount() int           { return a.validity.NullCount() }
func (a *MultiPointArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *MultiPointArray) Coords() CoordBuffer { return a.coords }

// GeomOffsets returns the per-slot coordinate offsets.
func (a *MultiPointArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// Value returns slot i as a MultiPoint, or nil when the slot is null.
func (a *MultiPointArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return multiPointValue{coords: a.coords, start: start, end: end}
}

// BufferLengths returns the buffer lengths covered by the array's slots.
func (a *MultiPointArray) BufferLengths() MultiPointCapacity {
	return MultiPointCapacity{
		Coords: a.geomOffsets.Last() - a.geomOffsets.First(),
		Geoms:  a.Len(),
	}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *MultiPointArray) Slice(offset, length int) *MultiPointArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.geomOffsets = a.geomOffsets.Slice(offset, length)
	out.validity = a.validity.Slice(offset, length)
	return &out
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *MultiPointArray) OwnedSlice(offset, length int) *MultiPointArray {
	mustBounds(a.Len(), offset, length)
	start, end := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	return &MultiPointArray{
		dt:          a.dt,
		coords:      a.coords.Copy(start, end-start),
		geomOffsets: a.geomOffsets.Rebased(offset, length),
		validity:    a.validity.Copy(offset, length),
	}
}

func (a *MultiPointArray) sliceArray(offset, length int) Array { return a.Slice(offset, length) }
func (a *MultiPointArray) ownedSliceArray(offset, length int) Array {
	return a.OwnedSlice(offset, length)
}

// MultiPointBuilder appends multipoints.
type MultiPointBuilder struct {
	opts        BuilderOptions
	coords      *CoordBufferBuilder
	geomOffsets *OffsetsBuilder
	validity    *BitmapBuilder
}

// NewMultiPointBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewMultiPointBuilder(opts *BuilderOptions) *MultiPointBuilder {
	return NewMultiPointBuilderWithCapacity(MultiPointCapacity{}, opts)
}

// NewMultiPointBuilderWithCapacity creates a builder sized for c.
func NewMultiPointBuilderWithCapacity(c MultiPointCapacity, opts *BuilderOptions) *MultiPointBuilder {
	o := builderOptions(opts)
	return &MultiPointBuilder{
		opts:        o,
		coords:      NewCoordBufferBuilder(o.Layout, o.Dim, c.Coords),
		geomOffsets: NewOffsetsBuilder(o.Width, c.Geoms),
		validity:    NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *MultiPointBuilder) Reserve(c MultiPointCapacity) {
	b.coords.Reserve(c.Coords)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *MultiPointBuilder) ReserveExact(c MultiPointCapacity) {
	b.coords.ReserveExact(c.Coords)
	b.geomOffsets.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *MultiPointBuilder) Len() int { return b.geomOffsets.Len() }

// PushMultiPoint appends a multipoint. A nil value appends a null slot.
// Empty member points are stored as NaN coordinates.
func (b *MultiPointBuilder) PushMultiPoint(mp MultiPoint) error {
	if mp == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(mp, b.opts.Dim); err != nil {
		return err
	}
	if err := b.geomOffsets.TryPushUsize(mp.NumPoints()); err != nil {
		return err
	}
	for i := 0; i < mp.NumPoints(); i++ {
		c, ok := mp.PointAt(i).Coord()
		if !ok {
			c = NaNCoord()
		}
		b.coords.PushCoord(c)
	}
	b.validity.Append(true)
	return nil
}

// PushPoint appends a point as a single-point multipoint. An empty point
// appends an empty multipoint.
func (b *MultiPointBuilder) PushPoint(p Point) error {
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
	if err := b.geomOffsets.TryPushUsize(1); err != nil {
		return err
	}
	b.coords.PushCoord(c)
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid multipoint with no points.
func (b *MultiPointBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *MultiPointBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

func (b *MultiPointBuilder) truncate(n int) {
	b.coords.truncate(b.geomOffsets.At(n))
	b.geomOffsets.truncate(n)
	b.validity.truncate(n)
}

// PushGeometry appends a Point or a MultiPoint.
func (b *MultiPointBuilder) PushGeometry(g Geometry) error {
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
		return b.PushMultiPoint(mp)
	}
	return incorrectType(g, KindMultiPoint)
}

// ExtendMultiPoints pushes every multipoint, stopping at the first failure.
func (b *MultiPointBuilder) ExtendMultiPoints(mps []MultiPoint) error {
	for i, mp := range mps {
		if err := b.PushMultiPoint(mp); err != nil {
			return fmt.Errorf("multipoint %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *MultiPointBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *MultiPointBuilder) Raw() *MultiPointRawBuilder {
	return &MultiPointRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *MultiPointBuilder) Finish() *MultiPointArray {
	return &MultiPointArray{
		dt:          b.opts.nativeType(KindMultiPoint),
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		validity:    b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *MultiPointBuilder) NewArray() Array { return b.Finish() }

// MultiPointRawBuilder writes multipoint buffers without validation.
//
// Invariant: for every slot the caller pushes one geometry offset of n, then
// exactly n coordinates, then one validity bit.
type MultiPointRawBuilder struct {
	b *MultiPointBuilder
}

// TryPushGeomOffset appends the point count of the next slot.
func (r *MultiPointRawBuilder) TryPushGeomOffset(n int) error {
	return r.b.geomOffsets.TryPushUsize(n)
}

// PushCoord appends one coordinate.
func (r *MultiPointRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *MultiPointRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }
