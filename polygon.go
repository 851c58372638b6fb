package geoarrow

import (
	"fmt"
)

// PolygonArray stores, per slot, a range of rings, each a range of
// coordinates.
type PolygonArray struct {
	dt          NativeType
	coords      CoordBuffer
	geomOffsets OffsetBuffer
	ringOffsets OffsetBuffer
	validity    *Bitmap
}

// NewPolygonArray validates and wraps finished buffers.
func NewPolygonArray(coords CoordBuffer, geomOffsets, ringOffsets OffsetBuffer, validity *Bitmap) (*PolygonArray, error) {
	if err := checkWidths(geomOffsets, ringOffsets); err != nil {
		return nil, err
	}
	if err := ringOffsets.check("ring", coords.Len()); err != nil {
		return nil, err
	}
	if err := geomOffsets.check("geometry", ringOffsets.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	return &PolygonArray{
		dt:          NativeType{Kind: KindPolygon, Layout: coords.Layout(), Dim: coords.Dim(), Width: geomOffsets.Width()},
		coords:      coords,
		geomOffsets: geomOffsets,
		ringOffsets: ringOffsets,
		validity:    validity,
	}, nil
}

func (a *PolygonArray) DataType() NativeType     { return a.dt }
func (a *PolygonArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *PolygonArray) Len() int                 { return a.geomOffsets.Len() }
func (a *PolygonArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *PolygonArray) NullCount() int           { return a.validity.NullCount() }
func (a *PolygonArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *PolygonArray) Coords() CoordBuffer { return a.coords }

// GeomOffsets returns the per-slot ring offsets.
func (a *PolygonArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// RingOffsets returns the per-ring coordinate offsets.
func (a *PolygonArray) RingOffsets() OffsetBuffer { return a.ringOffsets }

// Value returns slot i as a Polygon, or nil when the slot is null.
func (a *PolygonArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return polygonValue{coords: a.coords, ringOffsets: a.ringOffsets, start: start, end: end}
}

// BufferLengths returns the buffer lengths covered by the array's slots.
func (a *PolygonArray) BufferLengths() PolygonCapacity {
	r0, r1 := a.geomOffsets.First(), a.geomOffsets.Last()
	return PolygonCapacity{
		Coords: a.ringOffsets.At(r1) - a.ringOffsets.At(r0),
		Rings:  r1 - r0,
		Geoms:  a.Len(),
	}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *PolygonArray) Slice(offset, length int) *PolygonArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.geomOffsets = a.geomOffsets.Slice(offset, length)
	out.validity = a.validity.Slice(offset, length)
	return &out
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *PolygonArray) OwnedSlice(offset, length int) *PolygonArray {
	mustBounds(a.Len(), offset, length)
	r0, r1 := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	c0, c1 := a.ringOffsets.At(r0), a.ringOffsets.At(r1)
	return &PolygonArray{
		dt:          a.dt,
		coords:      a.coords.Copy(c0, c1-c0),
		geomOffsets: a.geomOffsets.Rebased(offset, length),
		ringOffsets: a.ringOffsets.Rebased(r0, r1-r0),
		validity:    a.validity.Copy(offset, length),
	}
}

func (a *PolygonArray) sliceArray(offset, length int) Array      { return a.Slice(offset, length) }
func (a *PolygonArray) ownedSliceArray(offset, length int) Array { return a.OwnedSlice(offset, length) }

// PolygonBuilder appends polygons.
type PolygonBuilder struct {
	opts        BuilderOptions
	coords      *CoordBufferBuilder
	geomOffsets *OffsetsBuilder
	ringOffsets *OffsetsBuilder
	validity    *BitmapBuilder
}

// NewPolygonBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewPolygonBuilder(opts *BuilderOptions) *PolygonBuilder {
	return NewPolygonBuilderWithCapacity(PolygonCapacity{}, opts)
}

// NewPolygonBuilderWithCapacity creates a builder sized for c.
func NewPolygonBuilderWithCapacity(c PolygonCapacity, opts *BuilderOptions) *PolygonBuilder {
	o := builderOptions(opts)
	return &PolygonBuilder{
		opts:        o,
		coords:      NewCoordBufferBuilder(o.Layout, o.Dim, c.Coords),
		geomOffsets: NewOffsetsBuilder(o.Width, c.Geoms),
		ringOffsets: NewOffsetsBuilder(o.Width, c.Rings),
		validity:    NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *PolygonBuilder) Reserve(c PolygonCapacity) {
	b.coords.Reserve(c.Coords)
	b.ringOffsets.Reserve(c.Rings)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *PolygonBuilder) ReserveExact(c PolygonCapacity) {
	b.coords.ReserveExact(c.Coords)
	b.ringOffsets.ReserveExact(c.Rings)
	b.geomOffsets.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *PolygonBuilder) Len() int { return b.geomOffsets.Len() }

// PushPolygon appends a polygon. A nil value appends a null slot and a
// polygon without an exterior ring appends an empty one.
func (b *PolygonBuilder) PushPolygon(p Polygon) error {
	if p == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(p, b.opts.Dim); err != nil {
		return err
	}
	ext, ok := p.Exterior()
	if !ok {
		b.PushEmpty()
		return nil
	}
	n := b.Len()
	if err := b.pushRings(p, ext); err != nil {
		b.truncate(n)
		return err
	}
	b.validity.Append(true)
	return nil
}

func (b *PolygonBuilder) pushRings(p Polygon, ext LineString) error {
	if err := b.geomOffsets.TryPushUsize(p.NumInteriors() + 1); err != nil {
		return err
	}
	if err := pushRing(b.coords, b.ringOffsets, ext); err != nil {
		return err
	}
	for i := 0; i < p.NumInteriors(); i++ {
		if err := pushRing(b.coords, b.ringOffsets, p.Interior(i)); err != nil {
			return err
		}
	}
	return nil
}

// truncate drops every slot after the first n, along with their rings and
// coordinates.
func (b *PolygonBuilder) truncate(n int) {
	b.ringOffsets.truncate(b.geomOffsets.At(n))
	b.coords.truncate(b.ringOffsets.Last())
	b.geomOffsets.truncate(n)
	b.validity.truncate(n)
}

// PushRect appends a rect as a closed five-coordinate polygon.
func (b *PolygonBuilder) PushRect(r Rect) error {
	if r == nil {
		b.PushNull()
		return nil
	}
	return b.PushPolygon(RectAsPolygon(r))
}

// PushEmpty appends a valid polygon with no rings.
func (b *PolygonBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *PolygonBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

// PushGeometry appends a Polygon, a single-part MultiPolygon or a Rect.
func (b *PolygonBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	switch g.Kind() {
	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return err
		}
		return b.PushPolygon(p)
	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return err
		}
		if mp.NumPolygons() == 1 {
			return b.PushPolygon(mp.PolygonAt(0))
		}
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return err
		}
		return b.PushRect(r)
	}
	return incorrectType(g, KindPolygon)
}

// ExtendPolygons pushes every polygon, stopping at the first failure.
func (b *PolygonBuilder) ExtendPolygons(polygons []Polygon) error {
	for i, p := range polygons {
		if err := b.PushPolygon(p); err != nil {
			return fmt.Errorf("polygon %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *PolygonBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *PolygonBuilder) Raw() *PolygonRawBuilder {
	return &PolygonRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *PolygonBuilder) Finish() *PolygonArray {
	return &PolygonArray{
		dt:          b.opts.nativeType(KindPolygon),
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		ringOffsets: b.ringOffsets.Finish(),
		validity:    b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *PolygonBuilder) NewArray() Array { return b.Finish() }

// PolygonRawBuilder writes polygon buffers without validation.
//
// Invariant: for every slot the caller pushes one geometry offset of r rings,
// then for each of the r rings one ring offset of n followed by exactly n
// coordinates, then one validity bit. Null slots push a geometry offset of 0.
type PolygonRawBuilder struct {
	b *PolygonBuilder
}

// TryPushGeomOffset appends the ring count of the next slot.
func (r *PolygonRawBuilder) TryPushGeomOffset(rings int) error {
	return r.b.geomOffsets.TryPushUsize(rings)
}

// TryPushRingOffset appends the coordinate count of the next ring.
func (r *PolygonRawBuilder) TryPushRingOffset(coords int) error {
	return r.b.ringOffsets.TryPushUsize(coords)
}

// PushCoord appends one coordinate.
func (r *PolygonRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *PolygonRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }

// pushRing appends one ring's offset and coordinates.
func pushRing(coords *CoordBufferBuilder, ringOffsets *OffsetsBuilder, ring LineString) error {
	if err := ringOffsets.TryPushUsize(ring.NumCoords()); err != nil {
		return err
	}
	pushLineCoords(coords, ring)
	return nil
}
