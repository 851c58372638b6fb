package geoarrow

import (
	"fmt"
)

// MultiPolygonArray stores, per slot, a range of polygons, each a range of
// rings, each a range of coordinates.
type MultiPolygonArray struct {
	dt             NativeType
	coords         CoordBuffer
	geomOffsets    OffsetBuffer
	polygonOffsets OffsetBuffer
	ringOffsets    OffsetBuffer
	validity       *Bitmap
}

// NewMultiPolygonArray validates and wraps finished buffers.
func NewMultiPolygonArray(coords CoordBuffer, geomOffsets, polygonOffsets, ringOffsets OffsetBuffer, validity *Bitmap) (*MultiPolygonArray, error) {
	if err := checkWidths(geomOffsets, polygonOffsets, ringOffsets); err != nil {
		return nil, err
	}
	if err := ringOffsets.check("ring", coords.Len()); err != nil {
		return nil, err
	}
	if err := polygonOffsets.check("polygon", ringOffsets.Len()); err != nil {
		return nil, err
	}
	if err := geomOffsets.check("geometry", polygonOffsets.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	return &MultiPolygonArray{
		dt:             NativeType{Kind: KindMultiPolygon, Layout: coords.Layout(), Dim: coords.Dim(), Width: geomOffsets.Width()},
		coords:         coords,
		geomOffsets:    geomOffsets,
		polygonOffsets: polygonOffsets,
		ringOffsets:    ringOffsets,
		validity:       validity,
	}, nil
}

func (a *MultiPolygonArray) DataType() NativeType     { return a.dt }
func (a *MultiPolygonArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *MultiPolygonArray) Len() int                 { return a.geomOffsets.Len() }
func (a *MultiPolygonArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *MultiPolygonArray) NullCount() int           { return a.validity.NullCount() }
func (a *MultiPolygonArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *MultiPolygonArray) Coords() CoordBuffer { return a.coords }

// GeomOffsets returns the per-slot polygon offsets.
func (a *MultiPolygonArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// PolygonOffsets returns the per-polygon ring offsets.
func (a *MultiPolygonArray) PolygonOffsets() OffsetBuffer { return a.polygonOffsets }

// RingOffsets returns the per-ring coordinate offsets.
func (a *MultiPolygonArray) RingOffsets() OffsetBuffer { return a.ringOffsets }

// Value returns slot i as a MultiPolygon, or nil when the slot is null.
func (a *MultiPolygonArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return multiPolygonValue{
		coords:         a.coords,
		polygonOffsets: a.polygonOffsets,
		ringOffsets:    a.ringOffsets,
		start:          start,
		end:            end,
	}
}

// BufferLengths returns the buffer lengths covered by the array's slots.
func (a *MultiPolygonArray) BufferLengths() MultiPolygonCapacity {
	p0, p1 := a.geomOffsets.First(), a.geomOffsets.Last()
	r0, r1 := a.polygonOffsets.At(p0), a.polygonOffsets.At(p1)
	return MultiPolygonCapacity{
		Coords:   a.ringOffsets.At(r1) - a.ringOffsets.At(r0),
		Rings:    r1 - r0,
		Polygons: p1 - p0,
		Geoms:    a.Len(),
	}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *MultiPolygonArray) Slice(offset, length int) *MultiPolygonArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.geomOffsets = a.geomOffsets.Slice(offset, length)
	out.validity = a.validity.Slice(offset, length)
	return &out
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *MultiPolygonArray) OwnedSlice(offset, length int) *MultiPolygonArray {
	mustBounds(a.Len(), offset, length)
	p0, p1 := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	r0, r1 := a.polygonOffsets.At(p0), a.polygonOffsets.At(p1)
	c0, c1 := a.ringOffsets.At(r0), a.ringOffsets.At(r1)
	return &MultiPolygonArray{
		dt:             a.dt,
		coords:         a.coords.Copy(c0, c1-c0),
		geomOffsets:    a.geomOffsets.Rebased(offset, length),
		polygonOffsets: a.polygonOffsets.Rebased(p0, p1-p0),
		ringOffsets:    a.ringOffsets.Rebased(r0, r1-r0),
		validity:       a.validity.Copy(offset, length),
	}
}

func (a *MultiPolygonArray) sliceArray(offset, length int) Array {
	return a.Slice(offset, length)
}

func (a *MultiPolygonArray) ownedSliceArray(offset, length int) Array {
	return a.OwnedSlice(offset, length)
}

// MultiPolygonBuilder appends multipolygons.
type MultiPolygonBuilder struct {
	opts           BuilderOptions
	coords         *CoordBufferBuilder
	geomOffsets    *OffsetsBuilder
	polygonOffsets *OffsetsBuilder
	ringOffsets    *OffsetsBuilder
	validity       *BitmapBuilder
}

// NewMultiPolygonBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewMultiPolygonBuilder(opts *BuilderOptions) *MultiPolygonBuilder {
	return NewMultiPolygonBuilderWithCapacity(MultiPolygonCapacity{}, opts)
}

// NewMultiPolygonBuilderWithCapacity creates a builder sized for c.
func NewMultiPolygonBuilderWithCapacity(c MultiPolygonCapacity, opts *BuilderOptions) *MultiPolygonBuilder {
	o := builderOptions(opts)
	return &MultiPolygonBuilder{
		opts:           o,
		coords:         NewCoordBufferBuilder(o.Layout, o.Dim, c.Coords),
		geomOffsets:    NewOffsetsBuilder(o.Width, c.Geoms),
		polygonOffsets: NewOffsetsBuilder(o.Width, c.Polygons),
		ringOffsets:    NewOffsetsBuilder(o.Width, c.Rings),
		validity:       NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *MultiPolygonBuilder) Reserve(c MultiPolygonCapacity) {
	b.coords.Reserve(c.Coords)
	b.ringOffsets.Reserve(c.Rings)
	b.polygonOffsets.Reserve(c.Polygons)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *MultiPolygonBuilder) ReserveExact(c MultiPolygonCapacity) {
	b.coords.ReserveExact(c.Coords)
	b.ringOffsets.ReserveExact(c.Rings)
	b.polygonOffsets.ReserveExact(c.Polygons)
	b.geomOffsets.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *MultiPolygonBuilder) Len() int { return b.geomOffsets.Len() }

// PushMultiPolygon appends a multipolygon. A nil value appends a null slot.
// A member polygon without an exterior ring is rejected with
// ErrUnsupportedShape.
func (b *MultiPolygonBuilder) PushMultiPolygon(mp MultiPolygon) error {
	if mp == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(mp, b.opts.Dim); err != nil {
		return err
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		if _, ok := mp.PolygonAt(i).Exterior(); !ok {
			return fmt.Errorf("%w: empty polygon %d inside multipolygon", ErrUnsupportedShape, i)
		}
	}
	n := b.Len()
	if err := b.geomOffsets.TryPushUsize(mp.NumPolygons()); err != nil {
		return err
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		if err := b.pushPolygonParts(mp.PolygonAt(i)); err != nil {
			b.truncate(n)
			return err
		}
	}
	b.validity.Append(true)
	return nil
}

// PushPolygon appends a polygon as a single-part multipolygon. An empty
// polygon appends an empty multipolygon.
func (b *MultiPolygonBuilder) PushPolygon(p Polygon) error {
	if p == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(p, b.opts.Dim); err != nil {
		return err
	}
	if _, ok := p.Exterior(); !ok {
		b.PushEmpty()
		return nil
	}
	n := b.Len()
	if err := b.geomOffsets.TryPushUsize(1); err != nil {
		return err
	}
	if err := b.pushPolygonParts(p); err != nil {
		b.truncate(n)
		return err
	}
	b.validity.Append(true)
	return nil
}

// pushPolygonParts writes one non-empty polygon's polygon, ring and
// coordinate entries.
func (b *MultiPolygonBuilder) pushPolygonParts(p Polygon) error {
	ext, _ := p.Exterior()
	if err := b.polygonOffsets.TryPushUsize(p.NumInteriors() + 1); err != nil {
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

// truncate drops every slot after the first n, along with their polygons,
// rings and coordinates.
func (b *MultiPolygonBuilder) truncate(n int) {
	b.polygonOffsets.truncate(b.geomOffsets.At(n))
	b.ringOffsets.truncate(b.polygonOffsets.Last())
	b.coords.truncate(b.ringOffsets.Last())
	b.geomOffsets.truncate(n)
	b.validity.truncate(n)
}

// PushEmpty appends a valid multipolygon with no parts.
func (b *MultiPolygonBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *MultiPolygonBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

// PushGeometry appends a Polygon, a MultiPolygon or a Rect.
func (b *MultiPolygonBuilder) PushGeometry(g Geometry) error {
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
		return b.PushMultiPolygon(mp)
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return err
		}
		return b.PushPolygon(RectAsPolygon(r))
	}
	return incorrectType(g, KindMultiPolygon)
}

// ExtendMultiPolygons pushes every value, stopping at the first failure.
func (b *MultiPolygonBuilder) ExtendMultiPolygons(values []MultiPolygon) error {
	for i, mp := range values {
		if err := b.PushMultiPolygon(mp); err != nil {
			return fmt.Errorf("multipolygon %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *MultiPolygonBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *MultiPolygonBuilder) Raw() *MultiPolygonRawBuilder {
	return &MultiPolygonRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *MultiPolygonBuilder) Finish() *MultiPolygonArray {
	return &MultiPolygonArray{
		dt:             b.opts.nativeType(KindMultiPolygon),
		coords:         b.coords.Finish(),
		geomOffsets:    b.geomOffsets.Finish(),
		polygonOffsets: b.polygonOffsets.Finish(),
		ringOffsets:    b.ringOffsets.Finish(),
		validity:       b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *MultiPolygonBuilder) NewArray() Array { return b.Finish() }

// MultiPolygonRawBuilder writes multipolygon buffers without validation.
//
// Invariant: for every slot the caller pushes one geometry offset of p
// polygons; for each polygon one polygon offset of r rings; for each ring one
// ring offset of n followed by exactly n coordinates; then one validity bit.
// Every polygon must have at least one ring.
type MultiPolygonRawBuilder struct {
	b *MultiPolygonBuilder
}

// TryPushGeomOffset appends the polygon count of the next slot.
func (r *MultiPolygonRawBuilder) TryPushGeomOffset(polygons int) error {
	return r.b.geomOffsets.TryPushUsize(polygons)
}

// TryPushPolygonOffset appends the ring count of the next polygon.
func (r *MultiPolygonRawBuilder) TryPushPolygonOffset(rings int) error {
	return r.b.polygonOffsets.TryPushUsize(rings)
}

// TryPushRingOffset appends the coordinate count of the next ring.
func (r *MultiPolygonRawBuilder) TryPushRingOffset(coords int) error {
	return r.b.ringOffsets.TryPushUsize(coords)
}

// PushCoord appends one coordinate.
func (r *MultiPolygonRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *MultiPolygonRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }
