package geoarrow

import (
	"fmt"
)

// MultiLineStringArray stores, per slot, a range of line strings, each a range
// of coordinates.
type MultiLineStringArray struct {
	dt          NativeType
	coords      CoordBuffer
	geomOffsets OffsetBuffer
	lineOffsets OffsetBuffer
	validity    *Bitmap
}

// NewMultiLineStringArray validates and wraps finished buffers.
func NewMultiLineStringArray(coords CoordBuffer, geomOffsets, lineOffsets OffsetBuffer, validity *Bitmap) (*MultiLineStringArray, error) {
	if err := checkWidths(geomOffsets, lineOffsets); err != nil {
		return nil, err
	}
	if err := lineOffsets.check("line", coords.Len()); err != nil {
		return nil, err
	}
	if err := geomOffsets.check("geometry", lineOffsets.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	return &MultiLineStringArray{
		dt:          NativeType{Kind: KindMultiLineString, Layout: coords.Layout(), Dim: coords.Dim(), Width: geomOffsets.Width()},
		coords:      coords,
		geomOffsets: geomOffsets,
		lineOffsets: lineOffsets,
		validity:    validity,
	}, nil
}

func (a *MultiLineStringArray) DataType() NativeType     { return a.dt }
func (a *MultiLineStringArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *MultiLineStringArray) Len() int                 { return a.geomOffsets.Len() }
func (a *MultiLineStringArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *MultiLineStringArray) NullCount() int           { return a.validity.NullCount() }
func (a *MultiLineStringArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *MultiLineStringArray) Coords() CoordBuffer { return a.coords }

// GeomOffsets returns the per-slot line offsets.
func (a *MultiLineStringArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// LineOffsets returns the per-line coordinate offsets.
func (a *MultiLineStringArray) LineOffsets() OffsetBuffer { return a.lineOffsets }

// Value returns slot i as a MultiLineString, or nil when the slot is null.
func (a *MultiLineStringArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return multiLineStringValue{coords: a.coords, lineOffsets: a.lineOffsets, start: start, end: end}
}

// BufferLengths returns the buffer lengths covered by the array's slots.
func (a *MultiLineStringArray) BufferLengths() MultiLineStringCapacity {
	l0, l1 := a.geomOffsets.First(), a.geomOffsets.Last()
	return MultiLineStringCapacity{
		Coords: a.lineOffsets.At(l1) - a.lineOffsets.At(l0),
		Lines:  l1 - l0,
		Geoms:  a.Len(),
	}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *MultiLineStringArray) Slice(offset, length int) *MultiLineStringArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.geomOffsets = a.geomOffsets.Slice(offset, length)
	out.validity = a.validity.Slice(offset, length)
	return &out
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *MultiLineStringArray) OwnedSlice(offset, length int) *MultiLineStringArray {
	mustBounds(a.Len(), offset, length)
	l0, l1 := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	c0, c1 := a.lineOffsets.At(l0), a.lineOffsets.At(l1)
	return &MultiLineStringArray{
		dt:          a.dt,
		coords:      a.coords.Copy(c0, c1-c0),
		geomOffsets: a.geomOffsets.Rebased(offset, length),
		lineOffsets: a.lineOffsets.Rebased(l0, l1-l0),
		validity:    a.validity.Copy(offset, length),
	}
}

func (a *MultiLineStringArray) sliceArray(offset, length int) Array {
	return a.Slice(offset, length)
}

func (a *MultiLineStringArray) ownedSliceArray(offset, length int) Array {
	return a.OwnedSlice(offset, length)
}

// MultiLineStringBuilder appends multilinestrings.
type MultiLineStringBuilder struct {
	opts        BuilderOptions
	coords      *CoordBufferBuilder
	geomOffsets *OffsetsBuilder
	lineOffsets *OffsetsBuilder
	validity    *BitmapBuilder
}

// NewMultiLineStringBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewMultiLineStringBuilder(opts *BuilderOptions) *MultiLineStringBuilder {
	return NewMultiLineStringBuilderWithCapacity(MultiLineStringCapacity{}, opts)
}

// NewMultiLineStringBuilderWithCapacity creates a builder sized for c.
func NewMultiLineStringBuilderWithCapacity(c MultiLineStringCapacity, opts *BuilderOptions) *MultiLineStringBuilder {
	o := builderOptions(opts)
	return &MultiLineStringBuilder{
		opts:        o,
		coords:      NewCoordBufferBuilder(o.Layout, o.Dim, c.Coords),
		geomOffsets: NewOffsetsBuilder(o.Width, c.Geoms),
		lineOffsets: NewOffsetsBuilder(o.Width, c.Lines),
		validity:    NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *MultiLineStringBuilder) Reserve(c MultiLineStringCapacity) {
	b.coords.Reserve(c.Coords)
	b.lineOffsets.Reserve(c.Lines)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *MultiLineStringBuilder) ReserveExact(c MultiLineStringCapacity) {
	b.coords.ReserveExact(c.Coords)
	b.lineOffsets.ReserveExact(c.Lines)
	b.geomOffsets.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *MultiLineStringBuilder) Len() int { return b.geomOffsets.Len() }

// PushMultiLineString appends a multilinestring. A nil value appends a null
// slot.
func (b *MultiLineStringBuilder) PushMultiLineString(mls MultiLineString) error {
	if mls == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(mls, b.opts.Dim); err != nil {
		return err
	}
	n := b.Len()
	if err := b.geomOffsets.TryPushUsize(mls.NumLineStrings()); err != nil {
		return err
	}
	for i := 0; i < mls.NumLineStrings(); i++ {
		if err := pushRing(b.coords, b.lineOffsets, mls.LineStringAt(i)); err != nil {
			b.truncate(n)
			return err
		}
	}
	b.validity.Append(true)
	return nil
}

// PushLineString appends a line string as a single-part multilinestring. An
// empty line string appends an empty multilinestring.
func (b *MultiLineStringBuilder) PushLineString(ls LineString) error {
	if ls == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(ls, b.opts.Dim); err != nil {
		return err
	}
	if ls.NumCoords() == 0 {
		b.PushEmpty()
		return nil
	}
	n := b.Len()
	if err := b.geomOffsets.TryPushUsize(1); err != nil {
		return err
	}
	if err := pushRing(b.coords, b.lineOffsets, ls); err != nil {
		b.truncate(n)
		return err
	}
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid multilinestring with no parts.
func (b *MultiLineStringBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *MultiLineStringBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

// truncate drops every slot after the first n, along with their lines and
// coordinates.
func (b *MultiLineStringBuilder) truncate(n int) {
	b.lineOffsets.truncate(b.geomOffsets.At(n))
	b.coords.truncate(b.lineOffsets.Last())
	b.geomOffsets.truncate(n)
	b.validity.truncate(n)
}

// PushGeometry appends a LineString or a MultiLineString.
func (b *MultiLineStringBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	switch g.Kind() {
	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return err
		}
		return b.PushLineString(ls)
	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return err
		}
		return b.PushMultiLineString(mls)
	}
	return incorrectType(g, KindMultiLineString)
}

// ExtendMultiLineStrings pushes every value, stopping at the first failure.
func (b *MultiLineStringBuilder) ExtendMultiLineStrings(values []MultiLineString) error {
	for i, mls := range values {
		if err := b.PushMultiLineString(mls); err != nil {
			return fmt.Errorf("multilinestring %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *MultiLineStringBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *MultiLineStringBuilder) Raw() *MultiLineStringRawBuilder {
	return &MultiLineStringRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *MultiLineStringBuilder) Finish() *MultiLineStringArray {
	return &MultiLineStringArray{
		dt:          b.opts.nativeType(KindMultiLineString),
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		lineOffsets: b.lineOffsets.Finish(),
		validity:    b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *MultiLineStringBuilder) NewArray() Array { return b.Finish() }

// MultiLineStringRawBuilder writes multilinestring buffers without
// validation.
//
// Invariant: for every slot the caller pushes one geometry offset of k lines,
// then for each line one line offset of n followed by exactly n coordinates,
// then one validity bit.
type MultiLineStringRawBuilder struct {
	b *MultiLineStringBuilder
}

// TryPushGeomOffset appends the line count of the next slot.
func (r *MultiLineStringRawBuilder) TryPushGeomOffset(lines int) error {
	return r.b.geomOffsets.TryPushUsize(lines)
}

// TryPushRingOffset appends the coordinate count of the next line.
func (r *MultiLineStringRawBuilder) TryPushRingOffset(coords int) error {
	return r.b.lineOffsets.TryPushUsize(coords)
}

// PushCoord appends one coordinate.
func (r *MultiLineStringRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *MultiLineStringRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }
