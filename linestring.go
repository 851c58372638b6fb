package geoarrow

import (
	"fmt"
)

// LineStringArray stores one coordinate range per slot.
type LineStringArray struct {
	dt          NativeType
	coords      CoordBuffer
	geomOffsets OffsetBuffer
	validity    *Bitmap
}

// NewLineStringArray validates and wraps finished buffers.
func NewLineStringArray(coords CoordBuffer, geomOffsets OffsetBuffer, validity *Bitmap) (*LineStringArray, error) {
	if err := geomOffsets.check("geometry", coords.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	return &LineStringArray{
		dt:          NativeType{Kind: KindLineString, Layout: coords.Layout(), Dim: coords.Dim(), Width: geomOffsets.Width()},
		coords:      coords,
		geomOffsets: geomOffsets,
		validity:    validity,
	}, nil
}

func (a *LineStringArray) DataType() NativeType     { return a.dt }
func (a *LineStringArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *LineStringArray) Len() int                 { return a.geomOffsets.Len() }
func (a *LineStringArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *LineStringArray) NullCount() int           { return a.validity.NullCount() }
func (a *LineStringArray) Validity() *Bitmap        { return a.validity }

// Coords returns the coordinate buffer.
func (a *LineStringArray) Coords() CoordBuffer { return a.coords }

// GeomOffsets returns the per-slot coordinate offsets.
func (a *LineStringArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// Value returns slot i as a LineString, or nil when the slot is null.
func (a *LineStringArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return lineStringValue{coords: a.coords, start: start, end: end}
}

// BufferLengths returns the buffer lengths covered by the array's slots.
func (a *LineStringArray) BufferLengths() LineStringCapacity {
	return LineStringCapacity{
		Coords: a.geomOffsets.Last() - a.geomOffsets.First(),
		Geoms:  a.Len(),
	}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *LineStringArray) Slice(offset, length int) *LineStringArray {
	mustBounds(a.Len(), offset, length)
	return &LineStringArray{
		dt:          a.dt,
		coords:      a.coords,
		geomOffsets: a.geomOffsets.Slice(offset, length),
		validity:    a.validity.Slice(offset, length),
	}
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *LineStringArray) OwnedSlice(offset, length int) *LineStringArray {
	mustBounds(a.Len(), offset, length)
	start, end := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	return &LineStringArray{
		dt:          a.dt,
		coords:      a.coords.Copy(start, end-start),
		geomOffsets: a.geomOffsets.Rebased(offset, length),
		validity:    a.validity.Copy(offset, length),
	}
}

func (a *LineStringArray) sliceArray(offset, length int) Array { return a.Slice(offset, length) }
func (a *LineStringArray) ownedSliceArray(offset, length int) Array {
	return a.OwnedSlice(offset, length)
}

// LineStringBuilder appends line strings.
type LineStringBuilder struct {
	opts        BuilderOptions
	coords      *CoordBufferBuilder
	geomOffsets *OffsetsBuilder
	validity    *BitmapBuilder
}

// NewLineStringBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewLineStringBuilder(opts *BuilderOptions) *LineStringBuilder {
	return NewLineStringBuilderWithCapacity(LineStringCapacity{}, opts)
}

// NewLineStringBuilderWithCapacity creates a builder sized for c.
func NewLineStringBuilderWithCapacity(c LineStringCapacity, opts *BuilderOptions) *LineStringBuilder {
	o := builderOptions(opts)
	return &LineStringBuilder{
		opts:        o,
		coords:      NewCoordBufferBuilder(o.Layout, o.Dim, c.Coords),
		geomOffsets: NewOffsetsBuilder(o.Width, c.Geoms),
		validity:    NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *LineStringBuilder) Reserve(c LineStringCapacity) {
	b.coords.Reserve(c.Coords)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// ReserveExact grows the buffers for exactly c more.
func (b *LineStringBuilder) ReserveExact(c LineStringCapacity) {
	b.coords.ReserveExact(c.Coords)
	b.geomOffsets.ReserveExact(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *LineStringBuilder) Len() int { return b.geomOffsets.Len() }

// PushLineString appends a line string. A nil value appends a null slot.
func (b *LineStringBuilder) PushLineString(ls LineString) error {
	if ls == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(ls, b.opts.Dim); err != nil {
		return err
	}
	if err := b.geomOffsets.TryPushUsize(ls.NumCoords()); err != nil {
		return err
	}
	pushLineCoords(b.coords, ls)
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid line string with no coordinates.
func (b *LineStringBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *LineStringBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

func (b *LineStringBuilder) truncate(n int) {
	b.coords.truncate(b.geomOffsets.At(n))
	b.geomOffsets.truncate(n)
	b.validity.truncate(n)
}

// PushGeometry appends a LineString or a single-part MultiLineString.
func (b *LineStringBuilder) PushGeometry(g Geometry) error {
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
		if mls.NumLineStrings() == 1 {
			return b.PushLineString(mls.LineStringAt(0))
		}
	}
	return incorrectType(g, KindLineString)
}

// ExtendLineStrings pushes every line string, stopping at the first failure.
func (b *LineStringBuilder) ExtendLineStrings(lines []LineString) error {
	for i, ls := range lines {
		if err := b.PushLineString(ls); err != nil {
			return fmt.Errorf("linestring %d: %w", i, err)
		}
	}
	return nil
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *LineStringBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Raw returns the unchecked push API.
func (b *LineStringBuilder) Raw() *LineStringRawBuilder {
	return &LineStringRawBuilder{b: b}
}

// Finish moves the buffers into an immutable array.
func (b *LineStringBuilder) Finish() *LineStringArray {
	return &LineStringArray{
		dt:          b.opts.nativeType(KindLineString),
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		validity:    b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *LineStringBuilder) NewArray() Array { return b.Finish() }

// LineStringRawBuilder writes line string buffers without validation.
//
// Invariant: for every slot the caller pushes one geometry offset of n, then
// exactly n coordinates, then one validity bit. Null slots push an offset of 0
// and no coordinates.
type LineStringRawBuilder struct {
	b *LineStringBuilder
}

// TryPushGeomOffset appends the coordinate count of the next slot.
func (r *LineStringRawBuilder) TryPushGeomOffset(n int) error {
	return r.b.geomOffsets.TryPushUsize(n)
}

// PushCoord appends one coordinate.
func (r *LineStringRawBuilder) PushCoord(c Coord) { r.b.coords.PushCoord(c) }

// PushValidity appends one validity bit.
func (r *LineStringRawBuilder) PushValidity(valid bool) { r.b.validity.Append(valid) }

// pushLineCoords appends every coordinate of ls.
func pushLineCoords(coords *CoordBufferBuilder, ls LineString) {
	for i := 0; i < ls.NumCoords(); i++ {
		coords.PushCoord(ls.CoordAt(i))
	}
}
