package geoarrow

import (
	"fmt"
)

// RectArray stores one lower and one upper corner per slot.
type RectArray struct {
	dt       NativeType
	lower    CoordBuffer
	upper    CoordBuffer
	validity *Bitmap
}

// NewRectArray validates and wraps finished corner buffers.
func NewRectArray(lower, upper CoordBuffer, validity *Bitmap) (*RectArray, error) {
	if lower.Len() != upper.Len() {
		return nil, fmt.Errorf("%w: rect corners have %d and %d coordinates", ErrInvalidData, lower.Len(), upper.Len())
	}
	if lower.Dim() != upper.Dim() || lower.Layout() != upper.Layout() {
		return nil, fmt.Errorf("%w: rect corner buffers disagree on shape", ErrInvalidData)
	}
	if err := checkValidity(validity, lower.Len()); err != nil {
		return nil, err
	}
	return &RectArray{
		dt:       NativeType{Kind: KindRect, Layout: lower.Layout(), Dim: lower.Dim(), Width: Narrow},
		lower:    lower,
		upper:    upper,
		validity: validity,
	}, nil
}

func (a *RectArray) DataType() NativeType     { return a.dt }
func (a *RectArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *RectArray) Len() int                 { return a.lower.Len() }
func (a *RectArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *RectArray) NullCount() int           { return a.validity.NullCount() }
func (a *RectArray) Validity() *Bitmap        { return a.validity }

// Lower returns the buffer of lower corners.
func (a *RectArray) Lower() CoordBuffer { return a.lower }

// Upper returns the buffer of upper corners.
func (a *RectArray) Upper() CoordBuffer { return a.upper }

// Value returns slot i as a Rect, or nil when the slot is null.
func (a *RectArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	return rectValue{lower: a.lower, upper: a.upper, i: i}
}

// BufferLengths returns the buffer lengths in RectCapacity form.
func (a *RectArray) BufferLengths() RectCapacity {
	return RectCapacity{Geoms: a.Len()}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *RectArray) Slice(offset, length int) *RectArray {
	mustBounds(a.Len(), offset, length)
	return &RectArray{
		dt:       a.dt,
		lower:    a.lower.Slice(offset, length),
		upper:    a.upper.Slice(offset, length),
		validity: a.validity.Slice(offset, length),
	}
}

// OwnedSlice returns an independent copy. It panics when the range is out of
// bounds.
func (a *RectArray) OwnedSlice(offset, length int) *RectArray {
	mustBounds(a.Len(), offset, length)
	return &RectArray{
		dt:       a.dt,
		lower:    a.lower.Copy(offset, length),
		upper:    a.upper.Copy(offset, length),
		validity: a.validity.Copy(offset, length),
	}
}

func (a *RectArray) sliceArray(offset, length int) Array      { return a.Slice(offset, length) }
func (a *RectArray) ownedSliceArray(offset, length int) Array { return a.OwnedSlice(offset, length) }

// RectBuilder appends rects.
type RectBuilder struct {
	opts     BuilderOptions
	lower    *CoordBufferBuilder
	upper    *CoordBufferBuilder
	validity *BitmapBuilder
}

// NewRectBuilder creates an empty builder. A nil opts uses
// DefaultBuilderOptions.
func NewRectBuilder(opts *BuilderOptions) *RectBuilder {
	return NewRectBuilderWithCapacity(RectCapacity{}, opts)
}

// NewRectBuilderWithCapacity creates a builder sized for c.
func NewRectBuilderWithCapacity(c RectCapacity, opts *BuilderOptions) *RectBuilder {
	o := builderOptions(opts)
	return &RectBuilder{
		opts:     o,
		lower:    NewCoordBufferBuilder(o.Layout, o.Dim, c.Geoms),
		upper:    NewCoordBufferBuilder(o.Layout, o.Dim, c.Geoms),
		validity: NewBitmapBuilder(c.Geoms),
	}
}

// Reserve grows the buffers for at least c more.
func (b *RectBuilder) Reserve(c RectCapacity) {
	b.lower.Reserve(c.Geoms)
	b.upper.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

// Len returns the number of slots pushed.
func (b *RectBuilder) Len() int { return b.validity.Len() }

// PushRect appends a rect. A nil value appends a null slot.
func (b *RectBuilder) PushRect(r Rect) error {
	if r == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(r, b.opts.Dim); err != nil {
		return err
	}
	b.lower.PushCoord(r.Min())
	b.upper.PushCoord(r.Max())
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid rect with NaN corners.
func (b *RectBuilder) PushEmpty() {
	b.lower.PushCoord(NaNCoord())
	b.upper.PushCoord(NaNCoord())
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *RectBuilder) PushNull() {
	b.lower.PushCoord(NaNCoord())
	b.upper.PushCoord(NaNCoord())
	b.validity.Append(false)
}

func (b *RectBuilder) truncate(n int) {
	b.lower.truncate(n)
	b.upper.truncate(n)
	b.validity.truncate(n)
}

// PushGeometry appends a Rect.
func (b *RectBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	if g.Kind() != KindRect {
		return incorrectType(g, KindRect)
	}
	r, err := asRect(g)
	if err != nil {
		return err
	}
	return b.PushRect(r)
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *RectBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Finish moves the buffers into an immutable array.
func (b *RectBuilder) Finish() *RectArray {
	return &RectArray{
		dt:       b.opts.nativeType(KindRect),
		lower:    b.lower.Finish(),
		upper:    b.upper.Finish(),
		validity: b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *RectBuilder) NewArray() Array { return b.Finish() }
