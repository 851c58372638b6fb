package geoarrow

import (
	"fmt"
)

// GeometryCollectionArray stores, per slot, a range of members in a mixed
// array.
type GeometryCollectionArray struct {
	dt          NativeType
	mixed       *MixedArray
	geomOffsets OffsetBuffer
	validity    *Bitmap
}

// NewGeometryCollectionArray validates and wraps a member array and its
// offsets.
func NewGeometryCollectionArray(mixed *MixedArray, geomOffsets OffsetBuffer, validity *Bitmap) (*GeometryCollectionArray, error) {
	if mixed == nil {
		return nil, fmt.Errorf("%w: geometry collection without members array", ErrInvalidData)
	}
	if err := geomOffsets.check("geometry", mixed.Len()); err != nil {
		return nil, err
	}
	if err := checkValidity(validity, geomOffsets.Len()); err != nil {
		return nil, err
	}
	mt := mixed.DataType()
	return &GeometryCollectionArray{
		dt:          NativeType{Kind: KindGeometryCollection, Layout: mt.Layout, Dim: mt.Dim, Width: geomOffsets.Width()},
		mixed:       mixed,
		geomOffsets: geomOffsets,
		validity:    validity,
	}, nil
}

func (a *GeometryCollectionArray) DataType() NativeType     { return a.dt }
func (a *GeometryCollectionArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *GeometryCollectionArray) Len() int                 { return a.geomOffsets.Len() }
func (a *GeometryCollectionArray) IsNull(i int) bool        { return a.validity.IsNull(i) }
func (a *GeometryCollectionArray) NullCount() int           { return a.validity.NullCount() }
func (a *GeometryCollectionArray) Validity() *Bitmap        { return a.validity }

// Mixed returns the members array.
func (a *GeometryCollectionArray) Mixed() *MixedArray { return a.mixed }

// GeomOffsets returns the per-slot member offsets.
func (a *GeometryCollectionArray) GeomOffsets() OffsetBuffer { return a.geomOffsets }

// Value returns slot i as a GeometryCollection, or nil when the slot is null.
func (a *GeometryCollectionArray) Value(i int) Geometry {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.geomOffsets.Range(i)
	return collectionValue{mixed: a.mixed, start: start, end: end}
}

// BufferLengths returns the slot count and the members' buffer lengths.
func (a *GeometryCollectionArray) BufferLengths() GeometryCollectionCapacity {
	return GeometryCollectionCapacity{Mixed: a.mixed.BufferLengths(), Geoms: a.Len()}
}

// Slice returns a zero-copy view. It panics when the range is out of bounds.
func (a *GeometryCollectionArray) Slice(offset, length int) *GeometryCollectionArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.geomOffsets = a.geomOffsets.Slice(offset, length)
	out.validity = a.validity.Slice(offset, length)
	return &out
}

// OwnedSlice returns an independent copy with offsets rebased to zero. It
// panics when the range is out of bounds.
func (a *GeometryCollectionArray) OwnedSlice(offset, length int) *GeometryCollectionArray {
	mustBounds(a.Len(), offset, length)
	start, end := a.geomOffsets.At(offset), a.geomOffsets.At(offset+length)
	return &GeometryCollectionArray{
		dt:          a.dt,
		mixed:       a.mixed.OwnedSlice(start, end-start),
		geomOffsets: a.geomOffsets.Rebased(offset, length),
		validity:    a.validity.Copy(offset, length),
	}
}

func (a *GeometryCollectionArray) sliceArray(offset, length int) Array {
	return a.Slice(offset, length)
}

func (a *GeometryCollectionArray) ownedSliceArray(offset, length int) Array {
	return a.OwnedSlice(offset, length)
}

// GeometryCollectionBuilder appends geometry collections.
type GeometryCollectionBuilder struct {
	opts        MixedOptions
	mixed       *MixedBuilder
	geomOffsets *OffsetsBuilder
	validity    *BitmapBuilder
}

// NewGeometryCollectionBuilder creates an empty builder. A nil opts uses
// DefaultMixedOptions.
func NewGeometryCollectionBuilder(opts *MixedOptions) *GeometryCollectionBuilder {
	return NewGeometryCollectionBuilderWithCapacity(GeometryCollectionCapacity{}, opts)
}

// NewGeometryCollectionBuilderWithCapacity creates a builder sized for c.
func NewGeometryCollectionBuilderWithCapacity(c GeometryCollectionCapacity, opts *MixedOptions) *GeometryCollectionBuilder {
	o := mixedOptions(opts)
	return &GeometryCollectionBuilder{
		opts:        o,
		mixed:       NewMixedBuilderWithCapacity(c.Mixed, &o),
		geomOffsets: NewOffsetsBuilder(o.Width, c.Geoms),
		validity:    NewBitmapBuilder(c.Geoms),
	}
}

// Len returns the number of slots pushed.
func (b *GeometryCollectionBuilder) Len() int { return b.geomOffsets.Len() }

// PushGeometryCollection appends a collection. A nil value appends a null
// slot.
func (b *GeometryCollectionBuilder) PushGeometryCollection(gc GeometryCollection) error {
	if gc == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(gc, b.opts.Dim); err != nil {
		return err
	}
	m := b.mixed.mark()
	for i := 0; i < gc.NumGeometries(); i++ {
		if err := b.mixed.PushGeometry(gc.GeometryAt(i)); err != nil {
			b.mixed.rollback(m)
			return fmt.Errorf("member %d: %w", i, err)
		}
	}
	if err := b.geomOffsets.TryPushUsize(gc.NumGeometries()); err != nil {
		b.mixed.rollback(m)
		return err
	}
	b.validity.Append(true)
	return nil
}

// PushGeometry appends a collection, or any other geometry as a
// single-member collection.
func (b *GeometryCollectionBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	if g.Kind() == KindGeometryCollection {
		gc, err := asGeometryCollection(g)
		if err != nil {
			return err
		}
		return b.PushGeometryCollection(gc)
	}
	m := b.mixed.mark()
	if err := b.mixed.PushGeometry(g); err != nil {
		return err
	}
	if err := b.geomOffsets.TryPushUsize(1); err != nil {
		b.mixed.rollback(m)
		return err
	}
	b.validity.Append(true)
	return nil
}

// PushEmpty appends a valid collection with no members.
func (b *GeometryCollectionBuilder) PushEmpty() {
	_ = b.geomOffsets.TryPushUsize(0)
	b.validity.Append(true)
}

// PushNull appends a null slot.
func (b *GeometryCollectionBuilder) PushNull() {
	b.geomOffsets.ExtendConstant(1)
	b.validity.Append(false)
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *GeometryCollectionBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

// Finish moves the buffers into an immutable array.
func (b *GeometryCollectionBuilder) Finish() *GeometryCollectionArray {
	mixed := b.mixed.Finish()
	return &GeometryCollectionArray{
		dt:          b.opts.nativeType(KindGeometryCollection),
		mixed:       mixed,
		geomOffsets: b.geomOffsets.Finish(),
		validity:    b.validity.Finish(),
	}
}

// NewArray implements ArrayBuilder.
func (b *GeometryCollectionBuilder) NewArray() Array { return b.Finish() }
