package geoarrow

import (
	"fmt"
)

// ArrayBuilder is the kind-independent push API shared by every builder.
type ArrayBuilder interface {
	// PushGeometry appends one geometry; nil appends a null slot.
	PushGeometry(g Geometry) error
	// PushNull appends a null slot.
	PushNull()
	// Len returns the number of slots pushed.
	Len() int
	// NewArray finishes the builder.
	NewArray() Array
}

// NewBuilder returns an empty builder producing arrays of type t. Mixed and
// collection builders keep singular kinds in singular children.
func NewBuilder(t NativeType) (ArrayBuilder, error) {
	opts := OptionsFor(t)
	switch t.Kind {
	case KindPoint:
		return NewPointBuilder(opts), nil
	case KindLineString:
		return NewLineStringBuilder(opts), nil
	case KindPolygon:
		return NewPolygonBuilder(opts), nil
	case KindMultiPoint:
		return NewMultiPointBuilder(opts), nil
	case KindMultiLineString:
		return NewMultiLineStringBuilder(opts), nil
	case KindMultiPolygon:
		return NewMultiPolygonBuilder(opts), nil
	case KindRect:
		return NewRectBuilder(opts), nil
	case KindMixed:
		return NewMixedBuilder(&MixedOptions{BuilderOptions: *opts}), nil
	case KindGeometryCollection:
		return NewGeometryCollectionBuilder(&MixedOptions{BuilderOptions: *opts}), nil
	}
	return nil, fmt.Errorf("%w: no builder for %s", ErrUnsupportedType, t.Kind)
}

// newSizedBuilder returns a builder for t whose buffers are sized for geoms
// in one scan. It falls back to an unsized builder when geoms do not fit t,
// leaving the error to the push that rejects them.
func newSizedBuilder(t NativeType, geoms []Geometry) (ArrayBuilder, error) {
	opts := OptionsFor(t)
	switch t.Kind {
	case KindPoint:
		if c, err := PointCapacityFromGeometries(geoms); err == nil {
			return NewPointBuilderWithCapacity(c, opts), nil
		}
	case KindLineString:
		if c, err := LineStringCapacityFromGeometries(geoms); err == nil {
			return NewLineStringBuilderWithCapacity(c, opts), nil
		}
	case KindPolygon:
		if c, err := PolygonCapacityFromGeometries(geoms); err == nil {
			return NewPolygonBuilderWithCapacity(c, opts), nil
		}
	case KindMultiPoint:
		if c, err := MultiPointCapacityFromGeometries(geoms); err == nil {
			return NewMultiPointBuilderWithCapacity(c, opts), nil
		}
	case KindMultiLineString:
		if c, err := MultiLineStringCapacityFromGeometries(geoms); err == nil {
			return NewMultiLineStringBuilderWithCapacity(c, opts), nil
		}
	case KindMultiPolygon:
		if c, err := MultiPolygonCapacityFromGeometries(geoms); err == nil {
			return NewMultiPolygonBuilderWithCapacity(c, opts), nil
		}
	case KindMixed:
		mo := &MixedOptions{BuilderOptions: *opts}
		if c, err := MixedCapacityFromGeometries(geoms, false); err == nil {
			return NewMixedBuilderWithCapacity(c, mo), nil
		}
	case KindGeometryCollection:
		mo := &MixedOptions{BuilderOptions: *opts}
		if c, err := GeometryCollectionCapacityFromGeometries(geoms, false); err == nil {
			return NewGeometryCollectionBuilderWithCapacity(c, mo), nil
		}
	}
	return NewBuilder(t)
}

// BuildArray pushes geoms into a builder for t, sized in one pre-scan, and
// finishes it. Nil entries become null slots.
func BuildArray(t NativeType, geoms []Geometry) (Array, error) {
	b, err := newSizedBuilder(t, geoms)
	if err != nil {
		return nil, err
	}
	if err := extendGeometries(b, geoms); err != nil {
		return nil, err
	}
	return b.NewArray(), nil
}
