// Package geoarrow provides a columnar, offset-buffer encoding for vector
// geometry. Geometries are appended to typed builders and finished into
// immutable arrays that share their buffers, slice in O(1) and can be
// downcast to the most specific type that represents the same data.
//
// Producers plug in through the Geometry contract (see geometry.go); orb,
// go-geom, WKB/WKT, GeoJSON and FlatGeobuf adapters are provided.
package geoarrow

import (
	"errors"
	"fmt"
)

// Common errors returned by this package.
var (
	ErrOffsetOverflow    = errors.New("geoarrow: offset overflow")
	ErrIncorrectType     = errors.New("geoarrow: incorrect geometry type")
	ErrUnsupportedShape  = errors.New("geoarrow: unsupported geometry shape")
	ErrInvalidData       = errors.New("geoarrow: invalid data")
	ErrDimensionMismatch = errors.New("geoarrow: dimension mismatch")
	ErrOutOfRange        = errors.New("geoarrow: index out of range")
	ErrNilGeometry       = errors.New("geoarrow: nil geometry")
	ErrNoIndex           = errors.New("geoarrow: file has no spatial index")
	ErrUnsupportedType   = errors.New("geoarrow: unsupported geometry type")
)

// Dimension is the number and meaning of ordinates in each coordinate.
type Dimension int

const (
	XY Dimension = iota
	XYZ
	XYM
	XYZM
)

// Size returns the number of ordinates per coordinate.
func (d Dimension) Size() int {
	switch d {
	case XYZ, XYM:
		return 3
	case XYZM:
		return 4
	default:
		return 2
	}
}

// HasZ reports whether the dimension carries a Z ordinate.
func (d Dimension) HasZ() bool { return d == XYZ || d == XYZM }

// HasM reports whether the dimension carries an M ordinate.
func (d Dimension) HasM() bool { return d == XYM || d == XYZM }

func (d Dimension) String() string {
	switch d {
	case XY:
		return "xy"
	case XYZ:
		return "xyz"
	case XYM:
		return "xym"
	case XYZM:
		return "xyzm"
	default:
		return "unknown"
	}
}

// dimensionOf returns the dimension with the given Z and M flags.
func dimensionOf(hasZ, hasM bool) Dimension {
	switch {
	case hasZ && hasM:
		return XYZM
	case hasZ:
		return XYZ
	case hasM:
		return XYM
	default:
		return XY
	}
}

// CoordLayout is the physical layout of a coordinate buffer.
type CoordLayout int

const (
	// Interleaved stores one buffer of xyxy... tuples.
	Interleaved CoordLayout = iota
	// Separated stores one buffer per axis.
	Separated
)

func (l CoordLayout) String() string {
	if l == Separated {
		return "separated"
	}
	return "interleaved"
}

// OffsetWidth selects the integer width of every offset buffer in an array.
type OffsetWidth int

const (
	// Narrow offsets are int32.
	Narrow OffsetWidth = iota
	// Wide offsets are int64.
	Wide
)

func (w OffsetWidth) String() string {
	if w == Wide {
		return "i64"
	}
	return "i32"
}

// GeometryKind classifies a geometry value or array.
type GeometryKind int

const (
	KindPoint GeometryKind = iota
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindMixed
	KindGeometryCollection
	KindRect
)

var kindNames = map[GeometryKind]string{
	KindPoint:              "Point",
	KindLineString:         "LineString",
	KindPolygon:            "Polygon",
	KindMultiPoint:         "MultiPoint",
	KindMultiLineString:    "MultiLineString",
	KindMultiPolygon:       "MultiPolygon",
	KindMixed:              "Geometry",
	KindGeometryCollection: "GeometryCollection",
	KindRect:               "Rect",
}

func (k GeometryKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("GeometryKind(%d)", int(k))
}

// Multi returns the multi-part kind for a singular kind, and the kind itself
// otherwise.
func (k GeometryKind) Multi() GeometryKind {
	switch k {
	case KindPoint:
		return KindMultiPoint
	case KindLineString:
		return KindMultiLineString
	case KindPolygon, KindRect:
		return KindMultiPolygon
	default:
		return k
	}
}

// Single returns the singular kind for a multi-part kind, and the kind itself
// otherwise.
func (k GeometryKind) Single() GeometryKind {
	switch k {
	case KindMultiPoint:
		return KindPoint
	case KindMultiLineString:
		return KindLineString
	case KindMultiPolygon:
		return KindPolygon
	default:
		return k
	}
}

// Extension type names.
const (
	ExtensionPoint              = "geoarrow.point"
	ExtensionLineString         = "geoarrow.linestring"
	ExtensionPolygon            = "geoarrow.polygon"
	ExtensionMultiPoint         = "geoarrow.multipoint"
	ExtensionMultiLineString    = "geoarrow.multilinestring"
	ExtensionMultiPolygon       = "geoarrow.multipolygon"
	ExtensionGeometry           = "geoarrow.geometry"
	ExtensionGeometryCollection = "geoarrow.geometrycollection"
	ExtensionBox                = "geoarrow.box"
	ExtensionWKB                = "geoarrow.wkb"
)

// NativeType fully describes the shape of an array.
type NativeType struct {
	Kind   GeometryKind
	Layout CoordLayout
	Dim    Dimension
	Width  OffsetWidth
}

// ExtensionName returns the dotted extension name used to tag schema metadata.
func (t NativeType) ExtensionName() string {
	switch t.Kind {
	case KindPoint:
		return ExtensionPoint
	case KindLineString:
		return ExtensionLineString
	case KindPolygon:
		return ExtensionPolygon
	case KindMultiPoint:
		return ExtensionMultiPoint
	case KindMultiLineString:
		return ExtensionMultiLineString
	case KindMultiPolygon:
		return ExtensionMultiPolygon
	case KindMixed:
		return ExtensionGeometry
	case KindGeometryCollection:
		return ExtensionGeometryCollection
	case KindRect:
		return ExtensionBox
	default:
		return ""
	}
}

func (t NativeType) String() string {
	return fmt.Sprintf("%s<%s,%s,%s>", t.Kind, t.Dim, t.Layout, t.Width)
}

// BuilderOptions configures the shape of a builder's output.
type BuilderOptions struct {
	Dim    Dimension
	Layout CoordLayout
	Width  OffsetWidth
}

// DefaultBuilderOptions returns XY, interleaved, narrow-offset options.
func DefaultBuilderOptions() *BuilderOptions {
	return &BuilderOptions{
		Dim:    XY,
		Layout: Interleaved,
		Width:  Narrow,
	}
}

func builderOptions(opts *BuilderOptions) BuilderOptions {
	if opts == nil {
		return *DefaultBuilderOptions()
	}
	return *opts
}

func (o BuilderOptions) nativeType(kind GeometryKind) NativeType {
	return NativeType{Kind: kind, Layout: o.Layout, Dim: o.Dim, Width: o.Width}
}

// OptionsFor returns builder options producing arrays of the given type.
func OptionsFor(t NativeType) *BuilderOptions {
	return &BuilderOptions{Dim: t.Dim, Layout: t.Layout, Width: t.Width}
}
