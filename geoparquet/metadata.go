// Package geoparquet reads and writes the "geo" key-value metadata that
// GeoParquet files carry, and maps it to and from geoarrow types.
package geoparquet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/columnar"
)

// MetadataKey is the Parquet key-value metadata key holding FileMetadata.
const MetadataKey = "geo"

// Version is the GeoParquet version written by this package.
const Version = "1.1.0"

// Column encodings.
const (
	EncodingWKB             = "WKB"
	EncodingPoint           = "point"
	EncodingLineString      = "linestring"
	EncodingPolygon         = "polygon"
	EncodingMultiPoint      = "multipoint"
	EncodingMultiLineString = "multilinestring"
	EncodingMultiPolygon    = "multipolygon"
)

// EdgesSpherical marks columns whose edges follow great circles.
const EdgesSpherical = "spherical"

var (
	ErrMissingColumn = errors.New("geoparquet: missing column")
	ErrIncompatible  = errors.New("geoparquet: incompatible metadata")
	ErrEncoding      = errors.New("geoparquet: unsupported encoding")
)

// FileMetadata is the document stored under MetadataKey.
type FileMetadata struct {
	Version       string                    `json:"version"`
	PrimaryColumn string                    `json:"primary_column"`
	Columns       map[string]ColumnMetadata `json:"columns"`
}

// ColumnMetadata describes one geometry column.
type ColumnMetadata struct {
	Encoding      string          `json:"encoding"`
	GeometryTypes []string        `json:"geometry_types"`
	CRS           json.RawMessage `json:"crs,omitempty"`
	Orientation   string          `json:"orientation,omitempty"`
	Edges         string          `json:"edges,omitempty"`
	BBox          []float64       `json:"bbox,omitempty"`
	Epoch         *float64        `json:"epoch,omitempty"`
}

var encodingKinds = map[string]geoarrow.GeometryKind{
	EncodingPoint:           geoarrow.KindPoint,
	EncodingLineString:      geoarrow.KindLineString,
	EncodingPolygon:         geoarrow.KindPolygon,
	EncodingMultiPoint:      geoarrow.KindMultiPoint,
	EncodingMultiLineString: geoarrow.KindMultiLineString,
	EncodingMultiPolygon:    geoarrow.KindMultiPolygon,
}

// NewFileMetadata returns metadata for the given columns. The primary column
// must be one of them.
func NewFileMetadata(primary string, columns map[string]ColumnMetadata) (*FileMetadata, error) {
	if _, ok := columns[primary]; !ok {
		return nil, fmt.Errorf("%w: primary column %q", ErrMissingColumn, primary)
	}
	return &FileMetadata{Version: Version, PrimaryColumn: primary, Columns: columns}, nil
}

// Parse decodes the value stored under MetadataKey.
func Parse(data []byte) (*FileMetadata, error) {
	var m FileMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("geoparquet: decode metadata: %w", err)
	}
	if _, ok := m.Columns[m.PrimaryColumn]; !ok {
		return nil, fmt.Errorf("%w: primary column %q", ErrMissingColumn, m.PrimaryColumn)
	}
	return &m, nil
}

// Marshal encodes m for storage under MetadataKey.
func (m *FileMetadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// CompatibleWith returns nil when m and other describe the same columns with
// the same version, encodings and CRS, as needed to append files together.
func (m *FileMetadata) CompatibleWith(other *FileMetadata) error {
	if m.Version != other.Version {
		return fmt.Errorf("%w: versions %s and %s", ErrIncompatible, m.Version, other.Version)
	}
	if m.PrimaryColumn != other.PrimaryColumn {
		return fmt.Errorf("%w: primary columns %q and %q", ErrIncompatible, m.PrimaryColumn, other.PrimaryColumn)
	}
	for name, left := range m.Columns {
		right, ok := other.Columns[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		if left.Encoding != right.Encoding {
			return fmt.Errorf("%w: column %q encodings %s and %s", ErrIncompatible, name, left.Encoding, right.Encoding)
		}
		if !crsEqual(left.CRS, right.CRS) {
			return fmt.Errorf("%w: column %q crs differs", ErrIncompatible, name)
		}
	}
	return nil
}

// ArrowMetadata returns the extension metadata for the column's Arrow field.
func (c ColumnMetadata) ArrowMetadata() columnar.Metadata {
	meta := columnar.Metadata{CRS: c.CRS}
	if c.Edges == EdgesSpherical {
		meta.Edges = EdgesSpherical
	}
	return meta
}

// ParseGeometryType parses one geometry_types entry such as "Polygon" or
// "Point Z".
func ParseGeometryType(s string) (geoarrow.GeometryKind, geoarrow.Dimension, error) {
	name, suffix, _ := strings.Cut(strings.TrimSpace(s), " ")
	var dim geoarrow.Dimension
	switch suffix {
	case "":
		dim = geoarrow.XY
	case "Z":
		dim = geoarrow.XYZ
	case "M":
		dim = geoarrow.XYM
	case "ZM":
		dim = geoarrow.XYZM
	default:
		return 0, 0, fmt.Errorf("%w: geometry type %q", geoarrow.ErrUnsupportedType, s)
	}

	kinds := append(geoarrow.DefaultTypeMap().Kinds(), geoarrow.KindGeometryCollection)
	for _, kind := range kinds {
		if kind.String() == name {
			return kind, dim, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: geometry type %q", geoarrow.ErrUnsupportedType, s)
}

// FormatGeometryType is the inverse of ParseGeometryType.
func FormatGeometryType(kind geoarrow.GeometryKind, dim geoarrow.Dimension) string {
	name := kind.String()
	switch dim {
	case geoarrow.XYZ:
		name += " Z"
	case geoarrow.XYM:
		name += " M"
	case geoarrow.XYZM:
		name += " ZM"
	}
	return name
}

// TargetType selects the array type a column decodes into. A native encoding
// selects its own kind. WKB columns whose geometry types unify select the
// unified type. Anything else decodes into Mixed, or GeometryCollection when
// collections are listed.
func (c ColumnMetadata) TargetType(layout geoarrow.CoordLayout) (geoarrow.NativeType, error) {
	types := make([]geoarrow.NativeType, 0, len(c.GeometryTypes))
	hasCollection := false
	for _, s := range c.GeometryTypes {
		kind, dim, err := ParseGeometryType(s)
		if err != nil {
			return geoarrow.NativeType{}, err
		}
		if kind == geoarrow.KindGeometryCollection {
			hasCollection = true
		}
		types = append(types, geoarrow.NativeType{Kind: kind, Layout: layout, Dim: dim})
	}

	dim := geoarrow.XY
	if len(types) > 0 {
		dim = types[0].Dim
		for _, t := range types[1:] {
			if t.Dim != dim {
				return geoarrow.NativeType{}, fmt.Errorf("%w: geometry types %v", geoarrow.ErrDimensionMismatch, c.GeometryTypes)
			}
		}
	}

	if c.Encoding != EncodingWKB {
		kind, ok := encodingKinds[c.Encoding]
		if !ok {
			return geoarrow.NativeType{}, fmt.Errorf("%w: %q", ErrEncoding, c.Encoding)
		}
		return geoarrow.NativeType{Kind: kind, Layout: layout, Dim: dim}, nil
	}

	if t, ok := geoarrow.UnifyTypes(types); ok {
		return t, nil
	}
	if hasCollection {
		return geoarrow.NativeType{Kind: geoarrow.KindGeometryCollection, Layout: layout, Dim: dim}, nil
	}
	return geoarrow.NativeType{Kind: geoarrow.KindMixed, Layout: layout, Dim: dim}, nil
}

// MetadataFor derives column metadata from arr. Point through MultiPolygon
// arrays use their native encoding; other arrays are described as WKB.
func MetadataFor(arr geoarrow.Array) ColumnMetadata {
	dt := arr.DataType()
	meta := ColumnMetadata{
		Encoding:      EncodingWKB,
		GeometryTypes: geometryTypes(arr),
	}
	for encoding, kind := range encodingKinds {
		if kind == dt.Kind {
			meta.Encoding = encoding
		}
	}

	bounds := geoarrow.TotalBounds(arr)
	switch {
	case bounds.IsEmpty():
	case dt.Dim.HasZ() && bounds.HasZ():
		meta.BBox = []float64{bounds.MinX, bounds.MinY, bounds.MinZ, bounds.MaxX, bounds.MaxY, bounds.MaxZ}
	default:
		meta.BBox = bounds.Envelope()
	}
	return meta
}

// geometryTypes lists the kinds stored in arr, in canonical order. Mixed
// arrays list the kinds of their non-null slots.
func geometryTypes(arr geoarrow.Array) []string {
	dt := arr.DataType()
	var kinds []geoarrow.GeometryKind
	switch a := arr.(type) {
	case *geoarrow.MixedArray:
		seen := make(map[geoarrow.GeometryKind]bool)
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				seen[a.SlotKind(i)] = true
			}
		}
		for _, kind := range geoarrow.DefaultTypeMap().Kinds() {
			if seen[kind] {
				kinds = append(kinds, kind)
			}
		}
	case *geoarrow.RectArray:
		kinds = []geoarrow.GeometryKind{geoarrow.KindPolygon}
	default:
		kinds = []geoarrow.GeometryKind{dt.Kind}
	}

	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = FormatGeometryType(kind, dt.Dim)
	}
	return out
}

func crsEqual(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return string(a) == string(b)
	}
	ca, _ := json.Marshal(va)
	cb, _ := json.Marshal(vb)
	return string(ca) == string(cb)
}
