// Package columnar exports geoarrow arrays to Apache Arrow. Every geometry
// type maps to nested list storage wrapped in a registered geoarrow.*
// extension type, so the result can be written with Arrow IPC.
package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// StorageType returns the Arrow storage type for t. Mixed and collection
// types use the default type map for their union children.
func StorageType(t geoarrow.NativeType) (arrow.DataType, error) {
	return storageType(t, geoarrow.DefaultTypeMap())
}

// arrayStorageType returns the storage type for arr, taking union children
// from the array's own type map.
func arrayStorageType(arr geoarrow.Array) (arrow.DataType, error) {
	m := geoarrow.DefaultTypeMap()
	switch a := arr.(type) {
	case *geoarrow.MixedArray:
		m = a.TypeMap()
	case *geoarrow.GeometryCollectionArray:
		m = a.Mixed().TypeMap()
	}
	if m.Len() == 0 {
		m = geoarrow.DefaultTypeMap()
	}
	return storageType(arr.DataType(), m)
}

func storageType(t geoarrow.NativeType, m *geoarrow.TypeMap) (arrow.DataType, error) {
	coord := coordType(t.Layout, t.Dim)
	switch t.Kind {
	case geoarrow.KindPoint:
		return coord, nil
	case geoarrow.KindLineString:
		return listOf("vertices", coord, t.Width), nil
	case geoarrow.KindPolygon:
		return listOf("rings", listOf("vertices", coord, t.Width), t.Width), nil
	case geoarrow.KindMultiPoint:
		return listOf("points", coord, t.Width), nil
	case geoarrow.KindMultiLineString:
		return listOf("linestrings", listOf("vertices", coord, t.Width), t.Width), nil
	case geoarrow.KindMultiPolygon:
		polygon := listOf("rings", listOf("vertices", coord, t.Width), t.Width)
		return listOf("polygons", polygon, t.Width), nil
	case geoarrow.KindRect:
		return boxType(t.Dim), nil
	case geoarrow.KindMixed:
		return unionType(t, m)
	case geoarrow.KindGeometryCollection:
		union, err := unionType(t, m)
		if err != nil {
			return nil, err
		}
		return listOf("geometries", union, t.Width), nil
	}
	return nil, fmt.Errorf("%w: %s", geoarrow.ErrUnsupportedType, t.Kind)
}

// unionType returns the dense union over the kinds of m. Type codes are the
// type map's ids, so they follow first-use order.
func unionType(t geoarrow.NativeType, m *geoarrow.TypeMap) (*arrow.DenseUnionType, error) {
	kinds := m.Kinds()
	fields := make([]arrow.Field, len(kinds))
	codes := make([]arrow.UnionTypeCode, len(kinds))
	for i, kind := range kinds {
		child := t
		child.Kind = kind
		storage, err := storageType(child, m)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: kindFieldName(kind, t.Dim), Type: storage, Nullable: true}
		codes[i] = arrow.UnionTypeCode(i)
	}
	return arrow.DenseUnionOf(fields, codes), nil
}

// NativeTypeOf recovers the native type of kind from its Arrow storage.
func NativeTypeOf(kind geoarrow.GeometryKind, storage arrow.DataType) (geoarrow.NativeType, error) {
	t := geoarrow.NativeType{Kind: kind}
	depth := listDepth(kind)
	dt := storage
	for i := 0; i < depth; i++ {
		switch l := dt.(type) {
		case *arrow.ListType:
			dt = l.Elem()
		case *arrow.LargeListType:
			t.Width = geoarrow.Wide
			dt = l.Elem()
		default:
			return t, fmt.Errorf("%w: %s storage %s is not a list", geoarrow.ErrInvalidData, kind, dt)
		}
	}

	switch kind {
	case geoarrow.KindRect:
		st, ok := dt.(*arrow.StructType)
		if !ok {
			return t, fmt.Errorf("%w: box storage %s is not a struct", geoarrow.ErrInvalidData, dt)
		}
		dim, err := boxDim(st)
		if err != nil {
			return t, err
		}
		t.Dim = dim
		return t, nil
	case geoarrow.KindMixed, geoarrow.KindGeometryCollection:
		u, ok := dt.(*arrow.DenseUnionType)
		if !ok || len(u.Fields()) == 0 {
			return t, fmt.Errorf("%w: %s storage %s is not a dense union", geoarrow.ErrInvalidData, kind, dt)
		}
		child, err := NativeTypeOf(geoarrow.KindPoint, coordOf(u.Fields()[0].Type))
		if err != nil {
			return t, err
		}
		t.Dim, t.Layout = child.Dim, child.Layout
		for _, f := range u.Fields() {
			if _, ok := f.Type.(*arrow.LargeListType); ok {
				t.Width = geoarrow.Wide
			}
		}
		return t, nil
	}

	layout, dim, err := coordInfo(dt)
	if err != nil {
		return t, err
	}
	t.Layout, t.Dim = layout, dim
	return t, nil
}

// Helper functions for storage types

func coordType(layout geoarrow.CoordLayout, dim geoarrow.Dimension) arrow.DataType {
	if layout == geoarrow.Separated {
		names := axisNames(dim)
		fields := make([]arrow.Field, len(names))
		for i, name := range names {
			fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
		}
		return arrow.StructOf(fields...)
	}
	return arrow.FixedSizeListOfField(int32(dim.Size()), arrow.Field{
		Name: dim.String(),
		Type: arrow.PrimitiveTypes.Float64,
	})
}

func listOf(name string, elem arrow.DataType, width geoarrow.OffsetWidth) arrow.DataType {
	field := arrow.Field{Name: name, Type: elem}
	if width == geoarrow.Wide {
		return arrow.LargeListOfField(field)
	}
	return arrow.ListOfField(field)
}

func boxType(dim geoarrow.Dimension) arrow.DataType {
	names := axisNames(dim)
	fields := make([]arrow.Field, 0, 2*len(names))
	for _, suffix := range []string{"min", "max"} {
		for _, name := range names {
			fields = append(fields, arrow.Field{Name: name + suffix, Type: arrow.PrimitiveTypes.Float64})
		}
	}
	return arrow.StructOf(fields...)
}

func axisNames(dim geoarrow.Dimension) []string {
	names := []string{"x", "y"}
	if dim.HasZ() {
		names = append(names, "z")
	}
	if dim.HasM() {
		names = append(names, "m")
	}
	return names
}

func dimFromAxes(names []string) (geoarrow.Dimension, error) {
	var hasZ, hasM bool
	for _, n := range names {
		switch n {
		case "z":
			hasZ = true
		case "m":
			hasM = true
		}
	}
	for _, d := range []geoarrow.Dimension{geoarrow.XY, geoarrow.XYZ, geoarrow.XYM, geoarrow.XYZM} {
		if d.HasZ() == hasZ && d.HasM() == hasM && d.Size() == len(names) {
			return d, nil
		}
	}
	return geoarrow.XY, fmt.Errorf("%w: axes %v", geoarrow.ErrInvalidData, names)
}

func coordInfo(dt arrow.DataType) (geoarrow.CoordLayout, geoarrow.Dimension, error) {
	switch c := dt.(type) {
	case *arrow.FixedSizeListType:
		for _, d := range []geoarrow.Dimension{geoarrow.XY, geoarrow.XYZ, geoarrow.XYM, geoarrow.XYZM} {
			if c.ElemField().Name == d.String() && int(c.Len()) == d.Size() {
				return geoarrow.Interleaved, d, nil
			}
		}
		// unnamed children fall back to the size
		switch c.Len() {
		case 2:
			return geoarrow.Interleaved, geoarrow.XY, nil
		case 4:
			return geoarrow.Interleaved, geoarrow.XYZM, nil
		case 3:
			return geoarrow.Interleaved, geoarrow.XYZ, nil
		}
	case *arrow.StructType:
		names := make([]string, len(c.Fields()))
		for i, f := range c.Fields() {
			names[i] = f.Name
		}
		dim, err := dimFromAxes(names)
		return geoarrow.Separated, dim, err
	}
	return geoarrow.Interleaved, geoarrow.XY, fmt.Errorf("%w: %s is not a coordinate type", geoarrow.ErrInvalidData, dt)
}

func boxDim(st *arrow.StructType) (geoarrow.Dimension, error) {
	fields := st.Fields()
	names := make([]string, 0, len(fields)/2)
	for _, f := range fields[:len(fields)/2] {
		if len(f.Name) < 4 {
			return geoarrow.XY, fmt.Errorf("%w: box field %q", geoarrow.ErrInvalidData, f.Name)
		}
		names = append(names, f.Name[:len(f.Name)-3])
	}
	return dimFromAxes(names)
}

// coordOf strips list levels down to the coordinate type.
func coordOf(dt arrow.DataType) arrow.DataType {
	for {
		switch l := dt.(type) {
		case *arrow.ListType:
			dt = l.Elem()
		case *arrow.LargeListType:
			dt = l.Elem()
		default:
			return dt
		}
	}
}

func listDepth(kind geoarrow.GeometryKind) int {
	switch kind {
	case geoarrow.KindLineString, geoarrow.KindMultiPoint, geoarrow.KindGeometryCollection:
		return 1
	case geoarrow.KindPolygon, geoarrow.KindMultiLineString:
		return 2
	case geoarrow.KindMultiPolygon:
		return 3
	default:
		return 0
	}
}

func kindFieldName(kind geoarrow.GeometryKind, dim geoarrow.Dimension) string {
	name := kind.String()
	if dim != geoarrow.XY {
		name += " " + dim.String()
	}
	return name
}
