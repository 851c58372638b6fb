package columnar

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	geoarrow "github.com/tingold/orb-geoarrow"
)

func buildOrb(t *testing.T, nt geoarrow.NativeType, geoms ...orb.Geometry) geoarrow.Array {
	t.Helper()
	values, err := geoarrow.FromOrbSlice(geoms)
	require.NoError(t, err)
	arr, err := geoarrow.BuildArray(nt, values)
	require.NoError(t, err)
	return arr
}

func buildGeom(t *testing.T, nt geoarrow.NativeType, geoms ...geom.T) geoarrow.Array {
	t.Helper()
	values := make([]geoarrow.Geometry, len(geoms))
	for i, g := range geoms {
		if g == nil {
			continue
		}
		v, err := geoarrow.FromGeom(g)
		require.NoError(t, err)
		values[i] = v
	}
	arr, err := geoarrow.BuildArray(nt, values)
	require.NoError(t, err)
	return arr
}

func assertSameValues(t *testing.T, want, got geoarrow.Array) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		assert.Equal(t, want.IsNull(i), got.IsNull(i), "null at slot %d", i)
		assert.True(t, geoarrow.GeometryEqual(want.Value(i), got.Value(i)), "slot %d differs", i)
	}
}

func TestStorageType(t *testing.T) {
	tests := []struct {
		name string
		nt   geoarrow.NativeType
		want arrow.DataType
	}{
		{
			name: "interleaved point",
			nt:   geoarrow.NativeType{Kind: geoarrow.KindPoint},
			want: arrow.FixedSizeListOfField(2, arrow.Field{Name: "xy", Type: arrow.PrimitiveTypes.Float64}),
		},
		{
			name: "separated xyz linestring with wide offsets",
			nt: geoarrow.NativeType{
				Kind:   geoarrow.KindLineString,
				Layout: geoarrow.Separated,
				Dim:    geoarrow.XYZ,
				Width:  geoarrow.Wide,
			},
			want: arrow.LargeListOfField(arrow.Field{Name: "vertices", Type: arrow.StructOf(
				arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float64},
			)}),
		},
		{
			name: "xym box",
			nt:   geoarrow.NativeType{Kind: geoarrow.KindRect, Dim: geoarrow.XYM},
			want: arrow.StructOf(
				arrow.Field{Name: "xmin", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "ymin", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "mmin", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "xmax", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "ymax", Type: arrow.PrimitiveTypes.Float64},
				arrow.Field{Name: "mmax", Type: arrow.PrimitiveTypes.Float64},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StorageType(tt.nt)
			require.NoError(t, err)
			assert.True(t, arrow.TypeEqual(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestStorageTypeMixed(t *testing.T) {
	dt, err := StorageType(geoarrow.NativeType{Kind: geoarrow.KindMixed})
	require.NoError(t, err)

	u, ok := dt.(*arrow.DenseUnionType)
	require.True(t, ok)
	require.Len(t, u.Fields(), 6)
	assert.Equal(t, "Point", u.Fields()[0].Name)
	assert.Equal(t, "MultiPolygon", u.Fields()[5].Name)
	assert.Equal(t, []arrow.UnionTypeCode{0, 1, 2, 3, 4, 5}, u.TypeCodes())
}

func TestNativeTypeOf(t *testing.T) {
	kinds := []geoarrow.GeometryKind{
		geoarrow.KindPoint,
		geoarrow.KindLineString,
		geoarrow.KindPolygon,
		geoarrow.KindMultiPoint,
		geoarrow.KindMultiLineString,
		geoarrow.KindMultiPolygon,
		geoarrow.KindMixed,
		geoarrow.KindGeometryCollection,
	}
	dims := []geoarrow.Dimension{geoarrow.XY, geoarrow.XYZ, geoarrow.XYM, geoarrow.XYZM}
	layouts := []geoarrow.CoordLayout{geoarrow.Interleaved, geoarrow.Separated}
	widths := []geoarrow.OffsetWidth{geoarrow.Narrow, geoarrow.Wide}

	for _, kind := range kinds {
		for _, dim := range dims {
			for _, layout := range layouts {
				for _, width := range widths {
					if kind == geoarrow.KindPoint && width == geoarrow.Wide {
						continue
					}
					nt := geoarrow.NativeType{Kind: kind, Layout: layout, Dim: dim, Width: width}
					t.Run(nt.String(), func(t *testing.T) {
						storage, err := StorageType(nt)
						require.NoError(t, err)
						got, err := NativeTypeOf(kind, storage)
						require.NoError(t, err)
						assert.Equal(t, nt, got)
					})
				}
			}
		}
	}

	for _, dim := range dims {
		nt := geoarrow.NativeType{Kind: geoarrow.KindRect, Dim: dim}
		storage, err := StorageType(nt)
		require.NoError(t, err)
		got, err := NativeTypeOf(geoarrow.KindRect, storage)
		require.NoError(t, err)
		assert.Equal(t, nt, got)
	}
}

func TestNativeTypeOfRejectsWrongStorage(t *testing.T) {
	_, err := NativeTypeOf(geoarrow.KindPolygon, arrow.PrimitiveTypes.Float64)
	assert.ErrorIs(t, err, geoarrow.ErrInvalidData)

	_, err = NativeTypeOf(geoarrow.KindMixed, arrow.BinaryTypes.Binary)
	assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
}

func TestToArrowPoints(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint},
		orb.Point{1, 2}, nil, orb.Point{3, 4})

	out, err := ToArrow(arr, nil)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 3, out.Len())
	assert.Equal(t, 1, out.NullN())

	ext, ok := out.DataType().(*GeometryType)
	require.True(t, ok)
	assert.Equal(t, geoarrow.ExtensionPoint, ext.ExtensionName())

	storage := out.(array.ExtensionArray).Storage().(*array.FixedSizeList)
	values := storage.ListValues().(*array.Float64)
	assert.Equal(t, 1.0, values.Value(0))
	assert.Equal(t, 2.0, values.Value(1))
	assert.Equal(t, 3.0, values.Value(4))
	assert.Equal(t, 4.0, values.Value(5))
}

func TestToArrowMixedTypeCodes(t *testing.T) {
	// polygon is used first, so it takes type code 0
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMixed},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		orb.Point{5, 5},
		orb.Polygon{{{2, 2}, {3, 2}, {3, 3}, {2, 2}}},
	)
	mixed := arr.(*geoarrow.MixedArray)

	out, err := ToArrow(mixed, nil)
	require.NoError(t, err)
	defer out.Release()

	u := out.(array.ExtensionArray).Storage().(*array.DenseUnion)
	for i := 0; i < mixed.Len(); i++ {
		id, ok := mixed.TypeMap().ID(mixed.SlotKind(i))
		require.True(t, ok)
		assert.Equal(t, arrow.UnionTypeCode(id), u.TypeCode(i))
	}
	assert.Equal(t, u.TypeCode(0), u.TypeCode(2))
	assert.NotEqual(t, u.TypeCode(0), u.TypeCode(1))
}

func TestRoundTrip(t *testing.T) {
	square := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 2}},
	}

	tests := []struct {
		name string
		arr  func(t *testing.T) geoarrow.Array
	}{
		{
			name: "linestrings",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindLineString},
					orb.LineString{{0, 0}, {1, 1}}, nil, orb.LineString{})
			},
		},
		{
			name: "separated polygons",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPolygon, Layout: geoarrow.Separated},
					square, orb.Polygon{}, nil)
			},
		},
		{
			name: "wide multipolygons",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMultiPolygon, Width: geoarrow.Wide},
					orb.MultiPolygon{square, square}, nil, orb.MultiPolygon{square})
			},
		},
		{
			name: "multipoints and multilinestrings",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMixed},
					orb.MultiPoint{{1, 2}, {3, 4}},
					orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}},
					nil)
			},
		},
		{
			name: "rects",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindRect},
					orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 3}}, nil)
			},
		},
		{
			name: "collections",
			arr: func(t *testing.T) geoarrow.Array {
				return buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindGeometryCollection},
					orb.Collection{orb.Point{1, 1}, orb.LineString{{0, 0}, {2, 2}}},
					nil,
					orb.Collection{})
			},
		},
		{
			name: "xyzm points",
			arr: func(t *testing.T) geoarrow.Array {
				return buildGeom(t, geoarrow.NativeType{Kind: geoarrow.KindPoint, Dim: geoarrow.XYZM},
					geom.NewPointFlat(geom.XYZM, []float64{1, 2, 3, 4}),
					nil,
					geom.NewPointEmpty(geom.XYZM))
			},
		},
		{
			name: "xyz separated linestrings",
			arr: func(t *testing.T) geoarrow.Array {
				return buildGeom(t, geoarrow.NativeType{Kind: geoarrow.KindLineString, Dim: geoarrow.XYZ, Layout: geoarrow.Separated},
					geom.NewLineStringFlat(geom.XYZ, []float64{0, 0, 1, 1, 1, 2}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := tt.arr(t)

			out, err := ToArrow(arr, &Options{Allocator: memory.NewGoAllocator()})
			require.NoError(t, err)
			defer out.Release()

			got, err := FromArrow(out)
			require.NoError(t, err)
			assert.Equal(t, arr.DataType(), got.DataType())
			assertSameValues(t, arr, got)
		})
	}
}

func TestToArrowWKB(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindLineString},
		orb.LineString{{0, 0}, {1, 1}}, nil)

	out, err := ToArrowWKB(arr, nil)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, geoarrow.ExtensionWKB, out.DataType().(arrow.ExtensionType).ExtensionName())
	assert.Equal(t, 1, out.NullN())

	got, err := FromArrow(out)
	require.NoError(t, err)
	assertSameValues(t, arr, got)
}

func TestFromArrowRejectsPlainArrays(t *testing.T) {
	b := array.NewFloat64Builder(memory.NewGoAllocator())
	defer b.Release()
	b.Append(1)
	plain := b.NewArray()
	defer plain.Release()

	_, err := FromArrow(plain)
	assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
}

func TestExtensionMetadata(t *testing.T) {
	meta := Metadata{CRS: []byte(`"OGC:CRS84"`), Edges: "spherical"}
	ext, err := NewGeometryType(geoarrow.NativeType{Kind: geoarrow.KindPolygon}, meta)
	require.NoError(t, err)

	serialized := ext.Serialize()
	assert.JSONEq(t, `{"crs":"OGC:CRS84","edges":"spherical"}`, serialized)

	back, err := ext.Deserialize(ext.StorageType(), serialized)
	require.NoError(t, err)
	assert.True(t, ext.ExtensionEquals(back))

	plain, err := NewGeometryType(geoarrow.NativeType{Kind: geoarrow.KindPolygon}, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "{}", plain.Serialize())
	assert.False(t, ext.ExtensionEquals(plain))
}

func TestIPCRoundTrip(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMultiPolygon},
		orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}},
		nil,
	)

	var buf bytes.Buffer
	require.NoError(t, WriteIPC(&buf, "geometry", arr, nil))

	chunks, err := ReadIPC(&buf, "geometry", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assertSameValues(t, arr, chunks[0])
}

func TestReadIPCMissingColumn(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint}, orb.Point{1, 1})

	var buf bytes.Buffer
	require.NoError(t, WriteIPC(&buf, "geometry", arr, nil))

	_, err := ReadIPC(&buf, "geom", nil)
	assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
}

func TestField(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint}, orb.Point{1, 1})

	f, err := Field(arr, "location", Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "location", f.Name)
	assert.True(t, f.Nullable)
	assert.Equal(t, geoarrow.ExtensionPoint, f.Type.(arrow.ExtensionType).ExtensionName())
}

func TestToArrowSharesBuffers(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindLineString},
		orb.LineString{{0, 0}, {1, 1}, {2, 2}}, nil).(*geoarrow.LineStringArray)

	out, err := ToArrow(arr, nil)
	require.NoError(t, err)
	defer out.Release()

	list := out.(array.ExtensionArray).Storage().(*array.List)
	assert.Same(t, &arr.GeomOffsets().Narrow()[0], &list.Offsets()[0])

	values := list.ListValues().(*array.FixedSizeList).ListValues().(*array.Float64)
	assert.Same(t, &arr.Coords().Values()[0], &values.Float64Values()[0])
}

func TestToArrowSlices(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
	shifted := orb.Polygon{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}}

	tests := []struct {
		name string
		arr  func(t *testing.T) geoarrow.Array
	}{
		{
			name: "points",
			arr: func(t *testing.T) geoarrow.Array {
				points := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint},
					orb.Point{1, 1}, orb.Point{2, 2}, nil, orb.Point{4, 4})
				return points.(*geoarrow.PointArray).Slice(1, 3)
			},
		},
		{
			name: "polygons",
			arr: func(t *testing.T) geoarrow.Array {
				polygons := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPolygon},
					square, nil, shifted, square)
				return polygons.(*geoarrow.PolygonArray).Slice(1, 2)
			},
		},
		{
			name: "separated multipolygons",
			arr: func(t *testing.T) geoarrow.Array {
				multi := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMultiPolygon, Layout: geoarrow.Separated},
					orb.MultiPolygon{square}, orb.MultiPolygon{shifted, square}, nil)
				return multi.(*geoarrow.MultiPolygonArray).Slice(1, 2)
			},
		},
		{
			name: "rects",
			arr: func(t *testing.T) geoarrow.Array {
				rects := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindRect},
					orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}},
					nil,
					orb.Bound{Min: orb.Point{2, 2}, Max: orb.Point{3, 4}})
				return rects.(*geoarrow.RectArray).Slice(1, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := tt.arr(t)

			out, err := ToArrow(arr, nil)
			require.NoError(t, err)
			defer out.Release()

			got, err := FromArrow(out)
			require.NoError(t, err)
			assertSameValues(t, arr, got)
		})
	}
}

func TestToArrowMixedAbsentChildren(t *testing.T) {
	points := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint},
		orb.Point{1, 2}, orb.Point{3, 4}).(*geoarrow.PointArray)
	mixed, err := geoarrow.NewMixedArray([]int8{0, 0}, []int32{1, 0},
		geoarrow.MixedChildren{Point: points}, geoarrow.DefaultTypeMap())
	require.NoError(t, err)

	out, err := ToArrow(mixed, nil)
	require.NoError(t, err)
	defer out.Release()

	u := out.(array.ExtensionArray).Storage().(*array.DenseUnion)
	require.NoError(t, u.ValidateFull())
	require.Equal(t, 6, u.NumFields())
	assert.Equal(t, 2, u.Field(0).Len())
	for i := 1; i < u.NumFields(); i++ {
		assert.Equal(t, 0, u.Field(i).Len(), "child %d", i)
	}

	got, err := FromArrow(out)
	require.NoError(t, err)
	assertSameValues(t, mixed, got)
}

func TestFromArrowLargeBinaryWKB(t *testing.T) {
	arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPolygon},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, nil)
	values, err := geoarrow.ToWKB(arr)
	require.NoError(t, err)

	b := array.NewBinaryBuilder(memory.NewGoAllocator(), arrow.BinaryTypes.LargeBinary)
	defer b.Release()
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	storage := b.NewArray()
	defer storage.Release()

	out := array.NewExtensionArrayWithStorage(NewLargeWKBType(), storage)
	defer out.Release()

	got, err := FromArrow(out)
	require.NoError(t, err)
	assertSameValues(t, arr, got)
}

func TestWKBTypeDeserialize(t *testing.T) {
	large, err := NewWKBType().Deserialize(arrow.BinaryTypes.LargeBinary, "{}")
	require.NoError(t, err)
	assert.True(t, large.ExtensionEquals(NewLargeWKBType()))
	assert.False(t, large.ExtensionEquals(NewWKBType()))

	_, err = NewWKBType().Deserialize(arrow.BinaryTypes.String, "{}")
	assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
}

func TestFromArrowRejectsMismatchedStorage(t *testing.T) {
	b := array.NewFloat64Builder(memory.NewGoAllocator())
	defer b.Release()
	b.Append(1)
	floats := b.NewArray()
	defer floats.Release()

	kinds := []geoarrow.GeometryKind{
		geoarrow.KindPoint,
		geoarrow.KindPolygon,
		geoarrow.KindMultiPolygon,
		geoarrow.KindRect,
		geoarrow.KindMixed,
		geoarrow.KindGeometryCollection,
	}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			ext := &GeometryType{
				ExtensionBase: arrow.ExtensionBase{Storage: arrow.PrimitiveTypes.Float64},
				native:        geoarrow.NativeType{Kind: kind},
			}
			out := array.NewExtensionArrayWithStorage(ext, floats)
			defer out.Release()

			_, err := FromArrow(out)
			assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
		})
	}

	t.Run("wkb over strings", func(t *testing.T) {
		sb := array.NewStringBuilder(memory.NewGoAllocator())
		defer sb.Release()
		sb.Append("POINT (1 2)")
		strs := sb.NewArray()
		defer strs.Release()

		ext := &WKBType{ExtensionBase: arrow.ExtensionBase{Storage: arrow.BinaryTypes.String}}
		out := array.NewExtensionArrayWithStorage(ext, strs)
		defer out.Release()

		_, err := FromArrow(out)
		assert.ErrorIs(t, err, geoarrow.ErrInvalidData)
	})
}
