package geoparquet

import (
	"testing"

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

func TestParseGeometryType(t *testing.T) {
	tests := []struct {
		in      string
		kind    geoarrow.GeometryKind
		dim     geoarrow.Dimension
		wantErr bool
	}{
		{in: "Point", kind: geoarrow.KindPoint, dim: geoarrow.XY},
		{in: "Point Z", kind: geoarrow.KindPoint, dim: geoarrow.XYZ},
		{in: "MultiPolygon Z", kind: geoarrow.KindMultiPolygon, dim: geoarrow.XYZ},
		{in: "LineString M", kind: geoarrow.KindLineString, dim: geoarrow.XYM},
		{in: "GeometryCollection", kind: geoarrow.KindGeometryCollection, dim: geoarrow.XY},
		{in: "Polygon ZM", kind: geoarrow.KindPolygon, dim: geoarrow.XYZM},
		{in: "Triangle", wantErr: true},
		{in: "Point W", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, dim, err := ParseGeometryType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, geoarrow.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.dim, dim)
			assert.Equal(t, tt.in, FormatGeometryType(kind, dim))
		})
	}
}

func TestTargetType(t *testing.T) {
	tests := []struct {
		name string
		meta ColumnMetadata
		want geoarrow.NativeType
	}{
		{
			name: "native encoding",
			meta: ColumnMetadata{Encoding: EncodingPolygon, GeometryTypes: []string{"Polygon"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindPolygon},
		},
		{
			name: "native encoding with z",
			meta: ColumnMetadata{Encoding: EncodingPoint, GeometryTypes: []string{"Point Z"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindPoint, Dim: geoarrow.XYZ},
		},
		{
			name: "wkb single type",
			meta: ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"LineString"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindLineString},
		},
		{
			name: "wkb polygon and multipolygon",
			meta: ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"Polygon", "MultiPolygon"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindMultiPolygon},
		},
		{
			name: "wkb unrelated types",
			meta: ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"Point", "Polygon"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindMixed},
		},
		{
			name: "wkb with collections",
			meta: ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"Point", "GeometryCollection"}},
			want: geoarrow.NativeType{Kind: geoarrow.KindGeometryCollection},
		},
		{
			name: "wkb without types",
			meta: ColumnMetadata{Encoding: EncodingWKB},
			want: geoarrow.NativeType{Kind: geoarrow.KindMixed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.meta.TargetType(geoarrow.Interleaved)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetTypeErrors(t *testing.T) {
	_, err := ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"Point", "Point Z"}}.TargetType(geoarrow.Interleaved)
	assert.ErrorIs(t, err, geoarrow.ErrDimensionMismatch)

	_, err = ColumnMetadata{Encoding: "geoarrow.box"}.TargetType(geoarrow.Interleaved)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestMetadataFor(t *testing.T) {
	t.Run("native polygons", func(t *testing.T) {
		arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPolygon},
			orb.Polygon{{{0, 0}, {4, 0}, {4, 3}, {0, 0}}}, nil)

		meta := MetadataFor(arr)
		assert.Equal(t, EncodingPolygon, meta.Encoding)
		assert.Equal(t, []string{"Polygon"}, meta.GeometryTypes)
		assert.Equal(t, []float64{0, 0, 4, 3}, meta.BBox)
	})

	t.Run("mixed lists non-null kinds", func(t *testing.T) {
		arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindMixed},
			orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			orb.Point{5, 6})

		meta := MetadataFor(arr)
		assert.Equal(t, EncodingWKB, meta.Encoding)
		assert.Equal(t, []string{"Point", "Polygon"}, meta.GeometryTypes)
		assert.Equal(t, []float64{0, 0, 5, 6}, meta.BBox)
	})

	t.Run("xyz bbox", func(t *testing.T) {
		p, err := geoarrow.FromGeom(geom.NewPointFlat(geom.XYZ, []float64{1, 2, 3}))
		require.NoError(t, err)
		arr, err := geoarrow.BuildArray(geoarrow.NativeType{Kind: geoarrow.KindPoint, Dim: geoarrow.XYZ}, []geoarrow.Geometry{p})
		require.NoError(t, err)

		meta := MetadataFor(arr)
		assert.Equal(t, []string{"Point Z"}, meta.GeometryTypes)
		assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, meta.BBox)
	})

	t.Run("all null has no bbox", func(t *testing.T) {
		arr := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint}, nil, nil)
		assert.Nil(t, MetadataFor(arr).BBox)
	})
}

func TestFileMetadataRoundTrip(t *testing.T) {
	columns := map[string]ColumnMetadata{
		"geometry": {
			Encoding:      EncodingWKB,
			GeometryTypes: []string{"Polygon", "MultiPolygon"},
			CRS:           []byte(`{"id":{"authority":"EPSG","code":4326}}`),
			BBox:          []float64{-180, -90, 180, 90},
		},
	}
	meta, err := NewFileMetadata("geometry", columns)
	require.NoError(t, err)

	data, err := meta.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Version, parsed.Version)
	assert.Equal(t, "geometry", parsed.PrimaryColumn)
	assert.Equal(t, columns["geometry"].GeometryTypes, parsed.Columns["geometry"].GeometryTypes)
	assert.JSONEq(t, string(columns["geometry"].CRS), string(parsed.Columns["geometry"].CRS))
	assert.NoError(t, meta.CompatibleWith(parsed))
}

func TestParseRequiresPrimaryColumn(t *testing.T) {
	_, err := Parse([]byte(`{"version":"1.1.0","primary_column":"geom","columns":{}}`))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = NewFileMetadata("geom", nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCompatibleWith(t *testing.T) {
	base := func() *FileMetadata {
		return &FileMetadata{
			Version:       Version,
			PrimaryColumn: "geometry",
			Columns: map[string]ColumnMetadata{
				"geometry": {Encoding: EncodingWKB, CRS: []byte(`{"a": 1, "b": 2}`)},
			},
		}
	}

	other := base()
	other.Columns["geometry"] = ColumnMetadata{Encoding: EncodingWKB, CRS: []byte(`{"b":2,"a":1}`)}
	assert.NoError(t, base().CompatibleWith(other), "key order should not matter")

	other = base()
	other.Version = "1.0.0"
	assert.ErrorIs(t, base().CompatibleWith(other), ErrIncompatible)

	other = base()
	other.Columns["geometry"] = ColumnMetadata{Encoding: EncodingPolygon, CRS: []byte(`{"a":1,"b":2}`)}
	assert.ErrorIs(t, base().CompatibleWith(other), ErrIncompatible)

	other = base()
	other.Columns["geometry"] = ColumnMetadata{Encoding: EncodingWKB}
	assert.ErrorIs(t, base().CompatibleWith(other), ErrIncompatible)

	other = base()
	other.Columns = map[string]ColumnMetadata{"geom": {Encoding: EncodingWKB}}
	assert.ErrorIs(t, base().CompatibleWith(other), ErrMissingColumn)
}

func TestArrowMetadata(t *testing.T) {
	meta := ColumnMetadata{CRS: []byte(`"OGC:CRS84"`), Edges: EdgesSpherical}.ArrowMetadata()
	assert.Equal(t, EdgesSpherical, meta.Edges)
	assert.Equal(t, `"OGC:CRS84"`, string(meta.CRS))

	assert.Empty(t, ColumnMetadata{Edges: "planar"}.ArrowMetadata().Edges)
}

func TestDecodeWKB(t *testing.T) {
	src := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPolygon},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, nil)
	values, err := geoarrow.ToWKB(src)
	require.NoError(t, err)

	meta := ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"Polygon", "MultiPolygon"}}
	arr, err := DecodeWKB(values, meta, nil)
	require.NoError(t, err)
	assert.Equal(t, geoarrow.KindMultiPolygon, arr.DataType().Kind)
	assert.True(t, arr.IsNull(1))

	// a null slot keeps the multi type, so downcast only the valid value
	down, err := DecodeWKB(values[:1], meta, &geoarrow.IngestOptions{Downcast: true})
	require.NoError(t, err)
	assert.Equal(t, geoarrow.KindPolygon, down.DataType().Kind)
}

func TestDecodeWKBRejectsUndeclaredTypes(t *testing.T) {
	src := buildOrb(t, geoarrow.NativeType{Kind: geoarrow.KindPoint}, orb.Point{1, 2})
	values, err := geoarrow.ToWKB(src)
	require.NoError(t, err)

	_, err = DecodeWKB(values, ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{"LineString"}}, nil)
	assert.ErrorIs(t, err, geoarrow.ErrIncorrectType)
}

func TestDecodeWKBUnknownTypesKeepsDimension(t *testing.T) {
	ingest := func(gs ...geom.T) geoarrow.Array {
		values := make([]geoarrow.Geometry, 0, len(gs))
		for _, g := range gs {
			v, err := geoarrow.FromGeom(g)
			require.NoError(t, err)
			values = append(values, v)
		}
		arr, err := geoarrow.Ingest(values, nil)
		require.NoError(t, err)
		return arr
	}

	point := geom.NewPointFlat(geom.XYZ, []float64{1, 2, 3})
	line := geom.NewLineStringFlat(geom.XYZ, []float64{0, 0, 1, 1, 1, 2})
	tests := []struct {
		name string
		src  geoarrow.Array
		want geoarrow.GeometryKind
	}{
		{"Points", ingest(point, geom.NewPointFlat(geom.XYZ, []float64{4, 5, 6})), geoarrow.KindMixed},
		{"Mixed", ingest(point, line), geoarrow.KindMixed},
		{"Collections", ingest(geom.NewGeometryCollection().MustPush(point, line)), geoarrow.KindGeometryCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := geoarrow.ToWKB(tt.src)
			require.NoError(t, err)

			arr, err := DecodeWKB(values, ColumnMetadata{Encoding: EncodingWKB, GeometryTypes: []string{}}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, arr.DataType().Kind)
			assert.Equal(t, geoarrow.XYZ, arr.DataType().Dim)
			require.Equal(t, tt.src.Len(), arr.Len())
			for i := 0; i < arr.Len(); i++ {
				assert.True(t, geoarrow.GeometryEqual(tt.src.Value(i), arr.Value(i)), "slot %d", i)
			}
		})
	}
}
