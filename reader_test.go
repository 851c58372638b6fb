package geoarrow

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geom"
)

// writeTempFile writes arr and props to a FlatGeobuf file under t.TempDir.
func writeTempFile(t *testing.T, name string, arr Array, props []geojson.Properties, opts *Options) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), name)

	file, err := os.Create(tmpFile)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	err = WriteFlatGeobuf(file, arr, props, opts)
	_ = file.Close()
	if err != nil {
		t.Fatalf("WriteFlatGeobuf failed: %v", err)
	}
	return tmpFile
}

func TestNewReaderFromData_Invalid(t *testing.T) {
	// Invalid data (not a FlatGeobuf file)
	_, err := NewReaderFromData([]byte("not a flatgeobuf"))
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestNewReaderFromData_Empty(t *testing.T) {
	_, err := NewReaderFromData([]byte{})
	if err == nil {
		t.Error("expected error for empty data")
	}
}

func TestRoundTrip_Points(t *testing.T) {
	var geoms []orb.Geometry
	var props []geojson.Properties
	for i := 0; i < 10; i++ {
		geoms = append(geoms, orb.Point{float64(i), float64(i * 2)})
		props = append(props, geojson.Properties{
			"index": i,
			"name":  "point",
		})
	}

	opts := &Options{
		Name:         "test_points",
		IncludeIndex: true,
	}
	tmpFile := writeTempFile(t, "test.fgb", orbArray(t, geoms...), props, opts)

	// Read back
	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	// Check header
	header := reader.Header()
	if header == nil {
		t.Fatal("expected non-nil header")
	}

	if header.Name != "test_points" {
		t.Errorf("expected name 'test_points', got %q", header.Name)
	}

	if header.GeometryType != "Point" {
		t.Errorf("expected geometry type 'Point', got %q", header.GeometryType)
	}

	if !header.HasIndex {
		t.Error("expected HasIndex to be true")
	}

	if header.FeaturesCount != 10 {
		t.Errorf("expected 10 features, got %d", header.FeaturesCount)
	}

	table, err := reader.ReadAll(nil)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if table.Len() != 10 {
		t.Fatalf("expected 10 features, got %d", table.Len())
	}
	if table.Geometry.DataType().Kind != KindPoint {
		t.Errorf("expected a point array, got %s", table.Geometry.DataType())
	}

	// Indexed files are in spatial order, so match on the index property.
	for i := 0; i < table.Len(); i++ {
		idx, ok := table.Properties[i]["index"].(int32)
		if !ok {
			t.Fatalf("feature %d: unexpected index %v", i, table.Properties[i]["index"])
		}
		c := pointCoord(t, table.Geometry.Value(i))
		if c.X != float64(idx) || c.Y != float64(idx*2) {
			t.Errorf("feature %d: expected (%d, %d), got (%v, %v)", i, idx, idx*2, c.X, c.Y)
		}
	}
}

func TestRoundTrip_Polygons(t *testing.T) {
	props := []geojson.Properties{{"name": "square1"}, {"name": "square2"}}
	poly1 := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	poly2 := orb.Polygon{{{20, 20}, {30, 20}, {30, 30}, {20, 30}, {20, 20}}}
	tmpFile := writeTempFile(t, "test_polygons.fgb", orbArray(t, poly1, poly2), props, &Options{})

	// Read back
	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	if header.GeometryType != "Polygon" {
		t.Errorf("expected geometry type 'Polygon', got %q", header.GeometryType)
	}
	if diff := cmp.Diff([4]float64{0, 0, 30, 30}, header.Envelope); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}

	table, err := reader.ReadAll(nil)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	checkValues(t, table.Geometry, orbGeoms(t, poly1, poly2))
	if table.Properties[1]["name"] != "square2" {
		t.Errorf("expected square2, got %v", table.Properties[1]["name"])
	}
}

func TestRoundTrip_NoIndexKeepsOrder(t *testing.T) {
	nan := math.NaN()
	values := []Geometry{
		mustFromGeom(t, geom.NewPointFlat(geom.XYZM, []float64{1, 2, 3, 4})),
		nil,
		mustFromGeom(t, geom.NewPointFlat(geom.XYZM, []float64{5, 6, 7, 8})),
		mustFromGeom(t, geom.NewPointFlat(geom.XYZM, []float64{nan, nan, nan, nan})),
	}
	arr := build(t, NativeType{Kind: KindPoint, Dim: XYZM}, values)
	tmpFile := writeTempFile(t, "zm.fgb", arr, nil, &Options{IncludeIndex: false})

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	if header.HasIndex {
		t.Error("expected no index")
	}
	if header.Dim != XYZM {
		t.Errorf("expected XYZM header, got %s", header.Dim)
	}
	if header.FeaturesCount != 4 {
		t.Errorf("expected 4 features, got %d", header.FeaturesCount)
	}

	table, err := reader.ReadAll(nil)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	got := table.Geometry
	if got.Len() != 4 {
		t.Fatalf("expected 4 slots, got %d", got.Len())
	}
	if got.DataType().Dim != XYZM {
		t.Errorf("expected XYZM array, got %s", got.DataType())
	}
	if !GeometryEqual(got.Value(0), values[0]) || !GeometryEqual(got.Value(2), values[2]) {
		t.Error("points did not keep their order or ordinates")
	}
	if !got.IsNull(1) {
		t.Error("expected slot 1 to read back as null")
	}
	if p, ok := got.Value(3).(Point); got.IsNull(3) || !ok {
		t.Error("expected slot 3 to read back as a point")
	} else if _, ok := p.Coord(); ok {
		t.Error("expected slot 3 to read back as an empty point")
	}
}

func pointCoord(t *testing.T, g Geometry) Coord {
	t.Helper()
	p, ok := g.(Point)
	if !ok {
		t.Fatalf("expected a point, got %T", g)
	}
	c, ok := p.Coord()
	if !ok {
		t.Fatal("expected a non-empty point")
	}
	return c
}

func mustFromGeom(t *testing.T, g geom.T) Geometry {
	t.Helper()
	v, err := FromGeom(g)
	if err != nil {
		t.Fatalf("FromGeom failed: %v", err)
	}
	return v
}

func TestRoundTrip_Search(t *testing.T) {
	// Write points in a grid
	var geoms []orb.Geometry
	var props []geojson.Properties
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			geoms = append(geoms, orb.Point{float64(x), float64(y)})
			props = append(props, geojson.Properties{
				"x": x,
				"y": y,
			})
		}
	}
	tmpFile := writeTempFile(t, "test_search.fgb", orbArray(t, geoms...), props, &Options{IncludeIndex: true})

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	// Search for points in a 3x3 box
	bounds := orb.Bound{Min: orb.Point{2, 2}, Max: orb.Point{4, 4}}
	table, err := reader.Search(bounds, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if table.Len() != 9 {
		t.Errorf("expected 9 results, got %d", table.Len())
	}

	for i := 0; i < table.Len(); i++ {
		c := pointCoord(t, table.Geometry.Value(i))
		if !bounds.Contains(orb.Point{c.X, c.Y}) {
			t.Errorf("result %d (%v, %v) outside search bounds", i, c.X, c.Y)
		}
		if table.Properties[i]["x"] != int32(c.X) {
			t.Errorf("result %d: property x %v does not match geometry", i, table.Properties[i]["x"])
		}
	}
}

func TestSearch_NoIndex(t *testing.T) {
	tmpFile := writeTempFile(t, "no_index.fgb", orbArray(t, orb.Point{1, 1}), nil, &Options{IncludeIndex: false})

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	_, err = reader.Search(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}, nil)
	if err != ErrNoIndex {
		t.Errorf("expected ErrNoIndex, got %v", err)
	}
}

func TestReadAll_Downcast(t *testing.T) {
	tmpFile := writeTempFile(t, "multi.fgb", orbArray(t, mp1, mp1), nil, &Options{IncludeIndex: false})

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	table, err := reader.ReadAll(&IngestOptions{Downcast: true, Width: Wide})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	dt := table.Geometry.DataType()
	if dt.Kind != KindPolygon {
		t.Errorf("expected single-part multipolygons to downcast to Polygon, got %s", dt)
	}
	if dt.Width != Wide {
		t.Errorf("expected the requested offset width, got %s", dt)
	}
}

func TestReader_Close(t *testing.T) {
	tmpFile := writeTempFile(t, "close.fgb", orbArray(t, orb.Point{1, 2}), nil, nil)

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	err = reader.Close()
	if err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestHeader_ColumnInfo(t *testing.T) {
	props := []geojson.Properties{{
		"name":   "test",
		"count":  42,
		"active": true,
	}}
	tmpFile := writeTempFile(t, "columns.fgb", orbArray(t, orb.Point{1, 2}), props, &Options{CRS: WGS84()})

	reader, err := NewReader(tmpFile)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	if len(header.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(header.Columns))
	}

	// Check column types
	colTypes := make(map[string]string)
	for _, col := range header.Columns {
		colTypes[col.Name] = col.Type
	}

	want := map[string]string{"name": "String", "count": "Int", "active": "Bool"}
	if diff := cmp.Diff(want, colTypes); diff != "" {
		t.Errorf("column types mismatch (-want +got):\n%s", diff)
	}

	if header.CRS == nil || header.CRS.Code != 4326 {
		t.Errorf("expected EPSG:4326 CRS, got %+v", header.CRS)
	}
}

func TestNewReader_NonExistent(t *testing.T) {
	_, err := NewReader("/nonexistent/path/file.fgb")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}
