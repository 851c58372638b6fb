package geoarrow

import (
	"bytes"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func orbArray(t *testing.T, geoms ...orb.Geometry) Array {
	t.Helper()
	arr, err := Ingest(orbGeoms(t, geoms...), nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	return arr
}

func TestWrite_Points(t *testing.T) {
	arr := orbArray(t, orb.Point{1, 2}, orb.Point{3, 4}, orb.Point{5, 6})

	var buf bytes.Buffer
	err := Write(&buf, arr, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Check magic bytes
	data := buf.Bytes()
	if len(data) < 8 {
		t.Fatal("output too short")
	}

	expectedMagic := []byte{0x66, 0x67, 0x62, 0x03, 0x66, 0x67, 0x62, 0x00}
	for i, b := range expectedMagic {
		if data[i] != b {
			t.Errorf("magic byte %d: expected 0x%02x, got 0x%02x", i, b, data[i])
		}
	}
}

func TestWrite_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		geoms []orb.Geometry
	}{
		{"LineStrings", []orb.Geometry{orb.LineString{{0, 0}, {1, 1}, {2, 2}}, orb.LineString{{5, 5}, {6, 6}}}},
		{"Polygons", []orb.Geometry{square, holed}},
		{"MultiPolygons", []orb.Geometry{mp2, mp1}},
		// Mixed arrays are written with an Unknown header type
		{"Mixed", []orb.Geometry{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}}},
		{"Collections", []orb.Geometry{orb.Collection{orb.Point{1, 2}, orb.Point{3, 4}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, orbArray(t, tt.geoms...), nil); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("expected non-empty output")
			}
		})
	}
}

func TestWrite_Rects(t *testing.T) {
	b := NewRectBuilder(nil)
	r, _ := FromOrb(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 3}})
	if err := b.PushGeometry(r); err != nil {
		t.Fatalf("PushGeometry failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, b.Finish(), &Options{IncludeIndex: false}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReaderFromData failed: %v", err)
	}
	if got := reader.Header().GeometryType; got != "Polygon" {
		t.Errorf("expected rects written as Polygon, got %q", got)
	}
}

func TestWrite_EmptyArray(t *testing.T) {
	err := Write(&bytes.Buffer{}, orbArray(t), nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}

	err = Write(&bytes.Buffer{}, nil, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry for nil array, got %v", err)
	}
}

func TestWrite_AllNullWithIndex(t *testing.T) {
	arr := orbArray(t, nil, nil)
	err := Write(&bytes.Buffer{}, arr, &Options{IncludeIndex: true})
	if !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}

	if err := Write(&bytes.Buffer{}, arr, &Options{IncludeIndex: false}); err != nil {
		t.Errorf("unindexed write of null slots failed: %v", err)
	}
}

func TestWrite_WithOptions(t *testing.T) {
	opts := &Options{
		Name:         "test_layer",
		Description:  "A test layer",
		IncludeIndex: true,
		CRS:          WGS84(),
	}

	var buf bytes.Buffer
	err := Write(&buf, orbArray(t, orb.Point{1, 2}), opts)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFlatGeobuf_WithProperties(t *testing.T) {
	props := []geojson.Properties{
		{"name": "Point A", "value": 42, "active": true},
		{"name": "Point B", "value": 100, "active": false},
	}

	var buf bytes.Buffer
	err := WriteFlatGeobuf(&buf, orbArray(t, orb.Point{1, 2}, orb.Point{3, 4}), props, nil)
	if err != nil {
		t.Fatalf("WriteFlatGeobuf failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFlatGeobuf_PropertyMismatch(t *testing.T) {
	props := []geojson.Properties{{"name": "only one"}}
	err := WriteFlatGeobuf(&bytes.Buffer{}, orbArray(t, orb.Point{1, 2}, orb.Point{3, 4}), props, nil)
	if !errors.Is(err, ErrPropertyMismatch) {
		t.Errorf("expected ErrPropertyMismatch, got %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts == nil {
		t.Fatal("expected non-nil options")
	}

	if !opts.IncludeIndex {
		t.Error("expected IncludeIndex to be true by default")
	}
}

func TestWGS84(t *testing.T) {
	crs := WGS84()

	if crs == nil {
		t.Fatal("expected non-nil CRS")
	}

	if crs.Code != 4326 {
		t.Errorf("expected code 4326, got %d", crs.Code)
	}

	if crs.Name != "WGS 84" {
		t.Errorf("expected name 'WGS 84', got %q", crs.Name)
	}
}
