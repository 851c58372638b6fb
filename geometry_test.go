package geoarrow

import (
	"math"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
)

func TestFGBGeometryType(t *testing.T) {
	tests := []struct {
		name     string
		kind     GeometryKind
		expected flattypes.GeometryType
	}{
		{"Point", KindPoint, flattypes.GeometryTypePoint},
		{"MultiPoint", KindMultiPoint, flattypes.GeometryTypeMultiPoint},
		{"LineString", KindLineString, flattypes.GeometryTypeLineString},
		{"MultiLineString", KindMultiLineString, flattypes.GeometryTypeMultiLineString},
		{"Polygon", KindPolygon, flattypes.GeometryTypePolygon},
		{"MultiPolygon", KindMultiPolygon, flattypes.GeometryTypeMultiPolygon},
		{"GeometryCollection", KindGeometryCollection, flattypes.GeometryTypeGeometryCollection},
		{"Rect", KindRect, flattypes.GeometryTypePolygon},
		{"Mixed", KindMixed, flattypes.GeometryTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fgbGeometryType(tt.kind)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGeometryToFGB(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{"Point", orb.Point{1.5, 2.5}},
		{"LineString", orb.LineString{{0, 0}, {1, 1}, {2, 2}}},
		{"Polygon", holed},
		{"MultiPolygon", mp2},
		{"Collection", orb.Collection{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}}},
		{"Bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromOrb(tt.geom)
			if err != nil {
				t.Fatalf("FromOrb failed: %v", err)
			}
			out, err := geometryToFGB(g, flatbuffers.NewBuilder(256))
			if err != nil {
				t.Fatalf("geometryToFGB failed: %v", err)
			}
			if out == nil {
				t.Fatal("expected non-nil geometry")
			}
		})
	}
}

func TestGeometryToFGB_Nil(t *testing.T) {
	out, err := geometryToFGB(nil, flatbuffers.NewBuilder(256))
	if err != nil {
		t.Fatalf("geometryToFGB failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected an empty geometry for nil input")
	}
}

func TestFGBCoords_Line(t *testing.T) {
	g, _ := FromOrb(orb.LineString{{1, 2}, {3, 4}, {5, 6}})
	acc := &fgbCoords{dim: XY}
	acc.addLine(g.(LineString))

	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5, 6}, acc.xy); diff != "" {
		t.Errorf("xy mismatch (-want +got):\n%s", diff)
	}
	if acc.z != nil || acc.m != nil {
		t.Error("expected no z or m for XY input")
	}
}

func TestFGBCoords_PolygonEnds(t *testing.T) {
	g, _ := FromOrb(holed)
	acc := &fgbCoords{dim: XY}
	acc.addPolygon(g.(Polygon))

	if len(acc.xy) != 20 { // 10 points * 2 coordinates
		t.Errorf("expected 20 coordinates, got %d", len(acc.xy))
	}
	if diff := cmp.Diff([]uint32{5, 10}, acc.ends); diff != "" {
		t.Errorf("ends mismatch (-want +got):\n%s", diff)
	}
}

func TestFGBCoords_ZM(t *testing.T) {
	g, err := FromGeom(geom.NewLineStringFlat(geom.XYZM, []float64{1, 2, 3, 4, 5, 6, 7, 8}))
	if err != nil {
		t.Fatalf("FromGeom failed: %v", err)
	}
	acc := &fgbCoords{dim: XYZM}
	acc.addLine(g.(LineString))

	if diff := cmp.Diff([]float64{1, 2, 5, 6}, acc.xy); diff != "" {
		t.Errorf("xy mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3, 7}, acc.z); diff != "" {
		t.Errorf("z mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 8}, acc.m); diff != "" {
		t.Errorf("m mismatch (-want +got):\n%s", diff)
	}
}

func TestRectAsPolygon(t *testing.T) {
	g, _ := FromOrb(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})
	poly := RectAsPolygon(g.(Rect))

	ring, ok := poly.Exterior()
	if !ok {
		t.Fatal("expected an exterior ring")
	}
	if ring.NumCoords() != 5 {
		t.Fatalf("expected 5 points in ring, got %d", ring.NumCoords())
	}
	if poly.NumInteriors() != 0 {
		t.Errorf("expected no interiors, got %d", poly.NumInteriors())
	}

	// Check corners
	expectedCorners := [][2]float64{
		{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
	}
	for i, expected := range expectedCorners {
		c := ring.CoordAt(i)
		if c.X != expected[0] || c.Y != expected[1] {
			t.Errorf("corner %d: expected %v, got (%v, %v)", i, expected, c.X, c.Y)
		}
	}
}

func TestGeometryBounds(t *testing.T) {
	tests := []struct {
		name     string
		geom     orb.Geometry
		expected []float64
	}{
		{
			"Point",
			orb.Point{5, 10},
			[]float64{5, 10, 5, 10},
		},
		{
			"LineString",
			orb.LineString{{0, 0}, {10, 10}},
			[]float64{0, 0, 10, 10},
		},
		{
			"Polygon",
			orb.Polygon{{{0, 0}, {20, 0}, {20, 30}, {0, 30}, {0, 0}}},
			[]float64{0, 0, 20, 30},
		},
		{
			"Collection",
			orb.Collection{orb.Point{5, 5}, orb.Point{15, 20}, orb.LineString{{0, 0}, {10, 10}}},
			[]float64{0, 0, 15, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromOrb(tt.geom)
			if err != nil {
				t.Fatalf("FromOrb failed: %v", err)
			}
			if diff := cmp.Diff(tt.expected, GeometryBounds(g).Envelope()); diff != "" {
				t.Errorf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTotalBounds(t *testing.T) {
	arr := build(t, NativeType{Kind: KindPoint}, orbGeoms(t, orb.Point{5, 5}, nil, orb.Point{-1, 20}))
	b := TotalBounds(arr)
	if diff := cmp.Diff([]float64{-1, 5, 5, 20}, b.Envelope()); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
	if b.HasZ() {
		t.Error("expected no z range for XY points")
	}
	if b.Orb() != (orb.Bound{Min: orb.Point{-1, 5}, Max: orb.Point{5, 20}}) {
		t.Errorf("unexpected orb bound %v", b.Orb())
	}
}

func TestTotalBounds_Empty(t *testing.T) {
	arr := build(t, NativeType{Kind: KindPoint}, orbGeoms(t, nil, orb.Point{math.NaN(), math.NaN()}))
	if !TotalBounds(arr).IsEmpty() {
		t.Error("expected empty bounds when every slot is null or empty")
	}
	if TotalBounds(arr).Envelope() != nil {
		t.Error("expected nil envelope for empty bounds")
	}
}
