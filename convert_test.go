package geoarrow

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
)

func TestArrayToOrb(t *testing.T) {
	tests := []struct {
		name  string
		geoms []orb.Geometry
	}{
		{"Points", []orb.Geometry{orb.Point{1, 2}, nil, orb.Point{3, 4}}},
		{"LineStrings", []orb.Geometry{orb.LineString{{0, 0}, {1, 1}}, orb.LineString{{2, 2}, {3, 3}, {4, 4}}}},
		{"Polygons", []orb.Geometry{square, holed}},
		{"MultiPolygons", []orb.Geometry{mp2, nil, mp1}},
		{"MultiLineStrings", []orb.Geometry{orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}}}},
		{"Mixed", []orb.Geometry{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}, square}},
		{"Collections", []orb.Geometry{orb.Collection{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArrayToOrb(orbArray(t, tt.geoms...))
			if err != nil {
				t.Fatalf("ArrayToOrb failed: %v", err)
			}
			if diff := cmp.Diff(tt.geoms, got); diff != "" {
				t.Errorf("geometries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToOrb_Special(t *testing.T) {
	empty, err := ToOrb(mustFromGeom(t, geom.NewPointEmpty(geom.XY)))
	if err != nil {
		t.Fatalf("ToOrb failed: %v", err)
	}
	p, ok := empty.(orb.Point)
	if !ok || !math.IsNaN(p[0]) || !math.IsNaN(p[1]) {
		t.Errorf("expected a NaN point for an empty point, got %v", empty)
	}

	bound := orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{2, 3}}
	r, _ := FromOrb(bound)
	got, err := ToOrb(r)
	if err != nil {
		t.Fatalf("ToOrb failed: %v", err)
	}
	if got != bound {
		t.Errorf("expected %v, got %v", bound, got)
	}

	if got, _ := ToOrb(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}

func TestFromOrb_Ring(t *testing.T) {
	g, err := FromOrb(orb.Ring(square[0]))
	if err != nil {
		t.Fatalf("FromOrb failed: %v", err)
	}
	if g.Kind() != KindPolygon {
		t.Errorf("expected a ring to read as a polygon, got %s", g.Kind())
	}
}

func TestGeomRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom geom.T
	}{
		{"PointXYZ", geom.NewPointFlat(geom.XYZ, []float64{1, 2, 3})},
		{"LineStringXYM", geom.NewLineStringFlat(geom.XYM, []float64{0, 0, 1, 1, 1, 2})},
		{"PolygonXYZM", geom.NewPolygonFlat(geom.XYZM, []float64{
			0, 0, 1, 9, 4, 0, 1, 9, 4, 4, 1, 9, 0, 0, 1, 9,
		}, []int{16})},
		{"MultiPointXY", geom.NewMultiPointFlat(geom.XY, []float64{1, 2, 3, 4})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustFromGeom(t, tt.geom)
			if g.Dim() != layoutDim(tt.geom.Layout()) {
				t.Errorf("expected dimension %s, got %s", layoutDim(tt.geom.Layout()), g.Dim())
			}
			back, err := ToGeom(g)
			if err != nil {
				t.Fatalf("ToGeom failed: %v", err)
			}
			if back.Layout() != tt.geom.Layout() {
				t.Errorf("expected layout %v, got %v", tt.geom.Layout(), back.Layout())
			}
			if diff := cmp.Diff(tt.geom.FlatCoords(), back.FlatCoords()); diff != "" {
				t.Errorf("coordinates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToGeom_Rect(t *testing.T) {
	r, _ := FromOrb(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	g, err := ToGeom(r)
	if err != nil {
		t.Fatalf("ToGeom failed: %v", err)
	}
	if _, ok := g.(*geom.Polygon); !ok {
		t.Errorf("expected a polygon, got %T", g)
	}
}

func TestWKBRoundTrip(t *testing.T) {
	arr := orbArray(t, square, nil, holed)

	wkb, err := ToWKB(arr)
	if err != nil {
		t.Fatalf("ToWKB failed: %v", err)
	}
	if wkb[1] != nil {
		t.Error("expected nil WKB for a null slot")
	}

	back, err := FromWKB(wkb, nil)
	if err != nil {
		t.Fatalf("FromWKB failed: %v", err)
	}
	if back.DataType().Kind != KindPolygon {
		t.Errorf("expected a polygon array, got %s", back.DataType())
	}
	checkValues(t, back, Values(arr))
	if !back.IsNull(1) {
		t.Error("expected slot 1 to stay null")
	}
}

func TestFromWKB_Invalid(t *testing.T) {
	_, err := FromWKB([][]byte{{0x01, 0x02}}, nil)
	if err == nil {
		t.Error("expected error for truncated WKB")
	}
}

func TestFromWKT(t *testing.T) {
	arr, err := FromWKT([]string{"POINT Z (1 2 3)", "", "POINT Z (4 5 6)"}, &IngestOptions{Layout: Separated})
	if err != nil {
		t.Fatalf("FromWKT failed: %v", err)
	}

	want := NativeType{Kind: KindPoint, Layout: Separated, Dim: XYZ, Width: Narrow}
	if arr.DataType() != want {
		t.Errorf("expected %s, got %s", want, arr.DataType())
	}
	if !arr.IsNull(1) {
		t.Error("expected slot 1 to be null")
	}

	text, err := ToWKT(arr)
	if err != nil {
		t.Fatalf("ToWKT failed: %v", err)
	}
	if text[1] != "" {
		t.Errorf("expected empty text for a null slot, got %q", text[1])
	}
	again, err := FromWKT(text, nil)
	if err != nil {
		t.Fatalf("FromWKT failed: %v", err)
	}
	checkValues(t, again, Values(arr))
}

func TestFromWKT_DimensionMismatch(t *testing.T) {
	_, err := FromWKT([]string{"POINT (1 2)", "POINT Z (1 2 3)"}, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFromGeoJSON(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"name": "a"}},
			{"type": "Feature", "geometry": null, "properties": {"name": "b"}},
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": null}
		]
	}`)

	arr, props, err := FromGeoJSON(data, nil)
	if err != nil {
		t.Fatalf("FromGeoJSON failed: %v", err)
	}
	if arr.DataType().Kind != KindPoint {
		t.Errorf("expected a point array, got %s", arr.DataType())
	}
	if arr.Len() != 3 || !arr.IsNull(1) {
		t.Errorf("expected 3 slots with slot 1 null, got %d slots", arr.Len())
	}
	if len(props) != 3 || props[1]["name"] != "b" {
		t.Errorf("unexpected properties %v", props)
	}
}

func TestFromGeoJSON_Invalid(t *testing.T) {
	if _, _, err := FromGeoJSON([]byte(`{"type": `), nil); err == nil {
		t.Error("expected error for malformed GeoJSON")
	}
}
