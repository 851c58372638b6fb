package geoarrow

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
	"github.com/twpayne/go-geom/encoding/wkt"
)

var nanEmptyPoints = wkbcommon.WKBOptionEmptyPointHandling(wkbcommon.EmptyPointHandlingNaN)

// FromWKB decodes well-known binary values and ingests them into one array.
// A nil or empty value becomes a null slot.
func FromWKB(values [][]byte, opts *IngestOptions) (Array, error) {
	geoms := make([]Geometry, len(values))
	for i, v := range values {
		if len(v) == 0 {
			continue
		}
		g, err := wkb.Unmarshal(v, nanEmptyPoints)
		if err != nil {
			return nil, fmt.Errorf("wkb %d: %w", i, err)
		}
		if geoms[i], err = FromGeom(g); err != nil {
			return nil, fmt.Errorf("wkb %d: %w", i, err)
		}
	}
	return Ingest(geoms, opts)
}

// FromWKT parses well-known text values and ingests them into one array. An
// empty string becomes a null slot.
func FromWKT(values []string, opts *IngestOptions) (Array, error) {
	geoms := make([]Geometry, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		g, err := wkt.Unmarshal(v)
		if err != nil {
			return nil, fmt.Errorf("wkt %d: %w", i, err)
		}
		if geoms[i], err = FromGeom(g); err != nil {
			return nil, fmt.Errorf("wkt %d: %w", i, err)
		}
	}
	return Ingest(geoms, opts)
}

// ToWKB encodes every slot as little-endian well-known binary, with nil for
// nulls.
func ToWKB(arr Array) ([][]byte, error) {
	out := make([][]byte, arr.Len())
	for i := range out {
		g, err := toGeomSlot(arr, i)
		if err != nil {
			return nil, err
		}
		if g == nil {
			continue
		}
		if out[i], err = wkb.Marshal(g, wkb.NDR, nanEmptyPoints); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return out, nil
}

// ToWKT encodes every slot as well-known text, with "" for nulls.
func ToWKT(arr Array) ([]string, error) {
	out := make([]string, arr.Len())
	for i := range out {
		g, err := toGeomSlot(arr, i)
		if err != nil {
			return nil, err
		}
		if g == nil {
			continue
		}
		if out[i], err = wkt.Marshal(g); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return out, nil
}

func toGeomSlot(arr Array, i int) (geom.T, error) {
	g, err := ToGeom(arr.Value(i))
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", i, err)
	}
	return g, nil
}

// FromGeoJSON decodes a GeoJSON FeatureCollection and ingests its geometries.
// The feature properties are returned alongside, one per slot.
func FromGeoJSON(data []byte, opts *IngestOptions) (Array, []geojson.Properties, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("geojson: %w", err)
	}
	geoms := make([]Geometry, len(fc.Features))
	props := make([]geojson.Properties, len(fc.Features))
	for i, f := range fc.Features {
		if geoms[i], err = FromOrb(f.Geometry); err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}
		props[i] = f.Properties
	}
	arr, err := Ingest(geoms, opts)
	if err != nil {
		return nil, nil, err
	}
	return arr, props, nil
}
