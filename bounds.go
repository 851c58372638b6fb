package geoarrow

import (
	"math"

	"github.com/paulmach/orb"
)

// Bounds is an XY bounding box with an optional Z range. A box that has seen
// no coordinates is empty.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
	MinZ, MaxZ             float64
}

// NewBounds returns an empty box.
func NewBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{MinX: inf, MinY: inf, MaxX: -inf, MaxY: -inf, MinZ: inf, MaxZ: -inf}
}

// IsEmpty reports whether no coordinate has been added.
func (b Bounds) IsEmpty() bool { return b.MinX > b.MaxX }

// HasZ reports whether any added coordinate carried a Z value.
func (b Bounds) HasZ() bool { return b.MinZ <= b.MaxZ }

// Envelope returns [minX, minY, maxX, maxY], or nil for an empty box.
func (b Bounds) Envelope() []float64 {
	if b.IsEmpty() {
		return nil
	}
	return []float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

// Orb returns the XY extent as an orb.Bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// AddCoord grows the box to include c. Empty coordinates are skipped.
func (b *Bounds) AddCoord(c Coord) {
	if c.IsEmpty() {
		return
	}
	b.MinX = math.Min(b.MinX, c.X)
	b.MinY = math.Min(b.MinY, c.Y)
	b.MaxX = math.Max(b.MaxX, c.X)
	b.MaxY = math.Max(b.MaxY, c.Y)
	if !math.IsNaN(c.Z) {
		b.MinZ = math.Min(b.MinZ, c.Z)
		b.MaxZ = math.Max(b.MaxZ, c.Z)
	}
}

// AddGeometry grows the box to include every coordinate of g.
func (b *Bounds) AddGeometry(g Geometry) {
	if g == nil {
		return
	}
	switch g.Kind() {
	case KindPoint:
		if c, ok := g.(Point).Coord(); ok {
			b.AddCoord(c)
		}
	case KindLineString:
		b.addLine(g.(LineString))
	case KindPolygon:
		b.addPolygon(g.(Polygon))
	case KindMultiPoint:
		mp := g.(MultiPoint)
		for i := 0; i < mp.NumPoints(); i++ {
			b.AddGeometry(mp.PointAt(i))
		}
	case KindMultiLineString:
		mls := g.(MultiLineString)
		for i := 0; i < mls.NumLineStrings(); i++ {
			b.addLine(mls.LineStringAt(i))
		}
	case KindMultiPolygon:
		mp := g.(MultiPolygon)
		for i := 0; i < mp.NumPolygons(); i++ {
			b.addPolygon(mp.PolygonAt(i))
		}
	case KindGeometryCollection:
		gc := g.(GeometryCollection)
		for i := 0; i < gc.NumGeometries(); i++ {
			b.AddGeometry(gc.GeometryAt(i))
		}
	case KindRect:
		r := g.(Rect)
		b.AddCoord(r.Min())
		b.AddCoord(r.Max())
	}
}

func (b *Bounds) addLine(ls LineString) {
	for i := 0; i < ls.NumCoords(); i++ {
		b.AddCoord(ls.CoordAt(i))
	}
}

func (b *Bounds) addPolygon(p Polygon) {
	// the exterior contains the interiors
	if ext, ok := p.Exterior(); ok {
		b.addLine(ext)
	}
}

// GeometryBounds returns the box of a single geometry.
func GeometryBounds(g Geometry) Bounds {
	b := NewBounds()
	b.AddGeometry(g)
	return b
}

// TotalBounds returns the box covering every non-null slot of arr.
func TotalBounds(arr Array) Bounds {
	b := NewBounds()
	for i := 0; i < arr.Len(); i++ {
		if !arr.IsNull(i) {
			b.AddGeometry(arr.Value(i))
		}
	}
	return b
}
