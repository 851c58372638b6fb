package geoarrow

import (
	"fmt"
)

// Geometry is the contract every geometry producer satisfies. Kind selects
// which of the kind-specific interfaces below the value also implements.
type Geometry interface {
	Kind() GeometryKind
	Dim() Dimension
}

// Point is a single coordinate. An empty point returns ok == false.
type Point interface {
	Geometry
	Coord() (c Coord, ok bool)
}

// LineString is a sequence of coordinates. It also describes polygon rings.
type LineString interface {
	Geometry
	NumCoords() int
	CoordAt(i int) Coord
}

// Polygon is an exterior ring plus interior rings. An empty polygon has no
// exterior.
type Polygon interface {
	Geometry
	Exterior() (LineString, bool)
	NumInteriors() int
	Interior(i int) LineString
}

// MultiPoint is a set of points.
type MultiPoint interface {
	Geometry
	NumPoints() int
	PointAt(i int) Point
}

// MultiLineString is a set of line strings.
type MultiLineString interface {
	Geometry
	NumLineStrings() int
	LineStringAt(i int) LineString
}

// MultiPolygon is a set of polygons.
type MultiPolygon interface {
	Geometry
	NumPolygons() int
	PolygonAt(i int) Polygon
}

// GeometryCollection is a heterogeneous set of geometries.
type GeometryCollection interface {
	Geometry
	NumGeometries() int
	GeometryAt(i int) Geometry
}

// Rect is an axis-aligned box.
type Rect interface {
	Geometry
	Min() Coord
	Max() Coord
}

// Helper functions for classifying

func asPoint(g Geometry) (Point, error) {
	p, ok := g.(Point)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a Point", ErrIncorrectType, g, g.Kind())
	}
	return p, nil
}

func asLineString(g Geometry) (LineString, error) {
	ls, ok := g.(LineString)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a LineString", ErrIncorrectType, g, g.Kind())
	}
	return ls, nil
}

func asPolygon(g Geometry) (Polygon, error) {
	p, ok := g.(Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a Polygon", ErrIncorrectType, g, g.Kind())
	}
	return p, nil
}

func asMultiPoint(g Geometry) (MultiPoint, error) {
	mp, ok := g.(MultiPoint)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a MultiPoint", ErrIncorrectType, g, g.Kind())
	}
	return mp, nil
}

func asMultiLineString(g Geometry) (MultiLineString, error) {
	mls, ok := g.(MultiLineString)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a MultiLineString", ErrIncorrectType, g, g.Kind())
	}
	return mls, nil
}

func asMultiPolygon(g Geometry) (MultiPolygon, error) {
	mp, ok := g.(MultiPolygon)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a MultiPolygon", ErrIncorrectType, g, g.Kind())
	}
	return mp, nil
}

func asGeometryCollection(g Geometry) (GeometryCollection, error) {
	gc, ok := g.(GeometryCollection)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a GeometryCollection", ErrIncorrectType, g, g.Kind())
	}
	return gc, nil
}

func asRect(g Geometry) (Rect, error) {
	r, ok := g.(Rect)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports %s but is not a Rect", ErrIncorrectType, g, g.Kind())
	}
	return r, nil
}

func checkDim(g Geometry, dim Dimension) error {
	if g.Dim() != dim {
		return fmt.Errorf("%w: %s geometry pushed into %s builder", ErrDimensionMismatch, g.Dim(), dim)
	}
	return nil
}

func incorrectType(g Geometry, target GeometryKind) error {
	return fmt.Errorf("%w: cannot push %s into %s builder", ErrIncorrectType, g.Kind(), target)
}

// rectRing returns the closed ring tracing a rect counter-clockwise. Z and M
// come from the lower corner.
func rectRing(r Rect) []Coord {
	lo, hi := r.Min(), r.Max()
	corner := func(x, y float64) Coord {
		return Coord{X: x, Y: y, Z: lo.Z, M: lo.M}
	}
	return []Coord{
		corner(lo.X, lo.Y),
		corner(hi.X, lo.Y),
		corner(hi.X, hi.Y),
		corner(lo.X, hi.Y),
		corner(lo.X, lo.Y),
	}
}

// coordRing adapts a slice of coordinates to LineString.
type coordRing struct {
	coords []Coord
	dim    Dimension
}

func (r coordRing) Kind() GeometryKind  { return KindLineString }
func (r coordRing) Dim() Dimension      { return r.dim }
func (r coordRing) NumCoords() int      { return len(r.coords) }
func (r coordRing) CoordAt(i int) Coord { return r.coords[i] }

// rectPolygon adapts a Rect to Polygon.
type rectPolygon struct {
	r Rect
}

func (p rectPolygon) Kind() GeometryKind { return KindPolygon }
func (p rectPolygon) Dim() Dimension     { return p.r.Dim() }
func (p rectPolygon) Exterior() (LineString, bool) {
	return coordRing{coords: rectRing(p.r), dim: p.r.Dim()}, true
}
func (p rectPolygon) NumInteriors() int         { return 0 }
func (p rectPolygon) Interior(i int) LineString { return nil }

// RectAsPolygon returns the polygon equivalent of a rect.
func RectAsPolygon(r Rect) Polygon {
	return rectPolygon{r: r}
}
