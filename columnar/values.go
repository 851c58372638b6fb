package columnar

import (
	geoarrow "github.com/tingold/orb-geoarrow"
)

// Owned geometry values decoded from Arrow storage.

type point struct {
	c   geoarrow.Coord
	dim geoarrow.Dimension
}

func (p point) Kind() geoarrow.GeometryKind { return geoarrow.KindPoint }
func (p point) Dim() geoarrow.Dimension     { return p.dim }

func (p point) Coord() (geoarrow.Coord, bool) {
	if p.c.IsEmpty() {
		return geoarrow.Coord{}, false
	}
	return p.c, true
}

type line struct {
	coords []geoarrow.Coord
	dim    geoarrow.Dimension
}

func (l line) Kind() geoarrow.GeometryKind  { return geoarrow.KindLineString }
func (l line) Dim() geoarrow.Dimension      { return l.dim }
func (l line) NumCoords() int               { return len(l.coords) }
func (l line) CoordAt(i int) geoarrow.Coord { return l.coords[i] }

type polygon struct {
	rings []line
	dim   geoarrow.Dimension
}

func (p polygon) Kind() geoarrow.GeometryKind { return geoarrow.KindPolygon }
func (p polygon) Dim() geoarrow.Dimension     { return p.dim }

func (p polygon) Exterior() (geoarrow.LineString, bool) {
	if len(p.rings) == 0 {
		return nil, false
	}
	return p.rings[0], true
}

func (p polygon) NumInteriors() int { return max(len(p.rings)-1, 0) }

func (p polygon) Interior(i int) geoarrow.LineString { return p.rings[i+1] }

type multiPoint struct {
	points []point
	dim    geoarrow.Dimension
}

func (m multiPoint) Kind() geoarrow.GeometryKind  { return geoarrow.KindMultiPoint }
func (m multiPoint) Dim() geoarrow.Dimension      { return m.dim }
func (m multiPoint) NumPoints() int               { return len(m.points) }
func (m multiPoint) PointAt(i int) geoarrow.Point { return m.points[i] }

type multiLineString struct {
	lines []line
	dim   geoarrow.Dimension
}

func (m multiLineString) Kind() geoarrow.GeometryKind { return geoarrow.KindMultiLineString }
func (m multiLineString) Dim() geoarrow.Dimension     { return m.dim }
func (m multiLineString) NumLineStrings() int         { return len(m.lines) }

func (m multiLineString) LineStringAt(i int) geoarrow.LineString { return m.lines[i] }

type multiPolygon struct {
	polygons []polygon
	dim      geoarrow.Dimension
}

func (m multiPolygon) Kind() geoarrow.GeometryKind { return geoarrow.KindMultiPolygon }
func (m multiPolygon) Dim() geoarrow.Dimension     { return m.dim }
func (m multiPolygon) NumPolygons() int            { return len(m.polygons) }

func (m multiPolygon) PolygonAt(i int) geoarrow.Polygon { return m.polygons[i] }

type box struct {
	min, max geoarrow.Coord
	dim      geoarrow.Dimension
}

func (b box) Kind() geoarrow.GeometryKind { return geoarrow.KindRect }
func (b box) Dim() geoarrow.Dimension     { return b.dim }
func (b box) Min() geoarrow.Coord         { return b.min }
func (b box) Max() geoarrow.Coord         { return b.max }

type collection struct {
	members []geoarrow.Geometry
	dim     geoarrow.Dimension
}

func (c collection) Kind() geoarrow.GeometryKind { return geoarrow.KindGeometryCollection }
func (c collection) Dim() geoarrow.Dimension     { return c.dim }
func (c collection) NumGeometries() int          { return len(c.members) }

func (c collection) GeometryAt(i int) geoarrow.Geometry { return c.members[i] }
