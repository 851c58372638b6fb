package geoarrow

// Value views returned by Array.Value. They read straight from the array's
// buffers and never copy.

type pointValue struct {
	coords CoordBuffer
	i      int
}

func (p pointValue) Kind() GeometryKind { return KindPoint }
func (p pointValue) Dim() Dimension     { return p.coords.Dim() }

func (p pointValue) Coord() (Coord, bool) {
	c := p.coords.At(p.i)
	return c, !c.IsEmpty()
}

type lineStringValue struct {
	coords     CoordBuffer
	start, end int
}

func (l lineStringValue) Kind() GeometryKind  { return KindLineString }
func (l lineStringValue) Dim() Dimension      { return l.coords.Dim() }
func (l lineStringValue) NumCoords() int      { return l.end - l.start }
func (l lineStringValue) CoordAt(i int) Coord { return l.coords.At(l.start + i) }

type polygonValue struct {
	coords      CoordBuffer
	ringOffsets OffsetBuffer
	start, end  int // ring range
}

func (p polygonValue) Kind() GeometryKind { return KindPolygon }
func (p polygonValue) Dim() Dimension     { return p.coords.Dim() }

func (p polygonValue) ring(r int) lineStringValue {
	start, end := p.ringOffsets.Range(r)
	return lineStringValue{coords: p.coords, start: start, end: end}
}

func (p polygonValue) Exterior() (LineString, bool) {
	if p.start == p.end {
		return nil, false
	}
	return p.ring(p.start), true
}

func (p polygonValue) NumInteriors() int {
	return max(p.end-p.start-1, 0)
}

func (p polygonValue) Interior(i int) LineString {
	return p.ring(p.start + 1 + i)
}

type multiPointValue struct {
	coords     CoordBuffer
	start, end int
}

func (m multiPointValue) Kind() GeometryKind { return KindMultiPoint }
func (m multiPointValue) Dim() Dimension     { return m.coords.Dim() }
func (m multiPointValue) NumPoints() int     { return m.end - m.start }

func (m multiPointValue) PointAt(i int) Point {
	return pointValue{coords: m.coords, i: m.start + i}
}

type multiLineStringValue struct {
	coords      CoordBuffer
	lineOffsets OffsetBuffer
	start, end  int
}

func (m multiLineStringValue) Kind() GeometryKind { return KindMultiLineString }
func (m multiLineStringValue) Dim() Dimension     { return m.coords.Dim() }
func (m multiLineStringValue) NumLineStrings() int {
	return m.end - m.start
}

func (m multiLineStringValue) LineStringAt(i int) LineString {
	start, end := m.lineOffsets.Range(m.start + i)
	return lineStringValue{coords: m.coords, start: start, end: end}
}

type multiPolygonValue struct {
	coords         CoordBuffer
	polygonOffsets OffsetBuffer
	ringOffsets    OffsetBuffer
	start, end     int
}

func (m multiPolygonValue) Kind() GeometryKind { return KindMultiPolygon }
func (m multiPolygonValue) Dim() Dimension     { return m.coords.Dim() }
func (m multiPolygonValue) NumPolygons() int   { return m.end - m.start }

func (m multiPolygonValue) PolygonAt(i int) Polygon {
	start, end := m.polygonOffsets.Range(m.start + i)
	return polygonValue{coords: m.coords, ringOffsets: m.ringOffsets, start: start, end: end}
}

type rectValue struct {
	lower, upper CoordBuffer
	i            int
}

func (r rectValue) Kind() GeometryKind { return KindRect }
func (r rectValue) Dim() Dimension     { return r.lower.Dim() }
func (r rectValue) Min() Coord         { return r.lower.At(r.i) }
func (r rectValue) Max() Coord         { return r.upper.At(r.i) }

type collectionValue struct {
	mixed      *MixedArray
	start, end int
}

func (c collectionValue) Kind() GeometryKind        { return KindGeometryCollection }
func (c collectionValue) Dim() Dimension            { return c.mixed.DataType().Dim }
func (c collectionValue) NumGeometries() int        { return c.end - c.start }
func (c collectionValue) GeometryAt(i int) Geometry { return c.mixed.Value(c.start + i) }
