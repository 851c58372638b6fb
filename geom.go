package geoarrow

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// FromGeom adapts a go-geom geometry to the Geometry contract. The values
// read straight from the go-geom flat coordinates. A nil input returns nil.
func FromGeom(g geom.T) (Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch v := g.(type) {
	case *geom.Point:
		if v == nil {
			return nil, nil
		}
		return geomPoint{flat: v.FlatCoords(), layout: v.Layout()}, nil
	case *geom.LineString:
		if v == nil {
			return nil, nil
		}
		return geomLine{flat: v.FlatCoords(), layout: v.Layout()}, nil
	case *geom.LinearRing:
		if v == nil {
			return nil, nil
		}
		return geomLine{flat: v.FlatCoords(), layout: v.Layout()}, nil
	case *geom.Polygon:
		if v == nil {
			return nil, nil
		}
		return geomPolygon{p: v}, nil
	case *geom.MultiPoint:
		if v == nil {
			return nil, nil
		}
		return geomMultiPoint{mp: v}, nil
	case *geom.MultiLineString:
		if v == nil {
			return nil, nil
		}
		return geomMultiLineString{mls: v}, nil
	case *geom.MultiPolygon:
		if v == nil {
			return nil, nil
		}
		return geomMultiPolygon{mp: v}, nil
	case *geom.GeometryCollection:
		if v == nil {
			return nil, nil
		}
		out := geomCollection{dim: layoutDim(v.Layout())}
		for i, member := range v.Geoms() {
			m, err := FromGeom(member)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			out.members = append(out.members, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: go-geom %T", ErrUnsupportedType, g)
}

// ToGeom converts a geometry to go-geom. Rects become polygons. A nil input
// returns nil.
func ToGeom(g Geometry) (geom.T, error) {
	if g == nil {
		return nil, nil
	}
	layout := dimLayout(g.Dim())
	dim := g.Dim()
	switch g.Kind() {
	case KindPoint:
		p, err := asPoint(g)
		if err != nil {
			return nil, err
		}
		c, ok := p.Coord()
		if !ok {
			return geom.NewPointEmpty(layout), nil
		}
		return geom.NewPointFlat(layout, appendFlat(nil, c, dim)), nil
	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return nil, err
		}
		return geom.NewLineStringFlat(layout, appendLine(nil, ls, dim)), nil
	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return nil, err
		}
		flat, ends := appendPolygon(nil, nil, p, dim)
		return geom.NewPolygonFlat(layout, flat, ends), nil
	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return nil, err
		}
		var flat []float64
		ends := make([]int, 0, mp.NumPoints())
		for i := 0; i < mp.NumPoints(); i++ {
			if c, ok := mp.PointAt(i).Coord(); ok {
				flat = appendFlat(flat, c, dim)
			}
			ends = append(ends, len(flat))
		}
		return geom.NewMultiPointFlat(layout, flat, geom.NewMultiPointFlatOptionWithEnds(ends)), nil
	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return nil, err
		}
		var flat []float64
		ends := make([]int, 0, mls.NumLineStrings())
		for i := 0; i < mls.NumLineStrings(); i++ {
			flat = appendLine(flat, mls.LineStringAt(i), dim)
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(layout, flat, ends), nil
	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return nil, err
		}
		var flat []float64
		endss := make([][]int, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			var ends []int
			flat, ends = appendPolygon(flat, nil, mp.PolygonAt(i), dim)
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss), nil
	case KindGeometryCollection:
		gc, err := asGeometryCollection(g)
		if err != nil {
			return nil, err
		}
		out := geom.NewGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			member, err := ToGeom(gc.GeometryAt(i))
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			if member == nil {
				continue
			}
			if err := out.Push(member); err != nil {
				return nil, err
			}
		}
		if err := out.SetLayout(layout); err != nil {
			return nil, err
		}
		return out, nil
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return nil, err
		}
		return ToGeom(RectAsPolygon(r))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, g.Kind())
}

// Helper functions for layouts

func layoutDim(l geom.Layout) Dimension {
	switch l {
	case geom.XYZ:
		return XYZ
	case geom.XYM:
		return XYM
	case geom.XYZM:
		return XYZM
	default:
		return XY
	}
}

func dimLayout(d Dimension) geom.Layout {
	switch d {
	case XYZ:
		return geom.XYZ
	case XYM:
		return geom.XYM
	case XYZM:
		return geom.XYZM
	default:
		return geom.XY
	}
}

// flatCoord reads the coordinate at flat offset i.
func flatCoord(flat []float64, layout geom.Layout, i int) Coord {
	c := Coord{X: flat[i], Y: flat[i+1], Z: math.NaN(), M: math.NaN()}
	if zi := layout.ZIndex(); zi >= 0 {
		c.Z = flat[i+zi]
	}
	if mi := layout.MIndex(); mi >= 0 {
		c.M = flat[i+mi]
	}
	return c
}

func appendFlat(flat []float64, c Coord, dim Dimension) []float64 {
	for k := 0; k < dim.Size(); k++ {
		flat = append(flat, c.ordinate(dim, k))
	}
	return flat
}

func appendLine(flat []float64, ls LineString, dim Dimension) []float64 {
	for i := 0; i < ls.NumCoords(); i++ {
		flat = appendFlat(flat, ls.CoordAt(i), dim)
	}
	return flat
}

func appendPolygon(flat []float64, ends []int, p Polygon, dim Dimension) ([]float64, []int) {
	ext, ok := p.Exterior()
	if !ok {
		return flat, ends
	}
	flat = appendLine(flat, ext, dim)
	ends = append(ends, len(flat))
	for i := 0; i < p.NumInteriors(); i++ {
		flat = appendLine(flat, p.Interior(i), dim)
		ends = append(ends, len(flat))
	}
	return flat, ends
}

// go-geom views

type geomPoint struct {
	flat   []float64
	layout geom.Layout
}

func (p geomPoint) Kind() GeometryKind { return KindPoint }
func (p geomPoint) Dim() Dimension     { return layoutDim(p.layout) }

func (p geomPoint) Coord() (Coord, bool) {
	if len(p.flat) < 2 {
		return NaNCoord(), false
	}
	c := flatCoord(p.flat, p.layout, 0)
	return c, !c.IsEmpty()
}

type geomLine struct {
	flat   []float64
	layout geom.Layout
}

func (l geomLine) Kind() GeometryKind  { return KindLineString }
func (l geomLine) Dim() Dimension      { return layoutDim(l.layout) }
func (l geomLine) CoordAt(i int) Coord { return flatCoord(l.flat, l.layout, i*l.layout.Stride()) }

func (l geomLine) NumCoords() int {
	if l.layout.Stride() == 0 {
		return 0
	}
	return len(l.flat) / l.layout.Stride()
}

type geomPolygon struct {
	p *geom.Polygon
}

func (p geomPolygon) Kind() GeometryKind { return KindPolygon }
func (p geomPolygon) Dim() Dimension     { return layoutDim(p.p.Layout()) }

func (p geomPolygon) Exterior() (LineString, bool) {
	if p.p.NumLinearRings() == 0 {
		return nil, false
	}
	return p.ring(0), true
}

func (p geomPolygon) NumInteriors() int         { return max(p.p.NumLinearRings()-1, 0) }
func (p geomPolygon) Interior(i int) LineString { return p.ring(i + 1) }

func (p geomPolygon) ring(i int) geomLine {
	r := p.p.LinearRing(i)
	return geomLine{flat: r.FlatCoords(), layout: p.p.Layout()}
}

type geomMultiPoint struct {
	mp *geom.MultiPoint
}

func (m geomMultiPoint) Kind() GeometryKind { return KindMultiPoint }
func (m geomMultiPoint) Dim() Dimension     { return layoutDim(m.mp.Layout()) }
func (m geomMultiPoint) NumPoints() int     { return m.mp.NumPoints() }

func (m geomMultiPoint) PointAt(i int) Point {
	p := m.mp.Point(i)
	return geomPoint{flat: p.FlatCoords(), layout: m.mp.Layout()}
}

type geomMultiLineString struct {
	mls *geom.MultiLineString
}

func (m geomMultiLineString) Kind() GeometryKind  { return KindMultiLineString }
func (m geomMultiLineString) Dim() Dimension      { return layoutDim(m.mls.Layout()) }
func (m geomMultiLineString) NumLineStrings() int { return m.mls.NumLineStrings() }

func (m geomMultiLineString) LineStringAt(i int) LineString {
	ls := m.mls.LineString(i)
	return geomLine{flat: ls.FlatCoords(), layout: m.mls.Layout()}
}

type geomMultiPolygon struct {
	mp *geom.MultiPolygon
}

func (m geomMultiPolygon) Kind() GeometryKind      { return KindMultiPolygon }
func (m geomMultiPolygon) Dim() Dimension          { return layoutDim(m.mp.Layout()) }
func (m geomMultiPolygon) NumPolygons() int        { return m.mp.NumPolygons() }
func (m geomMultiPolygon) PolygonAt(i int) Polygon { return geomPolygon{p: m.mp.Polygon(i)} }

type geomCollection struct {
	members []Geometry
	dim     Dimension
}

func (c geomCollection) Kind() GeometryKind        { return KindGeometryCollection }
func (c geomCollection) Dim() Dimension            { return c.dim }
func (c geomCollection) NumGeometries() int        { return len(c.members) }
func (c geomCollection) GeometryAt(i int) Geometry { return c.members[i] }
