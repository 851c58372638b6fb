package geoarrow

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// FromOrb adapts an orb geometry to the Geometry contract. orb values are
// always XY. An orb.Ring is read as a single-ring polygon and an orb.Bound as
// a rect. A nil input returns nil.
func FromOrb(g orb.Geometry) (Geometry, error) {
	switch v := g.(type) {
	case nil:
		return nil, nil
	case orb.Point:
		return orbPoint(v), nil
	case orb.MultiPoint:
		return orbMultiPoint(v), nil
	case orb.LineString:
		return orbLine(v), nil
	case orb.MultiLineString:
		return orbMultiLineString(v), nil
	case orb.Ring:
		return orbPolygon{v}, nil
	case orb.Polygon:
		return orbPolygon(v), nil
	case orb.MultiPolygon:
		return orbMultiPolygon(v), nil
	case orb.Bound:
		return orbBound{b: v}, nil
	case orb.Collection:
		out := make(orbCollection, len(v))
		for i, member := range v {
			m, err := FromOrb(member)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: orb %T", ErrUnsupportedType, g)
}

// FromOrbSlice adapts every element of geoms.
func FromOrbSlice(geoms []orb.Geometry) ([]Geometry, error) {
	out := make([]Geometry, len(geoms))
	for i, g := range geoms {
		v, err := FromOrb(g)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ToOrb converts a geometry to orb, dropping Z and M. Empty points become a
// NaN point and rects become an orb.Bound. A nil input returns nil.
func ToOrb(g Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch g.Kind() {
	case KindPoint:
		p, err := asPoint(g)
		if err != nil {
			return nil, err
		}
		c, ok := p.Coord()
		if !ok {
			return orb.Point{math.NaN(), math.NaN()}, nil
		}
		return orb.Point{c.X, c.Y}, nil
	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return nil, err
		}
		return lineToOrb(ls), nil
	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return nil, err
		}
		return polygonToOrb(p), nil
	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return nil, err
		}
		out := make(orb.MultiPoint, 0, mp.NumPoints())
		for i := 0; i < mp.NumPoints(); i++ {
			if c, ok := mp.PointAt(i).Coord(); ok {
				out = append(out, orb.Point{c.X, c.Y})
			}
		}
		return out, nil
	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return nil, err
		}
		out := make(orb.MultiLineString, mls.NumLineStrings())
		for i := range out {
			out[i] = lineToOrb(mls.LineStringAt(i))
		}
		return out, nil
	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return nil, err
		}
		out := make(orb.MultiPolygon, mp.NumPolygons())
		for i := range out {
			out[i] = polygonToOrb(mp.PolygonAt(i))
		}
		return out, nil
	case KindGeometryCollection:
		gc, err := asGeometryCollection(g)
		if err != nil {
			return nil, err
		}
		out := make(orb.Collection, 0, gc.NumGeometries())
		for i := 0; i < gc.NumGeometries(); i++ {
			member, err := ToOrb(gc.GeometryAt(i))
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			if member != nil {
				out = append(out, member)
			}
		}
		return out, nil
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return nil, err
		}
		lo, hi := r.Min(), r.Max()
		return orb.Bound{Min: orb.Point{lo.X, lo.Y}, Max: orb.Point{hi.X, hi.Y}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, g.Kind())
}

// ArrayToOrb converts every slot of arr, with nil for nulls.
func ArrayToOrb(arr Array) ([]orb.Geometry, error) {
	out := make([]orb.Geometry, arr.Len())
	for i := range out {
		g, err := ToOrb(arr.Value(i))
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		out[i] = g
	}
	return out, nil
}

// Helper functions for orb

func orbCoord(p orb.Point) Coord {
	return Coord{X: p[0], Y: p[1], Z: math.NaN(), M: math.NaN()}
}

func lineToOrb(ls LineString) orb.LineString {
	out := make(orb.LineString, ls.NumCoords())
	for i := range out {
		c := ls.CoordAt(i)
		out[i] = orb.Point{c.X, c.Y}
	}
	return out
}

func polygonToOrb(p Polygon) orb.Polygon {
	ext, ok := p.Exterior()
	if !ok {
		return orb.Polygon{}
	}
	out := make(orb.Polygon, 0, p.NumInteriors()+1)
	out = append(out, orb.Ring(lineToOrb(ext)))
	for i := 0; i < p.NumInteriors(); i++ {
		out = append(out, orb.Ring(lineToOrb(p.Interior(i))))
	}
	return out
}

// orb views

type orbPoint orb.Point

func (p orbPoint) Kind() GeometryKind { return KindPoint }
func (p orbPoint) Dim() Dimension     { return XY }

func (p orbPoint) Coord() (Coord, bool) {
	c := orbCoord(orb.Point(p))
	return c, !c.IsEmpty()
}

type orbLine []orb.Point

func (l orbLine) Kind() GeometryKind  { return KindLineString }
func (l orbLine) Dim() Dimension      { return XY }
func (l orbLine) NumCoords() int      { return len(l) }
func (l orbLine) CoordAt(i int) Coord { return orbCoord(l[i]) }

type orbPolygon []orb.Ring

func (p orbPolygon) Kind() GeometryKind { return KindPolygon }
func (p orbPolygon) Dim() Dimension     { return XY }

func (p orbPolygon) Exterior() (LineString, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return orbLine(p[0]), true
}

func (p orbPolygon) NumInteriors() int         { return max(len(p)-1, 0) }
func (p orbPolygon) Interior(i int) LineString { return orbLine(p[i+1]) }

type orbMultiPoint []orb.Point

func (m orbMultiPoint) Kind() GeometryKind  { return KindMultiPoint }
func (m orbMultiPoint) Dim() Dimension      { return XY }
func (m orbMultiPoint) NumPoints() int      { return len(m) }
func (m orbMultiPoint) PointAt(i int) Point { return orbPoint(m[i]) }

type orbMultiLineString []orb.LineString

func (m orbMultiLineString) Kind() GeometryKind            { return KindMultiLineString }
func (m orbMultiLineString) Dim() Dimension                { return XY }
func (m orbMultiLineString) NumLineStrings() int           { return len(m) }
func (m orbMultiLineString) LineStringAt(i int) LineString { return orbLine(m[i]) }

type orbMultiPolygon []orb.Polygon

func (m orbMultiPolygon) Kind() GeometryKind      { return KindMultiPolygon }
func (m orbMultiPolygon) Dim() Dimension          { return XY }
func (m orbMultiPolygon) NumPolygons() int        { return len(m) }
func (m orbMultiPolygon) PolygonAt(i int) Polygon { return orbPolygon(m[i]) }

type orbBound struct {
	b orb.Bound
}

func (b orbBound) Kind() GeometryKind { return KindRect }
func (b orbBound) Dim() Dimension     { return XY }
func (b orbBound) Min() Coord         { return orbCoord(b.b.Min) }
func (b orbBound) Max() Coord         { return orbCoord(b.b.Max) }

type orbCollection []Geometry

func (c orbCollection) Kind() GeometryKind        { return KindGeometryCollection }
func (c orbCollection) Dim() Dimension            { return XY }
func (c orbCollection) NumGeometries() int        { return len(c) }
func (c orbCollection) GeometryAt(i int) Geometry { return c[i] }
