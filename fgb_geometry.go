package geoarrow

import (
	"fmt"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
)

// fgbGeometryType converts a geometry kind to its FlatGeobuf GeometryType.
func fgbGeometryType(kind GeometryKind) flattypes.GeometryType {
	switch kind {
	case KindPoint:
		return flattypes.GeometryTypePoint
	case KindMultiPoint:
		return flattypes.GeometryTypeMultiPoint
	case KindLineString:
		return flattypes.GeometryTypeLineString
	case KindMultiLineString:
		return flattypes.GeometryTypeMultiLineString
	case KindPolygon, KindRect:
		return flattypes.GeometryTypePolygon
	case KindMultiPolygon:
		return flattypes.GeometryTypeMultiPolygon
	case KindGeometryCollection:
		return flattypes.GeometryTypeGeometryCollection
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// fgbCoords accumulates the parallel xy, z and m vectors of one FlatGeobuf
// geometry.
type fgbCoords struct {
	dim  Dimension
	xy   []float64
	z    []float64
	m    []float64
	ends []uint32
}

func (a *fgbCoords) add(c Coord) {
	a.xy = append(a.xy, c.X, c.Y)
	if a.dim.HasZ() {
		a.z = append(a.z, c.Z)
	}
	if a.dim.HasM() {
		a.m = append(a.m, c.M)
	}
}

func (a *fgbCoords) addLine(ls LineString) {
	for i := 0; i < ls.NumCoords(); i++ {
		a.add(ls.CoordAt(i))
	}
}

// end closes a part; ends count coordinates, not ordinates.
func (a *fgbCoords) end() {
	a.ends = append(a.ends, uint32(len(a.xy)/2))
}

func (a *fgbCoords) addPolygon(p Polygon) {
	ext, ok := p.Exterior()
	if !ok {
		return
	}
	a.addLine(ext)
	a.end()
	for i := 0; i < p.NumInteriors(); i++ {
		a.addLine(p.Interior(i))
		a.end()
	}
}

func (a *fgbCoords) apply(g *writer.Geometry, withEnds bool) {
	g.SetXY(a.xy)
	if a.dim.HasZ() {
		g.SetZ(a.z)
	}
	if a.dim.HasM() {
		g.SetM(a.m)
	}
	if withEnds && len(a.ends) > 1 {
		g.SetEnds(a.ends)
	}
}

// geometryToFGB converts a geometry to a FlatGeobuf writer.Geometry. A nil
// geometry becomes an empty geometry of unknown type, which reads back as a
// null slot.
func geometryToFGB(g Geometry, builder *flatbuffers.Builder) (*writer.Geometry, error) {
	out := writer.NewGeometry(builder)
	if g == nil {
		out.SetType(flattypes.GeometryTypeUnknown)
		return out, nil
	}
	out.SetType(fgbGeometryType(g.Kind()))
	acc := &fgbCoords{dim: g.Dim()}

	switch g.Kind() {
	case KindPoint:
		p, err := asPoint(g)
		if err != nil {
			return nil, err
		}
		c, ok := p.Coord()
		if !ok {
			c = NaNCoord()
		}
		acc.add(c)
		acc.apply(out, false)

	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return nil, err
		}
		for i := 0; i < mp.NumPoints(); i++ {
			c, ok := mp.PointAt(i).Coord()
			if !ok {
				c = NaNCoord()
			}
			acc.add(c)
		}
		acc.apply(out, false)

	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return nil, err
		}
		acc.addLine(ls)
		acc.apply(out, false)

	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return nil, err
		}
		for i := 0; i < mls.NumLineStrings(); i++ {
			acc.addLine(mls.LineStringAt(i))
			acc.end()
		}
		acc.apply(out, true)

	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return nil, err
		}
		acc.addPolygon(p)
		acc.apply(out, true)

	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return nil, err
		}
		acc.addPolygon(RectAsPolygon(r))
		acc.apply(out, true)

	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return nil, err
		}
		parts := make([]writer.Geometry, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			part, err := geometryToFGB(mp.PolygonAt(i), builder)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			parts = append(parts, *part)
		}
		out.SetParts(parts)

	case KindGeometryCollection:
		gc, err := asGeometryCollection(g)
		if err != nil {
			return nil, err
		}
		parts := make([]writer.Geometry, 0, gc.NumGeometries())
		for i := 0; i < gc.NumGeometries(); i++ {
			member := gc.GeometryAt(i)
			if member == nil {
				continue
			}
			part, err := geometryToFGB(member, builder)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			parts = append(parts, *part)
		}
		out.SetParts(parts)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, g.Kind())
	}

	return out, nil
}

// geometryFromFGB converts a FlatGeobuf geometry to a Geometry. An empty
// geometry of unknown type returns nil.
func geometryFromFGB(fgbGeom *flattypes.Geometry, dim Dimension) (Geometry, error) {
	if fgbGeom == nil {
		return nil, nil
	}

	switch fgbGeom.Type() {
	case flattypes.GeometryTypePoint:
		if fgbGeom.XyLength() < 2 {
			return fgbPoint{c: NaNCoord(), dim: dim}, nil
		}
		return fgbPoint{c: fgbCoordAt(fgbGeom, 0, dim), dim: dim}, nil

	case flattypes.GeometryTypeMultiPoint:
		n := fgbGeom.XyLength() / 2
		mp := fgbMultiPoint{points: make([]fgbPoint, n), dim: dim}
		for i := range mp.points {
			mp.points[i] = fgbPoint{c: fgbCoordAt(fgbGeom, i, dim), dim: dim}
		}
		return mp, nil

	case flattypes.GeometryTypeLineString:
		return fgbLineAt(fgbGeom, 0, fgbGeom.XyLength()/2, dim), nil

	case flattypes.GeometryTypeMultiLineString:
		return fgbMultiLineString{lines: fgbParts(fgbGeom, dim), dim: dim}, nil

	case flattypes.GeometryTypePolygon:
		return fgbPolygon{rings: fgbParts(fgbGeom, dim), dim: dim}, nil

	case flattypes.GeometryTypeMultiPolygon:
		mp := fgbMultiPolygon{dim: dim}
		partsLen := fgbGeom.PartsLength()
		if partsLen == 0 {
			// Fallback: treat as single polygon
			if rings := fgbParts(fgbGeom, dim); len(rings) > 0 {
				mp.polygons = append(mp.polygons, fgbPolygon{rings: rings, dim: dim})
			}
			return mp, nil
		}
		for i := 0; i < partsLen; i++ {
			var part flattypes.Geometry
			if fgbGeom.Parts(&part, i) {
				mp.polygons = append(mp.polygons, fgbPolygon{rings: fgbParts(&part, dim), dim: dim})
			}
		}
		return mp, nil

	case flattypes.GeometryTypeGeometryCollection:
		gc := fgbCollection{dim: dim}
		for i := 0; i < fgbGeom.PartsLength(); i++ {
			var part flattypes.Geometry
			if !fgbGeom.Parts(&part, i) {
				continue
			}
			member, err := geometryFromFGB(&part, dim)
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			if member != nil {
				gc.members = append(gc.members, member)
			}
		}
		return gc, nil

	case flattypes.GeometryTypeUnknown:
		if fgbGeom.XyLength() == 0 && fgbGeom.PartsLength() == 0 {
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: flatgeobuf %s", ErrUnsupportedType, flattypes.EnumNamesGeometryType[fgbGeom.Type()])
}

// fgbDim returns the dimension a geometry carries, looking into the first
// part of multi-part geometries.
func fgbDim(g *flattypes.Geometry, hasZ, hasM bool) Dimension {
	if g == nil {
		return dimensionOf(hasZ, hasM)
	}
	hasZ = hasZ || g.ZLength() > 0
	hasM = hasM || g.MLength() > 0
	if g.XyLength() == 0 && g.PartsLength() > 0 {
		var part flattypes.Geometry
		if g.Parts(&part, 0) {
			return fgbDim(&part, hasZ, hasM)
		}
	}
	return dimensionOf(hasZ, hasM)
}

// Helper functions for reading

func fgbCoordAt(g *flattypes.Geometry, i int, dim Dimension) Coord {
	c := Coord{X: g.Xy(2 * i), Y: g.Xy(2*i + 1), Z: math.NaN(), M: math.NaN()}
	if dim.HasZ() && i < g.ZLength() {
		c.Z = g.Z(i)
	}
	if dim.HasM() && i < g.MLength() {
		c.M = g.M(i)
	}
	return c
}

func fgbLineAt(g *flattypes.Geometry, start, end int, dim Dimension) fgbLine {
	n := g.XyLength() / 2
	end = min(end, n)
	ls := fgbLine{coords: make([]Coord, 0, max(end-start, 0)), dim: dim}
	for i := start; i < end; i++ {
		ls.coords = append(ls.coords, fgbCoordAt(g, i, dim))
	}
	return ls
}

// fgbParts splits the coordinates of g at its ends. Without ends, all
// coordinates form one part.
func fgbParts(g *flattypes.Geometry, dim Dimension) []fgbLine {
	n := g.XyLength() / 2
	endsLen := g.EndsLength()
	if n == 0 {
		return nil
	}
	if endsLen == 0 {
		return []fgbLine{fgbLineAt(g, 0, n, dim)}
	}
	parts := make([]fgbLine, 0, endsLen)
	start := 0
	for i := 0; i < endsLen; i++ {
		end := int(g.Ends(i))
		parts = append(parts, fgbLineAt(g, start, end, dim))
		start = end
	}
	return parts
}

// FlatGeobuf views

type fgbPoint struct {
	c   Coord
	dim Dimension
}

func (p fgbPoint) Kind() GeometryKind   { return KindPoint }
func (p fgbPoint) Dim() Dimension       { return p.dim }
func (p fgbPoint) Coord() (Coord, bool) { return p.c, !p.c.IsEmpty() }

type fgbLine struct {
	coords []Coord
	dim    Dimension
}

func (l fgbLine) Kind() GeometryKind  { return KindLineString }
func (l fgbLine) Dim() Dimension      { return l.dim }
func (l fgbLine) NumCoords() int      { return len(l.coords) }
func (l fgbLine) CoordAt(i int) Coord { return l.coords[i] }

type fgbPolygon struct {
	rings []fgbLine
	dim   Dimension
}

func (p fgbPolygon) Kind() GeometryKind { return KindPolygon }
func (p fgbPolygon) Dim() Dimension     { return p.dim }

func (p fgbPolygon) Exterior() (LineString, bool) {
	if len(p.rings) == 0 {
		return nil, false
	}
	return p.rings[0], true
}

func (p fgbPolygon) NumInteriors() int         { return max(len(p.rings)-1, 0) }
func (p fgbPolygon) Interior(i int) LineString { return p.rings[i+1] }

type fgbMultiPoint struct {
	points []fgbPoint
	dim    Dimension
}

func (m fgbMultiPoint) Kind() GeometryKind  { return KindMultiPoint }
func (m fgbMultiPoint) Dim() Dimension      { return m.dim }
func (m fgbMultiPoint) NumPoints() int      { return len(m.points) }
func (m fgbMultiPoint) PointAt(i int) Point { return m.points[i] }

type fgbMultiLineString struct {
	lines []fgbLine
	dim   Dimension
}

func (m fgbMultiLineString) Kind() GeometryKind            { return KindMultiLineString }
func (m fgbMultiLineString) Dim() Dimension                { return m.dim }
func (m fgbMultiLineString) NumLineStrings() int           { return len(m.lines) }
func (m fgbMultiLineString) LineStringAt(i int) LineString { return m.lines[i] }

type fgbMultiPolygon struct {
	polygons []fgbPolygon
	dim      Dimension
}

func (m fgbMultiPolygon) Kind() GeometryKind      { return KindMultiPolygon }
func (m fgbMultiPolygon) Dim() Dimension          { return m.dim }
func (m fgbMultiPolygon) NumPolygons() int        { return len(m.polygons) }
func (m fgbMultiPolygon) PolygonAt(i int) Polygon { return m.polygons[i] }

type fgbCollection struct {
	members []Geometry
	dim     Dimension
}

func (c fgbCollection) Kind() GeometryKind        { return KindGeometryCollection }
func (c fgbCollection) Dim() Dimension            { return c.dim }
func (c fgbCollection) NumGeometries() int        { return len(c.members) }
func (c fgbCollection) GeometryAt(i int) Geometry { return c.members[i] }
