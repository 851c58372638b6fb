package geoarrow

import (
	"math"
)

// GeometryEqual reports whether a and b have the same kind, dimension and
// coordinates. NaN ordinates compare equal to each other, so empty points
// match. Two nil geometries are equal.
func GeometryEqual(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || a.Dim() != b.Dim() {
		return false
	}
	dim := a.Dim()
	switch a.Kind() {
	case KindPoint:
		pa, pb := a.(Point), b.(Point)
		ca, oka := pa.Coord()
		cb, okb := pb.Coord()
		return oka == okb && (!oka || coordEqual(ca, cb, dim))
	case KindLineString:
		return lineEqual(a.(LineString), b.(LineString), dim)
	case KindPolygon:
		return polygonEqual(a.(Polygon), b.(Polygon), dim)
	case KindMultiPoint:
		ma, mb := a.(MultiPoint), b.(MultiPoint)
		if ma.NumPoints() != mb.NumPoints() {
			return false
		}
		for i := 0; i < ma.NumPoints(); i++ {
			if !GeometryEqual(ma.PointAt(i), mb.PointAt(i)) {
				return false
			}
		}
		return true
	case KindMultiLineString:
		ma, mb := a.(MultiLineString), b.(MultiLineString)
		if ma.NumLineStrings() != mb.NumLineStrings() {
			return false
		}
		for i := 0; i < ma.NumLineStrings(); i++ {
			if !lineEqual(ma.LineStringAt(i), mb.LineStringAt(i), dim) {
				return false
			}
		}
		return true
	case KindMultiPolygon:
		ma, mb := a.(MultiPolygon), b.(MultiPolygon)
		if ma.NumPolygons() != mb.NumPolygons() {
			return false
		}
		for i := 0; i < ma.NumPolygons(); i++ {
			if !polygonEqual(ma.PolygonAt(i), mb.PolygonAt(i), dim) {
				return false
			}
		}
		return true
	case KindGeometryCollection:
		ga, gb := a.(GeometryCollection), b.(GeometryCollection)
		if ga.NumGeometries() != gb.NumGeometries() {
			return false
		}
		for i := 0; i < ga.NumGeometries(); i++ {
			if !GeometryEqual(ga.GeometryAt(i), gb.GeometryAt(i)) {
				return false
			}
		}
		return true
	case KindRect:
		ra, rb := a.(Rect), b.(Rect)
		return coordEqual(ra.Min(), rb.Min(), dim) && coordEqual(ra.Max(), rb.Max(), dim)
	}
	return false
}

func lineEqual(a, b LineString, dim Dimension) bool {
	if a.NumCoords() != b.NumCoords() {
		return false
	}
	for i := 0; i < a.NumCoords(); i++ {
		if !coordEqual(a.CoordAt(i), b.CoordAt(i), dim) {
			return false
		}
	}
	return true
}

func polygonEqual(a, b Polygon, dim Dimension) bool {
	ea, oka := a.Exterior()
	eb, okb := b.Exterior()
	if oka != okb {
		return false
	}
	if !oka {
		return true
	}
	if a.NumInteriors() != b.NumInteriors() || !lineEqual(ea, eb, dim) {
		return false
	}
	for i := 0; i < a.NumInteriors(); i++ {
		if !lineEqual(a.Interior(i), b.Interior(i), dim) {
			return false
		}
	}
	return true
}

func coordEqual(a, b Coord, dim Dimension) bool {
	for k := 0; k < dim.Size(); k++ {
		x, y := a.ordinate(dim, k), b.ordinate(dim, k)
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}
