package columnar

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// FromArrow decodes a geoarrow.* or geoarrow.wkb extension array back into a
// geometry array. Native arrays keep their type. Mixed arrays are rebuilt, so
// their type ids are reassigned in first-use order. Storage that does not
// match the extension returns ErrInvalidData.
func FromArrow(arr arrow.Array) (geoarrow.Array, error) {
	ext, ok := arr.(array.ExtensionArray)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an extension array", geoarrow.ErrInvalidData, arr.DataType())
	}

	switch et := ext.ExtensionType().(type) {
	case *WKBType:
		values, err := binaryValues(ext.Storage())
		if err != nil {
			return nil, err
		}
		return geoarrow.FromWKB(values, nil)

	case *GeometryType:
		t := et.NativeType()
		storage := ext.Storage()
		geoms := make([]geoarrow.Geometry, storage.Len())
		for i := range geoms {
			g, err := readValue(storage, t.Kind, i, t.Dim)
			if err != nil {
				return nil, fmt.Errorf("slot %d: %w", i, err)
			}
			geoms[i] = g
		}
		return geoarrow.BuildArray(t, geoms)
	}
	return nil, fmt.Errorf("%w: %s", geoarrow.ErrUnsupportedType, ext.ExtensionType().ExtensionName())
}

// Helper functions for importing

// binaryValues copies out the values of binary or large binary storage. Null
// slots are nil.
func binaryValues(a arrow.Array) ([][]byte, error) {
	var value func(i int) []byte
	switch b := a.(type) {
	case *array.Binary:
		value = b.Value
	case *array.LargeBinary:
		value = b.Value
	default:
		return nil, fmt.Errorf("%w: wkb storage %s is not binary", geoarrow.ErrInvalidData, a.DataType())
	}
	values := make([][]byte, a.Len())
	for i := range values {
		if a.IsValid(i) {
			values[i] = value(i)
		}
	}
	return values, nil
}

func asList(a arrow.Array) (array.ListLike, error) {
	l, ok := a.(array.ListLike)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", geoarrow.ErrInvalidData, a.DataType())
	}
	return l, nil
}

// listValues returns the child list of l.
func listValues(l array.ListLike) (array.ListLike, error) {
	return asList(l.ListValues())
}

func asFloat64(a arrow.Array) (*array.Float64, error) {
	f, ok := a.(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("%w: ordinates %s are not float64", geoarrow.ErrInvalidData, a.DataType())
	}
	return f, nil
}

func readValue(a arrow.Array, kind geoarrow.GeometryKind, i int, dim geoarrow.Dimension) (geoarrow.Geometry, error) {
	if a.IsNull(i) {
		return nil, nil
	}

	switch kind {
	case geoarrow.KindPoint:
		return readPoint(a, i, dim)

	case geoarrow.KindLineString:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		return readLine(l, i, dim)

	case geoarrow.KindPolygon:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		return readPolygon(l, i, dim)

	case geoarrow.KindMultiPoint:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		start, end := l.ValueOffsets(i)
		mp := multiPoint{dim: dim}
		for j := start; j < end; j++ {
			p, err := readPoint(l.ListValues(), int(j), dim)
			if err != nil {
				return nil, err
			}
			mp.points = append(mp.points, p)
		}
		return mp, nil

	case geoarrow.KindMultiLineString:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		lines, err := listValues(l)
		if err != nil {
			return nil, err
		}
		start, end := l.ValueOffsets(i)
		mls := multiLineString{dim: dim}
		for j := start; j < end; j++ {
			ls, err := readLine(lines, int(j), dim)
			if err != nil {
				return nil, err
			}
			mls.lines = append(mls.lines, ls)
		}
		return mls, nil

	case geoarrow.KindMultiPolygon:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		polygons, err := listValues(l)
		if err != nil {
			return nil, err
		}
		start, end := l.ValueOffsets(i)
		mp := multiPolygon{dim: dim}
		for j := start; j < end; j++ {
			p, err := readPolygon(polygons, int(j), dim)
			if err != nil {
				return nil, err
			}
			mp.polygons = append(mp.polygons, p)
		}
		return mp, nil

	case geoarrow.KindRect:
		return readBox(a, i, dim)

	case geoarrow.KindMixed:
		u, ok := a.(*array.DenseUnion)
		if !ok {
			return nil, fmt.Errorf("%w: mixed storage %s is not a dense union", geoarrow.ErrInvalidData, a.DataType())
		}
		return readUnionSlot(u, i, dim)

	case geoarrow.KindGeometryCollection:
		l, err := asList(a)
		if err != nil {
			return nil, err
		}
		u, ok := l.ListValues().(*array.DenseUnion)
		if !ok {
			return nil, fmt.Errorf("%w: collection members %s are not a dense union", geoarrow.ErrInvalidData, l.ListValues().DataType())
		}
		start, end := l.ValueOffsets(i)
		gc := collection{dim: dim}
		for j := start; j < end; j++ {
			g, err := readUnionSlot(u, int(j), dim)
			if err != nil {
				return nil, err
			}
			gc.members = append(gc.members, g)
		}
		return gc, nil
	}
	return nil, fmt.Errorf("%w: %s", geoarrow.ErrUnsupportedType, kind)
}

func readUnionSlot(u *array.DenseUnion, i int, dim geoarrow.Dimension) (geoarrow.Geometry, error) {
	child := u.ChildID(i)
	fields := u.UnionType().Fields()
	if child < 0 || child >= len(fields) {
		return nil, fmt.Errorf("%w: union slot %d has no child", geoarrow.ErrInvalidData, i)
	}
	kind, err := kindOfField(fields[child])
	if err != nil {
		return nil, err
	}
	return readValue(u.Field(child), kind, int(u.ValueOffset(i)), dim)
}

// kindOfField recovers a union child's kind from its field name.
func kindOfField(f arrow.Field) (geoarrow.GeometryKind, error) {
	name, _, _ := strings.Cut(f.Name, " ")
	for _, kind := range geoarrow.DefaultTypeMap().Kinds() {
		if kind.String() == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: union child %q", geoarrow.ErrInvalidData, f.Name)
}

func readPoint(a arrow.Array, i int, dim geoarrow.Dimension) (point, error) {
	c, err := readCoord(a, i, dim)
	return point{c: c, dim: dim}, err
}

func readLine(l array.ListLike, i int, dim geoarrow.Dimension) (line, error) {
	start, end := l.ValueOffsets(i)
	ls := line{coords: make([]geoarrow.Coord, 0, end-start), dim: dim}
	for j := start; j < end; j++ {
		c, err := readCoord(l.ListValues(), int(j), dim)
		if err != nil {
			return ls, err
		}
		ls.coords = append(ls.coords, c)
	}
	return ls, nil
}

func readPolygon(l array.ListLike, i int, dim geoarrow.Dimension) (polygon, error) {
	p := polygon{dim: dim}
	rings, err := listValues(l)
	if err != nil {
		return p, err
	}
	start, end := l.ValueOffsets(i)
	for j := start; j < end; j++ {
		ring, err := readLine(rings, int(j), dim)
		if err != nil {
			return p, err
		}
		p.rings = append(p.rings, ring)
	}
	return p, nil
}

func readBox(a arrow.Array, i int, dim geoarrow.Dimension) (box, error) {
	s, ok := a.(*array.Struct)
	n := dim.Size()
	if !ok || s.NumField() != 2*n {
		return box{}, fmt.Errorf("%w: box storage %s", geoarrow.ErrInvalidData, a.DataType())
	}
	ords := make([]float64, 2*n)
	for k := range ords {
		f, err := asFloat64(s.Field(k))
		if err != nil {
			return box{}, err
		}
		ords[k] = f.Value(i)
	}
	return box{min: coordOfOrdinates(ords[:n], dim), max: coordOfOrdinates(ords[n:], dim), dim: dim}, nil
}

func readCoord(a arrow.Array, i int, dim geoarrow.Dimension) (geoarrow.Coord, error) {
	n := dim.Size()
	ords := make([]float64, n)
	switch c := a.(type) {
	case *array.FixedSizeList:
		values, err := asFloat64(c.ListValues())
		if err != nil {
			return geoarrow.Coord{}, err
		}
		start, end := c.ValueOffsets(i)
		if int(end-start) != n || int(end) > values.Len() {
			return geoarrow.Coord{}, fmt.Errorf("%w: coordinate %d has %d ordinates, want %d", geoarrow.ErrInvalidData, i, end-start, n)
		}
		for k := range ords {
			ords[k] = values.Value(int(start) + k)
		}
	case *array.Struct:
		if c.NumField() != n {
			return geoarrow.Coord{}, fmt.Errorf("%w: coordinate struct has %d fields, want %d", geoarrow.ErrInvalidData, c.NumField(), n)
		}
		for k := range ords {
			f, err := asFloat64(c.Field(k))
			if err != nil {
				return geoarrow.Coord{}, err
			}
			ords[k] = f.Value(i)
		}
	default:
		return geoarrow.Coord{}, fmt.Errorf("%w: %s is not a coordinate type", geoarrow.ErrInvalidData, a.DataType())
	}
	return coordOfOrdinates(ords, dim), nil
}

func coordOfOrdinates(ords []float64, dim geoarrow.Dimension) geoarrow.Coord {
	c := geoarrow.NaNCoord()
	c.X, c.Y = ords[0], ords[1]
	switch dim {
	case geoarrow.XYZ:
		c.Z = ords[2]
	case geoarrow.XYM:
		c.M = ords[2]
	case geoarrow.XYZM:
		c.Z, c.M = ords[2], ords[3]
	}
	return c
}
