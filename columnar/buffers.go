package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// storageData lays the buffers of arr out as Arrow data of type dt.
// Coordinates, validity bits, type ids and offsets of the matching width are
// shared with arr rather than copied. The caller must Release the result.
func storageData(arr geoarrow.Array, dt arrow.DataType, mem memory.Allocator) (arrow.ArrayData, error) {
	switch a := arr.(type) {
	case *geoarrow.PointArray:
		return coordData(dt, a.Coords(), a.Validity())
	case *geoarrow.LineStringArray:
		return nestedData(dt, a.Validity(), a.Coords(), a.GeomOffsets())
	case *geoarrow.PolygonArray:
		return nestedData(dt, a.Validity(), a.Coords(), a.GeomOffsets(), a.RingOffsets())
	case *geoarrow.MultiPointArray:
		return nestedData(dt, a.Validity(), a.Coords(), a.GeomOffsets())
	case *geoarrow.MultiLineStringArray:
		return nestedData(dt, a.Validity(), a.Coords(), a.GeomOffsets(), a.LineOffsets())
	case *geoarrow.MultiPolygonArray:
		return nestedData(dt, a.Validity(), a.Coords(), a.GeomOffsets(), a.PolygonOffsets(), a.RingOffsets())
	case *geoarrow.RectArray:
		return rectData(dt, a)
	case *geoarrow.MixedArray:
		return unionData(dt, a, mem)
	case *geoarrow.GeometryCollectionArray:
		lt, ok := dt.(arrow.ListLikeType)
		if !ok {
			return nil, storageMismatch(arr, dt)
		}
		members, err := unionData(lt.Elem(), a.Mixed(), mem)
		if err != nil {
			return nil, err
		}
		defer members.Release()
		return listData(dt, a.Validity(), a.GeomOffsets(), members)
	}
	return nil, fmt.Errorf("%w: %T", geoarrow.ErrUnsupportedType, arr)
}

// nestedData builds one list level per offset buffer, outermost first, over
// the coordinates. Only the outermost level carries validity.
func nestedData(dt arrow.DataType, validity *geoarrow.Bitmap, coords geoarrow.CoordBuffer, levels ...geoarrow.OffsetBuffer) (arrow.ArrayData, error) {
	lt, ok := dt.(arrow.ListLikeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", geoarrow.ErrInvalidData, dt)
	}
	var (
		child arrow.ArrayData
		err   error
	)
	if len(levels) == 1 {
		child, err = coordData(lt.Elem(), coords, nil)
	} else {
		child, err = nestedData(lt.Elem(), nil, coords, levels[1:]...)
	}
	if err != nil {
		return nil, err
	}
	defer child.Release()
	return listData(dt, validity, levels[0], child)
}

func listData(dt arrow.DataType, validity *geoarrow.Bitmap, offsets geoarrow.OffsetBuffer, child arrow.ArrayData) (arrow.ArrayData, error) {
	var raw []byte
	switch dt.ID() {
	case arrow.LIST:
		narrow, err := offsets.ToWidth(geoarrow.Narrow)
		if err != nil {
			return nil, err
		}
		raw = arrow.Int32Traits.CastToBytes(narrow.Narrow())
	case arrow.LARGE_LIST:
		wide, err := offsets.ToWidth(geoarrow.Wide)
		if err != nil {
			return nil, err
		}
		raw = arrow.Int64Traits.CastToBytes(wide.Wide())
	default:
		return nil, fmt.Errorf("%w: %s is not a variable size list", geoarrow.ErrInvalidData, dt)
	}
	buffers := []*memory.Buffer{validityBuffer(validity), memory.NewBufferBytes(raw)}
	return array.NewData(dt, offsets.Len(), buffers, []arrow.ArrayData{child}, validity.NullCount(), 0), nil
}

func coordData(dt arrow.DataType, coords geoarrow.CoordBuffer, validity *geoarrow.Bitmap) (arrow.ArrayData, error) {
	size := coords.Dim().Size()
	switch t := dt.(type) {
	case *arrow.FixedSizeListType:
		if int(t.Len()) != size {
			return nil, fmt.Errorf("%w: %s holds %d ordinates per coordinate, want %d", geoarrow.ErrInvalidData, dt, t.Len(), size)
		}
		values := float64Data(coords.ToLayout(geoarrow.Interleaved).Values())
		defer values.Release()
		buffers := []*memory.Buffer{validityBuffer(validity)}
		return array.NewData(t, coords.Len(), buffers, []arrow.ArrayData{values}, validity.NullCount(), 0), nil
	case *arrow.StructType:
		separated := coords.ToLayout(geoarrow.Separated)
		axes := make([][]float64, size)
		for k := range axes {
			axes[k] = separated.Axis(k)
		}
		return structData(t, coords.Len(), validity, axes)
	}
	return nil, fmt.Errorf("%w: %s is not a coordinate type", geoarrow.ErrInvalidData, dt)
}

// rectData lays out the lower corner axes followed by the upper corner axes.
func rectData(dt arrow.DataType, a *geoarrow.RectArray) (arrow.ArrayData, error) {
	lower := a.Lower().ToLayout(geoarrow.Separated)
	upper := a.Upper().ToLayout(geoarrow.Separated)
	size := lower.Dim().Size()
	axes := make([][]float64, 0, 2*size)
	for k := 0; k < size; k++ {
		axes = append(axes, lower.Axis(k))
	}
	for k := 0; k < size; k++ {
		axes = append(axes, upper.Axis(k))
	}
	return structData(dt, a.Len(), a.Validity(), axes)
}

func structData(dt arrow.DataType, n int, validity *geoarrow.Bitmap, axes [][]float64) (arrow.ArrayData, error) {
	st, ok := dt.(*arrow.StructType)
	if !ok || st.NumFields() != len(axes) {
		return nil, fmt.Errorf("%w: %s does not hold %d ordinates", geoarrow.ErrInvalidData, dt, len(axes))
	}
	children := make([]arrow.ArrayData, len(axes))
	for k, axis := range axes {
		children[k] = float64Data(axis)
	}
	defer releaseAll(children)
	buffers := []*memory.Buffer{validityBuffer(validity)}
	return array.NewData(st, n, buffers, children, validity.NullCount(), 0), nil
}

// unionData lays out a dense union whose children follow the union fields.
// Type ids are shared as is, so the union's type codes must be the ids of the
// array's type map.
func unionData(dt arrow.DataType, a *geoarrow.MixedArray, mem memory.Allocator) (arrow.ArrayData, error) {
	ut, ok := dt.(*arrow.DenseUnionType)
	if !ok {
		return nil, storageMismatch(a, dt)
	}
	m := a.TypeMap()
	if m.Len() == 0 {
		m = geoarrow.DefaultTypeMap()
	}
	kinds := m.Kinds()
	fields := ut.Fields()
	if len(fields) != len(kinds) {
		return nil, storageMismatch(a, dt)
	}

	children := make([]arrow.ArrayData, len(fields))
	defer releaseAll(children)
	for i, f := range fields {
		child := a.Children().Get(kinds[i])
		if child == nil {
			children[i] = emptyData(mem, f.Type)
			continue
		}
		data, err := storageData(child, f.Type, mem)
		if err != nil {
			return nil, fmt.Errorf("%s child: %w", kinds[i], err)
		}
		children[i] = data
	}

	buffers := []*memory.Buffer{
		nil,
		memory.NewBufferBytes(arrow.Int8Traits.CastToBytes(a.TypeIDs())),
		memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(a.Offsets())),
	}
	return array.NewData(ut, a.Len(), buffers, children, 0, 0), nil
}

// emptyData returns zero-length data of type dt.
func emptyData(mem memory.Allocator, dt arrow.DataType) arrow.ArrayData {
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	arr := b.NewArray()
	defer arr.Release()
	data := arr.Data()
	data.Retain()
	return data
}

func float64Data(values []float64) arrow.ArrayData {
	buffers := []*memory.Buffer{nil, memory.NewBufferBytes(arrow.Float64Traits.CastToBytes(values))}
	return array.NewData(arrow.PrimitiveTypes.Float64, len(values), buffers, nil, 0, 0)
}

// validityBuffer returns nil when every slot is valid.
func validityBuffer(b *geoarrow.Bitmap) *memory.Buffer {
	if b.NullCount() == 0 {
		return nil
	}
	return memory.NewBufferBytes(b.Bytes())
}

func releaseAll(data []arrow.ArrayData) {
	for _, d := range data {
		if d != nil {
			d.Release()
		}
	}
}

func storageMismatch(arr geoarrow.Array, dt arrow.DataType) error {
	return fmt.Errorf("%w: %s cannot be stored as %s", geoarrow.ErrInvalidData, arr.DataType(), dt)
}
