package geoarrow

import (
	"fmt"

	"go.uber.org/zap"
)

// DowncastOptions configures Downcast and DowncastChunks.
type DowncastOptions struct {
	// NarrowOffsets converts wide offsets to narrow ones when every offset
	// fits in int32.
	NarrowOffsets bool

	// Logger receives debug output about downcast decisions. Nil disables
	// logging.
	Logger *zap.Logger
}

// DefaultDowncastOptions returns options that keep offset widths unchanged.
func DefaultDowncastOptions() *DowncastOptions {
	return &DowncastOptions{
		NarrowOffsets: false,
		Logger:        zap.NewNop(),
	}
}

func downcastOptions(opts *DowncastOptions) DowncastOptions {
	if opts == nil {
		return *DefaultDowncastOptions()
	}
	o := *opts
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// DowncastedType returns the type Downcast would produce for arr, without
// building anything when the buffers can be reused.
func DowncastedType(arr Array) NativeType {
	return downcast(arr).DataType()
}

// Downcast returns the most specific array that holds the same values:
//   - a multi-part array whose every slot holds exactly one part becomes the
//     singular array, reusing its buffers;
//   - a mixed array whose slots all live in one child becomes that child,
//     itself downcast;
//   - a collection array whose every slot holds exactly one member and no
//     slot is null becomes its members array, itself downcast.
//
// Any other array is returned unchanged. Downcasting is terminal in one step,
// so downcasting the result again returns it as is.
func Downcast(arr Array, opts *DowncastOptions) (Array, error) {
	o := downcastOptions(opts)
	out := downcast(arr)
	if o.NarrowOffsets {
		out = NarrowOffsets(out)
	}
	if out.DataType() != arr.DataType() {
		o.Logger.Debug("downcast array",
			zap.Stringer("from", arr.DataType()),
			zap.Stringer("to", out.DataType()),
			zap.Int("len", arr.Len()))
	}
	return out, nil
}

func downcast(arr Array) Array {
	switch a := arr.(type) {
	case *MultiPointArray:
		if !singleParts(a.geomOffsets) {
			return a
		}
		n, first := a.Len(), a.geomOffsets.First()
		dt := a.dt
		dt.Kind = KindPoint
		return &PointArray{dt: dt, coords: a.coords.Slice(first, n), validity: a.validity}
	case *MultiLineStringArray:
		if !singleParts(a.geomOffsets) {
			return a
		}
		dt := a.dt
		dt.Kind = KindLineString
		return &LineStringArray{
			dt:          dt,
			coords:      a.coords,
			geomOffsets: a.lineOffsets.Slice(a.geomOffsets.First(), a.Len()),
			validity:    a.validity,
		}
	case *MultiPolygonArray:
		if !singleParts(a.geomOffsets) {
			return a
		}
		dt := a.dt
		dt.Kind = KindPolygon
		return &PolygonArray{
			dt:          dt,
			coords:      a.coords,
			geomOffsets: a.polygonOffsets.Slice(a.geomOffsets.First(), a.Len()),
			ringOffsets: a.ringOffsets,
			validity:    a.validity,
		}
	case *MixedArray:
		kinds := a.ReferencedKinds()
		if len(kinds) != 1 {
			return a
		}
		return downcast(onlyChild(a, kinds[0]))
	case *GeometryCollectionArray:
		if a.NullCount() > 0 || !singleParts(a.geomOffsets) {
			return a
		}
		return downcast(a.mixed.Slice(a.geomOffsets.First(), a.Len()))
	}
	return arr
}

// singleParts reports whether every range holds exactly one element. The
// total check also rejects arrays of empty or null ranges.
func singleParts(o OffsetBuffer) bool {
	n := o.Len()
	if o.Last()-o.First() != n {
		return false
	}
	for i := 0; i < n; i++ {
		if start, end := o.Range(i); end-start != 1 {
			return false
		}
	}
	return true
}

// onlyChild returns the slots of a mixed array whose slots all live in the
// child for kind. Contiguous slots reuse the child's buffers.
func onlyChild(a *MixedArray, kind GeometryKind) Array {
	child := a.children.Get(kind)
	n := a.Len()
	if n == 0 {
		return child.sliceArray(0, 0)
	}
	start := int(a.offsets[0])
	contiguous := start+n <= child.Len()
	for i := 1; contiguous && i < n; i++ {
		contiguous = int(a.offsets[i]) == start+i
	}
	if contiguous {
		if start == 0 && n == child.Len() {
			return child
		}
		return child.sliceArray(start, n)
	}
	b, _ := NewBuilder(child.DataType())
	for i := 0; i < n; i++ {
		// Values read from a child always fit a builder of the child's type.
		_ = b.PushGeometry(child.Value(int(a.offsets[i])))
	}
	return b.NewArray()
}

// DowncastChunks downcasts every chunk of one logical column to a single
// common type. Each chunk's downcast type is computed first and the set is
// unified; when the set has no common type the chunks are cast to Mixed, or
// to GeometryCollection if any chunk is a collection. Chunks that disagree on
// dimension are returned unchanged.
func DowncastChunks(chunks []Array, opts *DowncastOptions) ([]Array, error) {
	o := downcastOptions(opts)
	if len(chunks) == 0 {
		return nil, nil
	}
	downcasted := make([]Array, len(chunks))
	types := make([]NativeType, len(chunks))
	for i, c := range chunks {
		d, err := Downcast(c, &o)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		downcasted[i], types[i] = d, d.DataType()
	}
	target, ok := UnifyTypes(types)
	if !ok {
		target, ok = chunkFallback(types)
		if !ok {
			o.Logger.Debug("chunks disagree on dimension, left unchanged", zap.Int("chunks", len(chunks)))
			return chunks, nil
		}
	}
	o.Logger.Debug("unified chunks", zap.Stringer("type", target), zap.Int("chunks", len(chunks)))
	out := make([]Array, len(chunks))
	for i, d := range downcasted {
		c, err := Cast(d, target)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func chunkFallback(types []NativeType) (NativeType, bool) {
	out := types[0]
	out.Kind = KindMixed
	for _, t := range types {
		if t.Dim != out.Dim {
			return NativeType{}, false
		}
		if t.Kind == KindGeometryCollection {
			out.Kind = KindGeometryCollection
		}
		if t.Width == Wide {
			out.Width = Wide
		}
	}
	return out, true
}

// NarrowOffsets returns arr with every offset level converted to int32 when
// all of them fit, and arr unchanged otherwise.
func NarrowOffsets(arr Array) Array {
	switch a := arr.(type) {
	case *LineStringArray:
		levels, ok := narrowLevels(a.geomOffsets)
		if !ok {
			return a
		}
		out := *a
		out.geomOffsets, out.dt.Width = levels[0], Narrow
		return &out
	case *PolygonArray:
		levels, ok := narrowLevels(a.geomOffsets, a.ringOffsets)
		if !ok {
			return a
		}
		out := *a
		out.geomOffsets, out.ringOffsets, out.dt.Width = levels[0], levels[1], Narrow
		return &out
	case *MultiPointArray:
		levels, ok := narrowLevels(a.geomOffsets)
		if !ok {
			return a
		}
		out := *a
		out.geomOffsets, out.dt.Width = levels[0], Narrow
		return &out
	case *MultiLineStringArray:
		levels, ok := narrowLevels(a.geomOffsets, a.lineOffsets)
		if !ok {
			return a
		}
		out := *a
		out.geomOffsets, out.lineOffsets, out.dt.Width = levels[0], levels[1], Narrow
		return &out
	case *MultiPolygonArray:
		levels, ok := narrowLevels(a.geomOffsets, a.polygonOffsets, a.ringOffsets)
		if !ok {
			return a
		}
		out := *a
		out.geomOffsets, out.polygonOffsets, out.ringOffsets = levels[0], levels[1], levels[2]
		out.dt.Width = Narrow
		return &out
	case *MixedArray:
		out := *a
		var children MixedChildren
		for _, child := range a.children.present() {
			narrowed := NarrowOffsets(child)
			if narrowed.DataType().Width == Wide {
				return a
			}
			children.set(narrowed)
		}
		out.children, out.dt.Width = children, Narrow
		return &out
	case *GeometryCollectionArray:
		levels, ok := narrowLevels(a.geomOffsets)
		if !ok {
			return a
		}
		mixed, _ := NarrowOffsets(a.mixed).(*MixedArray)
		if mixed.DataType().Width == Wide {
			return a
		}
		out := *a
		out.mixed, out.geomOffsets, out.dt.Width = mixed, levels[0], Narrow
		return &out
	case *PointArray:
		out := *a
		out.dt.Width = Narrow
		return &out
	case *RectArray:
		out := *a
		out.dt.Width = Narrow
		return &out
	}
	return arr
}

func narrowLevels(levels ...OffsetBuffer) ([]OffsetBuffer, bool) {
	out := make([]OffsetBuffer, len(levels))
	for i, level := range levels {
		narrowed, err := level.ToWidth(Narrow)
		if err != nil {
			return nil, false
		}
		out[i] = narrowed
	}
	return out, true
}
