package geoarrow

import (
	"fmt"
	"math"
)

// TypeMap assigns union type ids to geometry kinds. Ids are indexes into the
// map, so the order kinds are added in is the order of the union's children.
type TypeMap struct {
	kinds []GeometryKind
}

// NewTypeMap returns a map with ids assigned in the order given. Only the six
// typed child kinds are allowed, each at most once.
func NewTypeMap(kinds ...GeometryKind) (*TypeMap, error) {
	m := &TypeMap{}
	for _, k := range kinds {
		if !isChildKind(k) {
			return nil, fmt.Errorf("%w: %s cannot be a mixed child", ErrIncorrectType, k)
		}
		if _, ok := m.ID(k); ok {
			return nil, fmt.Errorf("%w: %s listed twice in type map", ErrInvalidData, k)
		}
		m.kinds = append(m.kinds, k)
	}
	return m, nil
}

// DefaultTypeMap returns the canonical ordering: Point, LineString, Polygon,
// MultiPoint, MultiLineString, MultiPolygon.
func DefaultTypeMap() *TypeMap {
	return &TypeMap{kinds: []GeometryKind{
		KindPoint,
		KindLineString,
		KindPolygon,
		KindMultiPoint,
		KindMultiLineString,
		KindMultiPolygon,
	}}
}

// ID returns the type id of kind.
func (m *TypeMap) ID(kind GeometryKind) (int8, bool) {
	for i, k := range m.kinds {
		if k == kind {
			return int8(i), true
		}
	}
	return 0, false
}

// Kind returns the kind of type id.
func (m *TypeMap) Kind(id int8) (GeometryKind, bool) {
	if id < 0 || int(id) >= len(m.kinds) {
		return 0, false
	}
	return m.kinds[id], true
}

// Kinds returns the kinds in id order.
func (m *TypeMap) Kinds() []GeometryKind {
	return append([]GeometryKind(nil), m.kinds...)
}

// Len returns the number of assigned ids.
func (m *TypeMap) Len() int { return len(m.kinds) }

// Clone returns an independent copy.
func (m *TypeMap) Clone() *TypeMap {
	return &TypeMap{kinds: m.Kinds()}
}

// assign returns the id of kind, adding it on first use.
func (m *TypeMap) assign(kind GeometryKind) int8 {
	if id, ok := m.ID(kind); ok {
		return id
	}
	m.kinds = append(m.kinds, kind)
	return int8(len(m.kinds) - 1)
}

func isChildKind(k GeometryKind) bool {
	switch k {
	case KindPoint, KindLineString, KindPolygon, KindMultiPoint, KindMultiLineString, KindMultiPolygon:
		return true
	}
	return false
}

// Helper functions for routing

// unwrapSingleton returns the only member of a one-member collection and g
// itself for every other kind. The member may be nil.
func unwrapSingleton(g Geometry) (Geometry, error) {
	if g.Kind() != KindGeometryCollection {
		return g, nil
	}
	gc, err := asGeometryCollection(g)
	if err != nil {
		return nil, err
	}
	if gc.NumGeometries() != 1 {
		return nil, fmt.Errorf("%w: geometry collection with %d members in mixed array", ErrUnsupportedShape, gc.NumGeometries())
	}
	member := gc.GeometryAt(0)
	if member != nil && member.Kind() == KindGeometryCollection {
		return nil, fmt.Errorf("%w: nested geometry collection", ErrUnsupportedShape)
	}
	return member, nil
}

// routeKind returns the child a geometry of the given kind is stored in.
func routeKind(kind GeometryKind, preferMulti bool) (GeometryKind, error) {
	switch kind {
	case KindPoint, KindLineString, KindPolygon:
		if preferMulti {
			return kind.Multi(), nil
		}
		return kind, nil
	case KindRect:
		if preferMulti {
			return KindMultiPolygon, nil
		}
		return KindPolygon, nil
	case KindMultiPoint, KindMultiLineString, KindMultiPolygon:
		return kind, nil
	}
	return 0, fmt.Errorf("%w: cannot route %s into a mixed array", ErrUnsupportedShape, kind)
}

// nullKind is the child that receives nulls when no geometry was pushed.
func nullKind(preferMulti bool) GeometryKind {
	if preferMulti {
		return KindMultiPoint
	}
	return KindPoint
}

// MixedChildren holds the typed children of a mixed array. Absent children
// are nil.
type MixedChildren struct {
	Point           *PointArray
	LineString      *LineStringArray
	Polygon         *PolygonArray
	MultiPoint      *MultiPointArray
	MultiLineString *MultiLineStringArray
	MultiPolygon    *MultiPolygonArray
}

// Get returns the child for kind, or nil when it is absent.
func (c MixedChildren) Get(kind GeometryKind) Array {
	switch kind {
	case KindPoint:
		if c.Point != nil {
			return c.Point
		}
	case KindLineString:
		if c.LineString != nil {
			return c.LineString
		}
	case KindPolygon:
		if c.Polygon != nil {
			return c.Polygon
		}
	case KindMultiPoint:
		if c.MultiPoint != nil {
			return c.MultiPoint
		}
	case KindMultiLineString:
		if c.MultiLineString != nil {
			return c.MultiLineString
		}
	case KindMultiPolygon:
		if c.MultiPolygon != nil {
			return c.MultiPolygon
		}
	}
	return nil
}

// set stores arr as the child for its kind.
func (c *MixedChildren) set(arr Array) {
	switch a := arr.(type) {
	case *PointArray:
		c.Point = a
	case *LineStringArray:
		c.LineString = a
	case *PolygonArray:
		c.Polygon = a
	case *MultiPointArray:
		c.MultiPoint = a
	case *MultiLineStringArray:
		c.MultiLineString = a
	case *MultiPolygonArray:
		c.MultiPolygon = a
	}
}

// present returns the non-nil children in canonical kind order.
func (c MixedChildren) present() []Array {
	var out []Array
	for _, k := range DefaultTypeMap().kinds {
		if child := c.Get(k); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// MixedArray is a dense union of typed geometry arrays. Slot i lives at
// Offsets()[i] in the child selected by TypeIDs()[i].
type MixedArray struct {
	dt       NativeType
	typeIDs  []int8
	offsets  []int32
	children MixedChildren
	typeMap  *TypeMap
}

// NewMixedArray validates and wraps a type id buffer, an offset buffer and
// the children they point into. Every child must share one dimension and
// coordinate layout.
func NewMixedArray(typeIDs []int8, offsets []int32, children MixedChildren, typeMap *TypeMap) (*MixedArray, error) {
	if len(typeIDs) != len(offsets) {
		return nil, fmt.Errorf("%w: %d type ids but %d offsets", ErrInvalidData, len(typeIDs), len(offsets))
	}
	if typeMap == nil {
		typeMap = DefaultTypeMap()
	}
	dt := NativeType{Kind: KindMixed, Layout: Interleaved, Dim: XY, Width: Narrow}
	for i, child := range children.present() {
		ct := child.DataType()
		if i == 0 {
			dt.Layout, dt.Dim = ct.Layout, ct.Dim
		} else if ct.Dim != dt.Dim || ct.Layout != dt.Layout {
			return nil, fmt.Errorf("%w: mixed children disagree: %s and %s", ErrDimensionMismatch, ct, dt)
		}
		if ct.Width == Wide {
			dt.Width = Wide
		}
	}
	for i, id := range typeIDs {
		kind, ok := typeMap.Kind(id)
		if !ok {
			return nil, fmt.Errorf("%w: slot %d has unknown type id %d", ErrInvalidData, i, id)
		}
		child := children.Get(kind)
		if child == nil {
			return nil, fmt.Errorf("%w: slot %d points at absent %s child", ErrInvalidData, i, kind)
		}
		if offsets[i] < 0 || int(offsets[i]) >= child.Len() {
			return nil, fmt.Errorf("%w: slot %d offset %d outside %s child of length %d", ErrInvalidData, i, offsets[i], kind, child.Len())
		}
	}
	return &MixedArray{
		dt:       dt,
		typeIDs:  typeIDs,
		offsets:  offsets,
		children: children,
		typeMap:  typeMap,
	}, nil
}

func (a *MixedArray) DataType() NativeType     { return a.dt }
func (a *MixedArray) CoordLayout() CoordLayout { return a.dt.Layout }
func (a *MixedArray) Len() int                 { return len(a.typeIDs) }

// TypeIDs returns the per-slot type ids.
func (a *MixedArray) TypeIDs() []int8 { return a.typeIDs }

// Offsets returns the per-slot child offsets.
func (a *MixedArray) Offsets() []int32 { return a.offsets }

// TypeMap returns the id to kind mapping.
func (a *MixedArray) TypeMap() *TypeMap { return a.typeMap }

// Children returns the typed children.
func (a *MixedArray) Children() MixedChildren { return a.children }

// slot returns the child and child offset of slot i.
func (a *MixedArray) slot(i int) (Array, int) {
	kind, _ := a.typeMap.Kind(a.typeIDs[i])
	return a.children.Get(kind), int(a.offsets[i])
}

// SlotKind returns the child kind slot i is stored in.
func (a *MixedArray) SlotKind(i int) GeometryKind {
	kind, _ := a.typeMap.Kind(a.typeIDs[i])
	return kind
}

// IsNull reports whether slot i is null in its child.
func (a *MixedArray) IsNull(i int) bool {
	child, off := a.slot(i)
	return child.IsNull(off)
}

// NullCount counts the null slots.
func (a *MixedArray) NullCount() int {
	n := 0
	for i := range a.typeIDs {
		if a.IsNull(i) {
			n++
		}
	}
	return n
}

// Validity materializes a bitmap from the children, or returns nil when no
// slot is null.
func (a *MixedArray) Validity() *Bitmap {
	b := NewBitmapBuilder(a.Len())
	for i := range a.typeIDs {
		b.Append(!a.IsNull(i))
	}
	return b.Finish()
}

// Value returns slot i, or nil when the slot is null.
func (a *MixedArray) Value(i int) Geometry {
	child, off := a.slot(i)
	return child.Value(off)
}

// ReferencedKinds returns the distinct child kinds the slots point into, in
// type id order.
func (a *MixedArray) ReferencedKinds() []GeometryKind {
	seen := make([]bool, a.typeMap.Len())
	for _, id := range a.typeIDs {
		seen[id] = true
	}
	var out []GeometryKind
	for id, ok := range seen {
		if ok {
			out = append(out, a.typeMap.kinds[id])
		}
	}
	return out
}

// BufferLengths returns the buffer lengths of the children.
func (a *MixedArray) BufferLengths() MixedCapacity {
	var c MixedCapacity
	if a.children.Point != nil {
		c.Point = a.children.Point.BufferLengths()
	}
	if a.children.LineString != nil {
		c.LineString = a.children.LineString.BufferLengths()
	}
	if a.children.Polygon != nil {
		c.Polygon = a.children.Polygon.BufferLengths()
	}
	if a.children.MultiPoint != nil {
		c.MultiPoint = a.children.MultiPoint.BufferLengths()
	}
	if a.children.MultiLineString != nil {
		c.MultiLineString = a.children.MultiLineString.BufferLengths()
	}
	if a.children.MultiPolygon != nil {
		c.MultiPolygon = a.children.MultiPolygon.BufferLengths()
	}
	return c
}

// Slice returns a zero-copy view sharing every child. It panics when the
// range is out of bounds.
func (a *MixedArray) Slice(offset, length int) *MixedArray {
	mustBounds(a.Len(), offset, length)
	out := *a
	out.typeIDs = a.typeIDs[offset : offset+length : offset+length]
	out.offsets = a.offsets[offset : offset+length : offset+length]
	return &out
}

// OwnedSlice copies the referenced child slots into fresh children, keeping
// each slot in the child it came from. It panics when the range is out of
// bounds.
func (a *MixedArray) OwnedSlice(offset, length int) *MixedArray {
	mustBounds(a.Len(), offset, length)
	builders := make(map[GeometryKind]ArrayBuilder)
	typeIDs := make([]int8, length)
	offsets := make([]int32, length)
	for i := 0; i < length; i++ {
		child, off := a.slot(offset + i)
		kind := child.DataType().Kind
		b, ok := builders[kind]
		if !ok {
			// Child types are always buildable.
			b, _ = NewBuilder(child.DataType())
			builders[kind] = b
		}
		typeIDs[i] = a.typeIDs[offset+i]
		offsets[i] = int32(b.Len())
		if child.IsNull(off) {
			b.PushNull()
			continue
		}
		if err := b.PushGeometry(child.Value(off)); err != nil {
			panic(fmt.Sprintf("geoarrow: re-pushing stored %s value: %v", kind, err))
		}
	}
	var children MixedChildren
	for _, b := range builders {
		children.set(b.NewArray())
	}
	return &MixedArray{
		dt:       a.dt,
		typeIDs:  typeIDs,
		offsets:  offsets,
		children: children,
		typeMap:  a.typeMap.Clone(),
	}
}

func (a *MixedArray) sliceArray(offset, length int) Array      { return a.Slice(offset, length) }
func (a *MixedArray) ownedSliceArray(offset, length int) Array { return a.OwnedSlice(offset, length) }

// MixedOptions configures a MixedBuilder.
type MixedOptions struct {
	BuilderOptions

	// PreferMulti stores Point, LineString and Polygon values in the
	// matching multi-part child.
	PreferMulti bool

	// TypeMap fixes the type ids. Kinds it does not list are appended on
	// first use. A nil map assigns every id by first use.
	TypeMap *TypeMap
}

// DefaultMixedOptions returns XY, interleaved, narrow-offset options that
// keep singular kinds in singular children.
func DefaultMixedOptions() *MixedOptions {
	return &MixedOptions{BuilderOptions: *DefaultBuilderOptions()}
}

func mixedOptions(opts *MixedOptions) MixedOptions {
	if opts == nil {
		return *DefaultMixedOptions()
	}
	return *opts
}

// MixedBuilder appends geometries of any kind except nested collections.
type MixedBuilder struct {
	opts     MixedOptions
	capacity MixedCapacity
	typeMap  *TypeMap
	typeIDs  []int8
	offsets  []int32

	point           *PointBuilder
	lineString      *LineStringBuilder
	polygon         *PolygonBuilder
	multiPoint      *MultiPointBuilder
	multiLineString *MultiLineStringBuilder
	multiPolygon    *MultiPolygonBuilder

	last    GeometryKind
	started bool
	pending int
}

// NewMixedBuilder creates an empty builder. A nil opts uses
// DefaultMixedOptions.
func NewMixedBuilder(opts *MixedOptions) *MixedBuilder {
	return NewMixedBuilderWithCapacity(MixedCapacity{}, opts)
}

// NewMixedBuilderWithCapacity creates a builder whose children are sized from
// c when they are first used.
func NewMixedBuilderWithCapacity(c MixedCapacity, opts *MixedOptions) *MixedBuilder {
	o := mixedOptions(opts)
	tm := &TypeMap{}
	if o.TypeMap != nil {
		tm = o.TypeMap.Clone()
	}
	n := c.Len()
	return &MixedBuilder{
		opts:     o,
		capacity: c,
		typeMap:  tm,
		typeIDs:  make([]int8, 0, n),
		offsets:  make([]int32, 0, n),
	}
}

// Len returns the number of slots pushed, including deferred nulls.
func (b *MixedBuilder) Len() int { return len(b.typeIDs) + b.pending }

// PushGeometry appends one geometry. A single-member collection stores its
// member; any other collection returns ErrUnsupportedShape.
func (b *MixedBuilder) PushGeometry(g Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	member, err := unwrapSingleton(g)
	if err != nil {
		return err
	}
	if member == nil {
		b.PushNull()
		return nil
	}
	if err := checkDim(member, b.opts.Dim); err != nil {
		return err
	}
	target, err := routeKind(member.Kind(), b.opts.PreferMulti)
	if err != nil {
		return err
	}
	m := b.mark()
	if err := b.flush(target); err != nil {
		b.rollback(m)
		return err
	}
	b.last, b.started = target, true
	if err := b.pushTo(target, member); err != nil {
		b.rollback(m)
		return err
	}
	return nil
}

// mixedMark records a builder's state so a failed push can be undone.
type mixedMark struct {
	slots    int
	pending  int
	kinds    int
	last     GeometryKind
	started  bool
	children [6]int
}

var mixedChildKinds = [6]GeometryKind{
	KindPoint, KindLineString, KindPolygon,
	KindMultiPoint, KindMultiLineString, KindMultiPolygon,
}

func (b *MixedBuilder) mark() mixedMark {
	m := mixedMark{
		slots:   len(b.typeIDs),
		pending: b.pending,
		kinds:   b.typeMap.Len(),
		last:    b.last,
		started: b.started,
	}
	for i, k := range mixedChildKinds {
		if c := b.existingChild(k); c != nil {
			m.children[i] = c.Len()
		}
	}
	return m
}

// rollback restores the state recorded by mark, dropping every slot, child
// value and type id added since.
func (b *MixedBuilder) rollback(m mixedMark) {
	b.typeIDs = b.typeIDs[:m.slots]
	b.offsets = b.offsets[:m.slots]
	b.typeMap.kinds = b.typeMap.kinds[:m.kinds]
	b.pending, b.last, b.started = m.pending, m.last, m.started
	for i, k := range mixedChildKinds {
		if c := b.existingChild(k); c != nil {
			c.truncate(m.children[i])
		}
	}
}

// childBuilder is a typed builder that can drop trailing slots.
type childBuilder interface {
	ArrayBuilder
	truncate(n int)
}

// existingChild returns the builder for kind, or nil when it was never used.
func (b *MixedBuilder) existingChild(kind GeometryKind) childBuilder {
	switch kind {
	case KindPoint:
		if b.point != nil {
			return b.point
		}
	case KindLineString:
		if b.lineString != nil {
			return b.lineString
		}
	case KindPolygon:
		if b.polygon != nil {
			return b.polygon
		}
	case KindMultiPoint:
		if b.multiPoint != nil {
			return b.multiPoint
		}
	case KindMultiLineString:
		if b.multiLineString != nil {
			return b.multiLineString
		}
	case KindMultiPolygon:
		if b.multiPolygon != nil {
			return b.multiPolygon
		}
	}
	return nil
}

// PushNull appends a null slot to the child used last. Nulls pushed before
// any geometry are held back and stored in the first child used.
func (b *MixedBuilder) PushNull() {
	if !b.started {
		b.pending++
		return
	}
	// A null push can only fail on offset overflow.
	_ = b.pushTo(b.last, nil)
}

// ExtendGeometries pushes every geometry, stopping at the first failure.
func (b *MixedBuilder) ExtendGeometries(geoms []Geometry) error {
	return extendGeometries(b, geoms)
}

func (b *MixedBuilder) flush(target GeometryKind) error {
	for ; b.pending > 0; b.pending-- {
		if err := b.pushTo(target, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *MixedBuilder) pushTo(kind GeometryKind, g Geometry) error {
	child := b.child(kind)
	off := child.Len()
	if off > math.MaxInt32 {
		return fmt.Errorf("%w: %s child exceeds int32 union offsets", ErrOffsetOverflow, kind)
	}
	if g == nil {
		child.PushNull()
	} else if err := child.PushGeometry(g); err != nil {
		return err
	}
	b.typeIDs = append(b.typeIDs, b.typeMap.assign(kind))
	b.offsets = append(b.offsets, int32(off))
	return nil
}

// child returns the builder for kind, creating it on first use.
func (b *MixedBuilder) child(kind GeometryKind) ArrayBuilder {
	o := &b.opts.BuilderOptions
	switch kind {
	case KindPoint:
		if b.point == nil {
			b.point = NewPointBuilderWithCapacity(b.capacity.Point, o)
		}
		return b.point
	case KindLineString:
		if b.lineString == nil {
			b.lineString = NewLineStringBuilderWithCapacity(b.capacity.LineString, o)
		}
		return b.lineString
	case KindPolygon:
		if b.polygon == nil {
			b.polygon = NewPolygonBuilderWithCapacity(b.capacity.Polygon, o)
		}
		return b.polygon
	case KindMultiPoint:
		if b.multiPoint == nil {
			b.multiPoint = NewMultiPointBuilderWithCapacity(b.capacity.MultiPoint, o)
		}
		return b.multiPoint
	case KindMultiLineString:
		if b.multiLineString == nil {
			b.multiLineString = NewMultiLineStringBuilderWithCapacity(b.capacity.MultiLineString, o)
		}
		return b.multiLineString
	default:
		if b.multiPolygon == nil {
			b.multiPolygon = NewMultiPolygonBuilderWithCapacity(b.capacity.MultiPolygon, o)
		}
		return b.multiPolygon
	}
}

// Finish moves the buffers into an immutable array. Children that never
// received a slot are left nil.
func (b *MixedBuilder) Finish() *MixedArray {
	if b.pending > 0 {
		_ = b.flush(nullKind(b.opts.PreferMulti))
	}
	var children MixedChildren
	if b.point != nil && b.point.Len() > 0 {
		children.Point = b.point.Finish()
	}
	if b.lineString != nil && b.lineString.Len() > 0 {
		children.LineString = b.lineString.Finish()
	}
	if b.polygon != nil && b.polygon.Len() > 0 {
		children.Polygon = b.polygon.Finish()
	}
	if b.multiPoint != nil && b.multiPoint.Len() > 0 {
		children.MultiPoint = b.multiPoint.Finish()
	}
	if b.multiLineString != nil && b.multiLineString.Len() > 0 {
		children.MultiLineString = b.multiLineString.Finish()
	}
	if b.multiPolygon != nil && b.multiPolygon.Len() > 0 {
		children.MultiPolygon = b.multiPolygon.Finish()
	}
	return &MixedArray{
		dt:       b.opts.nativeType(KindMixed),
		typeIDs:  b.typeIDs,
		offsets:  b.offsets,
		children: children,
		typeMap:  b.typeMap.Clone(),
	}
}

// NewArray implements ArrayBuilder.
func (b *MixedBuilder) NewArray() Array { return b.Finish() }
