package geoarrow

// Capacity types count, for a set of geometries, the exact buffer lengths a
// builder produces for them. Passing a capacity to a builder sizes every
// buffer once. The counts mirror the builders' push rules, so a capacity
// computed from some input equals BufferLengths() of the array built from it.

// PointCapacity counts the slots of a point array. Each slot owns exactly one
// coordinate.
type PointCapacity struct {
	Geoms int
}

// AddPoint counts one point. A nil point counts as a null slot.
func (c *PointCapacity) AddPoint(Point) {
	c.Geoms++
}

// AddGeometry counts one geometry accepted by PointBuilder.PushGeometry.
func (c *PointCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.Geoms++
		return nil
	}
	switch g.Kind() {
	case KindPoint:
	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return err
		}
		if mp.NumPoints() != 1 {
			return incorrectType(g, KindPoint)
		}
	default:
		return incorrectType(g, KindPoint)
	}
	c.Geoms++
	return nil
}

// Add merges another capacity into c.
func (c *PointCapacity) Add(other PointCapacity) {
	c.Geoms += other.Geoms
}

// PointCapacityFromGeometries scans geoms once.
func PointCapacityFromGeometries(geoms []Geometry) (PointCapacity, error) {
	var c PointCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// LineStringCapacity counts coordinates and slots of a line string array.
type LineStringCapacity struct {
	Coords int
	Geoms  int
}

// AddLineString counts one line string. A nil value counts as a null slot.
func (c *LineStringCapacity) AddLineString(ls LineString) {
	c.Geoms++
	if ls != nil {
		c.Coords += ls.NumCoords()
	}
}

// AddGeometry counts one geometry accepted by LineStringBuilder.PushGeometry.
func (c *LineStringCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.AddLineString(nil)
		return nil
	}
	switch g.Kind() {
	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return err
		}
		c.AddLineString(ls)
	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return err
		}
		if mls.NumLineStrings() != 1 {
			return incorrectType(g, KindLineString)
		}
		c.AddLineString(mls.LineStringAt(0))
	default:
		return incorrectType(g, KindLineString)
	}
	return nil
}

// Add merges another capacity into c.
func (c *LineStringCapacity) Add(other LineStringCapacity) {
	c.Coords += other.Coords
	c.Geoms += other.Geoms
}

// LineStringCapacityFromGeometries scans geoms once.
func LineStringCapacityFromGeometries(geoms []Geometry) (LineStringCapacity, error) {
	var c LineStringCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// PolygonCapacity counts coordinates, rings and slots of a polygon array.
type PolygonCapacity struct {
	Coords int
	Rings  int
	Geoms  int
}

// AddPolygon counts one polygon. A nil value counts as a null slot.
func (c *PolygonCapacity) AddPolygon(p Polygon) {
	c.Geoms++
	if p == nil {
		return
	}
	rings, coords := polygonSize(p)
	c.Rings += rings
	c.Coords += coords
}

// AddRect counts one rect stored as a five-coordinate polygon.
func (c *PolygonCapacity) AddRect(r Rect) {
	if r == nil {
		c.AddPolygon(nil)
		return
	}
	c.AddPolygon(RectAsPolygon(r))
}

// AddGeometry counts one geometry accepted by PolygonBuilder.PushGeometry.
func (c *PolygonCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.AddPolygon(nil)
		return nil
	}
	switch g.Kind() {
	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return err
		}
		c.AddPolygon(p)
	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return err
		}
		if mp.NumPolygons() != 1 {
			return incorrectType(g, KindPolygon)
		}
		c.AddPolygon(mp.PolygonAt(0))
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return err
		}
		c.AddRect(r)
	default:
		return incorrectType(g, KindPolygon)
	}
	return nil
}

// Add merges another capacity into c.
func (c *PolygonCapacity) Add(other PolygonCapacity) {
	c.Coords += other.Coords
	c.Rings += other.Rings
	c.Geoms += other.Geoms
}

// PolygonCapacityFromGeometries scans geoms once.
func PolygonCapacityFromGeometries(geoms []Geometry) (PolygonCapacity, error) {
	var c PolygonCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// MultiPointCapacity counts coordinates and slots of a multipoint array.
type MultiPointCapacity struct {
	Coords int
	Geoms  int
}

// AddMultiPoint counts one multipoint. A nil value counts as a null slot.
func (c *MultiPointCapacity) AddMultiPoint(mp MultiPoint) {
	c.Geoms++
	if mp != nil {
		c.Coords += mp.NumPoints()
	}
}

// AddPoint counts one point stored as a multipoint. Empty points become empty
// multipoints.
func (c *MultiPointCapacity) AddPoint(p Point) {
	c.Geoms++
	if p == nil {
		return
	}
	if _, ok := p.Coord(); ok {
		c.Coords++
	}
}

// AddGeometry counts one geometry accepted by MultiPointBuilder.PushGeometry.
func (c *MultiPointCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.AddMultiPoint(nil)
		return nil
	}
	switch g.Kind() {
	case KindPoint:
		p, err := asPoint(g)
		if err != nil {
			return err
		}
		c.AddPoint(p)
	case KindMultiPoint:
		mp, err := asMultiPoint(g)
		if err != nil {
			return err
		}
		c.AddMultiPoint(mp)
	default:
		return incorrectType(g, KindMultiPoint)
	}
	return nil
}

// Add merges another capacity into c.
func (c *MultiPointCapacity) Add(other MultiPointCapacity) {
	c.Coords += other.Coords
	c.Geoms += other.Geoms
}

// MultiPointCapacityFromGeometries scans geoms once.
func MultiPointCapacityFromGeometries(geoms []Geometry) (MultiPointCapacity, error) {
	var c MultiPointCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// MultiLineStringCapacity counts coordinates, line strings and slots of a
// multilinestring array.
type MultiLineStringCapacity struct {
	Coords int
	Lines  int
	Geoms  int
}

// AddMultiLineString counts one multilinestring. A nil value counts as a null
// slot.
func (c *MultiLineStringCapacity) AddMultiLineString(mls MultiLineString) {
	c.Geoms++
	if mls == nil {
		return
	}
	c.Lines += mls.NumLineStrings()
	for i := 0; i < mls.NumLineStrings(); i++ {
		c.Coords += mls.LineStringAt(i).NumCoords()
	}
}

// AddLineString counts one line string stored as a single-part
// multilinestring. Empty line strings become empty multilinestrings.
func (c *MultiLineStringCapacity) AddLineString(ls LineString) {
	c.Geoms++
	if ls == nil || ls.NumCoords() == 0 {
		return
	}
	c.Lines++
	c.Coords += ls.NumCoords()
}

// AddGeometry counts one geometry accepted by
// MultiLineStringBuilder.PushGeometry.
func (c *MultiLineStringCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.AddMultiLineString(nil)
		return nil
	}
	switch g.Kind() {
	case KindLineString:
		ls, err := asLineString(g)
		if err != nil {
			return err
		}
		c.AddLineString(ls)
	case KindMultiLineString:
		mls, err := asMultiLineString(g)
		if err != nil {
			return err
		}
		c.AddMultiLineString(mls)
	default:
		return incorrectType(g, KindMultiLineString)
	}
	return nil
}

// Add merges another capacity into c.
func (c *MultiLineStringCapacity) Add(other MultiLineStringCapacity) {
	c.Coords += other.Coords
	c.Lines += other.Lines
	c.Geoms += other.Geoms
}

// MultiLineStringCapacityFromGeometries scans geoms once.
func MultiLineStringCapacityFromGeometries(geoms []Geometry) (MultiLineStringCapacity, error) {
	var c MultiLineStringCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// MultiPolygonCapacity counts coordinates, rings, polygons and slots of a
// multipolygon array.
type MultiPolygonCapacity struct {
	Coords   int
	Rings    int
	Polygons int
	Geoms    int
}

// AddMultiPolygon counts one multipolygon. A nil value counts as a null slot.
func (c *MultiPolygonCapacity) AddMultiPolygon(mp MultiPolygon) {
	c.Geoms++
	if mp == nil {
		return
	}
	c.Polygons += mp.NumPolygons()
	for i := 0; i < mp.NumPolygons(); i++ {
		rings, coords := polygonSize(mp.PolygonAt(i))
		c.Rings += rings
		c.Coords += coords
	}
}

// AddPolygon counts one polygon stored as a single-part multipolygon. Empty
// polygons become empty multipolygons.
func (c *MultiPolygonCapacity) AddPolygon(p Polygon) {
	c.Geoms++
	if p == nil {
		return
	}
	rings, coords := polygonSize(p)
	if rings == 0 {
		return
	}
	c.Polygons++
	c.Rings += rings
	c.Coords += coords
}

// AddGeometry counts one geometry accepted by MultiPolygonBuilder.PushGeometry.
func (c *MultiPolygonCapacity) AddGeometry(g Geometry) error {
	if g == nil {
		c.AddMultiPolygon(nil)
		return nil
	}
	switch g.Kind() {
	case KindPolygon:
		p, err := asPolygon(g)
		if err != nil {
			return err
		}
		c.AddPolygon(p)
	case KindMultiPolygon:
		mp, err := asMultiPolygon(g)
		if err != nil {
			return err
		}
		c.AddMultiPolygon(mp)
	case KindRect:
		r, err := asRect(g)
		if err != nil {
			return err
		}
		c.AddPolygon(RectAsPolygon(r))
	default:
		return incorrectType(g, KindMultiPolygon)
	}
	return nil
}

// Add merges another capacity into c.
func (c *MultiPolygonCapacity) Add(other MultiPolygonCapacity) {
	c.Coords += other.Coords
	c.Rings += other.Rings
	c.Polygons += other.Polygons
	c.Geoms += other.Geoms
}

// MultiPolygonCapacityFromGeometries scans geoms once.
func MultiPolygonCapacityFromGeometries(geoms []Geometry) (MultiPolygonCapacity, error) {
	var c MultiPolygonCapacity
	for _, g := range geoms {
		if err := c.AddGeometry(g); err != nil {
			return c, err
		}
	}
	return c, nil
}

// RectCapacity counts the slots of a rect array.
type RectCapacity struct {
	Geoms int
}

// AddGeometry counts one geometry accepted by RectBuilder.PushGeometry.
func (c *RectCapacity) AddGeometry(g Geometry) error {
	if g != nil && g.Kind() != KindRect {
		return incorrectType(g, KindRect)
	}
	c.Geoms++
	return nil
}

// Add merges another capacity into c.
func (c *RectCapacity) Add(other RectCapacity) {
	c.Geoms += other.Geoms
}

// MixedCapacity holds one capacity per child of a mixed array.
type MixedCapacity struct {
	Point           PointCapacity
	LineString      LineStringCapacity
	Polygon         PolygonCapacity
	MultiPoint      MultiPointCapacity
	MultiLineString MultiLineStringCapacity
	MultiPolygon    MultiPolygonCapacity
}

// Len returns the total number of child slots.
func (c MixedCapacity) Len() int {
	return c.Point.Geoms + c.LineString.Geoms + c.Polygon.Geoms +
		c.MultiPoint.Geoms + c.MultiLineString.Geoms + c.MultiPolygon.Geoms
}

// Add merges another capacity into c.
func (c *MixedCapacity) Add(other MixedCapacity) {
	c.Point.Add(other.Point)
	c.LineString.Add(other.LineString)
	c.Polygon.Add(other.Polygon)
	c.MultiPoint.Add(other.MultiPoint)
	c.MultiLineString.Add(other.MultiLineString)
	c.MultiPolygon.Add(other.MultiPolygon)
}

func (c *MixedCapacity) addTo(kind GeometryKind, g Geometry) error {
	switch kind {
	case KindPoint:
		return c.Point.AddGeometry(g)
	case KindLineString:
		return c.LineString.AddGeometry(g)
	case KindPolygon:
		return c.Polygon.AddGeometry(g)
	case KindMultiPoint:
		return c.MultiPoint.AddGeometry(g)
	case KindMultiLineString:
		return c.MultiLineString.AddGeometry(g)
	case KindMultiPolygon:
		return c.MultiPolygon.AddGeometry(g)
	default:
		return incorrectType(g, KindMixed)
	}
}

// MixedCapacityFromGeometries scans geoms once, routing each geometry and
// null exactly as a MixedBuilder with the same preferMulti setting would.
func MixedCapacityFromGeometries(geoms []Geometry, preferMulti bool) (MixedCapacity, error) {
	e := mixedEstimator{preferMulti: preferMulti}
	for _, g := range geoms {
		if err := e.add(g); err != nil {
			return e.capacity, err
		}
	}
	return e.finish(), nil
}

// GeometryCollectionCapacity counts the slots of a geometry collection array
// and the capacity of its member array.
type GeometryCollectionCapacity struct {
	Mixed MixedCapacity
	Geoms int
}

// Add merges another capacity into c.
func (c *GeometryCollectionCapacity) Add(other GeometryCollectionCapacity) {
	c.Mixed.Add(other.Mixed)
	c.Geoms += other.Geoms
}

// GeometryCollectionCapacityFromGeometries scans geoms once. Non-collection
// geometries count as single-member collections.
func GeometryCollectionCapacityFromGeometries(geoms []Geometry, preferMulti bool) (GeometryCollectionCapacity, error) {
	var c GeometryCollectionCapacity
	e := mixedEstimator{preferMulti: preferMulti}
	for _, g := range geoms {
		c.Geoms++
		if g == nil {
			continue
		}
		if g.Kind() != KindGeometryCollection {
			if err := e.add(g); err != nil {
				return c, err
			}
			continue
		}
		gc, err := asGeometryCollection(g)
		if err != nil {
			return c, err
		}
		for i := 0; i < gc.NumGeometries(); i++ {
			if err := e.add(gc.GeometryAt(i)); err != nil {
				return c, err
			}
		}
	}
	c.Mixed = e.finish()
	return c, nil
}

// mixedEstimator replays MixedBuilder's routing without storing data.
type mixedEstimator struct {
	capacity    MixedCapacity
	preferMulti bool
	last        GeometryKind
	started     bool
	pending     int
}

func (e *mixedEstimator) add(g Geometry) error {
	if g == nil {
		if !e.started {
			e.pending++
			return nil
		}
		return e.capacity.addTo(e.last, nil)
	}
	member, err := unwrapSingleton(g)
	if err != nil {
		return err
	}
	if member == nil {
		return e.add(nil)
	}
	target, err := routeKind(member.Kind(), e.preferMulti)
	if err != nil {
		return err
	}
	e.flush(target)
	e.last, e.started = target, true
	return e.capacity.addTo(target, member)
}

func (e *mixedEstimator) flush(target GeometryKind) {
	for ; e.pending > 0; e.pending-- {
		_ = e.capacity.addTo(target, nil)
	}
}

func (e *mixedEstimator) finish() MixedCapacity {
	if e.pending > 0 {
		e.flush(nullKind(e.preferMulti))
	}
	return e.capacity
}

// polygonSize returns the ring and coordinate counts of a polygon.
func polygonSize(p Polygon) (rings, coords int) {
	ext, ok := p.Exterior()
	if !ok {
		return 0, 0
	}
	rings = 1 + p.NumInteriors()
	coords = ext.NumCoords()
	for i := 0; i < p.NumInteriors(); i++ {
		coords += p.Interior(i).NumCoords()
	}
	return rings, coords
}
