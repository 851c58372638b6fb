package geoarrow

// UnifyTypes returns the narrowest type every input can be stored as without
// loss. It is the one unification rule shared by downcasting and ingestion:
// identical kinds unify to themselves, and a singular kind unifies with its
// multi-part kind to the multi-part kind. Any other disagreement, including a
// dimension mismatch, has no common type and returns false.
//
// The layout is taken from the first input and the offset width is Wide if
// any input is Wide.
func UnifyTypes(types []NativeType) (NativeType, bool) {
	if len(types) == 0 {
		return NativeType{}, false
	}
	out := types[0]
	for _, t := range types[1:] {
		if t.Dim != out.Dim {
			return NativeType{}, false
		}
		kind, ok := unifyKinds(out.Kind, t.Kind)
		if !ok {
			return NativeType{}, false
		}
		out.Kind = kind
		if t.Width == Wide {
			out.Width = Wide
		}
	}
	return out, true
}

func unifyKinds(a, b GeometryKind) (GeometryKind, bool) {
	if a == b {
		return a, true
	}
	switch {
	case isSingular(a) && a.Multi() == b:
		return b, true
	case isSingular(b) && b.Multi() == a:
		return a, true
	}
	return 0, false
}

func isSingular(k GeometryKind) bool {
	return k == KindPoint || k == KindLineString || k == KindPolygon
}

// InferType returns the narrowest type that stores every non-nil geometry.
// Collections and rects are observed as themselves, so a mix of them with
// other kinds has no common type. An input with no non-nil geometry infers a
// point type.
func InferType(geoms []Geometry, layout CoordLayout, width OffsetWidth) (NativeType, bool) {
	var observed []NativeType
	seen := make(map[NativeType]bool)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		t := NativeType{Kind: g.Kind(), Layout: layout, Dim: g.Dim(), Width: width}
		if !seen[t] {
			seen[t] = true
			observed = append(observed, t)
		}
	}
	if len(observed) == 0 {
		return NativeType{Kind: KindPoint, Layout: layout, Dim: XY, Width: width}, true
	}
	return UnifyTypes(observed)
}

// fallbackType is the general type used when InferType finds no common
// type: a collection type if any input is a collection, Mixed otherwise. It
// returns false when the inputs disagree on dimension.
func fallbackType(geoms []Geometry, layout CoordLayout, width OffsetWidth) (NativeType, bool) {
	kind := KindMixed
	dim, dimSet := XY, false
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if dimSet && g.Dim() != dim {
			return NativeType{}, false
		}
		dim, dimSet = g.Dim(), true
		if g.Kind() == KindGeometryCollection {
			kind = KindGeometryCollection
		}
	}
	return NativeType{Kind: kind, Layout: layout, Dim: dim, Width: width}, true
}

// ResolveType infers the narrowest type for geoms and falls back to Mixed or
// GeometryCollection when there is none. It returns ErrDimensionMismatch
// when the inputs disagree on dimension.
func ResolveType(geoms []Geometry, layout CoordLayout, width OffsetWidth) (NativeType, error) {
	if t, ok := InferType(geoms, layout, width); ok {
		return t, nil
	}
	t, ok := fallbackType(geoms, layout, width)
	if !ok {
		return NativeType{}, ErrDimensionMismatch
	}
	return t, nil
}
