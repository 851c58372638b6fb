package columnar

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/goccy/go-json"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// Metadata is the JSON document carried in ARROW:extension:metadata.
type Metadata struct {
	CRS   json.RawMessage `json:"crs,omitempty"`
	Edges string          `json:"edges,omitempty"`
}

// GeometryType is a geoarrow.* extension type over nested list storage.
type GeometryType struct {
	arrow.ExtensionBase
	native geoarrow.NativeType
	meta   Metadata
}

// NewGeometryType returns the extension type for t with the given metadata.
func NewGeometryType(t geoarrow.NativeType, meta Metadata) (*GeometryType, error) {
	storage, err := StorageType(t)
	if err != nil {
		return nil, err
	}
	return &GeometryType{
		ExtensionBase: arrow.ExtensionBase{Storage: storage},
		native:        t,
		meta:          meta,
	}, nil
}

// TypeFor returns the extension type of arr. Union children follow the
// array's type map.
func TypeFor(arr geoarrow.Array, meta Metadata) (*GeometryType, error) {
	storage, err := arrayStorageType(arr)
	if err != nil {
		return nil, err
	}
	return &GeometryType{
		ExtensionBase: arrow.ExtensionBase{Storage: storage},
		native:        arr.DataType(),
		meta:          meta,
	}, nil
}

// NativeType returns the geoarrow type the storage encodes.
func (t *GeometryType) NativeType() geoarrow.NativeType { return t.native }

// Metadata returns the extension metadata.
func (t *GeometryType) Metadata() Metadata { return t.meta }

func (t *GeometryType) ArrayType() reflect.Type { return reflect.TypeOf(GeometryArray{}) }

func (t *GeometryType) ExtensionName() string { return t.native.ExtensionName() }

func (t *GeometryType) ExtensionEquals(other arrow.ExtensionType) bool {
	o, ok := other.(*GeometryType)
	if !ok {
		return false
	}
	return t.native == o.native &&
		arrow.TypeEqual(t.Storage, o.Storage) &&
		t.Serialize() == o.Serialize()
}

func (t *GeometryType) Serialize() string {
	if t.meta.CRS == nil && t.meta.Edges == "" {
		return "{}"
	}
	data, err := json.Marshal(t.meta)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (t *GeometryType) Deserialize(storage arrow.DataType, data string) (arrow.ExtensionType, error) {
	native, err := NativeTypeOf(t.native.Kind, storage)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if data != "" {
		if err := json.Unmarshal([]byte(data), &meta); err != nil {
			return nil, fmt.Errorf("%s metadata: %w", t.ExtensionName(), err)
		}
	}
	return &GeometryType{
		ExtensionBase: arrow.ExtensionBase{Storage: storage},
		native:        native,
		meta:          meta,
	}, nil
}

func (t *GeometryType) String() string {
	return fmt.Sprintf("extension<%s[%s]>", t.ExtensionName(), t.native.Dim)
}

// GeometryArray is the array type of GeometryType.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// WKBType is the geoarrow.wkb extension over binary or large binary storage.
type WKBType struct {
	arrow.ExtensionBase
}

// NewWKBType returns the geoarrow.wkb extension type over binary storage.
func NewWKBType() *WKBType {
	return &WKBType{ExtensionBase: arrow.ExtensionBase{Storage: arrow.BinaryTypes.Binary}}
}

// NewLargeWKBType returns the geoarrow.wkb extension type over large binary
// storage.
func NewLargeWKBType() *WKBType {
	return &WKBType{ExtensionBase: arrow.ExtensionBase{Storage: arrow.BinaryTypes.LargeBinary}}
}

func (t *WKBType) ArrayType() reflect.Type { return reflect.TypeOf(WKBArray{}) }

func (t *WKBType) ExtensionName() string { return geoarrow.ExtensionWKB }

func (t *WKBType) ExtensionEquals(other arrow.ExtensionType) bool {
	o, ok := other.(*WKBType)
	return ok && arrow.TypeEqual(t.Storage, o.Storage)
}

func (t *WKBType) Serialize() string { return "{}" }

func (t *WKBType) Deserialize(storage arrow.DataType, _ string) (arrow.ExtensionType, error) {
	switch storage.ID() {
	case arrow.BINARY:
		return NewWKBType(), nil
	case arrow.LARGE_BINARY:
		return NewLargeWKBType(), nil
	}
	return nil, fmt.Errorf("%w: wkb storage %s is not binary", geoarrow.ErrInvalidData, storage)
}

// WKBArray is the array type of WKBType.
type WKBArray struct {
	array.ExtensionArrayBase
}

func init() {
	kinds := []geoarrow.GeometryKind{
		geoarrow.KindPoint,
		geoarrow.KindLineString,
		geoarrow.KindPolygon,
		geoarrow.KindMultiPoint,
		geoarrow.KindMultiLineString,
		geoarrow.KindMultiPolygon,
		geoarrow.KindMixed,
		geoarrow.KindGeometryCollection,
		geoarrow.KindRect,
	}
	for _, kind := range kinds {
		prototype, err := NewGeometryType(geoarrow.NativeType{Kind: kind}, Metadata{})
		if err != nil {
			panic(err)
		}
		if err := arrow.RegisterExtensionType(prototype); err != nil {
			panic(err)
		}
	}
	if err := arrow.RegisterExtensionType(NewWKBType()); err != nil {
		panic(err)
	}
}
