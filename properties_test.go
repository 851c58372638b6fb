package geoarrow

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb/geojson"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected flattypes.ColumnType
	}{
		{"nil", nil, flattypes.ColumnTypeString},
		{"bool true", true, flattypes.ColumnTypeBool},
		{"bool false", false, flattypes.ColumnTypeBool},
		{"int", 42, flattypes.ColumnTypeInt},
		{"large int", 1 << 40, flattypes.ColumnTypeLong},
		{"int64", int64(9999999999), flattypes.ColumnTypeLong},
		{"uint64", uint64(7), flattypes.ColumnTypeULong},
		{"float32", float32(3.14), flattypes.ColumnTypeFloat},
		{"float64", 3.14159, flattypes.ColumnTypeDouble},
		{"string", "hello", flattypes.ColumnTypeString},
		{"bytes", []byte{1, 2}, flattypes.ColumnTypeBinary},
		{"map", map[string]interface{}{"key": "value"}, flattypes.ColumnTypeJson},
		{"slice", []interface{}{1, 2, 3}, flattypes.ColumnTypeJson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := inferColumnType(tt.value)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestInferColumnType_JsonNumber(t *testing.T) {
	intNum := json.Number("42")
	result := inferColumnType(intNum)
	if result != flattypes.ColumnTypeLong {
		t.Errorf("expected Long for integer json.Number, got %v", result)
	}

	floatNum := json.Number("3.14")
	result = inferColumnType(floatNum)
	if result != flattypes.ColumnTypeDouble {
		t.Errorf("expected Double for float json.Number, got %v", result)
	}
}

func TestPromoteColumnType(t *testing.T) {
	tests := []struct {
		name     string
		a, b     flattypes.ColumnType
		expected flattypes.ColumnType
	}{
		{"same type", flattypes.ColumnTypeInt, flattypes.ColumnTypeInt, flattypes.ColumnTypeInt},
		{"int to long", flattypes.ColumnTypeInt, flattypes.ColumnTypeLong, flattypes.ColumnTypeLong},
		{"int to double", flattypes.ColumnTypeInt, flattypes.ColumnTypeDouble, flattypes.ColumnTypeDouble},
		{"bool to int", flattypes.ColumnTypeBool, flattypes.ColumnTypeInt, flattypes.ColumnTypeInt},
		{"any to json", flattypes.ColumnTypeInt, flattypes.ColumnTypeJson, flattypes.ColumnTypeJson},
		{"any to string", flattypes.ColumnTypeInt, flattypes.ColumnTypeString, flattypes.ColumnTypeString},
		{"binary and int", flattypes.ColumnTypeBinary, flattypes.ColumnTypeInt, flattypes.ColumnTypeJson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := promoteColumnType(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestInferSchema(t *testing.T) {
	props := []geojson.Properties{
		{"name": "test", "value": 42, "active": true},
		{"name": "test2", "value": 1.5, "score": 3.14},
		nil,
		{"note": nil},
	}

	s := inferSchema(props)
	if s == nil {
		t.Fatal("expected a schema")
	}

	// Columns are sorted by name
	if diff := cmp.Diff([]string{"active", "name", "note", "score", "value"}, s.names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	want := []flattypes.ColumnType{
		flattypes.ColumnTypeBool,
		flattypes.ColumnTypeString,
		flattypes.ColumnTypeString,
		flattypes.ColumnTypeDouble,
		flattypes.ColumnTypeDouble,
	}
	if diff := cmp.Diff(want, s.types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	if cols := s.columns(flatbuffers.NewBuilder(256)); len(cols) != 5 {
		t.Errorf("expected 5 columns, got %d", len(cols))
	}
}

func TestInferSchema_Empty(t *testing.T) {
	if s := inferSchema(nil); s != nil {
		t.Error("expected nil schema for no properties")
	}
	if s := inferSchema([]geojson.Properties{{}, nil}); s != nil {
		t.Error("expected nil schema for empty properties")
	}
	if cols := (*columnSchema)(nil).columns(flatbuffers.NewBuilder(64)); cols != nil {
		t.Error("expected nil columns for a nil schema")
	}
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		colType flattypes.ColumnType
		want    []byte
		ok      bool
	}{
		{"bool", true, flattypes.ColumnTypeBool, []byte{1}, true},
		{"not a bool", "yes", flattypes.ColumnTypeBool, nil, false},
		{"int", 258, flattypes.ColumnTypeInt, []byte{2, 1, 0, 0}, true},
		{"long from float", 3.9, flattypes.ColumnTypeLong, []byte{3, 0, 0, 0, 0, 0, 0, 0}, true},
		{"string", "ab", flattypes.ColumnTypeString, []byte{2, 0, 0, 0, 'a', 'b'}, true},
		{"json", []int{1}, flattypes.ColumnTypeJson, []byte{3, 0, 0, 0, '[', '1', ']'}, true},
		{"binary", []byte{9}, flattypes.ColumnTypeBinary, []byte{1, 0, 0, 0, 9}, true},
		{"not binary", 9, flattypes.ColumnTypeBinary, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := encodeValue(tt.value, tt.colType)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got ok=%v", tt.ok, ok)
			}
			if ok {
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("bytes mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestReadPropertyValue(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		colType flattypes.ColumnType
		want    interface{}
		n       int
	}{
		{"bool", []byte{1}, flattypes.ColumnTypeBool, true, 1},
		{"int", []byte{2, 1, 0, 0}, flattypes.ColumnTypeInt, int32(258), 4},
		{"uint", []byte{2, 1, 0, 0}, flattypes.ColumnTypeUInt, uint32(258), 4},
		{"string", []byte{2, 0, 0, 0, 'a', 'b'}, flattypes.ColumnTypeString, "ab", 6},
		{"json", []byte{3, 0, 0, 0, '[', '1', ']'}, flattypes.ColumnTypeJson, []interface{}{float64(1)}, 7},
		{"truncated int", []byte{1, 2}, flattypes.ColumnTypeInt, nil, 0},
		{"truncated string", []byte{5, 0, 0, 0, 'a'}, flattypes.ColumnTypeString, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := readPropertyValue(tt.data, tt.colType)
			if n != tt.n {
				t.Fatalf("expected %d bytes read, got %d", tt.n, n)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// schemaHeader builds a FlatGeobuf header carrying the columns of s.
func schemaHeader(t *testing.T, s *columnSchema) *flattypes.Header {
	t.Helper()
	builder := flatbuffers.NewBuilder(256)
	h := writer.NewHeader(builder)
	h.SetColumns(s.columns(builder))
	builder.Finish(h.Build())
	return flattypes.GetRootAsHeader(builder.FinishedBytes(), 0)
}

func TestEncodeDecodeProperties(t *testing.T) {
	props := []geojson.Properties{
		{"name": "a", "count": 7, "ok": true, "tags": []interface{}{"x"}},
		{"name": "b", "count": nil},
	}
	s := inferSchema(props)
	header := schemaHeader(t, s)

	got, err := decodeProperties(s.encodeProperties(props[0]), header)
	if err != nil {
		t.Fatalf("decodeProperties failed: %v", err)
	}
	want := geojson.Properties{"name": "a", "count": int32(7), "ok": true, "tags": []interface{}{"x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	// Null values are omitted
	got, err = decodeProperties(s.encodeProperties(props[1]), header)
	if err != nil {
		t.Fatalf("decodeProperties failed: %v", err)
	}
	if diff := cmp.Diff(geojson.Properties{"name": "b"}, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProperties_Invalid(t *testing.T) {
	s := inferSchema([]geojson.Properties{{"count": 1}})
	header := schemaHeader(t, s)

	if _, err := decodeProperties([]byte{0}, header); !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData for a truncated index, got %v", err)
	}

	bad := binary.LittleEndian.AppendUint16(nil, 5)
	if _, err := decodeProperties(bad, header); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("expected ErrInvalidColumn, got %v", err)
	}

	short := append(binary.LittleEndian.AppendUint16(nil, 0), 1, 0)
	if _, err := decodeProperties(short, header); !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData for a truncated value, got %v", err)
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected int64
		ok       bool
	}{
		{"int", 42, 42, true},
		{"int64", int64(100), 100, true},
		{"float64", 3.9, 3, true},
		{"json number", json.Number("12"), 12, true},
		{"string", "hello", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toInt64(tt.value)
			if ok != tt.ok {
				t.Errorf("expected ok=%v, got ok=%v", tt.ok, ok)
			}
			if ok && result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestToUint64(t *testing.T) {
	if v, ok := toUint64(uint64(1 << 63)); !ok || v != 1<<63 {
		t.Errorf("expected 1<<63, got %d (ok=%v)", v, ok)
	}
	if _, ok := toUint64(-1); ok {
		t.Error("expected negative values to be rejected")
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected float64
		ok       bool
	}{
		{"float64", 3.14, 3.14, true},
		{"float32", float32(2.5), 2.5, true},
		{"int", 42, 42.0, true},
		{"string", "hello", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toFloat64(tt.value)
			if ok != tt.ok {
				t.Errorf("expected ok=%v, got ok=%v", tt.ok, ok)
			}
			if ok && result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"string", "hello", "hello"},
		{"bytes", []byte("world"), "world"},
		{"int", 42, "42"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toString(tt.value)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}
