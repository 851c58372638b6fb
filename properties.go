package geoarrow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// columnSchema is the property layout shared by every feature of a file.
// Columns are sorted by name so output is deterministic.
type columnSchema struct {
	names []string
	types []flattypes.ColumnType
}

// inferSchema analyzes per-slot properties and infers the column schema.
// Conflicting value types are promoted to the more general column type.
func inferSchema(props []geojson.Properties) *columnSchema {
	columnTypes := make(map[string]flattypes.ColumnType)
	seen := make(map[string]bool)
	for _, p := range props {
		for name, value := range p {
			if value == nil {
				// Default to string for columns that only hold nulls
				if _, exists := columnTypes[name]; !exists {
					columnTypes[name] = flattypes.ColumnTypeString
				}
				continue
			}
			inferred := inferColumnType(value)
			if seen[name] {
				columnTypes[name] = promoteColumnType(columnTypes[name], inferred)
			} else {
				columnTypes[name] = inferred
				seen[name] = true
			}
		}
	}
	if len(columnTypes) == 0 {
		return nil
	}

	s := &columnSchema{}
	for name := range columnTypes {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	s.types = make([]flattypes.ColumnType, len(s.names))
	for i, name := range s.names {
		s.types[i] = columnTypes[name]
	}
	return s
}

// columns creates the FlatGeobuf column definitions for the schema.
func (s *columnSchema) columns(builder *flatbuffers.Builder) []*writer.Column {
	if s == nil {
		return nil
	}
	columns := make([]*writer.Column, 0, len(s.names))
	for i, name := range s.names {
		col := writer.NewColumn(builder)
		col.SetName(name)
		col.SetTitle(name) // Set title to match name for JS library compatibility
		col.SetType(s.types[i])
		col.SetNullable(true)
		columns = append(columns, col)
	}
	return columns
}

// inferColumnType determines the FlatGeobuf column type for a Go value.
func inferColumnType(value interface{}) flattypes.ColumnType {
	if value == nil {
		return flattypes.ColumnTypeString // Default to string for nil
	}

	switch v := value.(type) {
	case bool:
		return flattypes.ColumnTypeBool
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return flattypes.ColumnTypeInt
		}
		return flattypes.ColumnTypeLong
	case int8, int16, int32:
		return flattypes.ColumnTypeInt
	case int64:
		return flattypes.ColumnTypeLong
	case uint, uint8, uint16, uint32:
		return flattypes.ColumnTypeUInt
	case uint64:
		return flattypes.ColumnTypeULong
	case float32:
		return flattypes.ColumnTypeFloat
	case float64:
		return flattypes.ColumnTypeDouble
	case string:
		return flattypes.ColumnTypeString
	case []byte:
		return flattypes.ColumnTypeBinary
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return flattypes.ColumnTypeLong
		}
		return flattypes.ColumnTypeDouble
	default:
		return flattypes.ColumnTypeJson
	}
}

// promoteColumnType returns the more general type when there's a conflict.
func promoteColumnType(a, b flattypes.ColumnType) flattypes.ColumnType {
	if a == b {
		return a
	}

	if a == flattypes.ColumnTypeJson || b == flattypes.ColumnTypeJson {
		return flattypes.ColumnTypeJson
	}

	if a == flattypes.ColumnTypeString || b == flattypes.ColumnTypeString {
		return flattypes.ColumnTypeString
	}

	rankA, okA := numericRank[a]
	rankB, okB := numericRank[b]
	if okA && okB {
		if rankA > rankB {
			return a
		}
		return b
	}

	return flattypes.ColumnTypeJson
}

var numericRank = map[flattypes.ColumnType]int{
	flattypes.ColumnTypeBool:   0,
	flattypes.ColumnTypeByte:   1,
	flattypes.ColumnTypeUByte:  2,
	flattypes.ColumnTypeShort:  3,
	flattypes.ColumnTypeUShort: 4,
	flattypes.ColumnTypeInt:    5,
	flattypes.ColumnTypeUInt:   6,
	flattypes.ColumnTypeLong:   7,
	flattypes.ColumnTypeULong:  8,
	flattypes.ColumnTypeFloat:  9,
	flattypes.ColumnTypeDouble: 10,
}

// encodeProperties encodes one feature's properties to FlatGeobuf binary
// format: [2-byte column index][value bytes], repeated in column order.
// Null values and values that cannot be represented in their column are
// skipped.
func (s *columnSchema) encodeProperties(props geojson.Properties) []byte {
	if s == nil || len(props) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i, name := range s.names {
		value, ok := props[name]
		if !ok || value == nil {
			continue
		}
		encoded, ok := encodeValue(value, s.types[i])
		if !ok {
			continue
		}
		buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(i)))
		buf.Write(encoded)
	}
	return buf.Bytes()
}

// encodeValue encodes a value as colType.
func encodeValue(value interface{}, colType flattypes.ColumnType) ([]byte, bool) {
	switch colType {
	case flattypes.ColumnTypeBool:
		v, ok := value.(bool)
		if !ok {
			return nil, false
		}
		if v {
			return []byte{1}, true
		}
		return []byte{0}, true

	case flattypes.ColumnTypeByte, flattypes.ColumnTypeUByte:
		v, ok := toInt64(value)
		return []byte{byte(v)}, ok

	case flattypes.ColumnTypeShort, flattypes.ColumnTypeUShort:
		v, ok := toInt64(value)
		return binary.LittleEndian.AppendUint16(nil, uint16(v)), ok

	case flattypes.ColumnTypeInt, flattypes.ColumnTypeUInt:
		v, ok := toInt64(value)
		return binary.LittleEndian.AppendUint32(nil, uint32(v)), ok

	case flattypes.ColumnTypeLong:
		v, ok := toInt64(value)
		return binary.LittleEndian.AppendUint64(nil, uint64(v)), ok

	case flattypes.ColumnTypeULong:
		v, ok := toUint64(value)
		return binary.LittleEndian.AppendUint64(nil, v), ok

	case flattypes.ColumnTypeFloat:
		v, ok := toFloat64(value)
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v))), ok

	case flattypes.ColumnTypeDouble:
		v, ok := toFloat64(value)
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)), ok

	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		s := toString(value)
		return append(binary.LittleEndian.AppendUint32(nil, uint32(len(s))), s...), true

	case flattypes.ColumnTypeJson:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		return append(binary.LittleEndian.AppendUint32(nil, uint32(len(b))), b...), true

	case flattypes.ColumnTypeBinary:
		b, ok := value.([]byte)
		if !ok {
			return nil, false
		}
		return append(binary.LittleEndian.AppendUint32(nil, uint32(len(b))), b...), true
	}
	return nil, false
}

// decodeProperties decodes FlatGeobuf binary properties.
func decodeProperties(data []byte, header *flattypes.Header) (geojson.Properties, error) {
	if len(data) == 0 || header == nil {
		return nil, nil
	}

	props := make(geojson.Properties)
	offset := 0

	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated column index", ErrInvalidData)
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidColumn, colIndex)
		}

		value, bytesRead := readPropertyValue(data[offset:], col.Type())
		if bytesRead == 0 {
			return nil, fmt.Errorf("%w: truncated %s value for column %q",
				ErrInvalidData, flattypes.EnumNamesColumnType[col.Type()], col.Name())
		}
		offset += bytesRead

		props[string(col.Name())] = value
	}

	return props, nil
}

// readPropertyValue reads a property value from the buffer.
// Returns the value and number of bytes read.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (interface{}, int) {
	switch colType {
	case flattypes.ColumnTypeBool:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0] != 0, 1

	case flattypes.ColumnTypeByte:
		if len(data) < 1 {
			return nil, 0
		}
		return int8(data[0]), 1

	case flattypes.ColumnTypeUByte:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0], 1

	case flattypes.ColumnTypeShort:
		if len(data) < 2 {
			return nil, 0
		}
		return int16(binary.LittleEndian.Uint16(data[:2])), 2

	case flattypes.ColumnTypeUShort:
		if len(data) < 2 {
			return nil, 0
		}
		return binary.LittleEndian.Uint16(data[:2]), 2

	case flattypes.ColumnTypeInt:
		if len(data) < 4 {
			return nil, 0
		}
		return int32(binary.LittleEndian.Uint32(data[:4])), 4

	case flattypes.ColumnTypeUInt:
		if len(data) < 4 {
			return nil, 0
		}
		return binary.LittleEndian.Uint32(data[:4]), 4

	case flattypes.ColumnTypeLong:
		if len(data) < 8 {
			return nil, 0
		}
		return int64(binary.LittleEndian.Uint64(data[:8])), 8

	case flattypes.ColumnTypeULong:
		if len(data) < 8 {
			return nil, 0
		}
		return binary.LittleEndian.Uint64(data[:8]), 8

	case flattypes.ColumnTypeFloat:
		if len(data) < 4 {
			return nil, 0
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data[:4])), 4

	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data[:8])), 8

	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		b, n := readSized(data)
		if n == 0 {
			return nil, 0
		}
		return string(b), n

	case flattypes.ColumnTypeJson:
		b, n := readSized(data)
		if n == 0 {
			return nil, 0
		}
		var v interface{}
		if err := json.Unmarshal(b, &v); err != nil {
			return string(b), n
		}
		return v, n

	case flattypes.ColumnTypeBinary:
		b, n := readSized(data)
		if n == 0 {
			return nil, 0
		}
		return append([]byte(nil), b...), n
	}
	return nil, 0
}

// readSized reads a uint32 length prefix and the bytes it covers.
func readSized(data []byte) ([]byte, int) {
	if len(data) < 4 {
		return nil, 0
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	if len(data) < 4+length {
		return nil, 0
	}
	return data[4 : 4+length], 4 + length
}

// Type conversion helpers

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
		if f, err := val.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func toUint64(v interface{}) (uint64, bool) {
	if i, ok := toInt64(v); ok && i >= 0 {
		if u, isUint := v.(uint64); isUint {
			return u, true
		}
		return uint64(i), true
	}
	if u, ok := v.(uint64); ok {
		return u, true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
		return 0, false
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
