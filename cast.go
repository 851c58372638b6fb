package geoarrow

import (
	"fmt"
)

// Cast rebuilds arr as an array of type t by pushing every value into a
// builder for t. It returns arr itself when the types already match, and the
// builder's error when a value does not fit t.
func Cast(arr Array, t NativeType) (Array, error) {
	if arr.DataType() == t {
		return arr, nil
	}
	b, err := NewBuilder(t)
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.PushNull()
			continue
		}
		if err := b.PushGeometry(arr.Value(i)); err != nil {
			return nil, fmt.Errorf("cast %s to %s: slot %d: %w", arr.DataType(), t, i, err)
		}
	}
	return b.NewArray(), nil
}
