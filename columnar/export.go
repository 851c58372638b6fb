package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// Options configures Arrow export.
type Options struct {
	Allocator memory.Allocator
	Metadata  Metadata
	Logger    *zap.Logger
}

// DefaultOptions returns options using the Go allocator and empty metadata.
func DefaultOptions() *Options {
	return &Options{
		Allocator: memory.NewGoAllocator(),
		Logger:    zap.NewNop(),
	}
}

func exportOptions(opts *Options) Options {
	if opts == nil {
		return *DefaultOptions()
	}
	o := *opts
	if o.Allocator == nil {
		o.Allocator = memory.NewGoAllocator()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ToArrow wraps arr in an Arrow extension array. Coordinate, offset and
// validity buffers are shared with arr, not copied, so arr must not be
// mutated while the result is alive. The caller owns the result and must
// Release it.
func ToArrow(arr geoarrow.Array, opts *Options) (arrow.Array, error) {
	o := exportOptions(opts)

	ext, err := TypeFor(arr, o.Metadata)
	if err != nil {
		return nil, err
	}

	data, err := storageData(arr, ext.StorageType(), o.Allocator)
	if err != nil {
		return nil, err
	}
	defer data.Release()
	storage := array.MakeFromData(data)
	defer storage.Release()

	o.Logger.Debug("exported arrow array",
		zap.String("extension", ext.ExtensionName()),
		zap.Stringer("storage", ext.StorageType()),
		zap.Int("slots", storage.Len()),
		zap.Int("nulls", storage.NullN()))

	return array.NewExtensionArrayWithStorage(ext, storage), nil
}

// ToArrowWKB encodes arr as a geoarrow.wkb extension array of little-endian
// WKB values. Null slots stay null.
func ToArrowWKB(arr geoarrow.Array, opts *Options) (arrow.Array, error) {
	o := exportOptions(opts)

	values, err := geoarrow.ToWKB(arr)
	if err != nil {
		return nil, err
	}

	b := array.NewBinaryBuilder(o.Allocator, arrow.BinaryTypes.Binary)
	defer b.Release()
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}

	storage := b.NewArray()
	defer storage.Release()
	return array.NewExtensionArrayWithStorage(NewWKBType(), storage), nil
}

// Field returns a schema field for arr named name.
func Field(arr geoarrow.Array, name string, meta Metadata) (arrow.Field, error) {
	ext, err := TypeFor(arr, meta)
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: name, Type: ext, Nullable: true}, nil
}
