package columnar

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// WriteIPC writes arr as a single-column Arrow IPC stream. The column is
// named name and tagged with its geoarrow extension type.
func WriteIPC(w io.Writer, name string, arr geoarrow.Array, opts *Options) error {
	o := exportOptions(opts)

	col, err := ToArrow(arr, &o)
	if err != nil {
		return err
	}
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: col.DataType(), Nullable: true}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{col}, int64(col.Len()))
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(o.Allocator))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}

	o.Logger.Debug("wrote arrow ipc stream",
		zap.String("column", name),
		zap.Int64("rows", rec.NumRows()))
	return nil
}

// ReadIPC reads the geometry column name from every record batch of an Arrow
// IPC stream. Each batch becomes one chunk.
func ReadIPC(r io.Reader, name string, opts *Options) ([]geoarrow.Array, error) {
	o := exportOptions(opts)

	reader, err := ipc.NewReader(r, ipc.WithAllocator(o.Allocator))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer reader.Release()

	indices := reader.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no column %q", geoarrow.ErrInvalidData, name)
	}

	var chunks []geoarrow.Array
	for reader.Next() {
		chunk, err := FromArrow(reader.Record().Column(indices[0]))
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", len(chunks), err)
		}
		chunks = append(chunks, chunk)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, err
	}

	o.Logger.Debug("read arrow ipc stream",
		zap.String("column", name),
		zap.Int("batches", len(chunks)))
	return chunks, nil
}
