package geoarrow

import (
	"go.uber.org/zap"
)

// IngestOptions configures building arrays from parsed or serialized input.
type IngestOptions struct {
	// Layout of the output coordinates.
	Layout CoordLayout

	// Width of the output offsets.
	Width OffsetWidth

	// Downcast the built array after ingestion.
	Downcast bool

	// Logger receives debug output about type inference. Nil disables
	// logging.
	Logger *zap.Logger
}

// DefaultIngestOptions returns interleaved, narrow-offset options.
func DefaultIngestOptions() *IngestOptions {
	return &IngestOptions{
		Layout:   Interleaved,
		Width:    Narrow,
		Downcast: false,
		Logger:   zap.NewNop(),
	}
}

func ingestOptions(opts *IngestOptions) IngestOptions {
	if opts == nil {
		return *DefaultIngestOptions()
	}
	o := *opts
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Ingest builds one array holding geoms. The type is inferred with
// InferType; inputs with no common type are stored as Mixed, or as
// GeometryCollection when any input is a collection. Nil entries become null
// slots. Inputs that disagree on dimension return ErrDimensionMismatch.
func Ingest(geoms []Geometry, opts *IngestOptions) (Array, error) {
	o := ingestOptions(opts)
	t, err := ResolveType(geoms, o.Layout, o.Width)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("inferred geometry type",
		zap.Stringer("type", t),
		zap.Int("geometries", len(geoms)))
	arr, err := BuildArray(t, geoms)
	if err != nil {
		return nil, err
	}
	if o.Downcast {
		return Downcast(arr, &DowncastOptions{Logger: o.Logger})
	}
	return arr, nil
}
