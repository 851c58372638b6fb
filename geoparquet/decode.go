package geoparquet

import (
	"fmt"

	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
)

// DecodeWKB ingests the WKB values of a column described by meta. The result
// has the column's target type, so a MultiPolygon column whose values happen
// to be single polygons still decodes as MultiPolygon. A column with no
// declared geometry types takes its dimension from the values.
func DecodeWKB(values [][]byte, meta ColumnMetadata, opts *geoarrow.IngestOptions) (geoarrow.Array, error) {
	o := *geoarrow.DefaultIngestOptions()
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	target, err := meta.TargetType(o.Layout)
	if err != nil {
		return nil, err
	}
	target.Width = o.Width

	o.Downcast = false
	arr, err := geoarrow.FromWKB(values, &o)
	if err != nil {
		return nil, err
	}

	if len(meta.GeometryTypes) == 0 {
		ingested := arr.DataType()
		target.Dim = ingested.Dim
		if target.Kind == geoarrow.KindMixed && ingested.Kind == geoarrow.KindGeometryCollection {
			target.Kind = geoarrow.KindGeometryCollection
		}
	}

	o.Logger.Debug("decoded geoparquet column",
		zap.Stringer("ingested", arr.DataType()),
		zap.Stringer("target", target))

	out, err := geoarrow.Cast(arr, target)
	if err != nil {
		return nil, fmt.Errorf("geoparquet: column does not match its geometry types: %w", err)
	}
	if opts != nil && opts.Downcast {
		return geoarrow.Downcast(out, &geoarrow.DowncastOptions{Logger: o.Logger})
	}
	return out, nil
}
