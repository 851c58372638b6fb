package geoarrow

import (
	"fmt"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Write writes a geometry array to FlatGeobuf format.
// This is a convenience function for writing geometry-only data without properties.
func Write(w io.Writer, arr Array, opts *Options) error {
	return WriteFlatGeobuf(w, arr, nil, opts)
}

// WriteFlatGeobuf writes a geometry array and its per-slot properties to
// FlatGeobuf format. props may be nil; otherwise it must hold one entry per
// slot. Z and M ordinates are written when the array carries them.
//
// Without an index, features keep slot order and null slots are written as
// empty geometries of unknown type. With an index, features are written in
// the index's spatial order and null slots are skipped.
func WriteFlatGeobuf(w io.Writer, arr Array, props []geojson.Properties, opts *Options) error {
	o := writeOptions(opts)

	if arr == nil || arr.Len() == 0 {
		return ErrNilGeometry
	}
	if props != nil && len(props) != arr.Len() {
		return fmt.Errorf("%w: %d properties for %d slots", ErrPropertyMismatch, len(props), arr.Len())
	}
	if o.IncludeIndex && arr.NullCount() == arr.Len() {
		return fmt.Errorf("%w: every slot is null", ErrNilGeometry)
	}

	dt := arr.DataType()
	builder := flatbuffers.NewBuilder(4096)

	// Create header
	header := writer.NewHeader(builder)
	header.SetGeometryType(fgbGeometryType(dt.Kind))
	header.SetHasZ(dt.Dim.HasZ())
	header.SetHasM(dt.Dim.HasM())

	if o.Name != "" {
		header.SetName(o.Name)
	}
	if o.Description != "" {
		header.SetDescription(o.Description)
	}

	schema := inferSchema(props)
	if schema != nil {
		header.SetColumns(schema.columns(builder))
	}

	if o.CRS != nil {
		header.SetCrs(fgbCrs(o.CRS, builder))
	}

	// The writer only fills these in when it builds an index.
	if !o.IncludeIndex {
		header.SetFeaturesCount(uint64(arr.Len()))
		if env := TotalBounds(arr).Envelope(); env != nil {
			header.SetEnvelope(env)
		}
	}

	gen := &arrayFeatureGenerator{
		arr:       arr,
		props:     props,
		schema:    schema,
		skipNulls: o.IncludeIndex,
	}

	o.Logger.Debug("writing flatgeobuf",
		zap.Stringer("type", dt),
		zap.Int("slots", arr.Len()),
		zap.Int("nulls", arr.NullCount()),
		zap.Bool("index", o.IncludeIndex))

	fgbWriter := writer.NewWriter(header, o.IncludeIndex, gen, nil)
	if _, err := fgbWriter.Write(w); err != nil {
		return err
	}
	return gen.err
}

func fgbCrs(c *CRS, builder *flatbuffers.Builder) *writer.Crs {
	crs := writer.NewCrs(builder)
	crs.SetOrg("EPSG") // Default organization
	if c.Code > 0 {
		crs.SetCode(int32(c.Code))
	}
	if c.Name != "" {
		crs.SetName(c.Name)
	}
	if c.Description != "" {
		crs.SetDescription(c.Description)
	}
	// WKT can be stored in description if needed
	if c.WKT != "" && c.Description == "" {
		crs.SetDescription(c.WKT)
	}
	return crs
}

// arrayFeatureGenerator generates one feature per array slot. The first
// conversion error stops generation and is kept in err.
type arrayFeatureGenerator struct {
	arr       Array
	props     []geojson.Properties
	schema    *columnSchema
	skipNulls bool
	index     int
	err       error
}

func (g *arrayFeatureGenerator) Generate() *writer.Feature {
	for g.err == nil && g.index < g.arr.Len() {
		i := g.index
		g.index++

		if g.skipNulls && g.arr.IsNull(i) {
			continue
		}

		builder := flatbuffers.NewBuilder(1024)
		fgbGeom, err := geometryToFGB(g.arr.Value(i), builder)
		if err != nil {
			g.err = fmt.Errorf("slot %d: %w", i, err)
			return nil
		}

		feature := writer.NewFeature(builder)
		feature.SetGeometry(fgbGeom)

		if g.props != nil && g.schema != nil {
			if propBytes := g.schema.encodeProperties(g.props[i]); len(propBytes) > 0 {
				feature.SetProperties(propBytes)
			}
		}

		return feature
	}
	return nil
}
