package geoarrow

import (
	"fmt"
	"os"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/index"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// FeatureTable is a geometry array with one property set per slot.
type FeatureTable struct {
	Geometry   Array
	Properties []geojson.Properties
}

// Len returns the number of features.
func (t *FeatureTable) Len() int { return t.Geometry.Len() }

// Reader provides read access to a FlatGeobuf file.
type Reader struct {
	fgb  *flatgeobuf.FlatGeoBuf
	data []byte
}

// NewReader creates a reader from a file path.
func NewReader(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReaderFromData(data)
}

// NewReaderFromData creates a reader from byte data.
func NewReaderFromData(data []byte) (*Reader, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return &Reader{fgb: fgb, data: data}, nil
}

// Header returns metadata about the FlatGeobuf file.
func (r *Reader) Header() *Header {
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
		Dim:           dimensionOf(h.HasZ(), h.HasM()),
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{
			h.Envelope(0),
			h.Envelope(1),
			h.Envelope(2),
			h.Envelope(3),
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
			WKT:         string(crs.Wkt()),
		}
	}

	colLen := h.ColumnsLength()
	if colLen > 0 {
		header.Columns = make([]ColumnInfo, 0, colLen)
		for i := 0; i < colLen; i++ {
			var col flattypes.Column
			if h.Columns(&col, i) {
				header.Columns = append(header.Columns, ColumnInfo{
					Name:        string(col.Name()),
					Type:        flattypes.EnumNamesColumnType[col.Type()],
					Title:       string(col.Title()),
					Description: string(col.Description()),
					Nullable:    col.Nullable(),
				})
			}
		}
	}

	return header
}

// ReadAll reads every feature in file order into one geometry array. Files
// written without an index keep their original slot order.
func (r *Reader) ReadAll(opts *IngestOptions) (*FeatureTable, error) {
	features, err := r.features()
	if err != nil {
		return nil, err
	}
	return r.convert(features, opts)
}

// Search performs a spatial query using the built-in index and returns the
// features whose bounding boxes intersect bounds.
func (r *Reader) Search(bounds orb.Bound, opts *IngestOptions) (*FeatureTable, error) {
	if r.fgb.Header().IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}

	features, err := r.fgb.Search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	if err != nil {
		return nil, err
	}
	return r.convert(features, opts)
}

// Close releases resources associated with the reader.
func (r *Reader) Close() error {
	r.fgb = nil
	r.data = nil
	return nil
}

// features walks the size-prefixed features that follow the header and the
// optional index.
func (r *Reader) features() ([]*flattypes.Feature, error) {
	h := r.fgb.Header()
	offset := len(writer.MagicBytes)
	offset += int(flatbuffers.GetUOffsetT(r.data[offset:])) + flatbuffers.SizeUOffsetT

	if nodeSize := h.IndexNodeSize(); nodeSize > 0 && h.FeaturesCount() > 0 {
		tree := index.NewPackedRTreeFromData(r.data[offset:], h.FeaturesCount(), nodeSize, false)
		offset += int(tree.Size())
	}

	features := make([]*flattypes.Feature, 0, h.FeaturesCount())
	for offset < len(r.data) {
		if offset+flatbuffers.SizeUOffsetT > len(r.data) {
			return nil, fmt.Errorf("%w: truncated feature at offset %d", ErrInvalidData, offset)
		}
		size := int(flatbuffers.GetUOffsetT(r.data[offset:]))
		if offset+flatbuffers.SizeUOffsetT+size > len(r.data) {
			return nil, fmt.Errorf("%w: feature at offset %d overruns data", ErrInvalidData, offset)
		}
		features = append(features, flattypes.GetSizePrefixedRootAsFeature(r.data, flatbuffers.UOffsetT(offset)))
		offset += flatbuffers.SizeUOffsetT + size
	}
	return features, nil
}

// convert turns FlatGeobuf features into a feature table.
func (r *Reader) convert(features []*flattypes.Feature, opts *IngestOptions) (*FeatureTable, error) {
	h := r.fgb.Header()
	geoms := make([]Geometry, len(features))
	props := make([]geojson.Properties, len(features))

	for i, f := range features {
		var geomObj flattypes.Geometry
		fgbGeom := f.Geometry(&geomObj)
		g, err := geometryFromFGB(fgbGeom, fgbDim(fgbGeom, h.HasZ(), h.HasM()))
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		geoms[i] = g

		if h.ColumnsLength() > 0 {
			if props[i], err = decodeProperties(f.PropertiesBytes(), h); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		}
	}

	o := ingestOptions(opts)
	o.Logger.Debug("read flatgeobuf features",
		zap.Int("features", len(features)),
		zap.String("header_type", flattypes.EnumNamesGeometryType[h.GeometryType()]))

	arr, err := Ingest(geoms, &o)
	if err != nil {
		return nil, err
	}
	return &FeatureTable{Geometry: arr, Properties: props}, nil
}
