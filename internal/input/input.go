// Package input loads geometry files for the geoarrow command.
package input

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/columnar"
)

// Format names an input encoding.
type Format string

const (
	FormatWKT        Format = "wkt"
	FormatWKBHex     Format = "wkb"
	FormatGeoJSON    Format = "geojson"
	FormatFlatGeobuf Format = "fgb"
	FormatArrow      Format = "arrow"
)

// ErrUnknownFormat is returned when no format is given and the file
// extension is not recognized.
var ErrUnknownFormat = errors.New("input: unknown format")

var extensions = map[string]Format{
	".wkt":     FormatWKT,
	".wkb":     FormatWKBHex,
	".hex":     FormatWKBHex,
	".geojson": FormatGeoJSON,
	".json":    FormatGeoJSON,
	".fgb":     FormatFlatGeobuf,
	".arrow":   FormatArrow,
	".arrows":  FormatArrow,
}

// Dataset is a loaded geometry column with optional per-slot properties.
type Dataset struct {
	Format     Format
	Geometry   geoarrow.Array
	Properties []geojson.Properties
	CRS        *geoarrow.CRS
}

// Options configures Load.
type Options struct {
	// Format overrides extension-based detection when set.
	Format Format
	// Column is the geometry column read from Arrow streams.
	Column string
	// Ingest configures how geometries are built.
	Ingest *geoarrow.IngestOptions
}

// DetectFormat returns the format for path's extension.
func DetectFormat(path string) (Format, error) {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range extensions {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Load reads path into a dataset.
func Load(path string, opts Options) (*Dataset, error) {
	format := opts.Format
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	ingest := opts.Ingest
	if ingest == nil {
		ingest = geoarrow.DefaultIngestOptions()
	}
	logger := ingest.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Format: format}
	switch format {
	case FormatWKT:
		var text []string
		if text, err = lines(data); err == nil {
			ds.Geometry, err = geoarrow.FromWKT(text, ingest)
		}

	case FormatWKBHex:
		text, linesErr := lines(data)
		if linesErr != nil {
			return nil, linesErr
		}
		values := make([][]byte, 0, len(text))
		for i, line := range text {
			v, decodeErr := hex.DecodeString(line)
			if decodeErr != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, decodeErr)
			}
			values = append(values, v)
		}
		ds.Geometry, err = geoarrow.FromWKB(values, ingest)

	case FormatGeoJSON:
		ds.Geometry, ds.Properties, err = geoarrow.FromGeoJSON(data, ingest)

	case FormatFlatGeobuf:
		err = loadFlatGeobuf(ds, data, ingest)

	case FormatArrow:
		err = loadArrow(ds, data, opts.Column, ingest)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	logger.Debug("loaded input",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Stringer("type", ds.Geometry.DataType()),
		zap.Int("slots", ds.Geometry.Len()))
	return ds, nil
}

func loadFlatGeobuf(ds *Dataset, data []byte, ingest *geoarrow.IngestOptions) error {
	r, err := geoarrow.NewReaderFromData(data)
	if err != nil {
		return err
	}
	defer r.Close()

	table, err := r.ReadAll(ingest)
	if err != nil {
		return err
	}
	ds.Geometry = table.Geometry
	ds.Properties = table.Properties
	if h := r.Header(); h != nil {
		ds.CRS = h.CRS
	}
	return nil
}

// loadArrow reads every batch of an Arrow stream. Multiple batches are
// unified into one array.
func loadArrow(ds *Dataset, data []byte, column string, ingest *geoarrow.IngestOptions) error {
	if column == "" {
		column = "geometry"
	}
	chunks, err := columnar.ReadIPC(bytes.NewReader(data), column, &columnar.Options{Logger: ingest.Logger})
	if err != nil {
		return err
	}

	switch len(chunks) {
	case 0:
		return fmt.Errorf("%w: stream has no batches", geoarrow.ErrInvalidData)
	case 1:
		ds.Geometry = chunks[0]
		return nil
	}

	var geoms []geoarrow.Geometry
	for _, chunk := range chunks {
		geoms = append(geoms, geoarrow.Values(chunk)...)
	}
	ds.Geometry, err = geoarrow.Ingest(geoms, ingest)
	return err
}

// lines splits data into lines, keeping blank lines as empty strings so they
// become null slots. A trailing newline does not add a slot.
func lines(data []byte) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		out = append(out, strings.TrimSpace(scanner.Text()))
	}
	return out, scanner.Err()
}
