package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geoparquet"
	"github.com/tingold/orb-geoarrow/internal/input"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Describe the geometry column of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := load(args[0])
		if err != nil {
			return err
		}
		return describe(cmd.OutOrStdout(), ds)
	},
}

func describe(w io.Writer, ds *input.Dataset) error {
	arr := ds.Geometry
	meta := geoparquet.MetadataFor(arr)

	fmt.Fprintf(w, "format:          %s\n", ds.Format)
	fmt.Fprintf(w, "slots:           %d\n", arr.Len())
	fmt.Fprintf(w, "nulls:           %d\n", arr.NullCount())
	fmt.Fprintf(w, "type:            %s\n", arr.DataType())
	fmt.Fprintf(w, "extension:       %s\n", arr.DataType().ExtensionName())
	fmt.Fprintf(w, "downcasts to:    %s\n", geoarrow.DowncastedType(arr))
	fmt.Fprintf(w, "geometry types:  %s\n", strings.Join(meta.GeometryTypes, ", "))
	if len(meta.BBox) > 0 {
		fmt.Fprintf(w, "bbox:            %v\n", meta.BBox)
	}
	if ds.CRS != nil {
		fmt.Fprintf(w, "crs:             EPSG:%d %s\n", ds.CRS.Code, ds.CRS.Name)
	}
	if len(ds.Properties) > 0 {
		keys := make(map[string]struct{})
		for _, p := range ds.Properties {
			for k := range p {
				keys[k] = struct{}{}
			}
		}
		fmt.Fprintf(w, "properties:      %d columns\n", len(keys))
	}
	return nil
}
