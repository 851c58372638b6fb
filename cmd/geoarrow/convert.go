package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/columnar"
	"github.com/tingold/orb-geoarrow/internal/input"
	"github.com/tingold/orb-geoarrow/internal/logger"
)

var (
	layerName        string
	layerDescription string
	withIndex        bool
	epsg             int
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out.fgb>",
	Short: "Write a file's geometries and properties as FlatGeobuf",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := load(args[0])
		if err != nil {
			return err
		}

		opts := &geoarrow.Options{
			Name:         layerName,
			Description:  layerDescription,
			IncludeIndex: withIndex,
			CRS:          outputCRS(ds),
			Logger:       logger.Get(),
		}
		return writeFile(args[1], func(f *os.File) error {
			return geoarrow.WriteFlatGeobuf(f, ds.Geometry, ds.Properties, opts)
		})
	},
}

var arrowCmd = &cobra.Command{
	Use:   "arrow <in> <out.arrows>",
	Short: "Write a file's geometries as an Arrow IPC stream",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := load(args[0])
		if err != nil {
			return err
		}

		opts := columnar.DefaultOptions()
		opts.Logger = logger.Get()
		if crs := outputCRS(ds); crs != nil && crs.Code != 0 {
			if opts.Metadata.CRS, err = json.Marshal(fmt.Sprintf("EPSG:%d", crs.Code)); err != nil {
				return err
			}
		}
		return writeFile(args[1], func(f *os.File) error {
			return columnar.WriteIPC(f, conf.GetString("column"), ds.Geometry, opts)
		})
	},
}

func init() {
	convertCmd.Flags().StringVar(&layerName, "name", "", "Layer name")
	convertCmd.Flags().StringVar(&layerDescription, "description", "", "Layer description")
	convertCmd.Flags().BoolVar(&withIndex, "index", true, "Write a packed R-tree index")
	for _, c := range []*cobra.Command{convertCmd, arrowCmd} {
		c.Flags().IntVar(&epsg, "epsg", 0, "EPSG code of the output CRS; defaults to the input's CRS")
	}
}

// outputCRS returns the --epsg CRS, falling back to the input's CRS.
func outputCRS(ds *input.Dataset) *geoarrow.CRS {
	switch {
	case epsg == 4326:
		return geoarrow.WGS84()
	case epsg != 0:
		return &geoarrow.CRS{Code: epsg}
	}
	return ds.CRS
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Get().Info("wrote", zap.String("path", path))
	return nil
}
