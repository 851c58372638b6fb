// Command geoarrow inspects and converts geometry files through the columnar
// geometry model.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/internal/input"
	"github.com/tingold/orb-geoarrow/internal/logger"
)

var version = "0.1.0"

// conf holds flag, environment and config file values. Keys match the
// persistent flag names; GEOARROW_LOG_LEVEL applies when --log_level is not
// given.
var conf = viper.New()

var rootCmd = &cobra.Command{
	Use:   "geoarrow",
	Short: "Columnar geometry tool",
	Long: `geoarrow loads WKT, hex WKB, GeoJSON, FlatGeobuf or Arrow stream files into
a columnar geometry array, reports what it holds and writes it back out as
FlatGeobuf or as an Arrow IPC stream with GeoArrow extension metadata.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path := conf.GetString("config"); path != "" {
			conf.SetConfigFile(path)
			if err := conf.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config %s: %w", path, err)
			}
		}
		return logger.Init(logger.Config{
			Level:       conf.GetString("log_level"),
			Development: conf.GetBool("dev"),
			Encoding:    "console",
		})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (yaml, json or toml)")
	flags.String("log_level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("dev", false, "Development logging")
	flags.String("format", "", "Input format (wkt, wkb, geojson, fgb, arrow); detected from the extension when empty")
	flags.String("layout", "interleaved", "Coordinate layout (interleaved, separated)")
	flags.Bool("wide", false, "Use 64-bit offsets")
	flags.Bool("downcast", true, "Downcast to the narrowest type that holds the data")
	flags.String("column", "geometry", "Geometry column name for Arrow streams")

	if err := conf.BindPFlags(flags); err != nil {
		panic(err)
	}
	conf.SetEnvPrefix("GEOARROW")
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	conf.AutomaticEnv()

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "geoarrow v%s\n", version)
		},
	})
	rootCmd.AddCommand(inspectCmd, convertCmd, arrowCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// ingestOptions builds ingest options from the bound flags.
func ingestOptions() (*geoarrow.IngestOptions, error) {
	opts := geoarrow.DefaultIngestOptions()
	switch strings.ToLower(conf.GetString("layout")) {
	case "", "interleaved":
		opts.Layout = geoarrow.Interleaved
	case "separated":
		opts.Layout = geoarrow.Separated
	default:
		return nil, fmt.Errorf("unknown layout %q", conf.GetString("layout"))
	}
	if conf.GetBool("wide") {
		opts.Width = geoarrow.Wide
	}
	opts.Downcast = conf.GetBool("downcast")
	opts.Logger = logger.Get()
	return opts, nil
}

// load reads path with the options from the bound flags.
func load(path string) (*input.Dataset, error) {
	ingest, err := ingestOptions()
	if err != nil {
		return nil, err
	}
	opts := input.Options{
		Column: conf.GetString("column"),
		Ingest: ingest,
	}
	if f := conf.GetString("format"); f != "" {
		if opts.Format, err = input.ParseFormat(f); err != nil {
			return nil, err
		}
	}

	ds, err := input.Load(path, opts)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("loaded",
		zap.String("path", path),
		zap.Stringer("type", ds.Geometry.DataType()),
		zap.Int("slots", ds.Geometry.Len()))
	return ds, nil
}
