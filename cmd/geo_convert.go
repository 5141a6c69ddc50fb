package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caseatlas/caseatlas/internal/geometry"
)

var geoConvertCmd = &cobra.Command{
	Use:   "convert <shapefile> <out.geojson>",
	Short: "Convert a census shapefile to boundary GeoJSON",
	Long:  "Reads a TIGER/census shapefile and writes a GeoJSON FeatureCollection with FIPS feature ids, suitable for the choropleth figures.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := geometry.ConvertShapefile(args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Wrote %d features to %s\n", n, args[1])
		return nil
	},
}

func init() { geoCmd.AddCommand(geoConvertCmd) }
