package main

import "github.com/spf13/cobra"

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Boundary geometry utilities",
	Long:  "Convert and inspect the boundary files used by the choropleth figures.",
}

func init() { rootCmd.AddCommand(geoCmd) }
