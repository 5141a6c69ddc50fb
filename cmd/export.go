package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/caseatlas/caseatlas/internal/dataset"
	"github.com/caseatlas/caseatlas/internal/export"
)

var (
	exportLevel  string
	exportFIPS   string
	exportDate   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a filtered slice to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := scopedView(exportLevel, exportFIPS, exportDate)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			err = export.WriteCSV(v, exportOut)
		case "xlsx":
			err = export.WriteXLSX(v, exportOut)
		default:
			return eris.Errorf("export: unknown format %q (want csv or xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", v.Len(), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportLevel, "level", string(dataset.LevelCountry), "data granularity (country, state, county)")
	exportCmd.Flags().StringVar(&exportFIPS, "fips", "", "region FIPS code or prefix")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "single day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv, xlsx)")
	exportCmd.Flags().StringVar(&exportOut, "out", "export.csv", "output file path")
	rootCmd.AddCommand(exportCmd)
}
