package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/caseatlas/caseatlas/internal/dataset"
)

var (
	queryLevel string
	queryFIPS  string
	queryDate  string
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print a filtered slice of the case data",
	Long:  "Loads a data file, applies region and date filters, and prints the matching rows.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := scopedView(queryLevel, queryFIPS, queryDate)
		if err != nil {
			return err
		}

		rows := v.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No rows match.")
			return nil
		}
		if queryLimit > 0 && len(rows) > queryLimit {
			rows = rows[len(rows)-queryLimit:]
		}

		formatRecords(os.Stdout, rows)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryLevel, "level", string(dataset.LevelCountry), "data granularity (country, state, county)")
	queryCmd.Flags().StringVar(&queryFIPS, "fips", "", "region FIPS code or prefix")
	queryCmd.Flags().StringVar(&queryDate, "date", "", "single day (YYYY-MM-DD)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "max rows to display, keeping the most recent")
	rootCmd.AddCommand(queryCmd)
}

// scopedView opens the configured data file for a level and applies the
// region and date filters.
func scopedView(level, fips, date string) (dataset.View, error) {
	lvl, err := dataset.ParseLevel(level)
	if err != nil {
		return dataset.View{}, err
	}

	var path string
	switch lvl {
	case dataset.LevelState:
		path = cfg.Data.StatePath()
	case dataset.LevelCounty:
		path = cfg.Data.CountyPath()
	default:
		path = cfg.Data.CountryPath()
	}

	tbl, err := dataset.Open(path, lvl)
	if err != nil {
		return dataset.View{}, err
	}

	v := tbl.View().Region(fips)
	if date != "" {
		day, err := time.Parse(dataset.DateLayout, date)
		if err != nil {
			return dataset.View{}, eris.Wrap(err, "query: parse date")
		}
		v = v.Date(day)
	}
	return v, nil
}

// formatRecords writes a tabular list of records to w with grouped counts.
func formatRecords(out io.Writer, rows []dataset.Record) {
	p := message.NewPrinter(language.AmericanEnglish)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tFIPS\tSTATE\tCOUNTY\tCASES\tDEATHS")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t------\t-----\t------")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Format(dataset.DateLayout),
			r.FIPS,
			r.State,
			r.County,
			p.Sprintf("%d", r.Cases),
			p.Sprintf("%d", r.Deaths),
		)
	}
	_ = w.Flush()
}
