package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caseatlas/caseatlas/internal/catalog"
	"github.com/caseatlas/caseatlas/internal/config"
	"github.com/caseatlas/caseatlas/internal/fetcher"
)

// source is one remote file the fetch command mirrors locally.
type source struct {
	Name string
	URL  string
	Dest string
	CSV  bool
}

// sourcesFor maps the configured upstream URLs to their local destinations.
func sourcesFor(cfg *config.Config) []source {
	return []source{
		{Name: "us", URL: cfg.Fetch.CountryURL, Dest: cfg.Data.CountryPath(), CSV: true},
		{Name: "us-states", URL: cfg.Fetch.StatesURL, Dest: cfg.Data.StatePath(), CSV: true},
		{Name: "us-counties", URL: cfg.Fetch.CountiesURL, Dest: cfg.Data.CountyPath(), CSV: true},
		{Name: "geom-states", URL: cfg.Fetch.StatesGeom, Dest: cfg.Geometry.StatesPath()},
		{Name: "geom-counties", URL: cfg.Fetch.CountiesGeom, Dest: cfg.Geometry.CountiesPath()},
	}
}

var fetchSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the upstream case data and boundary files",
	Long:  "Downloads the NYT case CSVs and the census boundary GeoJSON, recording each snapshot in the catalog.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("component", "fetch"))

		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck
		if err := cat.Migrate(ctx); err != nil {
			return err
		}

		dl := fetcher.New(fetcher.Options{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		})

		for _, src := range sourcesFor(cfg) {
			if fetchSource != "" && fetchSource != src.Name {
				continue
			}

			log.Info("fetching source", zap.String("source", src.Name), zap.String("url", src.URL))
			res, err := dl.DownloadToFile(ctx, src.URL, src.Dest)
			if err != nil {
				return eris.Wrapf(err, "fetch: %s", src.Name)
			}

			var rows int64
			if src.CSV {
				rows, err = countDataRows(res.Path)
				if err != nil {
					return eris.Wrapf(err, "fetch: %s", src.Name)
				}
			}

			snap, err := cat.Record(ctx, catalog.Snapshot{
				Source: src.Name,
				URL:    res.URL,
				Path:   res.Path,
				SHA256: res.SHA256,
				Bytes:  res.Bytes,
				Rows:   rows,
			})
			if err != nil {
				return eris.Wrapf(err, "fetch: %s", src.Name)
			}

			fmt.Fprintf(os.Stdout, "%s: %d bytes", src.Name, snap.Bytes)
			if src.CSV {
				fmt.Fprintf(os.Stdout, ", %d rows", snap.Rows)
			}
			fmt.Fprintln(os.Stdout)
		}

		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "fetch a single source by name")
	rootCmd.AddCommand(fetchCmd)
}

// countDataRows counts the data rows of a CSV file, excluding the header.
func countDataRows(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetch: count rows")
	}
	defer f.Close() //nolint:errcheck

	var lines int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) > 0 {
			lines++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, eris.Wrap(err, "fetch: count rows")
	}
	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil
}
