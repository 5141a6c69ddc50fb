// Package export writes filtered views to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/caseatlas/caseatlas/internal/dataset"
)

// columns defines the ordered output columns.
var columns = []string{"date", "fips", "state", "county", "cases", "deaths"}

func recordStrings(r dataset.Record) []string {
	return []string{
		r.Date.Format(dataset.DateLayout),
		r.FIPS,
		r.State,
		r.County,
		strconv.FormatInt(r.Cases, 10),
		strconv.FormatInt(r.Deaths, 10),
	}
}

// WriteCSV writes the view's rows as a CSV file.
func WriteCSV(v dataset.View, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, rec := range v.Rows() {
		if err := w.Write(recordStrings(rec)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush")
}

// WriteXLSX writes the view's rows as a single-sheet XLSX workbook.
func WriteXLSX(v dataset.View, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("cases")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}

	for _, rec := range v.Rows() {
		row := sheet.AddRow()
		for _, cell := range recordStrings(rec) {
			row.AddCell().Value = cell
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
