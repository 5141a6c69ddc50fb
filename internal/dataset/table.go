// Package dataset loads CSV case/death time series into immutable
// column-oriented tables and filters them by region and date.
//
// A Table is loaded once per source path and shared for the process
// lifetime. Filtering never touches the table: a View carries the table
// reference plus its scope predicates and materializes rows on demand.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/caseatlas/caseatlas/internal/memo"
)

// ErrMissingColumn indicates a source file lacks a column required for
// filtering or plotting.
var ErrMissingColumn = eris.New("dataset: required column missing")

// DateLayout is the ISO-8601 day format used by the source files.
const DateLayout = "2006-01-02"

// Table is an immutable column-oriented case/death time series.
type Table struct {
	path  string
	level Level

	dates    []time.Time
	fips     []string
	states   []string
	counties []string
	cases    []int64
	deaths   []int64

	hasFIPS   bool
	hasState  bool
	hasCounty bool
}

var tables = memo.New[*Table]()

// Open returns the Table for path, loading it on first use. Repeated calls
// with the same path return the identical instance; a failed load is not
// memoized.
func Open(path string, level Level) (*Table, error) {
	key, err := memo.CanonicalPath(path)
	if err != nil {
		return nil, err
	}
	return tables.GetOrCreate(key, func() (*Table, error) {
		return loadTable(key, level)
	})
}

func loadTable(path string, level Level) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := parseTable(f, path, level)
	if err != nil {
		return nil, err
	}

	zap.L().Info("table loaded",
		zap.String("component", "dataset"),
		zap.String("path", path),
		zap.String("level", string(level)),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

func parseTable(r io.Reader, path string, level Level) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read header %s", path)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "cases", "deaths"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Wrapf(ErrMissingColumn, "dataset: %s has no %q column", path, required)
		}
	}

	t := &Table{path: path, level: level}
	_, t.hasFIPS = cols["fips"]
	_, t.hasState = cols["state"]
	_, t.hasCounty = cols["county"]

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read %s", path)
		}
		line++

		date, err := time.Parse(DateLayout, record[cols["date"]])
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: %s line %d: bad date", path, line)
		}
		cases, err := parseCount(record[cols["cases"]])
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: %s line %d: bad cases", path, line)
		}
		deaths, err := parseCount(record[cols["deaths"]])
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: %s line %d: bad deaths", path, line)
		}

		t.dates = append(t.dates, date)
		t.cases = append(t.cases, cases)
		t.deaths = append(t.deaths, deaths)
		if t.hasFIPS {
			t.fips = append(t.fips, record[cols["fips"]])
		}
		if t.hasState {
			t.states = append(t.states, record[cols["state"]])
		}
		if t.hasCounty {
			t.counties = append(t.counties, record[cols["county"]])
		}
	}

	return t, nil
}

// parseCount parses a non-negative integer cell. Some source rows leave the
// deaths column blank; those count as zero rather than failing the load.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// Path returns the canonical source path the table was loaded from.
func (t *Table) Path() string { return t.path }

// Level returns the geographic granularity of the table.
func (t *Table) Level() Level { return t.level }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.dates) }

// HasFIPS reports whether the source carried a fips column. Country-level
// files do not; region filters pass every row for such tables.
func (t *Table) HasFIPS() bool { return t.hasFIPS }

// View returns the unfiltered view over the whole table.
func (t *Table) View() View {
	return View{table: t}
}

func (t *Table) row(i int) Record {
	rec := Record{
		Date:   t.dates[i],
		Cases:  t.cases[i],
		Deaths: t.deaths[i],
	}
	if t.hasFIPS {
		rec.FIPS = t.fips[i]
	}
	if t.hasState {
		rec.State = t.states[i]
	}
	if t.hasCounty {
		rec.County = t.counties[i]
	}
	return rec
}
