package dataset

import (
	"strings"
	"time"
)

// Record is one materialized row of a filtered view.
type Record struct {
	Date   time.Time `json:"date"`
	FIPS   string    `json:"fips,omitempty"`
	State  string    `json:"state,omitempty"`
	County string    `json:"county,omitempty"`
	Cases  int64     `json:"cases"`
	Deaths int64     `json:"deaths"`
}

// View is a read-only subset of a Table's rows. It holds no row data, only
// the table reference and the scope predicates, so it is cheap to copy and
// re-derivable at any time.
type View struct {
	table *Table

	fips    string
	date    time.Time
	hasDate bool
}

// Region narrows the view to rows whose FIPS code starts with code. A state
// code therefore also selects the counties within that state, and an empty
// code selects everything. Tables without a fips column are unaffected.
func (v View) Region(code string) View {
	v.fips = code
	return v
}

// Date narrows the view to rows on exactly the given day. A zero date
// clears the restriction.
func (v View) Date(day time.Time) View {
	if day.IsZero() {
		v.hasDate = false
		return v
	}
	v.date = day.Truncate(24 * time.Hour)
	v.hasDate = true
	return v
}

// Table returns the view's source table.
func (v View) Table() *Table { return v.table }

// FIPS returns the region scope, "" when unscoped.
func (v View) FIPS() string { return v.fips }

// Day returns the date scope and whether one is set.
func (v View) Day() (time.Time, bool) { return v.date, v.hasDate }

func (v View) matches(i int) bool {
	t := v.table
	if v.fips != "" && t.hasFIPS && !strings.HasPrefix(t.fips[i], v.fips) {
		return false
	}
	if v.hasDate && !t.dates[i].Equal(v.date) {
		return false
	}
	return true
}

// Rows materializes the matching records in the table's insertion order.
// A scope matching nothing yields an empty slice, not an error.
func (v View) Rows() []Record {
	var out []Record
	for i := range v.table.dates {
		if v.matches(i) {
			out = append(out, v.table.row(i))
		}
	}
	return out
}

// Len counts matching rows without materializing them.
func (v View) Len() int {
	n := 0
	for i := range v.table.dates {
		if v.matches(i) {
			n++
		}
	}
	return n
}

// First returns the first matching record, if any.
func (v View) First() (Record, bool) {
	for i := range v.table.dates {
		if v.matches(i) {
			return v.table.row(i), true
		}
	}
	return Record{}, false
}

// Dates returns the distinct days present in the view, in insertion order.
func (v View) Dates() []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for i := range v.table.dates {
		if !v.matches(i) {
			continue
		}
		d := v.table.dates[i]
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Codes returns the distinct FIPS codes present in the view, in insertion
// order. Tables without a fips column yield nil.
func (v View) Codes() []string {
	if !v.table.hasFIPS {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for i := range v.table.dates {
		if !v.matches(i) {
			continue
		}
		c := v.table.fips[i]
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
