// Package figure builds Plotly-compatible figure specifications from
// filtered dataset views. The dashboard page hands these documents straight
// to Plotly.js; all figure math stays server-side.
package figure

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/caseatlas/caseatlas/internal/dataset"
)

// Metric selects the plotted value column.
type Metric string

const (
	MetricCases  Metric = "cases"
	MetricDeaths Metric = "deaths"
)

// ParseMetric validates a metric name from a query parameter.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCases, MetricDeaths:
		return Metric(s), nil
	case "":
		return MetricCases, nil
	}
	return "", eris.Errorf("figure: unknown metric %q (want cases or deaths)", s)
}

// Value extracts the metric's value from a record.
func (m Metric) Value(r dataset.Record) int64 {
	if m == MetricDeaths {
		return r.Deaths
	}
	return r.Cases
}

// style carries the per-metric rendering constants.
type style struct {
	colorscale string
	lineColor  string
	label      string
}

func (m Metric) style() style {
	if m == MetricDeaths {
		return style{colorscale: "Reds", lineColor: "rgb(103,0,13)", label: "Number of Deaths"}
	}
	return style{colorscale: "Blues", lineColor: "rgb(8,48,107)", label: "Number of Cases"}
}

// Figure is a renderable Plotly figure specification.
type Figure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

// RegionTitle names the view's region scope for figure titles: "the United
// States" when unscoped, the state name for 2-digit codes, "County, State"
// for county codes. Falls back to the raw code when the view matches no
// rows.
func RegionTitle(v dataset.View) string {
	code := v.FIPS()
	if code == "" {
		return "the United States"
	}

	rec, ok := v.First()
	if !ok {
		return fmt.Sprintf("region %s", code)
	}
	if len(code) > 2 && rec.County != "" {
		return fmt.Sprintf("%s, %s", rec.County, rec.State)
	}
	if rec.State != "" {
		return rec.State
	}
	return fmt.Sprintf("region %s", code)
}
