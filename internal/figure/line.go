package figure

import (
	"fmt"
	"time"

	"github.com/caseatlas/caseatlas/internal/dataset"
)

// Line builds the case and death time-series figure for the view's region.
// The view should carry a region scope only; any date scope is cleared so
// the whole history is plotted.
func Line(v dataset.View) *Figure {
	v = v.Date(time.Time{})

	rows := v.Rows()
	dates := make([]string, 0, len(rows))
	cases := make([]int64, 0, len(rows))
	deaths := make([]int64, 0, len(rows))
	for _, rec := range rows {
		dates = append(dates, rec.Date.Format(dataset.DateLayout))
		cases = append(cases, rec.Cases)
		deaths = append(deaths, rec.Deaths)
	}

	caseTrace := map[string]any{
		"type": "scatter",
		"mode": "lines",
		"name": "Cases",
		"line": map[string]any{"color": MetricCases.style().lineColor},
		"x":    dates,
		"y":    cases,
	}
	deathTrace := map[string]any{
		"type": "scatter",
		"mode": "lines",
		"name": "Deaths",
		"line": map[string]any{"color": MetricDeaths.style().lineColor},
		"x":    dates,
		"y":    deaths,
	}

	title := fmt.Sprintf("Number of Cases &amp; Deaths<br>in %s"+
		"<br><em>Click to select the date represented<br>in the map data.</em>",
		RegionTitle(v))

	return &Figure{
		Data: []map[string]any{caseTrace, deathTrace},
		Layout: map[string]any{
			"title":     map[string]any{"text": title},
			"xaxis":     map[string]any{"title": map[string]any{"text": "Date"}},
			"yaxis":     map[string]any{"title": map[string]any{"text": "Number of Cases/Deaths"}},
			"hovermode": "x unified",
		},
	}
}
