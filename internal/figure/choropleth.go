package figure

import (
	"fmt"

	"github.com/caseatlas/caseatlas/internal/dataset"
	"github.com/caseatlas/caseatlas/internal/geometry"
)

// Choropleth builds a map figure shading each region in the view by the
// chosen metric on the view's date. Regions without boundary geometry are
// omitted from the render rather than failing it.
func Choropleth(v dataset.View, geo *geometry.Collection, metric Metric) *Figure {
	st := metric.style()

	var (
		locations []string
		values    []int64
	)
	for _, rec := range v.Rows() {
		if rec.FIPS == "" {
			continue
		}
		if _, ok := geo.Lookup(rec.FIPS); !ok {
			continue
		}
		locations = append(locations, rec.FIPS)
		values = append(values, metric.Value(rec))
	}

	var zmin, zmax int64
	if len(values) > 0 {
		zmin, zmax = values[0], values[0]
		for _, z := range values[1:] {
			zmin = min(zmin, z)
			zmax = max(zmax, z)
		}
	}

	trace := map[string]any{
		"type":           "choropleth",
		"locationmode":   "geojson-id",
		"geojson":        geo.Region(v.FIPS()),
		"locations":      locations,
		"z":              values,
		"zmin":           zmin,
		"zmax":           zmax,
		"autocolorscale": false,
		"colorscale":     st.colorscale,
		"marker":         map[string]any{"line": map[string]any{"color": st.lineColor}},
		"colorbar":       map[string]any{"title": map[string]any{"text": st.label}},
	}

	title := fmt.Sprintf("%s in %s", st.label, RegionTitle(v))
	if day, ok := v.Day(); ok {
		title += "<br>on " + day.Format(dataset.DateLayout)
	}
	title += "<br><em>Click on a region to see more data.</em>"

	geoLayout := map[string]any{
		"scope":      "usa",
		"projection": map[string]any{"type": "albers usa"},
		"showlakes":  false,
		"showland":   false,
		"fitbounds":  "locations",
	}

	// fitbounds breaks for Alaska, which straddles the antimeridian, so its
	// center and zoom are set manually.
	if v.FIPS() == "02" {
		geoLayout["fitbounds"] = false
		geoLayout["center"] = map[string]any{"lat": 62, "lon": -162}
		geoLayout["projection"] = map[string]any{"type": "albers usa", "scale": 4}
	}

	return &Figure{
		Data: []map[string]any{trace},
		Layout: map[string]any{
			"title": map[string]any{"text": title},
			"geo":   geoLayout,
		},
	}
}
