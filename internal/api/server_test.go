package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseatlas/caseatlas/internal/config"
	"github.com/caseatlas/caseatlas/internal/figure"
)

const (
	countryCSV = `date,cases,deaths
2020-03-01,15,1
2020-03-02,28,3
`

	stateCSV = `date,state,fips,cases,deaths
2020-03-01,Alabama,01,10,1
2020-03-01,Alaska,02,5,0
2020-03-02,Alabama,01,20,2
2020-03-02,Alaska,02,8,1
`

	countyCSV = `date,county,state,fips,cases,deaths
2020-03-01,Autauga,Alabama,01001,1,0
2020-03-02,Autauga,Alabama,01001,3,0
2020-03-02,Baldwin,Alabama,01003,4,1
`

	statesGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"STATE":"01","NAME":"Alabama"},"geometry":{"type":"Polygon","coordinates":[[[-88,30],[-85,30],[-85,35],[-88,35],[-88,30]]]}},
{"type":"Feature","properties":{"STATE":"02","NAME":"Alaska"},"geometry":{"type":"Polygon","coordinates":[[[-170,55],[-130,55],[-130,71],[-170,71],[-170,55]]]}}
]}`

	countiesGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"STATE":"01","COUNTY":"001","NAME":"Autauga"},"geometry":{"type":"Polygon","coordinates":[[[-87,32],[-86,32],[-86,33],[-87,33],[-87,32]]]}},
{"type":"Feature","properties":{"STATE":"01","COUNTY":"003","NAME":"Baldwin"},"geometry":{"type":"Polygon","coordinates":[[[-88,30],[-87,30],[-87,31],[-88,31],[-88,30]]]}}
]}`
)

// newTestServer writes fixture sources into a temp dir and builds a Server
// over them.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"us.csv":              countryCSV,
		"us-states.csv":       stateCSV,
		"us-counties.csv":     countyCSV,
		"us-states.geojson":   statesGeoJSON,
		"us-counties.geojson": countiesGeoJSON,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	return NewServer(&config.Config{
		Data: config.DataConfig{
			Dir:     dir,
			Country: "us.csv",
			State:   "us-states.csv",
			County:  "us-counties.csv",
		},
		Geometry: config.GeometryConfig{
			Dir:      dir,
			States:   "us-states.geojson",
			Counties: "us-counties.geojson",
		},
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeFigure(t *testing.T, rec *httptest.ResponseRecorder) figure.Figure {
	t.Helper()
	var fig figure.Figure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fig))
	return fig
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChoroplethDefaultsToLatestDate(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/figure/choropleth")

	require.Equal(t, http.StatusOK, rec.Code)
	fig := decodeFigure(t, rec)
	require.Len(t, fig.Data, 1)

	// No date parameter: the most recent day in scope is shaded.
	assert.Equal(t, []any{"01", "02"}, fig.Data[0]["locations"])
	assert.Equal(t, []any{float64(20), float64(8)}, fig.Data[0]["z"])
}

func TestChoroplethExplicitDateAndMetric(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/figure/choropleth?date=2020-03-01&metric=deaths")

	require.Equal(t, http.StatusOK, rec.Code)
	fig := decodeFigure(t, rec)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{float64(1), float64(0)}, fig.Data[0]["z"])
}

func TestChoroplethCountyDrillDown(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/figure/choropleth?level=county&fips=01")

	require.Equal(t, http.StatusOK, rec.Code)
	fig := decodeFigure(t, rec)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{"01001", "01003"}, fig.Data[0]["locations"])
}

func TestChoroplethBadParams(t *testing.T) {
	r := newTestServer(t).Router()

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/figure/choropleth?level=city").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/figure/choropleth?metric=recoveries").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/figure/choropleth?date=03/01/2020").Code)
}

func TestChoroplethMissingSourceUnavailable(t *testing.T) {
	srv := NewServer(&config.Config{
		Data:     config.DataConfig{Dir: t.TempDir(), Country: "us.csv", State: "us-states.csv", County: "us-counties.csv"},
		Geometry: config.GeometryConfig{Dir: t.TempDir(), States: "us-states.geojson", Counties: "us-counties.geojson"},
	})

	rec := get(t, srv.Router(), "/api/figure/choropleth")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLineCountry(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/figure/line")

	require.Equal(t, http.StatusOK, rec.Code)
	fig := decodeFigure(t, rec)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, "Cases", fig.Data[0]["name"])
	assert.Equal(t, "Deaths", fig.Data[1]["name"])
	assert.Equal(t, []any{"2020-03-01", "2020-03-02"}, fig.Data[0]["x"])
	assert.Equal(t, []any{float64(15), float64(28)}, fig.Data[0]["y"])
}

func TestLineRegionScoped(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/figure/line?level=state&fips=02")

	require.Equal(t, http.StatusOK, rec.Code)
	fig := decodeFigure(t, rec)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, []any{float64(5), float64(8)}, fig.Data[0]["y"])
}

func TestRegions(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/regions?level=county&fips=01")

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []RegionEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, []RegionEntry{
		{FIPS: "01001", Name: "Autauga, Alabama"},
		{FIPS: "01003", Name: "Baldwin, Alabama"},
	}, entries)
}

func TestDates(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/api/dates?level=county&fips=01003")

	require.Equal(t, http.StatusOK, rec.Code)
	var days []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	assert.Equal(t, []string{"2020-03-02"}, days)
}

func TestDashboard(t *testing.T) {
	rec := get(t, newTestServer(t).Router(), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.True(t, strings.Contains(rec.Body.String(), "plotly"))
}

func TestWarmToleratesMissingSources(t *testing.T) {
	srv := NewServer(&config.Config{
		Data:     config.DataConfig{Dir: t.TempDir(), Country: "us.csv", State: "us-states.csv", County: "us-counties.csv"},
		Geometry: config.GeometryConfig{Dir: t.TempDir(), States: "us-states.geojson", Counties: "us-counties.geojson"},
	})

	assert.NoError(t, srv.Warm(context.Background()))
}
