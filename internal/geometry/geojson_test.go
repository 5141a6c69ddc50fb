package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countiesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"STATE": "01", "COUNTY": "001", "NAME": "Autauga"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature",
     "properties": {"STATE": "01", "COUNTY": "003", "NAME": "Baldwin"},
     "geometry": {"type": "Polygon", "coordinates": [[[2,2],[3,2],[3,3],[2,2]]]}},
    {"type": "Feature",
     "properties": {"STATE": "42", "COUNTY": "003", "NAME": "Allegheny"},
     "geometry": {"type": "Polygon", "coordinates": [[[4,4],[5,4],[5,5],[4,4]]]}}
  ]
}`

func writeGeoJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_SamePathSameInstance(t *testing.T) {
	path := writeGeoJSON(t, "counties.json", countiesJSON)

	a, err := Load(path)
	require.NoError(t, err)
	b, err := Load(path)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 3, a.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoad_SynthesizesFIPSIDs(t *testing.T) {
	path := writeGeoJSON(t, "counties.json", countiesJSON)
	c, err := Load(path)
	require.NoError(t, err)

	_, ok := c.Lookup("01001")
	assert.True(t, ok)
	_, ok = c.Lookup("42003")
	assert.True(t, ok)
}

func TestLoad_StateOnlyProperties(t *testing.T) {
	path := writeGeoJSON(t, "states.json", `{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature",
	     "properties": {"STATE": "42", "NAME": "Pennsylvania"},
	     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
	  ]
	}`)
	c, err := Load(path)
	require.NoError(t, err)

	_, ok := c.Lookup("42")
	assert.True(t, ok)
}

func TestLoad_ISO8859Transcoding(t *testing.T) {
	// "Doña Ana" with a Latin-1 encoded ñ (0xF1), invalid as UTF-8.
	raw := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"STATE":"35","COUNTY":"013","NAME":"Do` + "\xf1" + `a Ana"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`)
	path := filepath.Join(t.TempDir(), "latin1.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Lookup("35013")
	assert.True(t, ok)
}

func TestLookup_MissIsAbsenceNotError(t *testing.T) {
	path := writeGeoJSON(t, "counties.json", countiesJSON)
	c, err := Load(path)
	require.NoError(t, err)

	g, ok := c.Lookup("99999")
	assert.False(t, ok)
	assert.Nil(t, g)
}

func TestRegion_PrefixSubset(t *testing.T) {
	path := writeGeoJSON(t, "counties.json", countiesJSON)
	c, err := Load(path)
	require.NoError(t, err)

	alabama := c.Region("01")
	assert.Len(t, alabama.Features, 2)

	everything := c.Region("")
	assert.Len(t, everything.Features, 3)

	// Memoized per prefix.
	assert.Same(t, alabama, c.Region("01"))
}
