// Package geometry loads GeoJSON boundary collections keyed by FIPS code.
//
// The census boundary files carry STATE and COUNTY properties but no
// feature ids; the loader synthesizes an id from those properties so the
// choropleth layer can join boundaries to case data by FIPS code.
package geometry

import (
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/caseatlas/caseatlas/internal/memo"
)

// Collection is an immutable boundary collection loaded from one GeoJSON
// file, with features addressable by FIPS code.
type Collection struct {
	path string
	fc   *geojson.FeatureCollection
	byID map[string]*geojson.Feature

	mu      sync.Mutex
	regions map[string]*geojson.FeatureCollection
}

var collections = memo.New[*Collection]()

// Load returns the Collection for path, loading it on first use. Repeated
// calls with the same path return the identical instance; a failed load is
// not memoized.
func Load(path string) (*Collection, error) {
	key, err := memo.CanonicalPath(path)
	if err != nil {
		return nil, err
	}
	return collections.GetOrCreate(key, func() (*Collection, error) {
		return loadCollection(key)
	})
}

func loadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: read %s", path)
	}

	// The census files ship as ISO-8859-1 (accented place names). JSON
	// requires UTF-8, so transcode when the raw bytes are not valid UTF-8.
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: transcode %s", path)
		}
	}

	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, eris.Wrapf(err, "geometry: parse %s", path)
	}

	c := &Collection{
		path:    path,
		fc:      &fc,
		byID:    make(map[string]*geojson.Feature, len(fc.Features)),
		regions: make(map[string]*geojson.FeatureCollection),
	}
	for _, f := range fc.Features {
		if f.ID == "" {
			f.ID = featureID(f.Properties)
		}
		if f.ID == "" {
			continue
		}
		c.byID[f.ID] = f
	}

	zap.L().Info("geometry loaded",
		zap.String("component", "geometry"),
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
	)
	return c, nil
}

// featureID builds a FIPS id from the STATE and, when present, COUNTY
// properties.
func featureID(props map[string]any) string {
	state, ok := stringProp(props, "STATE")
	if !ok {
		return ""
	}
	if county, ok := stringProp(props, "COUNTY"); ok {
		return state + county
	}
	return state
}

func stringProp(props map[string]any, key string) (string, bool) {
	s, ok := props[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Path returns the canonical source path.
func (c *Collection) Path() string { return c.path }

// Len returns the number of addressable features.
func (c *Collection) Len() int { return len(c.byID) }

// Lookup returns the boundary geometry for a FIPS code. A missing code is
// an absence, not an error; callers omit the region from rendering.
func (c *Collection) Lookup(code string) (geom.T, bool) {
	f, ok := c.byID[code]
	if !ok {
		return nil, false
	}
	return f.Geometry, true
}

// Region returns the sub-collection of features whose id starts with
// prefix. The empty prefix returns every feature. Results are memoized per
// prefix since the dashboard requests the same scopes repeatedly.
func (c *Collection) Region(prefix string) *geojson.FeatureCollection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fc, ok := c.regions[prefix]; ok {
		return fc
	}

	sub := &geojson.FeatureCollection{}
	for _, f := range c.fc.Features {
		if strings.HasPrefix(f.ID, prefix) {
			sub.Features = append(sub.Features, f)
		}
	}
	c.regions[prefix] = sub
	return sub
}
