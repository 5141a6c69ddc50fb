package geometry

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ConvertShapefile reads a census boundary shapefile and writes the GeoJSON
// collection the explorer consumes. Both TIGER/Line (STATEFP/COUNTYFP) and
// cartographic boundary (STATE/COUNTY) attribute names are accepted; the
// output always uses STATE/COUNTY/NAME properties plus a FIPS feature id.
// Returns the number of features written.
func ConvertShapefile(shpPath, destPath string) (int, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "geometry: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}

	stateIdx, ok := firstField(fieldIdx, "STATEFP", "STATE")
	if !ok {
		return 0, eris.Errorf("geometry: %s has no state FIPS field", shpPath)
	}
	countyIdx, hasCounty := firstField(fieldIdx, "COUNTYFP", "COUNTY")
	nameIdx, hasName := firstField(fieldIdx, "NAME")

	log := zap.L().With(zap.String("component", "geometry"))

	fc := &geojson.FeatureCollection{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		state := strings.TrimSpace(reader.Attribute(stateIdx))
		if state == "" {
			skipped++
			continue
		}

		id := state
		props := map[string]any{"STATE": state}
		if hasCounty {
			county := strings.TrimSpace(reader.Attribute(countyIdx))
			props["COUNTY"] = county
			id += county
		}
		if hasName {
			props["NAME"] = strings.TrimSpace(reader.Attribute(nameIdx))
		}

		g := shapeToMultiPolygon(shape)
		if g == nil {
			log.Debug("skipping non-polygon shape", zap.String("id", id))
			skipped++
			continue
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         id,
			Geometry:   g,
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return 0, eris.Wrap(err, "geometry: encode GeoJSON")
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return 0, eris.Wrapf(err, "geometry: write %s", destPath)
	}

	log.Info("shapefile converted",
		zap.String("src", shpPath),
		zap.String("dest", destPath),
		zap.Int("features", len(fc.Features)),
		zap.Int("skipped", skipped),
	)
	return len(fc.Features), nil
}

func firstField(idx map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := idx[name]; ok {
			return i, true
		}
	}
	return -1, false
}

// shapeToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// treating each part as a single-ring polygon. Returns nil for unsupported
// or empty shapes.
func shapeToMultiPolygon(s shp.Shape) geom.T {
	p, ok := s.(*shp.Polygon)
	if !ok || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if len(flat) < 8 { // a closed ring needs at least 4 points
			continue
		}

		ring := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		if err := mp.Push(ring); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
