package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "us.csv", cfg.Data.Country)
	assert.Equal(t, "us-states.csv", cfg.Data.State)
	assert.Equal(t, "us-counties.csv", cfg.Data.County)
	assert.Equal(t, "us-counties.geojson", cfg.Geometry.Counties)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 120, cfg.Fetch.TimeoutSecs)
	assert.Contains(t, cfg.Fetch.CountiesURL, "us-counties.csv")
	assert.Equal(t, filepath.Join("data", "catalog.db"), cfg.Catalog.Path)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
data:
  dir: /srv/covid
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/covid", cfg.Data.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "us.csv", cfg.Data.Country)
	assert.Equal(t, filepath.Join("/srv/covid", "us-states.csv"), cfg.Data.StatePath())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := "server:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CASEATLAS_SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestPathResolution(t *testing.T) {
	d := DataConfig{Dir: "data", Country: "us.csv", State: "/abs/us-states.csv"}
	assert.Equal(t, filepath.Join("data", "us.csv"), d.CountryPath())
	assert.Equal(t, "/abs/us-states.csv", d.StatePath())

	g := GeometryConfig{Dir: "geo", States: "states.geojson", Counties: "counties.geojson"}
	assert.Equal(t, filepath.Join("geo", "counties.geojson"), g.CountiesPath())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
