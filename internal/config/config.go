// Package config loads application configuration from config.yaml and
// the environment, and initializes the global logger.
package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Geometry GeometryConfig `yaml:"geometry" mapstructure:"geometry"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the per-level case time-series files.
type DataConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Country string `yaml:"country" mapstructure:"country"`
	State   string `yaml:"state" mapstructure:"state"`
	County  string `yaml:"county" mapstructure:"county"`
}

// CountryPath returns the country-level CSV path, resolved against Dir.
func (d DataConfig) CountryPath() string { return resolveIn(d.Dir, d.Country) }

// StatePath returns the state-level CSV path, resolved against Dir.
func (d DataConfig) StatePath() string { return resolveIn(d.Dir, d.State) }

// CountyPath returns the county-level CSV path, resolved against Dir.
func (d DataConfig) CountyPath() string { return resolveIn(d.Dir, d.County) }

// GeometryConfig locates the per-level GeoJSON boundary files.
type GeometryConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	States   string `yaml:"states" mapstructure:"states"`
	Counties string `yaml:"counties" mapstructure:"counties"`
}

// StatesPath returns the state boundary GeoJSON path, resolved against Dir.
func (g GeometryConfig) StatesPath() string { return resolveIn(g.Dir, g.States) }

// CountiesPath returns the county boundary GeoJSON path, resolved against Dir.
func (g GeometryConfig) CountiesPath() string { return resolveIn(g.Dir, g.Counties) }

func resolveIn(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// FetchConfig configures the dataset downloader.
type FetchConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CountryURL   string  `yaml:"country_url" mapstructure:"country_url"`
	StatesURL    string  `yaml:"states_url" mapstructure:"states_url"`
	CountiesURL  string  `yaml:"counties_url" mapstructure:"counties_url"`
	StatesGeom   string  `yaml:"states_geom_url" mapstructure:"states_geom_url"`
	CountiesGeom string  `yaml:"counties_geom_url" mapstructure:"counties_geom_url"`
}

// CatalogConfig configures the snapshot catalog database.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CASEATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.country", "us.csv")
	v.SetDefault("data.state", "us-states.csv")
	v.SetDefault("data.county", "us-counties.csv")
	v.SetDefault("geometry.dir", "data")
	v.SetDefault("geometry.states", "us-states.geojson")
	v.SetDefault("geometry.counties", "us-counties.geojson")
	v.SetDefault("fetch.user_agent", "caseatlas/1.0")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.country_url", "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us.csv")
	v.SetDefault("fetch.states_url", "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-states.csv")
	v.SetDefault("fetch.counties_url", "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-counties.csv")
	v.SetDefault("fetch.states_geom_url", "https://eric.clst.org/assets/wiki/uploads/Stuff/gz_2010_us_040_00_20m.json")
	v.SetDefault("fetch.counties_geom_url", "https://eric.clst.org/assets/wiki/uploads/Stuff/gz_2010_us_050_00_20m.json")
	v.SetDefault("catalog.path", "data/catalog.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
