// Package config handles configuration loading for the spatialplot server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Title       string   `yaml:"title"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatasetConfig locates one dataset. ZarrPath is the bundle directory;
// SomaPath, when set, serves the feature matrix from a TileDB-SOMA experiment.
type DatasetConfig struct {
	ZarrPath     string  `yaml:"zarr_path"`
	SomaPath     string  `yaml:"soma_path"`
	SpotDiameter float64 `yaml:"spot_diameter"`
}

// DataConfig holds the configured datasets in file order. The legacy form
// with zarr_path/soma_path directly under data: becomes a single dataset
// called "default".
type DataConfig struct {
	Datasets       map[string]DatasetConfig
	DefaultDataset string
	order          []string
}

// DatasetIDs returns dataset IDs in configuration order.
func (d DataConfig) DatasetIDs() []string {
	return d.order
}

// UnmarshalYAML accepts both the legacy and the multi-dataset layout.
func (d *DataConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("data: expected a mapping, got line %d", node.Line)
	}

	legacy := false
	for i := 0; i < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "zarr_path", "soma_path", "spot_diameter":
			legacy = true
		}
	}
	if legacy {
		var ds DatasetConfig
		if err := node.Decode(&ds); err != nil {
			return err
		}
		d.set("default", ds)
		return nil
	}

	for i := 0; i < len(node.Content); i += 2 {
		var ds DatasetConfig
		if err := node.Content[i+1].Decode(&ds); err != nil {
			return fmt.Errorf("data.%s: %w", node.Content[i].Value, err)
		}
		d.set(node.Content[i].Value, ds)
	}
	return nil
}

func (d *DataConfig) set(id string, ds DatasetConfig) {
	if d.Datasets == nil {
		d.Datasets = make(map[string]DatasetConfig)
	}
	if _, exists := d.Datasets[id]; !exists {
		d.order = append(d.order, id)
	}
	d.Datasets[id] = ds
	if d.DefaultDataset == "" {
		d.DefaultDataset = id
	}
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	FigureSizeMB     int `yaml:"figure_size_mb"`
	FigureTTLMinutes int `yaml:"figure_ttl_minutes"`
	QuerySize        int `yaml:"query_size"`
}

// RenderConfig contains rendering settings. An empty DefaultColormap keeps
// the per-kind defaults (Blues for continuous, tab20 for categorical).
type RenderConfig struct {
	DPI             float64 `yaml:"dpi"`
	DefaultColormap string  `yaml:"default_colormap"`
	SpotDiameter    float64 `yaml:"spot_diameter"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			FigureSizeMB:     256,
			FigureTTLMinutes: 10,
			QuerySize:        1000,
		},
		Render: RenderConfig{
			DPI:          100,
			SpotDiameter: 55,
		},
		Log: LogConfig{Level: "info"},
	}
	cfg.Data.set("default", DatasetConfig{ZarrPath: "./data/spatial.zarr"})
	return cfg
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if len(cfg.Data.Datasets) == 0 {
		cfg.Data = defaults.Data
	}
	if cfg.Cache.FigureSizeMB == 0 {
		cfg.Cache.FigureSizeMB = defaults.Cache.FigureSizeMB
	}
	if cfg.Cache.FigureTTLMinutes == 0 {
		cfg.Cache.FigureTTLMinutes = defaults.Cache.FigureTTLMinutes
	}
	if cfg.Cache.QuerySize == 0 {
		cfg.Cache.QuerySize = defaults.Cache.QuerySize
	}
	if cfg.Render.DPI == 0 {
		cfg.Render.DPI = defaults.Render.DPI
	}
	if cfg.Render.SpotDiameter == 0 {
		cfg.Render.SpotDiameter = defaults.Render.SpotDiameter
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	for id, ds := range cfg.Data.Datasets {
		if ds.SpotDiameter == 0 {
			ds.SpotDiameter = cfg.Render.SpotDiameter
			cfg.Data.Datasets[id] = ds
		}
	}
}
