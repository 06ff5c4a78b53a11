// Package tiler builds the offline basemap: GeoJSON layers are converted to
// PMTiles archives the map front-end loads over HTTP range requests.
package tiler

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layer is one GeoJSON input turned into one archive.
type Layer struct {
	Name    string   `yaml:"name"`
	Input   string   `yaml:"input"`
	MinZoom int      `yaml:"minZoom"`
	MaxZoom int      `yaml:"maxZoom"`
	Options []string `yaml:"options,omitempty"`
}

// MapDefaults end up in the generated env file.
type MapDefaults struct {
	StyleURL    string  `yaml:"styleUrl"`
	CenterLng   float64 `yaml:"centerLng"`
	CenterLat   float64 `yaml:"centerLat"`
	DefaultZoom float64 `yaml:"defaultZoom"`
}

// Config drives a build.
type Config struct {
	InputDir  string      `yaml:"inputDir"`
	OutputDir string      `yaml:"outputDir"`
	TempDir   string      `yaml:"tempDir"`
	EnvFile   string      `yaml:"envFile"`
	TilesURL  string      `yaml:"tilesUrl"`
	Map       MapDefaults `yaml:"map"`
	Layers    []Layer     `yaml:"layers"`
}

// DefaultConfig returns the cities, admin and roads layers.
func DefaultConfig() Config {
	dense := []string{"--drop-densest-as-needed", "--extend-zooms-if-still-dropping"}
	return Config{
		InputDir:  "./data/raw",
		OutputDir: "./public/tiles",
		TempDir:   "./temp",
		EnvFile:   ".env.local",
		TilesURL:  "./tiles",
		Map: MapDefaults{
			StyleURL:    "https://basemaps.cartocdn.com/gl/positron-gl-style/style.json",
			CenterLng:   0,
			CenterLat:   20,
			DefaultZoom: 2,
		},
		Layers: []Layer{
			{Name: "cities", Input: "cities.geojson", MinZoom: 0, MaxZoom: 14, Options: append(append([]string{}, dense...), "--simplification=10")},
			{Name: "admin", Input: "admin.geojson", MinZoom: 0, MaxZoom: 10, Options: dense},
			{Name: "roads", Input: "roads.geojson", MinZoom: 0, MaxZoom: 12, Options: dense},
		},
	}
}

// LoadConfig reads a YAML config. Fields it leaves empty keep their
// defaults; a non-empty layers list replaces the default layers.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read tile config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse tile config %s: %w", path, err)
	}

	if file.InputDir != "" {
		cfg.InputDir = file.InputDir
	}
	if file.OutputDir != "" {
		cfg.OutputDir = file.OutputDir
	}
	if file.TempDir != "" {
		cfg.TempDir = file.TempDir
	}
	if file.EnvFile != "" {
		cfg.EnvFile = file.EnvFile
	}
	if file.TilesURL != "" {
		cfg.TilesURL = file.TilesURL
	}
	if file.Map.StyleURL != "" {
		cfg.Map = file.Map
	}
	if len(file.Layers) > 0 {
		cfg.Layers = file.Layers
	}
	return cfg, cfg.Validate()
}

// Validate checks layer names and zoom ranges.
func (c Config) Validate() error {
	seen := map[string]bool{}
	for i, l := range c.Layers {
		if l.Name == "" || l.Input == "" {
			return fmt.Errorf("layer %d: name and input are required", i)
		}
		if seen[l.Name] {
			return fmt.Errorf("layer %s: duplicate name", l.Name)
		}
		seen[l.Name] = true
		if l.MinZoom < 0 || l.MaxZoom > 22 || l.MinZoom > l.MaxZoom {
			return fmt.Errorf("layer %s: invalid zoom range %d-%d", l.Name, l.MinZoom, l.MaxZoom)
		}
	}
	return nil
}

// Engine converts one layer's GeoJSON into a PMTiles archive.
type Engine interface {
	Name() string
	// Check reports missing prerequisites before any layer is built.
	Check(ctx context.Context) error
	Build(ctx context.Context, layer Layer, input, output string) error
}
