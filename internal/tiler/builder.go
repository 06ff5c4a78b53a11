package tiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/joeblew999/plat-atlas/internal/metrics"
)

// Layer results.
const (
	ResultBuilt   = "built"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// LayerResult reports what happened to one layer.
type LayerResult struct {
	Layer  string
	Result string
	Output string
	Err    error
}

// Report summarizes a build.
type Report struct {
	Engine  string
	Layers  []LayerResult
	EnvFile string
}

// Built returns the number of archives written.
func (r Report) Built() int {
	n := 0
	for _, l := range r.Layers {
		if l.Result == ResultBuilt {
			n++
		}
	}
	return n
}

// Builder runs an Engine over every configured layer.
type Builder struct {
	engine Engine
	logger *slog.Logger
	// OnLayer, when set, is called after each layer is attempted.
	OnLayer func(done, total int, res LayerResult)
}

// NewBuilder creates a builder.
func NewBuilder(engine Engine, logger *slog.Logger) *Builder {
	return &Builder{engine: engine, logger: logger.With(slog.String("component", "tiler"))}
}

// Build checks the engine's prerequisites, then converts layers one at a
// time. A missing input is skipped and a failing layer does not stop the
// others. The env file is written once all layers have been attempted.
func (b *Builder) Build(ctx context.Context, cfg Config) (Report, error) {
	report := Report{Engine: b.engine.Name()}
	if err := cfg.Validate(); err != nil {
		return report, err
	}
	if err := b.engine.Check(ctx); err != nil {
		return report, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	for i, layer := range cfg.Layers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := b.buildLayer(ctx, cfg, layer)
		metrics.TileLayersTotal.WithLabelValues(res.Result).Inc()
		report.Layers = append(report.Layers, res)
		if b.OnLayer != nil {
			b.OnLayer(i+1, len(cfg.Layers), res)
		}
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Write(EnvVars(cfg), cfg.EnvFile); err != nil {
			return report, fmt.Errorf("write %s: %w", cfg.EnvFile, err)
		}
		report.EnvFile = cfg.EnvFile
		b.logger.Info("tiles_env_written", slog.String("path", cfg.EnvFile))
	}
	return report, nil
}

func (b *Builder) buildLayer(ctx context.Context, cfg Config, layer Layer) LayerResult {
	input := filepath.Join(cfg.InputDir, layer.Input)
	output := filepath.Join(cfg.OutputDir, layer.Name+".pmtiles")
	log := b.logger.With(slog.String("layer", layer.Name))

	if _, err := os.Stat(input); err != nil {
		log.Warn("tiles_layer_skipped", slog.String("input", input), slog.Any("error", err))
		return LayerResult{Layer: layer.Name, Result: ResultSkipped, Err: err}
	}

	log.Info("tiles_layer_start", slog.String("engine", b.engine.Name()), slog.String("input", input))
	if err := b.engine.Build(ctx, layer, input, output); err != nil {
		log.Error("tiles_layer_failed", slog.Any("error", err))
		return LayerResult{Layer: layer.Name, Result: ResultFailed, Err: err}
	}
	log.Info("tiles_layer_built", slog.String("output", output))
	return LayerResult{Layer: layer.Name, Result: ResultBuilt, Output: output}
}

// EnvVars returns the front-end variables pointing at the built archives.
func EnvVars(cfg Config) map[string]string {
	base := strings.TrimSuffix(cfg.TilesURL, "/")
	env := map[string]string{
		"VITE_MAP_STYLE_URL":    cfg.Map.StyleURL,
		"VITE_MAP_CENTER_LNG":   formatFloat(cfg.Map.CenterLng),
		"VITE_MAP_CENTER_LAT":   formatFloat(cfg.Map.CenterLat),
		"VITE_MAP_DEFAULT_ZOOM": formatFloat(cfg.Map.DefaultZoom),
	}
	for _, l := range cfg.Layers {
		key := "VITE_" + strings.ToUpper(strings.ReplaceAll(l.Name, "-", "_")) + "_TILES_URL"
		env[key] = base + "/" + l.Name + ".pmtiles"
	}
	return env
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
