package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/humastar"
	"github.com/joeblew999/plat-atlas/internal/service"
	"github.com/joeblew999/plat-atlas/internal/tiler"
)

// TileHandler rebuilds the basemap archives and streams progress.
type TileHandler struct {
	humastar.Handler
	engine tiler.Engine
	config tiler.Config
	tiles  *service.TileService
	logger *slog.Logger

	running sync.Mutex
}

// NewTileHandler creates a handler building cfg's layers with engine.
func NewTileHandler(engine tiler.Engine, cfg tiler.Config, tiles *service.TileService, logger *slog.Logger) *TileHandler {
	return &TileHandler{engine: engine, config: cfg, tiles: tiles, logger: logger}
}

func (h *TileHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/ui/tiles/build", h.Build, huma.OperationTags("ui", "tiles"))
}

// Build runs one tile build. Only one build runs at a time.
func (h *TileHandler) Build(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	if !h.running.TryLock() {
		return nil, huma.Error409Conflict("a tile build is already running")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			defer h.running.Unlock()
			sse := humastar.NewSSE(humaCtx)
			sse.Signals(map[string]any{"tileStatus": "Starting tile build...", "tileProgress": 0})

			builder := tiler.NewBuilder(h.engine, h.logger)
			builder.OnLayer = func(done, total int, res tiler.LayerResult) {
				status := fmt.Sprintf("%s: %s", res.Layer, res.Result)
				if res.Err != nil && res.Result == tiler.ResultFailed {
					status += " (" + res.Err.Error() + ")"
				}
				sse.Signals(map[string]any{
					"tileStatus":   status,
					"tileProgress": done * 100 / total,
				})
			}

			report, err := builder.Build(humaCtx.Context(), h.config)
			if err != nil {
				sse.Error("Tile build failed: " + err.Error())
				return
			}

			signals := map[string]any{
				"tileStatus":   fmt.Sprintf("Complete: %d of %d layers built", report.Built(), len(report.Layers)),
				"tileProgress": 100,
			}
			if files, err := h.tiles.List(); err == nil {
				signals["tiles"] = files
			}
			sse.Signals(signals)
		},
	}, nil
}
