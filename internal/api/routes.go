// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/mapview"
	"github.com/joeblew999/plat-atlas/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.3.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Cities   *service.CityService
	Settings *service.SettingsService
	Storage  *service.Storage
	Tiles    *service.TileService
	Map      *MapState
}

// MapState is the per-process map interaction state.
type MapState struct {
	Selection mapview.Selection
	Pick      mapview.PickState
	Router    mapview.Router
	// ClusterThreshold overrides mapview.DefaultClusterThreshold when > 0.
	ClusterThreshold int
}

// HealthBody is the /health response.
type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version"`
}

// MessageBody is a plain confirmation.
type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

// APIHandler holds the REST handlers. Methods named Register* are
// discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}
