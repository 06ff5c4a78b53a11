package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/filter"
	"github.com/joeblew999/plat-atlas/internal/stats"
)

type StatsBody struct {
	All      stats.Stats `json:"all" doc:"Statistics over every city"`
	Filtered stats.Stats `json:"filtered" doc:"Statistics over the cities matching the query"`
}

type StatsInput struct {
	FilterParams
}

// RegisterStats registers statistics routes.
func (h *APIHandler) RegisterStats(api huma.API) {
	huma.Get(api, "/api/v1/stats", h.GetStats, huma.OperationTags("stats"))
	huma.Get(api, "/api/v1/timeline", h.GetTimeline, huma.OperationTags("stats"))
	huma.Get(api, "/api/v1/recommendation", h.GetRecommendation, huma.OperationTags("stats"))
}

func (h *APIHandler) GetStats(ctx context.Context, input *StatsInput) (*struct{ Body StatsBody }, error) {
	cities := h.svc.Cities.List()
	resolver := h.svc.Cities.Resolver()
	filtered := filter.Cities(cities, input.Options(), resolver)
	return &struct{ Body StatsBody }{Body: StatsBody{
		All:      h.svc.Cities.Stats(),
		Filtered: stats.Calculate(filtered, resolver, nil),
	}}, nil
}

func (h *APIHandler) GetTimeline(ctx context.Context, input *struct{}) (*struct{ Body []atlas.City }, error) {
	return &struct{ Body []atlas.City }{Body: stats.Timeline(h.svc.Cities.List())}, nil
}

func (h *APIHandler) GetRecommendation(ctx context.Context, input *struct{}) (*CityOutput, error) {
	c, ok := stats.Recommend(h.svc.Cities.List(), nil)
	if !ok {
		return nil, huma.Error404NotFound("no planned cities to recommend")
	}
	return &CityOutput{Body: CityBody{c}}, nil
}
