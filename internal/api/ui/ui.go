// Package ui contains the Datastar SSE handlers behind the atlas page: the
// live change stream and the filter panel.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/filter"
	"github.com/joeblew999/plat-atlas/internal/humastar"
	"github.com/joeblew999/plat-atlas/internal/service"
	"github.com/joeblew999/plat-atlas/internal/stats"
	"github.com/joeblew999/plat-atlas/internal/templates"
)

// CityListSelector is the element the city list is patched into.
const CityListSelector = "#city-list"

// StatsSelector is the element the statistics panel is patched into.
const StatsSelector = "#stats-panel"

// Handler serves the UI endpoints.
type Handler struct {
	humastar.Handler
	cities *service.CityService
}

// NewHandler creates the UI handler.
func NewHandler(cities *service.CityService, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		cities:  cities,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("ui"))
	huma.Post(api, "/api/v1/ui/filter", h.Filter, huma.OperationTags("ui"))
}

type cityView struct {
	atlas.City
	Color string
}

func (h *Handler) renderCities(cities []atlas.City) string {
	items := make([]any, len(cities))
	for i, c := range cities {
		items[i] = cityView{City: c, Color: c.Category.Color()}
	}
	return h.RenderList("city-item", items, "No cities", "Nothing matches the current filters.")
}

func (h *Handler) renderStats(st stats.Stats) string {
	html, err := h.Renderer.Render("stats-panel", st)
	if err != nil {
		return ""
	}
	return html
}

// Events streams the city list and statistics, first on connect and then
// after every change.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			bus := h.cities.Bus()
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)

			h.pushState(sse)
			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev := <-ch:
					if ev.Resource == service.ResourceCities {
						h.pushState(sse)
					}
					sse.DispatchCustomEvent("atlas-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
						"revision": ev.Revision,
					})
				}
			}
		},
	}, nil
}

func (h *Handler) pushState(sse humastar.SSE) {
	cities := h.cities.List()
	st := h.cities.Stats()
	sse.Patch(h.renderCities(cities), CityListSelector)
	sse.Patch(h.renderStats(st), StatsSelector)
	sse.Signals(map[string]any{
		"stats":     st,
		"countries": filter.Countries(cities),
		"revision":  h.cities.Revision(),
	})
}

// Filter applies the filter panel signals: q, categories, countries,
// continents, from and to.
func (h *Handler) Filter(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	opts := OptionsFromSignals(signals)

	return h.Stream(func(sse humastar.SSE) {
		resolver := h.cities.Resolver()
		filtered := filter.Cities(h.cities.List(), opts, resolver)
		st := stats.Calculate(filtered, resolver, nil)
		sse.Patch(h.renderCities(filtered), CityListSelector)
		sse.Patch(h.renderStats(st), StatsSelector)
		sse.Signals(map[string]any{
			"filteredStats": st,
			"matches":       len(filtered),
		})
	}), nil
}

// OptionsFromSignals reads filter options from Datastar signals.
func OptionsFromSignals(s humastar.Signals) atlas.FilterOptions {
	opts := atlas.FilterOptions{
		SearchTerm: s.String("q"),
		Countries:  s.Strings("countries"),
		Continents: s.Strings("continents"),
		DateRange:  atlas.DateRange{Start: dateSignal(s, "from"), End: dateSignal(s, "to")},
	}
	for _, c := range s.Strings("categories") {
		opts.Categories = append(opts.Categories, atlas.Category(c))
	}
	return opts
}

// dateSignal returns the named YYYY-MM-DD signal. Anything else, including
// a half-typed date, leaves that end of the range open.
func dateSignal(s humastar.Signals, name string) string {
	v := strings.TrimSpace(s.String(name))
	if _, err := time.Parse(atlas.DateLayout, v); err != nil {
		return ""
	}
	return v
}
