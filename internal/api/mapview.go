package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/mapview"
)

type FeaturesInput struct {
	FilterParams
	Visible []string `query:"visible" doc:"Categories whose markers are shown; empty shows all"`
}

type ClustersInput struct {
	FeaturesInput
	Zoom   int `query:"zoom" minimum:"0" maximum:"22" doc:"Map zoom level"`
	Radius int `query:"radius" minimum:"0" maximum:"512" doc:"Cluster radius in pixels, 0 for the default"`
}

// FeaturesOutput carries a GeoJSON FeatureCollection. The collection is
// marshalled by orb.
type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        *geojson.FeatureCollection
}

type ClickBody struct {
	Outcome mapview.Outcome `json:"outcome" doc:"What the click resolved to"`
	// City is set for select-city outcomes.
	City *atlas.City `json:"city,omitempty" doc:"Selected city"`
	// Cleared is the id whose highlight was removed by a new selection.
	Cleared string `json:"cleared,omitempty" doc:"Previously selected city id"`
}

type PickBody struct {
	Picking bool `json:"picking" doc:"Whether the next click picks a location"`
}

type SelectionBody struct {
	ID string `json:"id" doc:"City to select; empty clears the selection"`
}

type SelectionResult struct {
	Selected string `json:"selected" doc:"Currently selected city id"`
	Cleared  string `json:"cleared,omitempty" doc:"Previously selected city id"`
}

// RegisterMap registers map view routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map/features", h.GetFeatures, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/source", h.GetSource, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/clusters", h.GetClusters, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/click", h.PostClick, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/pick", h.PostPick, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/map/selection", h.PutSelection, huma.OperationTags("map"))
}

func (h *APIHandler) features(input *FeaturesInput) *geojson.FeatureCollection {
	cities := h.svc.Cities.Filter(input.Options())
	visible := make([]atlas.Category, 0, len(input.Visible))
	for _, c := range input.Visible {
		visible = append(visible, atlas.Category(c))
	}
	return mapview.FeatureCollection(cities, visible, h.svc.Map.Selection.Selected())
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *FeaturesInput) (*FeaturesOutput, error) {
	return &FeaturesOutput{ContentType: "application/geo+json", Body: h.features(input)}, nil
}

func (h *APIHandler) GetClusters(ctx context.Context, input *ClustersInput) (*FeaturesOutput, error) {
	radius := input.Radius
	if radius == 0 {
		radius = mapview.ClusterRadius
	}
	fc := mapview.Cluster(h.features(&input.FeaturesInput), maptile.Zoom(input.Zoom), radius)
	return &FeaturesOutput{ContentType: "application/geo+json", Body: fc}, nil
}

func (h *APIHandler) GetSource(ctx context.Context, input *struct{}) (*struct{ Body mapview.Source }, error) {
	src := mapview.SourceConfig(len(h.svc.Cities.List()), mapview.SourceOptions{
		Threshold: h.svc.Map.ClusterThreshold,
		Force:     h.svc.Settings.Get().EnableClustering,
	})
	return &struct{ Body mapview.Source }{Body: src}, nil
}

// PostClick routes a map click. Selecting a city moves the highlight;
// picking a location ends picking mode.
func (h *APIHandler) PostClick(ctx context.Context, input *struct{ Body mapview.Click }) (*struct{ Body ClickBody }, error) {
	m := h.svc.Map
	out := m.Router.Route(input.Body, m.Pick.Active())
	body := ClickBody{Outcome: out}

	switch out.Kind {
	case mapview.OutcomeSelectCity:
		c, err := h.svc.Cities.Get(out.CityID)
		if err != nil {
			return nil, httpError(err)
		}
		body.City = &c
		body.Cleared = m.Selection.Select(c.ID)
	case mapview.OutcomePickLocation:
		m.Pick.Stop()
	}
	return &struct{ Body ClickBody }{Body: body}, nil
}

func (h *APIHandler) PostPick(ctx context.Context, input *struct{ Body PickBody }) (*struct{ Body PickBody }, error) {
	if input.Body.Picking {
		h.svc.Map.Pick.Start()
	} else {
		h.svc.Map.Pick.Stop()
	}
	return &struct{ Body PickBody }{Body: PickBody{Picking: h.svc.Map.Pick.Active()}}, nil
}

func (h *APIHandler) PutSelection(ctx context.Context, input *struct{ Body SelectionBody }) (*struct{ Body SelectionResult }, error) {
	m := h.svc.Map
	var cleared string
	if input.Body.ID == "" {
		cleared = m.Selection.Clear()
	} else {
		if _, err := h.svc.Cities.Get(input.Body.ID); err != nil {
			return nil, httpError(err)
		}
		cleared = m.Selection.Select(input.Body.ID)
	}
	return &struct{ Body SelectionResult }{Body: SelectionResult{Selected: m.Selection.Selected(), Cleared: cleared}}, nil
}
