package api

import (
	"bytes"
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/humastar"
	"github.com/joeblew999/plat-atlas/internal/service"
)

var cityActions = []humastar.ActionDef{
	{Rel: "edit", Pattern: "/api/v1/cities/%s", Method: "PUT", Title: "Edit city"},
	{Rel: "delete", Pattern: "/api/v1/cities/%s", Method: "DELETE", Title: "Delete city"},
}

// CityBody is a city with its hypermedia actions.
type CityBody struct {
	atlas.City
}

// Actions lists what can be done to the city.
func (b CityBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, cityActions)
}

// CityFields is the writable part of a city.
type CityFields struct {
	Name        string            `json:"name" minLength:"1" doc:"City name"`
	Country     string            `json:"country" minLength:"1" doc:"Country name"`
	Coordinates atlas.Coordinates `json:"coordinates" doc:"[longitude, latitude]"`
	Category    atlas.Category    `json:"category" enum:"Visited,Planned,Wishlist,Favorite,Business,Transit" doc:"Category"`
	VisitDate   string            `json:"visitDate,omitempty" doc:"Visit date (YYYY-MM-DD), Visited only"`
	Notes       string            `json:"notes,omitempty" doc:"Free text notes"`
	Continent   string            `json:"continent,omitempty" doc:"Explicit continent"`
}

func (f CityFields) city() atlas.City {
	return atlas.City{
		Name:        f.Name,
		Country:     f.Country,
		Coordinates: f.Coordinates,
		Category:    f.Category,
		VisitDate:   f.VisitDate,
		Notes:       f.Notes,
		Continent:   f.Continent,
	}
}

type CityIDInput struct {
	ID string `path:"id" doc:"City ID"`
}

type ListCitiesInput struct {
	FilterParams
	Offset int `query:"offset" minimum:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"0" maximum:"1000" doc:"Page size, 0 for all"`
}

type CityOutput struct {
	Body CityBody
}

type CitiesOutput struct {
	Body humastar.PageBody[atlas.City]
}

type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type ImportInput struct {
	RawBody []byte `contentType:"application/json"`
}

type ImportBody struct {
	Imported int    `json:"imported" doc:"Number of cities now stored"`
	Message  string `json:"message" doc:"Result message"`
}

type ClearInput struct {
	All bool `query:"all" doc:"Also reset settings and remove both stored documents"`
}

// RegisterCities registers city collection routes.
func (h *APIHandler) RegisterCities(api huma.API) {
	huma.Get(api, "/api/v1/cities", h.ListCities, huma.OperationTags("cities"))
	huma.Post(api, "/api/v1/cities", h.CreateCity, huma.OperationTags("cities"), func(o *huma.Operation) {
		o.DefaultStatus = 201
	})
	huma.Delete(api, "/api/v1/cities", h.ClearCities, huma.OperationTags("cities"))
	huma.Get(api, "/api/v1/cities/export", h.ExportCities, huma.OperationTags("cities"))
	huma.Post(api, "/api/v1/cities/import", h.ImportCities, huma.OperationTags("cities"))
	huma.Get(api, "/api/v1/cities/{id}", h.GetCity, huma.OperationTags("cities"))
	huma.Put(api, "/api/v1/cities/{id}", h.PutCity, huma.OperationTags("cities"))
	huma.Delete(api, "/api/v1/cities/{id}", h.DeleteCity, huma.OperationTags("cities"))
}

func (h *APIHandler) ListCities(ctx context.Context, input *ListCitiesInput) (*CitiesOutput, error) {
	cities := h.svc.Cities.Filter(input.Options())
	return &CitiesOutput{Body: humastar.Page(cities, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetCity(ctx context.Context, input *CityIDInput) (*CityOutput, error) {
	c, err := h.svc.Cities.Get(input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &CityOutput{Body: CityBody{c}}, nil
}

func (h *APIHandler) CreateCity(ctx context.Context, input *struct{ Body CityFields }) (*CityOutput, error) {
	c, err := h.svc.Cities.Create(ctx, input.Body.city())
	if err != nil {
		return nil, httpError(err)
	}
	return &CityOutput{Body: CityBody{c}}, nil
}

func (h *APIHandler) PutCity(ctx context.Context, input *struct {
	CityIDInput
	Body CityFields
}) (*CityOutput, error) {
	c, err := h.svc.Cities.Update(ctx, input.ID, input.Body.city())
	if err != nil {
		return nil, httpError(err)
	}
	return &CityOutput{Body: CityBody{c}}, nil
}

func (h *APIHandler) DeleteCity(ctx context.Context, input *CityIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Cities.Delete(ctx, input.ID); err != nil {
		return nil, httpError(err)
	}
	if h.svc.Map != nil && h.svc.Map.Selection.Selected() == input.ID {
		h.svc.Map.Selection.Clear()
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "City deleted"}}, nil
}

func (h *APIHandler) ClearCities(ctx context.Context, input *ClearInput) (*struct{ Body MessageBody }, error) {
	h.svc.Cities.Clear(ctx)
	if h.svc.Map != nil {
		h.svc.Map.Selection.Clear()
	}
	if !input.All {
		return &struct{ Body MessageBody }{Body: MessageBody{Message: "All cities removed"}}, nil
	}
	h.svc.Settings.Reset(ctx)
	h.svc.Storage.ClearAll(ctx)
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "All data cleared"}}, nil
}

func (h *APIHandler) ExportCities(ctx context.Context, input *struct{}) (*ExportOutput, error) {
	var buf bytes.Buffer
	if err := service.ExportCitiesJSON(&buf, h.svc.Cities.List()); err != nil {
		return nil, httpError(err)
	}
	return &ExportOutput{
		ContentType:        "application/json",
		ContentDisposition: `attachment; filename="` + service.ExportFilename(time.Now().UTC()) + `"`,
		Body:               buf.Bytes(),
	}, nil
}

func (h *APIHandler) ImportCities(ctx context.Context, input *ImportInput) (*struct{ Body ImportBody }, error) {
	cities, err := h.svc.Cities.Import(ctx, bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, httpError(err)
	}
	if h.svc.Map != nil {
		h.svc.Map.Selection.Clear()
	}
	return &struct{ Body ImportBody }{Body: ImportBody{
		Imported: len(cities),
		Message:  "Cities imported",
	}}, nil
}
