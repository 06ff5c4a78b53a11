package mapview

import (
	"math"
	"strings"
	"sync"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// RenderedFeature is a basemap feature the front-end found under a click.
type RenderedFeature struct {
	LayerID      string         `json:"layerId" doc:"Style layer id"`
	GeometryType string         `json:"geometryType,omitempty" doc:"GeoJSON geometry type"`
	Properties   map[string]any `json:"properties,omitempty" doc:"Feature properties"`
}

// Click is one map click as reported by the front-end.
type Click struct {
	Lon      float64           `json:"lon" minimum:"-180" maximum:"180" doc:"Clicked longitude"`
	Lat      float64           `json:"lat" minimum:"-90" maximum:"90" doc:"Clicked latitude"`
	CityIDs  []string          `json:"cityIds,omitempty" doc:"User city markers under the click"`
	Features []RenderedFeature `json:"features,omitempty" doc:"Basemap features under the click"`
}

// OutcomeKind names what a click resolved to.
type OutcomeKind string

const (
	OutcomeNone         OutcomeKind = "none"
	OutcomeSelectCity   OutcomeKind = "select-city"
	OutcomePickLocation OutcomeKind = "pick-location"
	OutcomePrefillCity  OutcomeKind = "prefill-city"
)

// Prefill seeds the city form.
type Prefill struct {
	Name        string            `json:"name,omitempty"`
	Country     string            `json:"country,omitempty"`
	Continent   string            `json:"continent,omitempty"`
	Coordinates atlas.Coordinates `json:"coordinates"`
}

// Outcome is the single result of routing a click.
type Outcome struct {
	Kind    OutcomeKind `json:"kind" enum:"none,select-city,pick-location,prefill-city"`
	CityID  string      `json:"cityId,omitempty"`
	Prefill *Prefill    `json:"prefill,omitempty"`
}

// PickState is the "choose a location on the map" mode.
type PickState struct {
	mu     sync.Mutex
	active bool
}

// Start enters picking mode.
func (p *PickState) Start() { p.set(true) }

// Stop leaves picking mode.
func (p *PickState) Stop() { p.set(false) }

// Active reports whether the next click picks a location.
func (p *PickState) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *PickState) set(v bool) {
	p.mu.Lock()
	p.active = v
	p.mu.Unlock()
}

// Router resolves clicks. Priority: an existing city marker, then picking
// mode, then a place or country label, else nothing.
type Router struct {
	Resolver *atlas.Resolver
}

// Route resolves click into exactly one outcome.
func (r Router) Route(click Click, picking bool) Outcome {
	if len(click.CityIDs) > 0 {
		return Outcome{Kind: OutcomeSelectCity, CityID: click.CityIDs[0]}
	}

	coords := atlas.Coordinates{round6(click.Lon), round6(click.Lat)}
	if picking {
		name, country := r.labels(click.Features, false)
		return Outcome{Kind: OutcomePickLocation, Prefill: r.prefill(coords, name, country)}
	}

	name, country := r.labels(click.Features, true)
	if name == "" && country == "" {
		return Outcome{Kind: OutcomeNone}
	}
	return Outcome{Kind: OutcomePrefillCity, Prefill: r.prefill(coords, name, country)}
}

// prefill drops a country equal to the name: a city label that also
// carries name_en reads as both.
func (r Router) prefill(coords atlas.Coordinates, name, country string) *Prefill {
	if strings.EqualFold(name, country) {
		country = ""
	}
	p := &Prefill{Name: name, Country: country, Coordinates: coords}
	if country != "" && r.Resolver != nil && r.Resolver.Known(country) {
		p.Continent = r.Resolver.Continent(country)
	}
	return p
}

// labels returns the first place name and country found. With pointOnly a
// bare name property only marks a place when it sits on a Point.
func (r Router) labels(features []RenderedFeature, pointOnly bool) (name, country string) {
	for _, f := range features {
		if strings.HasPrefix(f.LayerID, SourceID) {
			continue
		}
		if name == "" && isPlace(f, pointOnly) {
			name = prop(f, "name")
		}
		if country == "" && isAdmin(f) {
			country = firstProp(f, "name_en", "name", "iso_a2")
		}
	}
	return name, country
}

func isPlace(f RenderedFeature, pointOnly bool) bool {
	id := f.LayerID
	if strings.Contains(id, "cities") || strings.Contains(id, "place") {
		return true
	}
	return prop(f, "name") != "" && (!pointOnly || f.GeometryType == "Point")
}

func isAdmin(f RenderedFeature) bool {
	id := f.LayerID
	if strings.Contains(id, "admin") || strings.Contains(id, "country") {
		return true
	}
	return prop(f, "iso_a2") != "" || prop(f, "name_en") != ""
}

func firstProp(f RenderedFeature, keys ...string) string {
	for _, k := range keys {
		if v := prop(f, k); v != "" {
			return v
		}
	}
	return ""
}

func prop(f RenderedFeature, key string) string {
	s, _ := f.Properties[key].(string)
	return strings.TrimSpace(s)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
