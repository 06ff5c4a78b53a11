// Package mapview turns the city collection into map sources and interprets
// clicks reported by the map front-end.
package mapview

import (
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// SourceID is the map source the front-end renders user cities from.
const SourceID = "user-cities"

// FeatureCollection renders one Point feature per city whose category is
// visible. An empty visible set shows every category. The collection is
// rebuilt from scratch on every call.
func FeatureCollection(cities []atlas.City, visible []atlas.Category, selectedID string) *geojson.FeatureCollection {
	show := make(map[atlas.Category]bool, len(visible))
	for _, c := range visible {
		show[c] = true
	}

	fc := geojson.NewFeatureCollection()
	for _, c := range cities {
		if len(show) > 0 && !show[c.Category] {
			continue
		}
		fc.Append(Feature(c, c.ID == selectedID))
	}
	return fc
}

// Feature renders a single city.
func Feature(c atlas.City, selected bool) *geojson.Feature {
	f := geojson.NewFeature(c.Coordinates.Point())
	f.ID = c.ID
	f.Properties["id"] = c.ID
	f.Properties["name"] = c.Name
	f.Properties["country"] = c.Country
	f.Properties["category"] = string(c.Category)
	f.Properties["color"] = c.Category.Color()
	f.Properties["selected"] = selected
	if c.VisitDate != "" {
		f.Properties["visitDate"] = c.VisitDate
	}
	if c.Notes != "" {
		f.Properties["notes"] = c.Notes
	}
	return f
}
