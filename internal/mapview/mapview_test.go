package mapview

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

func cities() []atlas.City {
	return []atlas.City{
		{ID: "a", Name: "Beijing", Country: "China", Coordinates: atlas.Coordinates{116.4, 39.9}, Category: atlas.Visited, VisitDate: "2019-10-01"},
		{ID: "b", Name: "Paris", Country: "France", Coordinates: atlas.Coordinates{2.35, 48.85}, Category: atlas.Favorite},
		{ID: "c", Name: "Tokyo", Country: "Japan", Coordinates: atlas.Coordinates{139.69, 35.69}, Category: atlas.Planned},
	}
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(cities(), nil, "b")
	require.Len(t, fc.Features, 3)

	f := fc.Features[1]
	assert.Equal(t, "b", f.ID)
	assert.Equal(t, orb.Point{2.35, 48.85}, f.Geometry)
	assert.Equal(t, "Paris", f.Properties["name"])
	assert.Equal(t, "#f5222d", f.Properties["color"])
	assert.Equal(t, true, f.Properties["selected"])
	assert.Equal(t, false, fc.Features[0].Properties["selected"])
	assert.Equal(t, "2019-10-01", fc.Features[0].Properties["visitDate"])
	assert.NotContains(t, f.Properties, "notes")
}

func TestFeatureCollectionVisibleCategories(t *testing.T) {
	fc := FeatureCollection(cities(), []atlas.Category{atlas.Visited, atlas.Planned}, "")
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "a", fc.Features[0].ID)
	assert.Equal(t, "c", fc.Features[1].ID)

	assert.Empty(t, FeatureCollection(nil, nil, "").Features)
}

func TestSelection(t *testing.T) {
	var s Selection
	assert.Equal(t, "", s.Select("a"))
	assert.Equal(t, "a", s.Select("b"))
	assert.Equal(t, "", s.Select("b"))
	assert.Equal(t, "b", s.Selected())
	assert.Equal(t, "b", s.Clear())
	assert.Equal(t, "", s.Selected())
}

func TestSourceConfig(t *testing.T) {
	assert.False(t, SourceConfig(199, SourceOptions{}).Cluster)
	assert.True(t, SourceConfig(200, SourceOptions{}).Cluster)
	assert.True(t, SourceConfig(3, SourceOptions{Force: true}).Cluster)
	assert.True(t, SourceConfig(10, SourceOptions{Threshold: 10}).Cluster)

	src := SourceConfig(0, SourceOptions{})
	assert.Equal(t, 50, src.ClusterRadius)
	assert.Equal(t, 14, src.ClusterMaxZoom)
	assert.Equal(t, SourceID, src.ID)
}

func TestCluster(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(Feature(atlas.City{ID: "p1", Coordinates: atlas.Coordinates{2.35, 48.85}, Category: atlas.Visited}, false))
	fc.Append(Feature(atlas.City{ID: "p2", Coordinates: atlas.Coordinates{2.36, 48.86}, Category: atlas.Planned}, false))
	fc.Append(Feature(atlas.City{ID: "t", Coordinates: atlas.Coordinates{139.69, 35.69}, Category: atlas.Visited}, false))

	out := Cluster(fc, 2, ClusterRadius)
	require.Len(t, out.Features, 2)

	cluster := out.Features[0]
	assert.Equal(t, true, cluster.Properties["cluster"])
	assert.Equal(t, 2, cluster.Properties["point_count"])
	assert.Equal(t, "2", cluster.Properties["point_count_abbreviated"])
	p := cluster.Geometry.(orb.Point)
	assert.InDelta(t, 2.355, p.Lon(), 1e-9)
	assert.InDelta(t, 48.855, p.Lat(), 1e-9)
	exp := cluster.Properties["cluster_expansion_zoom"].(int)
	assert.Greater(t, exp, 2)
	assert.LessOrEqual(t, exp, ClusterMaxZoom+1)

	assert.Equal(t, "t", out.Features[1].ID)

	assert.Same(t, fc, Cluster(fc, ClusterMaxZoom+1, ClusterRadius))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "999", abbreviate(999))
	assert.Equal(t, "1.2k", abbreviate(1234))
	assert.Equal(t, "12k", abbreviate(12345))
}

func TestRouterPriority(t *testing.T) {
	r := Router{Resolver: atlas.DefaultResolver()}
	labels := []RenderedFeature{
		{LayerID: "place-city", GeometryType: "Point", Properties: map[string]any{"name": "Lyon"}},
		{LayerID: "admin-0", GeometryType: "Polygon", Properties: map[string]any{"name_en": "France", "iso_a2": "FR"}},
	}

	out := r.Route(Click{Lon: 4.8357, Lat: 45.764, CityIDs: []string{"b"}, Features: labels}, true)
	assert.Equal(t, Outcome{Kind: OutcomeSelectCity, CityID: "b"}, out)

	out = r.Route(Click{Lon: 4.83571234, Lat: 45.7640009, Features: labels}, true)
	assert.Equal(t, OutcomePickLocation, out.Kind)
	assert.Equal(t, atlas.Coordinates{4.835712, 45.764001}, out.Prefill.Coordinates)
	assert.Equal(t, "Lyon", out.Prefill.Name)
	assert.Equal(t, "France", out.Prefill.Country)
	assert.Equal(t, "Europe", out.Prefill.Continent)

	out = r.Route(Click{Lon: 4.8357, Lat: 45.764, Features: labels}, false)
	assert.Equal(t, OutcomePrefillCity, out.Kind)
	assert.Equal(t, "Lyon", out.Prefill.Name)

	assert.Equal(t, Outcome{Kind: OutcomeNone}, r.Route(Click{Lon: 1, Lat: 1}, false))
}

func TestRouterPickWithoutLabels(t *testing.T) {
	out := Router{}.Route(Click{Lon: 10, Lat: 20}, true)
	assert.Equal(t, OutcomePickLocation, out.Kind)
	assert.Equal(t, &Prefill{Coordinates: atlas.Coordinates{10, 20}}, out.Prefill)
}

func TestRouterLabelDetection(t *testing.T) {
	r := Router{}

	// A city label that also carries name_en reads as a country too.
	out := r.Route(Click{Features: []RenderedFeature{
		{LayerID: "labels", GeometryType: "Point", Properties: map[string]any{"name": "Singapore", "name_en": "Singapore"}},
	}}, false)
	assert.Equal(t, OutcomePrefillCity, out.Kind)
	assert.Equal(t, "Singapore", out.Prefill.Name)
	assert.Empty(t, out.Prefill.Country)

	// A named polygon is not a place outside picking mode.
	out = r.Route(Click{Features: []RenderedFeature{
		{LayerID: "water", GeometryType: "Polygon", Properties: map[string]any{"name": "Lake Geneva"}},
	}}, false)
	assert.Equal(t, OutcomeNone, out.Kind)

	// Country falls back to iso_a2.
	out = r.Route(Click{Features: []RenderedFeature{
		{LayerID: "country-fill", Properties: map[string]any{"iso_a2": "JP"}},
	}}, false)
	assert.Equal(t, "JP", out.Prefill.Country)

	// User markers are never read as labels.
	out = r.Route(Click{Features: []RenderedFeature{
		{LayerID: SourceID + "-points", GeometryType: "Point", Properties: map[string]any{"name": "Paris"}},
	}}, false)
	assert.Equal(t, OutcomeNone, out.Kind)
}

func TestPickState(t *testing.T) {
	var p PickState
	assert.False(t, p.Active())
	p.Start()
	assert.True(t, p.Active())
	p.Stop()
	assert.False(t, p.Active())
}
