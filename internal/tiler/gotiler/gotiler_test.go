package gotiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	gopmtiles "github.com/protomaps/go-pmtiles/pmtiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-atlas/internal/pmtiles"
	"github.com/joeblew999/plat-atlas/internal/tiler"
)

func citiesFC() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range []struct {
		name string
		p    orb.Point
	}{
		{"Paris", orb.Point{2.35, 48.85}},
		{"Tokyo", orb.Point{139.69, 35.69}},
		{"Sydney", orb.Point{151.21, -33.87}},
	} {
		f := geojson.NewFeature(c.p)
		f.Properties["name"] = c.name
		fc.Append(f)
	}
	return fc
}

func TestZoom(t *testing.T) {
	tiles, err := Zoom(citiesFC(), 0, "cities")
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, uint8(0), tiles[0].Z)
	assert.NotEmpty(t, tiles[0].Data)

	tiles, err = Zoom(citiesFC(), 2, "cities")
	require.NoError(t, err)
	assert.Len(t, tiles, 3)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cities.geojson")
	data, err := citiesFC().MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, data, 0644))

	output := filepath.Join(dir, "cities.pmtiles")
	layer := tiler.Layer{Name: "cities", Input: "cities.geojson", MinZoom: 0, MaxZoom: 3}
	require.NoError(t, New().Build(context.Background(), layer, input, output))

	h, err := pmtiles.ReadHeader(output)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), h.MaxZoom)
	assert.Equal(t, gopmtiles.TileType(gopmtiles.Mvt), h.TileType)
	// Paris and Tokyo share the north-east tile at z1.
	assert.Equal(t, uint64(1+2+3+3), h.TileEntriesCount)
	assert.Equal(t, int32(23500000), h.MinLonE7)
}

func TestBuildRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(input, []byte("nope"), 0644))
	err := New().Build(context.Background(), tiler.Layer{Name: "bad", MaxZoom: 2}, input, filepath.Join(dir, "bad.pmtiles"))
	assert.Error(t, err)
}
