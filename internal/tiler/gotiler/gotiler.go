// Package gotiler builds PMTiles archives without external tools: GeoJSON
// is cut into gzipped MVT tiles with paulmach/orb and written with
// internal/pmtiles. Tippecanoe options are ignored.
package gotiler

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/plat-atlas/internal/pmtiles"
	"github.com/joeblew999/plat-atlas/internal/tiler"
)

// MaxZoom caps generated zoom levels.
const MaxZoom = 14

// GoTiler implements tiler.Engine in pure Go.
type GoTiler struct{}

var _ tiler.Engine = (*GoTiler)(nil)

// New creates a GoTiler.
func New() *GoTiler {
	return &GoTiler{}
}

func (g *GoTiler) Name() string { return "go" }

// Check always succeeds.
func (g *GoTiler) Check(context.Context) error { return nil }

// Build reads a FeatureCollection and writes the archive for layer.
func (g *GoTiler) Build(ctx context.Context, layer tiler.Layer, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("parsing geojson: %w", err)
	}

	minZoom, maxZoom := layer.MinZoom, layer.MaxZoom
	if minZoom < 0 {
		minZoom = 0
	}
	if maxZoom > MaxZoom {
		maxZoom = MaxZoom
	}

	var tiles []pmtiles.Tile
	bound := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	for _, f := range fc.Features {
		if f.Geometry != nil {
			bound = bound.Union(f.Geometry.Bound())
		}
	}
	for z := minZoom; z <= maxZoom; z++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		zoomTiles, err := Zoom(fc, maptile.Zoom(z), layer.Name)
		if err != nil {
			return err
		}
		tiles = append(tiles, zoomTiles...)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("layer %s: %w", layer.Name, pmtiles.ErrNoTiles)
	}

	return pmtiles.WriteFile(output, tiles, pmtiles.Metadata{
		Name:    layer.Name,
		MinZoom: uint8(minZoom),
		MaxZoom: uint8(maxZoom),
		Bounds:  [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
	})
}

// Zoom encodes every non-empty tile at zoom z.
func Zoom(fc *geojson.FeatureCollection, z maptile.Zoom, layerName string) ([]pmtiles.Tile, error) {
	buckets := make(map[maptile.Tile][]*geojson.Feature)
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		for _, t := range tilesCovering(f.Geometry.Bound(), z) {
			if intersects(f.Geometry, t.Bound()) {
				buckets[t] = append(buckets[t], f)
			}
		}
	}

	tiles := make([]pmtiles.Tile, 0, len(buckets))
	for t, features := range buckets {
		data, err := encode(t, features, layerName)
		if err != nil {
			return nil, fmt.Errorf("tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
		}
		if data == nil {
			continue
		}
		tiles = append(tiles, pmtiles.Tile{Z: uint8(t.Z), X: t.X, Y: t.Y, Data: data})
	}
	return tiles, nil
}

// encode returns nil when clipping leaves nothing in the tile.
func encode(t maptile.Tile, features []*geojson.Feature, layerName string) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		// Clip and ProjectToTile mutate geometry in place.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		clone.ID = f.ID
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}

	layer := mvt.NewLayer(layerName, fc)
	if eps := epsilon(t.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(t.Bound())
	layer.ProjectToTile(t)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}
	return mvt.MarshalGzipped(mvt.Layers{layer})
}

func tilesCovering(b orb.Bound, z maptile.Zoom) []maptile.Tile {
	lo := maptile.At(orb.Point{b.Min.Lon(), b.Max.Lat()}, z)
	hi := maptile.At(orb.Point{b.Max.Lon(), b.Min.Lat()}, z)

	tiles := make([]maptile.Tile, 0, int(hi.X-lo.X+1)*int(hi.Y-lo.Y+1))
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			tiles = append(tiles, maptile.New(x, y, z))
		}
	}
	return tiles
}

// intersects refines the bounding-box match for points and polygons. Lines
// are kept on a bound match and left to Clip.
func intersects(g orb.Geometry, tb orb.Bound) bool {
	if !g.Bound().Intersects(tb) {
		return false
	}
	switch g := g.(type) {
	case orb.Point:
		return tb.Contains(g)
	case orb.MultiPoint:
		for _, p := range g {
			if tb.Contains(p) {
				return true
			}
		}
		return false
	case orb.Polygon:
		for _, p := range g[0] {
			if tb.Contains(p) {
				return true
			}
		}
		return planar.PolygonContains(g, tb.Center()) ||
			planar.PolygonContains(g, tb.Min) ||
			planar.PolygonContains(g, tb.Max) ||
			planar.PolygonContains(g, orb.Point{tb.Min.Lon(), tb.Max.Lat()}) ||
			planar.PolygonContains(g, orb.Point{tb.Max.Lon(), tb.Min.Lat()})
	case orb.MultiPolygon:
		for _, p := range g {
			if intersects(p, tb) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// epsilon is the Douglas-Peucker tolerance in degrees. City points are
// unaffected; admin and road lines lose detail at low zooms.
func epsilon(z maptile.Zoom) float64 {
	switch {
	case z >= 12:
		return 0
	case z >= 8:
		return 0.0001
	case z >= 4:
		return 0.001
	default:
		return 0.01
	}
}
