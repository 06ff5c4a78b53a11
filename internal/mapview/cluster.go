package mapview

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

const tileSize = 256

// maxCellZoom keeps grid cells inside the range maptile can address.
const maxCellZoom = 30

// Cluster groups point features into screen-space grid cells at zoom. Cells
// holding two or more points collapse into one cluster feature placed at the
// members' mean position; single points pass through. Above ClusterMaxZoom
// the input is returned as-is.
func Cluster(fc *geojson.FeatureCollection, zoom maptile.Zoom, radius int) *geojson.FeatureCollection {
	if zoom > ClusterMaxZoom || radius <= 0 {
		return fc
	}

	cells, order := group(fc, cellZoom(zoom, radius))
	out := geojson.NewFeatureCollection()
	for _, cell := range order {
		members := cells[cell]
		if len(members) == 1 {
			out.Append(members[0])
			continue
		}
		out.Append(clusterFeature(cell, members, expansionZoom(members, zoom, radius)))
	}
	return out
}

// cellZoom is the tile zoom whose tiles are the smallest power-of-two
// fraction of a screen tile still at least radius pixels wide.
func cellZoom(zoom maptile.Zoom, radius int) maptile.Zoom {
	z := zoom
	for cell := tileSize; cell/2 >= radius && z < maxCellZoom; cell /= 2 {
		z++
	}
	return z
}

func group(fc *geojson.FeatureCollection, z maptile.Zoom) (map[maptile.Tile][]*geojson.Feature, []maptile.Tile) {
	cells := make(map[maptile.Tile][]*geojson.Feature)
	var order []maptile.Tile
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		t := maptile.At(p, z)
		if _, seen := cells[t]; !seen {
			order = append(order, t)
		}
		cells[t] = append(cells[t], f)
	}
	return cells, order
}

// expansionZoom is the first zoom at which the members no longer share one
// cell, capped one level above ClusterMaxZoom where clustering stops.
func expansionZoom(members []*geojson.Feature, zoom maptile.Zoom, radius int) int {
	fc := &geojson.FeatureCollection{Features: members}
	for z := zoom + 1; z <= ClusterMaxZoom; z++ {
		if cells, _ := group(fc, cellZoom(z, radius)); len(cells) > 1 {
			return int(z)
		}
	}
	return ClusterMaxZoom + 1
}

func clusterFeature(cell maptile.Tile, members []*geojson.Feature, expansion int) *geojson.Feature {
	var lon, lat float64
	categories := map[string]int{}
	for _, m := range members {
		p := m.Geometry.(orb.Point)
		lon += p.Lon()
		lat += p.Lat()
		if c, ok := m.Properties["category"].(string); ok {
			categories[c]++
		}
	}
	n := float64(len(members))

	id := fmt.Sprintf("cluster-%d-%d-%d", cell.Z, cell.X, cell.Y)
	f := geojson.NewFeature(orb.Point{lon / n, lat / n})
	f.ID = id
	f.Properties["cluster"] = true
	f.Properties["cluster_id"] = id
	f.Properties["point_count"] = len(members)
	f.Properties["point_count_abbreviated"] = abbreviate(len(members))
	f.Properties["cluster_expansion_zoom"] = expansion
	f.Properties["categories"] = categories
	return f
}

// abbreviate formats counts the way map label layers expect: 1234 becomes
// "1.2k" and 12345 becomes "12k".
func abbreviate(n int) string {
	switch {
	case n >= 10000:
		return strconv.Itoa(int(math.Round(float64(n)/1000))) + "k"
	case n >= 1000:
		return strconv.FormatFloat(math.Round(float64(n)/100)/10, 'f', -1, 64) + "k"
	default:
		return strconv.Itoa(n)
	}
}
