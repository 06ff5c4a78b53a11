// Package pmtiles writes the basemap archives produced by the Go tile
// engine: gzipped MVT tiles in a clustered PMTiles v3 file with a single
// root directory. Header and directory encoding come from go-pmtiles.
package pmtiles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	gopmtiles "github.com/protomaps/go-pmtiles/pmtiles"
)

// Header is the fixed-size archive header.
type Header = gopmtiles.HeaderV3

// Tile is one encoded tile to store.
type Tile struct {
	Z    uint8
	X, Y uint32
	Data []byte
}

// ID is the tile's position on the Hilbert curve used to order the archive.
func (t Tile) ID() uint64 {
	return gopmtiles.ZxyToID(t.Z, t.X, t.Y)
}

// Metadata describes an archive's contents.
type Metadata struct {
	Name    string
	MinZoom uint8
	MaxZoom uint8
	// Bounds is [minLon, minLat, maxLon, maxLat].
	Bounds [4]float64
}

// ErrNoTiles is returned when an archive would be empty.
var ErrNoTiles = errors.New("no tiles to write")

// Write stores tiles ordered by tile id, so tile data is laid out in
// directory order and the archive can be marked clustered.
func Write(w io.Writer, tiles []Tile, meta Metadata) error {
	if len(tiles) == 0 {
		return ErrNoTiles
	}

	sorted := make([]Tile, len(tiles))
	copy(sorted, tiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	entries := make([]gopmtiles.EntryV3, 0, len(sorted))
	var data bytes.Buffer
	for _, t := range sorted {
		entries = append(entries, gopmtiles.EntryV3{
			TileID:    t.ID(),
			Offset:    uint64(data.Len()),
			Length:    uint32(len(t.Data)),
			RunLength: 1,
		})
		data.Write(t.Data)
	}

	metadata, err := gopmtiles.SerializeMetadata(vectorMetadata(meta), gopmtiles.Gzip)
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	root := gopmtiles.SerializeEntries(entries, gopmtiles.Gzip)

	rootOffset := uint64(gopmtiles.HeaderV3LenBytes)
	b := meta.Bounds
	header := Header{
		SpecVersion:         3,
		RootOffset:          rootOffset,
		RootLength:          uint64(len(root)),
		MetadataOffset:      rootOffset + uint64(len(root)),
		MetadataLength:      uint64(len(metadata)),
		TileDataOffset:      rootOffset + uint64(len(root)) + uint64(len(metadata)),
		TileDataLength:      uint64(data.Len()),
		AddressedTilesCount: uint64(len(entries)),
		TileEntriesCount:    uint64(len(entries)),
		TileContentsCount:   uint64(len(entries)),
		Clustered:           true,
		InternalCompression: gopmtiles.Gzip,
		TileCompression:     gopmtiles.Gzip,
		TileType:            gopmtiles.Mvt,
		MinZoom:             meta.MinZoom,
		MaxZoom:             meta.MaxZoom,
		MinLonE7:            e7(b[0]),
		MinLatE7:            e7(b[1]),
		MaxLonE7:            e7(b[2]),
		MaxLatE7:            e7(b[3]),
		CenterZoom:          meta.MinZoom,
		CenterLonE7:         e7((b[0] + b[2]) / 2),
		CenterLatE7:         e7((b[1] + b[3]) / 2),
	}

	for _, part := range [][]byte{gopmtiles.SerializeHeader(header), root, metadata, data.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

// vectorMetadata is the TileJSON-style document MapLibre reads to find the
// archive's single vector layer.
func vectorMetadata(meta Metadata) map[string]interface{} {
	return map[string]interface{}{
		"name":        meta.Name,
		"format":      "pbf",
		"compression": "gzip",
		"minzoom":     meta.MinZoom,
		"maxzoom":     meta.MaxZoom,
		"vector_layers": []map[string]any{
			{"id": meta.Name, "minzoom": meta.MinZoom, "maxzoom": meta.MaxZoom, "fields": map[string]string{}},
		},
	}
}

// WriteFile writes an archive to path. A failed write leaves no file behind.
func WriteFile(path string, tiles []Tile, meta Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, tiles, meta); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// ReadHeader reads the header of the archive at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	buf := make([]byte, gopmtiles.HeaderV3LenBytes)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	return gopmtiles.DeserializeHeader(buf)
}

func e7(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}
