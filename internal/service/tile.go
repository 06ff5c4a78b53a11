package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TileFile is one PMTiles archive available to the map.
type TileFile struct {
	Name  string `json:"name" doc:"Layer name (file name without extension)"`
	File  string `json:"file" doc:"File name"`
	URL   string `json:"url" doc:"URL the archive is served from"`
	Bytes int64  `json:"bytes" doc:"Archive size in bytes"`
	Size  string `json:"size" doc:"Human-readable size"`
}

// TileService lists the basemap archives written by build-tiles.
type TileService struct {
	tilesDir string
}

// NewTileService serves archives from dir.
func NewTileService(dir string) *TileService {
	return &TileService{tilesDir: dir}
}

// List returns the .pmtiles archives sorted by name.
func (s *TileService) List() ([]TileFile, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileFile{}, nil
		}
		return nil, fmt.Errorf("list tiles: %w", err)
	}

	files := []TileFile{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, TileFile{
			Name:  strings.TrimSuffix(entry.Name(), ".pmtiles"),
			File:  entry.Name(),
			URL:   "/tiles/" + entry.Name(),
			Bytes: info.Size(),
			Size:  formatSize(info.Size()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// TilesDir returns the directory archives are read from.
func (s *TileService) TilesDir() string {
	return s.tilesDir
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
