package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// ErrInvalidImport is wrapped by every import validation failure.
var ErrInvalidImport = errors.New("invalid import")

// ExportFilename names an export file after the UTC day of now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("world-cities-%s.json", now.UTC().Format(atlas.DateLayout))
}

// ExportCitiesJSON writes cities as pretty-printed JSON.
func ExportCitiesJSON(w io.Writer, cities []atlas.City) error {
	if cities == nil {
		cities = []atlas.City{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cities)
}

// importRecord keeps raw fields so presence and shape can be checked before
// decoding into a City.
type importRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Country     string          `json:"country"`
	Coordinates json.RawMessage `json:"coordinates"`
	Category    atlas.Category  `json:"category"`
	VisitDate   string          `json:"visitDate"`
	Notes       string          `json:"notes"`
	Continent   string          `json:"continent"`
}

// ImportCitiesJSON parses an exported collection. It stops at the first bad
// record and returns no cities in that case. Records without an id get the
// deterministic slug(name)-slug(country), suffixed when that id is already
// used within the same document.
func ImportCitiesJSON(ctx context.Context, r io.Reader) ([]atlas.City, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var top any
		if json.Unmarshal(data, &top) == nil {
			return nil, fmt.Errorf("%w: invalid JSON format: expected an array", ErrInvalidImport)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	// A top-level null decodes without error into a nil slice.
	if raw == nil {
		return nil, fmt.Errorf("%w: invalid JSON format: expected an array", ErrInvalidImport)
	}

	cities := make([]atlas.City, 0, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, item := range raw {
		c, err := decodeImportRecord(item)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid city data at index %d: %v", ErrInvalidImport, i, err)
		}
		if c.ID != "" {
			taken[c.ID] = true
		}
		cities = append(cities, c)
	}
	for i := range cities {
		if cities[i].ID == "" {
			cities[i].ID = uniqueImportID(cities[i], taken)
		}
	}
	return cities, nil
}

// uniqueImportID derives the slug id for c, adding -2, -3, ... when another
// record in the same import already uses it.
func uniqueImportID(c atlas.City, taken map[string]bool) string {
	base := atlas.ImportID(c.Name, c.Country)
	id := base
	for n := 2; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	taken[id] = true
	return id
}

func decodeImportRecord(item json.RawMessage) (atlas.City, error) {
	var rec importRecord
	if err := json.Unmarshal(item, &rec); err != nil {
		return atlas.City{}, err
	}
	if len(rec.Coordinates) == 0 {
		return atlas.City{}, errors.New("missing coordinates")
	}
	var coords []float64
	if err := json.Unmarshal(rec.Coordinates, &coords); err != nil || len(coords) != 2 {
		return atlas.City{}, errors.New("coordinates must be a [longitude, latitude] pair")
	}

	c := atlas.City{
		ID:          rec.ID,
		Name:        rec.Name,
		Country:     rec.Country,
		Coordinates: atlas.Coordinates{coords[0], coords[1]},
		Category:    rec.Category,
		VisitDate:   rec.VisitDate,
		Notes:       rec.Notes,
		Continent:   rec.Continent,
	}
	if c.Category == "" {
		c.Category = atlas.Visited
	}
	visitDate := c.VisitDate
	c = c.Normalize()
	c.VisitDate = strings.TrimSpace(visitDate)

	// Visit dates are not checked here: legacy values that fail to parse
	// are kept and skipped by the statistics instead.
	check := c
	check.VisitDate = ""
	if err := check.Validate(); err != nil {
		return atlas.City{}, err
	}
	return c, nil
}
