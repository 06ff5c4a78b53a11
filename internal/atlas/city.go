// Package atlas holds the travel atlas data model: cities, settings and
// filter options, plus the validation rules every stored record obeys.
package atlas

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Category classifies a city's relationship to the user.
type Category string

const (
	Visited  Category = "Visited"
	Planned  Category = "Planned"
	Wishlist Category = "Wishlist"
	Favorite Category = "Favorite"
	Business Category = "Business"
	Transit  Category = "Transit"
)

// Categories lists every category in display order.
var Categories = []Category{Visited, Planned, Wishlist, Favorite, Business, Transit}

// categoryColors are the marker colors used by the map layer and legend.
var categoryColors = map[Category]string{
	Visited:  "#52c41a",
	Planned:  "#1890ff",
	Wishlist: "#00bcd4",
	Favorite: "#f5222d",
	Business: "#faad14",
	Transit:  "#722ed1",
}

// UnknownColor is used for categories outside the enumeration.
const UnknownColor = "#7f8c8d"

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color returns the CSS color for the category.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return UnknownColor
}

// Coordinates is a [longitude, latitude] pair. The order matches GeoJSON and
// must never be swapped.
type Coordinates [2]float64

// Lon returns the longitude.
func (c Coordinates) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinates) Lat() float64 { return c[1] }

// Point converts the pair to an orb point (also longitude first).
func (c Coordinates) Point() orb.Point { return orb.Point{c[0], c[1]} }

// Validate checks that both values are finite and in range.
func (c Coordinates) Validate() error {
	lon, lat := c[0], c[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return &ValidationError{Field: "coordinates", Message: "coordinates must be finite numbers"}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{Field: "coordinates", Message: fmt.Sprintf("longitude %v must be between -180 and 180", lon)}
	}
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "coordinates", Message: fmt.Sprintf("latitude %v must be between -90 and 90", lat)}
	}
	return nil
}

// City is one visited, planned or otherwise noted place.
type City struct {
	ID          string      `json:"id" doc:"Opaque unique identifier" example:"paris-france"`
	Name        string      `json:"name" minLength:"1" doc:"City name" example:"Paris"`
	Country     string      `json:"country" minLength:"1" doc:"Country name" example:"France"`
	Coordinates Coordinates `json:"coordinates" doc:"[longitude, latitude]"`
	Category    Category    `json:"category" enum:"Visited,Planned,Wishlist,Favorite,Business,Transit" doc:"City category" example:"Visited"`
	VisitDate   string      `json:"visitDate,omitempty" doc:"Visit date (YYYY-MM-DD), meaningful for Visited cities" example:"2023-05-14"`
	Notes       string      `json:"notes,omitempty" doc:"Free text notes"`
	Continent   string      `json:"continent,omitempty" doc:"Explicit continent; derived from country when empty"`
}

// ErrInvalidCity is matched by every ValidationError.
var ErrInvalidCity = errors.New("invalid city")

// ValidationError describes the first rule a record broke.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidCity) true for validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCity
}

// Validate enforces the record invariants. It stops at the first failure.
func (c City) Validate() error {
	name := strings.TrimSpace(c.Name)
	country := strings.TrimSpace(c.Country)
	if name == "" {
		return &ValidationError{Field: "name", Message: "city name is required"}
	}
	if country == "" {
		return &ValidationError{Field: "country", Message: "country is required"}
	}
	// Guards against the country picker being filled with the city name.
	if strings.EqualFold(name, country) {
		return &ValidationError{Field: "country", Message: "country must not equal the city name"}
	}
	if err := c.Coordinates.Validate(); err != nil {
		return err
	}
	if !c.Category.Valid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", c.Category)}
	}
	if c.VisitDate != "" {
		if _, err := ParseVisitDate(c.VisitDate); err != nil {
			return &ValidationError{Field: "visitDate", Message: err.Error()}
		}
	}
	return nil
}

// Normalize trims display strings and drops a visit date on non-Visited cities.
func (c City) Normalize() City {
	c.Name = strings.TrimSpace(c.Name)
	c.Country = strings.TrimSpace(c.Country)
	c.Notes = strings.TrimSpace(c.Notes)
	c.Continent = strings.TrimSpace(c.Continent)
	if c.Category != Visited {
		c.VisitDate = ""
	}
	return c
}

// HasVisit reports whether the city counts as a dated visit.
func (c City) HasVisit() bool {
	return c.Category == Visited && c.VisitDate != ""
}

// NewID returns a fresh opaque city identifier.
func NewID() string {
	return uuid.NewString()
}

var whitespace = regexp.MustCompile(`\s+`)

// Slug lowercases s and replaces whitespace runs with a dash.
func Slug(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(s), "-")
}

// ImportID is the deterministic id given to imported records that lack one.
func ImportID(name, country string) string {
	return Slug(name) + "-" + Slug(country)
}

// DateLayout is the calendar date format used for visit dates.
const DateLayout = "2006-01-02"

// ParseVisitDate parses a visit date. Plain dates are preferred; RFC 3339
// timestamps from older exports are accepted and truncated to the day.
func ParseVisitDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
