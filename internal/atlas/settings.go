package atlas

import (
	"encoding/json"
	"time"
)

// MapStyle selects the basemap look.
type MapStyle string

const (
	MapStyleDefault   MapStyle = "default"
	MapStyleSatellite MapStyle = "satellite"
	MapStyleMinimal   MapStyle = "minimal"
)

// Valid reports whether s is a known style.
func (s MapStyle) Valid() bool {
	switch s {
	case MapStyleDefault, MapStyleSatellite, MapStyleMinimal:
		return true
	}
	return false
}

// Theme holds appearance settings.
type Theme struct {
	DarkMode bool     `json:"darkMode" doc:"Dark UI theme"`
	MapStyle MapStyle `json:"mapStyle" enum:"default,satellite,minimal" doc:"Basemap style"`
}

// Settings is the process-wide UI configuration.
type Settings struct {
	Theme            Theme   `json:"theme" doc:"Appearance"`
	ShowSidebar      bool    `json:"showSidebar" doc:"Whether the sidebar is shown"`
	DefaultZoom      float64 `json:"defaultZoom" minimum:"0" maximum:"22" doc:"Initial map zoom"`
	EnableClustering bool    `json:"enableClustering" doc:"Force marker clustering"`
	ShowCityLabels   bool    `json:"showCityLabels" doc:"Show city name labels"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Theme:          Theme{DarkMode: false, MapStyle: MapStyleDefault},
		ShowSidebar:    true,
		DefaultZoom:    1,
		ShowCityLabels: true,
	}
}

// Validate checks the style and zoom bounds. An empty map style is read as
// the default one.
func (s *Settings) Validate() error {
	if s.Theme.MapStyle == "" {
		s.Theme.MapStyle = MapStyleDefault
	}
	if !s.Theme.MapStyle.Valid() {
		return &ValidationError{Field: "theme.mapStyle", Message: "unknown map style " + string(s.Theme.MapStyle)}
	}
	if s.DefaultZoom < 0 || s.DefaultZoom > 22 {
		return &ValidationError{Field: "defaultZoom", Message: "must be between 0 and 22"}
	}
	return nil
}

// MergeSettings overlays the top-level keys present in raw onto base. Keys
// absent from raw keep their base value; a present key replaces the base
// value wholesale (a shallow merge, so "theme" is replaced as one object).
func MergeSettings(base Settings, raw []byte) (Settings, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return base, err
	}
	merged := base
	for key, value := range keys {
		var err error
		switch key {
		case "theme":
			var theme Theme
			err = json.Unmarshal(value, &theme)
			merged.Theme = theme
		case "showSidebar":
			err = json.Unmarshal(value, &merged.ShowSidebar)
		case "defaultZoom":
			err = json.Unmarshal(value, &merged.DefaultZoom)
		case "enableClustering":
			err = json.Unmarshal(value, &merged.EnableClustering)
		case "showCityLabels":
			err = json.Unmarshal(value, &merged.ShowCityLabels)
		}
		if err != nil {
			return base, err
		}
	}
	return merged, nil
}

// DateRange bounds visit dates. Empty ends are open.
type DateRange struct {
	Start string `json:"start,omitempty" doc:"Inclusive start date (YYYY-MM-DD)"`
	End   string `json:"end,omitempty" doc:"Inclusive end date (YYYY-MM-DD)"`
}

// IsZero reports whether neither end is set.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Contains reports whether t falls inside the range. Unparseable bounds are
// treated as open.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != "" {
		if start, err := ParseVisitDate(r.Start); err == nil && t.Before(start) {
			return false
		}
	}
	if r.End != "" {
		if end, err := ParseVisitDate(r.End); err == nil && t.After(end) {
			return false
		}
	}
	return true
}

// FilterOptions is transient, per-session filter state. It is never persisted.
type FilterOptions struct {
	SearchTerm string     `json:"searchTerm"`
	Categories []Category `json:"selectedCategories"`
	Countries  []string   `json:"selectedCountries"`
	Continents []string   `json:"selectedContinents"`
	DateRange  DateRange  `json:"dateRange"`
}
