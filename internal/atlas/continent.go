package atlas

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownContinent is returned for countries missing from the table.
const UnknownContinent = "Unknown"

//go:embed continents.yaml
var defaultContinents []byte

// CountryEntry is one row of the continent table.
type CountryEntry struct {
	Name      string `yaml:"name"`
	Code      string `yaml:"code"`
	Continent string `yaml:"continent"`
}

type continentTable struct {
	Countries []CountryEntry `yaml:"countries"`
}

// Resolver maps countries to continents. It is a total function: every
// input yields a continent, UnknownContinent when the country is not listed.
type Resolver struct {
	byName map[string]string
	byCode map[string]string
}

// DefaultResolver returns a resolver over the embedded table.
func DefaultResolver() *Resolver {
	r, err := ParseResolver(strings.NewReader(string(defaultContinents)))
	if err != nil {
		panic(fmt.Sprintf("embedded continent table: %v", err))
	}
	return r
}

// LoadResolver reads a YAML continent table from path. An empty path
// returns the default table.
func LoadResolver(path string) (*Resolver, error) {
	if path == "" {
		return DefaultResolver(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening continent table: %w", err)
	}
	defer f.Close()
	return ParseResolver(f)
}

// ParseResolver decodes a YAML continent table.
func ParseResolver(r io.Reader) (*Resolver, error) {
	var table continentTable
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("parsing continent table: %w", err)
	}
	res := &Resolver{
		byName: make(map[string]string, len(table.Countries)),
		byCode: make(map[string]string, len(table.Countries)),
	}
	for _, c := range table.Countries {
		if c.Continent == "" {
			continue
		}
		if c.Name != "" {
			res.byName[strings.ToLower(c.Name)] = c.Continent
		}
		if c.Code != "" {
			res.byCode[strings.ToLower(c.Code)] = c.Continent
		}
	}
	return res, nil
}

// Continent returns the continent for a country name or ISO alpha-2 code.
func (r *Resolver) Continent(country string) string {
	key := strings.ToLower(strings.TrimSpace(country))
	if c, ok := r.byName[key]; ok {
		return c
	}
	if c, ok := r.byCode[key]; ok {
		return c
	}
	return UnknownContinent
}

// Known reports whether the country is in the table.
func (r *Resolver) Known(country string) bool {
	return r.Continent(country) != UnknownContinent
}

// Resolve returns the city's explicit continent, or the table lookup.
func (r *Resolver) Resolve(c City) string {
	if c.Continent != "" {
		return c.Continent
	}
	return r.Continent(c.Country)
}
