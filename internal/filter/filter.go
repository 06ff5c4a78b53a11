// Package filter narrows a city collection by search text and selections.
package filter

import (
	"slices"
	"strings"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// Cities returns the cities matching every predicate in opts. An empty
// selection set is no constraint, not "match nothing". The input slice is
// never modified.
func Cities(cities []atlas.City, opts atlas.FilterOptions, resolver *atlas.Resolver) []atlas.City {
	out := make([]atlas.City, 0, len(cities))
	term := strings.ToLower(opts.SearchTerm)
	for _, c := range cities {
		if Match(c, term, opts, resolver) {
			out = append(out, c)
		}
	}
	return out
}

// Match reports whether one city passes. term must already be lowercased.
func Match(c atlas.City, term string, opts atlas.FilterOptions, resolver *atlas.Resolver) bool {
	if term != "" && !matchesSearch(c, term) {
		return false
	}
	if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, c.Category) {
		return false
	}
	if len(opts.Countries) > 0 && !slices.Contains(opts.Countries, c.Country) {
		return false
	}
	if len(opts.Continents) > 0 && !slices.Contains(opts.Continents, resolver.Resolve(c)) {
		return false
	}
	if !opts.DateRange.IsZero() {
		if c.VisitDate == "" {
			return false
		}
		d, err := atlas.ParseVisitDate(c.VisitDate)
		if err != nil || !opts.DateRange.Contains(d) {
			return false
		}
	}
	return true
}

func matchesSearch(c atlas.City, term string) bool {
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Country), term) ||
		(c.Notes != "" && strings.Contains(strings.ToLower(c.Notes), term))
}

// Countries returns the distinct countries in collection order. The UI uses
// it to populate the country selector.
func Countries(cities []atlas.City) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cities {
		if _, ok := seen[c.Country]; ok {
			continue
		}
		seen[c.Country] = struct{}{}
		out = append(out, c.Country)
	}
	return out
}
