package api

import (
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// FilterParams are the query parameters shared by list and stats routes.
type FilterParams struct {
	Q         string   `query:"q" doc:"Case-insensitive search over name, country and notes"`
	Category  []string `query:"category" doc:"Categories to keep (comma separated)"`
	Country   []string `query:"country" doc:"Countries to keep (comma separated)"`
	Continent []string `query:"continent" doc:"Continents to keep (comma separated)"`
	From      string   `query:"from" doc:"Earliest visit date (YYYY-MM-DD), inclusive"`
	To        string   `query:"to" doc:"Latest visit date (YYYY-MM-DD), inclusive"`
}

// Resolve validates the parameters and converts them to filter options.
func (p *FilterParams) Resolve(ctx huma.Context) []error {
	var errs []error
	for i, c := range p.Category {
		if !atlas.Category(c).Valid() {
			errs = append(errs, &huma.ErrorDetail{
				Location: fmt.Sprintf("query.category[%d]", i),
				Message:  "unknown category",
				Value:    c,
			})
		}
	}
	for _, d := range []struct{ name, value string }{{"from", p.From}, {"to", p.To}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(atlas.DateLayout, d.value); err != nil {
			errs = append(errs, &huma.ErrorDetail{
				Location: "query." + d.name,
				Message:  "expected YYYY-MM-DD",
				Value:    d.value,
			})
		}
	}
	return errs
}

// Options converts the parameters to filter options.
func (p *FilterParams) Options() atlas.FilterOptions {
	opts := atlas.FilterOptions{
		SearchTerm: p.Q,
		Countries:  p.Country,
		Continents: p.Continent,
		DateRange:  atlas.DateRange{Start: p.From, End: p.To},
	}
	for _, c := range p.Category {
		opts.Categories = append(opts.Categories, atlas.Category(c))
	}
	return opts
}
