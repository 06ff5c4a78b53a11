package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/cities>; rel="cities"`,
		`</api/v1/stats>; rel="stats"`,
		`</api/v1/settings>; rel="settings"`,
		`</api/v1/map/source>; rel="map"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
	},
	"/api/v1/cities": {
		`</api/v1/cities/{id}>; rel="item"`,
		`</api/v1/cities/export>; rel="export"`,
		`</api/v1/cities/import>; rel="import"`,
		`</api/v1/stats>; rel="stats"`,
		`</api/v1/map/features>; rel="features"`,
	},
	"/api/v1/cities/{id}": {
		`</api/v1/cities>; rel="collection"`,
	},
	"/api/v1/stats": {
		`</api/v1/timeline>; rel="timeline"`,
		`</api/v1/recommendation>; rel="recommendation"`,
		`</api/v1/cities>; rel="cities"`,
	},
	"/api/v1/timeline": {
		`</api/v1/stats>; rel="stats"`,
	},
	"/api/v1/map/source": {
		`</api/v1/map/features>; rel="features"`,
		`</api/v1/map/clusters>; rel="clusters"`,
		`</api/v1/tiles>; rel="tiles"`,
	},
	"/api/v1/map/features": {
		`</api/v1/map/source>; rel="source"`,
		`</api/v1/cities>; rel="cities"`,
	},
	"/api/v1/tiles": {
		`</api/v1/map/source>; rel="map"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link
// headers: static relations per path, a self link on item routes, and the
// pagination and action links a response body offers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if p, ok := v.(humastar.Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}

		if a, ok := v.(humastar.Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}
