// Package metrics holds the Prometheus collectors for the atlas service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CityMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_city_mutations_total",
		Help: "City collection mutations by action",
	}, []string{"action"})
	StorageWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_storage_writes_total",
		Help: "Key-value writes by key",
	}, []string{"key"})
	StorageErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_storage_errors_total",
		Help: "Swallowed storage failures by operation",
	}, []string{"op"})
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_imports_total",
		Help: "City imports by result",
	}, []string{"result"})
	CitiesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_cities",
		Help: "Cities currently in the collection",
	})
	StatsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_stats_cache_total",
		Help: "Statistics cache lookups by result",
	}, []string{"result"})
	TileLayersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_tile_layers_total",
		Help: "Tile layer builds by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		CityMutationsTotal,
		StorageWritesTotal,
		StorageErrorsTotal,
		ImportsTotal,
		CitiesGauge,
		StatsCacheTotal,
		TileLayersTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
