package mapview

// Clustering defaults used by the front-end source.
const (
	DefaultClusterThreshold = 200
	ClusterRadius           = 50
	ClusterMaxZoom          = 14
)

// SourceOptions tune SourceConfig.
type SourceOptions struct {
	// Threshold is the city count at which clustering switches on. Zero
	// means DefaultClusterThreshold.
	Threshold int
	// Force turns clustering on regardless of the count.
	Force bool
}

// Source describes the GeoJSON source the map should create.
type Source struct {
	ID             string `json:"id" doc:"Source id"`
	Type           string `json:"type" doc:"Always geojson"`
	Data           string `json:"data" doc:"URL of the feature collection"`
	Cluster        bool   `json:"cluster" doc:"Whether markers are clustered"`
	ClusterRadius  int    `json:"clusterRadius" doc:"Cluster radius in pixels"`
	ClusterMaxZoom int    `json:"clusterMaxZoom" doc:"Highest zoom that still clusters"`
	PointCount     int    `json:"pointCount" doc:"Number of cities in the source"`
}

// SourceConfig picks the source configuration for count cities.
func SourceConfig(count int, opts SourceOptions) Source {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}
	return Source{
		ID:             SourceID,
		Type:           "geojson",
		Data:           "/api/v1/map/features",
		Cluster:        opts.Force || count >= threshold,
		ClusterRadius:  ClusterRadius,
		ClusterMaxZoom: ClusterMaxZoom,
		PointCount:     count,
	}
}
