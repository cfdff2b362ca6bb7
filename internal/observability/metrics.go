package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for map builds.
type Metrics struct {
	MarkersRendered  prometheus.Counter
	PolygonsRendered prometheus.Counter
	BuildDuration    prometheus.Histogram
	DocumentsSaved   prometheus.Counter
	DocumentsServed  prometheus.Counter

	// Tile resolution metrics.
	TileFallbacks     prometheus.Counter
	TileProbeRequests *prometheus.CounterVec // labels: outcome={success,error,status}
	TileProbeDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MarkersRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "markers_rendered_total",
			Help:      "Total volcano markers added to map documents.",
		}),
		PolygonsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "polygons_rendered_total",
			Help:      "Total country polygons added to map documents.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volcano_map",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete map document build.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DocumentsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "documents_saved_total",
			Help:      "Total map documents written to disk.",
		}),
		DocumentsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "documents_served_total",
			Help:      "Total map documents served by the preview server.",
		}),
		TileFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "tile_fallbacks_total",
			Help:      "Builds that fell back to the secondary tile style.",
		}),
		TileProbeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volcano_map",
			Name:      "tile_probe_requests_total",
			Help:      "Tile reachability probes by outcome.",
		}, []string{"outcome"}),
		TileProbeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volcano_map",
			Name:      "tile_probe_duration_seconds",
			Help:      "Tile reachability probe duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.MarkersRendered,
		m.PolygonsRendered,
		m.BuildDuration,
		m.DocumentsSaved,
		m.DocumentsServed,
		m.TileFallbacks,
		m.TileProbeRequests,
		m.TileProbeDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MarkersRendered:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "volcano_map", Name: "markers_rendered_total"}),
		PolygonsRendered:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "volcano_map", Name: "polygons_rendered_total"}),
		BuildDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "volcano_map", Name: "build_duration_seconds"}),
		DocumentsSaved:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "volcano_map", Name: "documents_saved_total"}),
		DocumentsServed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "volcano_map", Name: "documents_served_total"}),
		TileFallbacks:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "volcano_map", Name: "tile_fallbacks_total"}),
		TileProbeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "volcano_map", Name: "tile_probe_requests_total"}, []string{"outcome"}),
		TileProbeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "volcano_map", Name: "tile_probe_duration_seconds"}),
	}
}
