package server

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics instruments tile dispatch, grounded directly on the teacher's
// pmtiles/server_metrics.go `metrics` struct: request counts and
// durations by status, response sizes, and cache hit/miss counts. Scoped
// per (dataset, parameter) exactly as the teacher scopes per archive,
// via label values rather than per-instance subsystems, since one
// process may host many TileServer instances (one per dataset) sharing
// the same registered collectors.
type metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	tileCacheHits   *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics
)

// register mirrors the teacher's own register() helper: a failed
// registration (e.g. a second process-wide call racing the first) is
// logged, not fatal, since the already-registered collector still works.
func register[K prometheus.Collector](logger *log.Logger, metric K) K {
	if err := prometheus.Register(metric); err != nil {
		if logger != nil {
			logger.Println(err)
		}
	}
	return metric
}

func createMetrics(logger *log.Logger) *metrics {
	metricsOnce.Do(func() {
		namespace := "lexcube"
		sharedMetrics = &metrics{
			requests: register(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "requests_total",
				Help:      "Number of tile requests dispatched, by dataset, parameter, and status",
			}, []string{"dataset", "parameter", "status"})),
			requestDuration: register(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "request_duration_seconds",
				Help:      "Tile request dispatch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			}, []string{"dataset", "parameter"})),
			responseSize: register(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "response_size_bytes",
				Help:      "Tile response size in bytes",
				Buckets:   []float64{1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20},
			}, []string{"dataset", "parameter"})),
			tileCacheHits: register(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "tile_cache_requests_total",
				Help:      "Tile memory cache lookups, by dataset, parameter, and status (hit/miss)",
			}, []string{"dataset", "parameter", "status"})),
		}
	})
	return sharedMetrics
}
