package transformcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transform-cache Prometheus vectors, labeled by
// cache layer ("hot" for the in-process LRU, "store" for the KV
// substrate).
type Metrics struct {
	Hits      *prometheus.CounterVec
	Misses    *prometheus.CounterVec
	Evictions *prometheus.CounterVec
	Errors    *prometheus.CounterVec
	Size      *prometheus.GaugeVec
	Latency   *prometheus.HistogramVec
}

// NewMetrics registers the transform-cache Prometheus vectors with reg;
// a nil reg creates the vectors without registering them anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transform_cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits.",
		}, []string{"cache_layer"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transform_cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses.",
		}, []string{"cache_layer"}),
		Evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transform_cache",
			Name:      "evictions_total",
			Help:      "Total number of hot-LRU evictions.",
		}, []string{"cache_layer"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transform_cache",
			Name:      "errors_total",
			Help:      "Total number of cache operation errors.",
		}, []string{"cache_layer", "error_type"}),
		Size: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "transform_cache",
			Name:      "size_entries",
			Help:      "Current number of entries in the hot LRU.",
		}, []string{"cache_layer"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transform_cache",
			Name:      "operation_duration_seconds",
			Help:      "Cache operation duration in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"cache_layer", "operation", "status"}),
	}
}
