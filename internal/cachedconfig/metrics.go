package cachedconfig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the config refresh loop: how often it
// succeeds/fails, how long it takes, and the current
// consecutive-failure streak so an operator can alert on backoff.
type Metrics struct {
	RefreshTotal       *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
	ConsecutiveFailure prometheus.Gauge
}

// NewMetrics registers the cached-config Prometheus vectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cached_config",
			Name:      "refresh_total",
			Help:      "Total number of background config refresh attempts.",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cached_config",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a config refresh attempt in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ConsecutiveFailure: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cached_config",
			Name:      "consecutive_refresh_failures",
			Help:      "Current number of consecutive failed refreshes.",
		}),
	}
}
