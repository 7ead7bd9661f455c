package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for export runs.
type Metrics struct {
	exports  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the export instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripexport_exports_total",
			Help: "Export runs by outcome.",
		}, []string{"status"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripexport_export_duration_seconds",
			Help:    "Time from request to published document.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// ObserveExport records one export run. A nil receiver is a no-op.
func (m *Metrics) ObserveExport(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
}
