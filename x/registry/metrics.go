package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemma-network/lemma/metrics"
)

// Metrics holds registry metrics
type Metrics struct {
	SyncsTotal   *prometheus.CounterVec
	SyncDuration prometheus.Histogram
	Challenges   prometheus.Gauge
}

// NewMetrics creates registry metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("lemma", "registry")

	return &Metrics{
		SyncsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "syncs_total",
			Help: "Total number of synchronizations by result",
		}, []string{"result"}),

		SyncDuration: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of full registry synchronizations",
			Buckets: metrics.RemoteCallBuckets,
		}),

		Challenges: reg.NewGauge(prometheus.GaugeOpts{
			Name: "challenges",
			Help: "Number of challenges in the published snapshot",
		}),
	}
}
