package submission

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemma-network/lemma/metrics"
)

// Metrics holds orchestrator metrics
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	InFlight         prometheus.Gauge
	StageDuration    *prometheus.HistogramVec
}

// NewMetrics creates orchestrator metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("lemma", "submission")

	return &Metrics{
		SubmissionsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of submissions by final step and result",
		}, []string{"step", "result"}),

		InFlight: reg.NewGauge(prometheus.GaugeOpts{
			Name: "in_flight",
			Help: "Number of submissions currently running",
		}),

		StageDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stage_duration_seconds",
			Help:    "Duration of each submission stage",
			Buckets: metrics.ProvingBuckets,
		}, []string{"stage"}),
	}
}
