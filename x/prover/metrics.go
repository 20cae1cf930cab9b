package prover

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemma-network/lemma/metrics"
)

// Metrics holds prover client metrics
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	SealBytes       prometheus.Histogram
}

// NewMetrics creates prover client metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("lemma", "prover")

	return &Metrics{
		RequestsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of proof requests by result",
		}, []string{"result"}),

		RequestDuration: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of proof requests",
			Buckets: metrics.ProvingBuckets,
		}),

		SealBytes: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "seal_bytes",
			Help:    "Size of returned seals in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		}),
	}
}
