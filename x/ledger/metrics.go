package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemma-network/lemma/metrics"
	"github.com/lemma-network/lemma/x/faults"
)

// Metrics holds ledger client metrics
type Metrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	TxSentTotal  *prometheus.CounterVec
}

// NewMetrics creates ledger metrics
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("lemma", "ledger")

	return &Metrics{
		CallsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "calls_total",
			Help: "Total number of ledger calls by method and result",
		}, []string{"method", "result"}),

		CallDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_duration_seconds",
			Help:    "Duration of ledger calls including transaction inclusion",
			Buckets: metrics.RemoteCallBuckets,
		}, []string{"method"}),

		TxSentTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_sent_total",
			Help: "Total number of transactions broadcast by method",
		}, []string{"method"}),
	}
}

// RecordCall records the outcome of one ledger call.
func (m *Metrics) RecordCall(method string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = faults.KindOf(err).String()
	}
	m.CallsTotal.WithLabelValues(method, result).Inc()
	m.CallDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}
