package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemma-network/lemma/metrics"
)

// Metrics counts requests per route template and reports the template to
// Logger. It must be installed with Router.Use so the matched route is
// visible.
func Metrics() mux.MiddlewareFunc {
	reg := metrics.NewComponentRegistry("lemma", "http")
	requests := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	latency := reg.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: metrics.DurationBuckets,
	}, []string{"route"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			route := routeTemplate(r)
			if a := accessFrom(r.Context()); a != nil {
				a.route = route
			}
			next.ServeHTTP(rw, r)

			requests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
			latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
