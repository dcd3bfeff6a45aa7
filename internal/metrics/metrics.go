// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmacy_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmacy_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmacy_search_duration_seconds",
			Help:    "Search execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"kind", "outcome"},
	)

	searchMatches = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmacy_search_matches",
			Help:    "Number of rows matched by a search before pagination",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"kind"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"queue", "outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// RequestStarted marks a request in flight and returns the function that
// records its completion.
func RequestStarted() func(method, path string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, path string, status int) {
		httpInFlight.Dec()
		httpRequestsTotal.WithLabelValues(method, path, statusText(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveSearch records one search run. Its signature matches
// search.Observer.
func ObserveSearch(kind string, elapsed time.Duration, total int64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	searchDuration.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
	if err == nil {
		searchMatches.WithLabelValues(kind).Observe(float64(total))
	}
}

// EventPublished counts a publish attempt on queue.
func EventPublished(queue string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(queue, outcome).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
