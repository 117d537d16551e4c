// Package metrics exposes Prometheus collectors for the news helper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newshelper"

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	analyzeRequestsTotal       *prometheus.CounterVec
	authFailuresTotal          *prometheus.CounterVec
	webSubmissionsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		analyzeRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyze_requests_total",
				Help:      "Total number of analyze documents rendered, labeled by language.",
			},
			[]string{"lang"},
		)

		authFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected API keys, labeled by reason.",
			},
			[]string{"reason"},
		)

		webSubmissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "web_submissions_total",
				Help:      "Total number of frontend form submissions, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAnalyze counts a rendered analyze document. Mode is free-form and stays
// out of the labels.
func ObserveAnalyze(lang string) {
	Init()
	analyzeRequestsTotal.WithLabelValues(lang).Inc()
}

// ObserveAuthFailure counts a rejected API key.
func ObserveAuthFailure(reason string) {
	Init()
	authFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveWebSubmission counts a frontend submission by render outcome.
func ObserveWebSubmission(outcome string) {
	Init()
	webSubmissionsTotal.WithLabelValues(outcome).Inc()
}
