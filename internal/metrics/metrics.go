// Package metrics provides Prometheus metrics for the dream team service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the service's Prometheus collectors.
type Manager struct {
	registry prometheus.Registerer

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	analysisRequests *prometheus.CounterVec
	analysisLatency  prometheus.Histogram

	portraitLookups *prometheus.CounterVec

	activeSessions prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(customRegistry)
}

// NewManager creates a metrics manager registered on reg.
func NewManager(reg prometheus.Registerer) *Manager {
	m := &Manager{registry: reg}
	auto := promauto.With(reg)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamteam",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dreamteam",
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.analysisRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamteam",
			Name:      "analysis_requests_total",
			Help:      "Total number of analysis requests by outcome",
		},
		[]string{"outcome"},
	)

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dreamteam",
		Name:      "analysis_latency_milliseconds",
		Help:      "End-to-end analysis latency in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
	})

	m.portraitLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamteam",
			Name:      "portrait_lookups_total",
			Help:      "Total number of portrait resolutions by source",
		},
		[]string{"source"},
	)

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dreamteam",
		Name:      "sessions_active",
		Help:      "Number of live squad-building sessions",
	})

	return m
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordAnalysis records one analysis request. outcome is "success",
// "validation_failed" or "generation_failed".
func RecordAnalysis(outcome string, latencyMs float64) {
	globalManager.analysisRequests.WithLabelValues(outcome).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordPortraitLookup records one portrait resolution. source is
// "override", "cache", "wikipedia" or "default".
func RecordPortraitLookup(source string) {
	globalManager.portraitLookups.WithLabelValues(source).Inc()
}

// UpdateActiveSessions sets the live session gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry backing the global
// manager, for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
