// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ParseDuration tracks AI parse request duration.
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_parse_duration_seconds",
			Help:    "AI parse request duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"mode", "status"},
	)

	// ParsesTotal tracks total AI parse requests.
	ParsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_parses_total",
			Help: "Total AI parse requests",
		},
		[]string{"mode", "status"},
	)

	// IntentsTotal tracks classified intents.
	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_intents_total",
			Help: "Total classified chat intents",
		},
		[]string{"intent"},
	)

	// EntriesCreatedTotal tracks credential entries created from chat.
	EntriesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_entries_created_total",
			Help: "Total credential entries created from conversation",
		},
	)

	// EntriesImportedTotal tracks entries created through import.
	EntriesImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_entries_imported_total",
			Help: "Total credential entries imported",
		},
		[]string{"format"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordParse records metrics for one AI parse request.
func RecordParse(mode, status string, duration float64) {
	ParseDuration.WithLabelValues(mode, status).Observe(duration)
	ParsesTotal.WithLabelValues(mode, status).Inc()
}

// RecordIntent records a classified intent.
func RecordIntent(intent string) {
	IntentsTotal.WithLabelValues(intent).Inc()
}

// RecordEntryCreated records a credential entry created from conversation.
func RecordEntryCreated() {
	EntriesCreatedTotal.Inc()
}

// RecordEntriesImported records entries created through import.
func RecordEntriesImported(format string, count int) {
	EntriesImportedTotal.WithLabelValues(format).Add(float64(count))
}
