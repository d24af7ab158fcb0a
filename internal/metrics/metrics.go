// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Listing Metrics
	ListingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_submitted_total",
			Help: "Total number of toilet listings submitted for approval",
		},
	)

	DuplicateListingsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_duplicate_rejections_total",
			Help: "Total number of listings refused because one already exists nearby",
		},
	)

	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_moderation_decisions_total",
			Help: "Total number of moderation decisions on pending listings",
		},
		[]string{"decision"},
	)

	// Review Metrics
	ReviewWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_writes_total",
			Help: "Total number of review writes by action",
		},
		[]string{"action"},
	)

	AggregateRecomputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rating_aggregate_recomputations_total",
			Help: "Total number of listing rating recomputations",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSDroppedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_dropped_messages_total",
			Help: "Total number of notifications dropped because the broadcast queue was full",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
