// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandlerRequestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_completed_total",
			Help: "Total number of requests completed by handler",
		},
		[]string{"task_type"},
	)

	HandlerRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_failed_total",
			Help: "Total number of requests failed by handler",
		},
		[]string{"task_type", "error_code"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "handler_duration_seconds",
			Help: "Duration of request processing in seconds",
		},
		[]string{"task_type"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_results_count",
			Help:    "Number of listings retained by a search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"mode"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and tier outcome",
		},
		[]string{"cache", "result"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_events_processed_total",
			Help: "Listing events handled by consumers",
		},
		[]string{"action", "status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_events_published_total",
			Help: "Listing events handed to the publisher",
		},
		[]string{"action", "status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Agent notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// Cache lookup outcomes.
const (
	CacheHitLocal  = "hit_local"
	CacheHitRemote = "hit_remote"
	CacheMiss      = "miss"
)
