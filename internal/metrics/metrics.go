// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

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
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
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

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected credentials",
		},
		[]string{"mode"},
	)

	// KV Metrics
	KVRoundTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_round_trips_total",
			Help: "Total number of KV network round trips",
		},
		[]string{"op"},
	)

	KVOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_operation_duration_seconds",
			Help:    "Duration of KV operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2},
		},
		[]string{"op"},
	)

	KVErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_errors_total",
			Help: "Total number of failed KV operations",
		},
		[]string{"op"},
	)

	// Feed Cache Metrics
	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of feed cache hits",
		},
	)

	FeedCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of feed cache misses",
		},
		[]string{"reason"}, // "absent", "stale", "corrupt", "short"
	)

	FeedCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_evictions_total",
			Help: "Total number of feed cache keys deleted",
		},
		[]string{"cause"}, // "stale", "corrupt", "legacy", "invalidate", "batch"
	)

	FeedSnapshotFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_snapshot_fallbacks_total",
			Help: "Total number of requests served from the long-TTL snapshot",
		},
	)

	// Recall Metrics
	RecallCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_candidates",
			Help:    "Number of candidates returned per recall strategy",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 200, 400},
		},
		[]string{"source"},
	)

	RecallStrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_strategy_failures_total",
			Help: "Total number of failed recall strategies",
		},
		[]string{"source"},
	)

	RecallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_duration_seconds",
			Help:    "Duration of recall strategies in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"source"},
	)

	// Downstream Service Metrics
	DownstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_requests_total",
			Help: "Total number of downstream service calls",
		},
		[]string{"service", "result"}, // result: "success", "failure", "rejected"
	)

	DownstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "downstream_request_duration_seconds",
			Help:    "Duration of downstream service calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"service"},
	)

	DownstreamPartialFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_partial_failures_total",
			Help: "Total number of sub-calls skipped inside an otherwise successful operation",
		},
		[]string{"service"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Assembly Metrics
	FeedAssemblyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_assembly_duration_seconds",
			Help:    "End-to-end feed assembly duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"path"}, // "cache", "recall", "snapshot", "error"
	)

	FeedPageSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_page_size",
			Help:    "Number of posts returned per feed page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	FeedRankFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_rank_fallbacks_total",
			Help: "Total number of assemblies that fell back to time ordering",
		},
	)

	// Event Invalidation Metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of invalidation events consumed",
		},
		[]string{"type"},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_deduplicated_total",
			Help: "Total number of invalidation events skipped as duplicates",
		},
	)

	EventsParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_parse_failed_total",
			Help: "Total number of invalidation events that failed to parse",
		},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of invalidation event handling in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	FanoutKeys = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_fanout_keys",
			Help:    "Number of feed keys invalidated per post event",
			Buckets: []float64{0, 10, 100, 500, 1000, 5000, 10000},
		},
	)

	// Warmer Metrics
	WarmerUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmer_users_total",
			Help: "Total number of users processed by the feed warmer",
		},
		[]string{"result"}, // "warmed", "skipped", "failed"
	)

	WarmerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warmer_cycle_duration_seconds",
			Help:    "Duration of a feed warmer cycle in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordKVOp records one KV round trip.
func RecordKVOp(op string, duration time.Duration, err error) {
	KVRoundTrips.WithLabelValues(op).Inc()
	KVOperationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		KVErrors.WithLabelValues(op).Inc()
	}
}

// RecordRecall records the outcome of one recall strategy.
func RecordRecall(source string, candidates int, duration time.Duration, err error) {
	RecallDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		RecallStrategyFailures.WithLabelValues(source).Inc()
		return
	}
	RecallCandidates.WithLabelValues(source).Observe(float64(candidates))
}

// RecordDownstream records a downstream call. rejected marks calls refused by an open breaker.
func RecordDownstream(service string, duration time.Duration, err error, rejected bool) {
	switch {
	case rejected:
		DownstreamRequests.WithLabelValues(service, "rejected").Inc()
		return
	case err != nil:
		DownstreamRequests.WithLabelValues(service, "failure").Inc()
	default:
		DownstreamRequests.WithLabelValues(service, "success").Inc()
	}
	DownstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordAssembly records a completed feed assembly.
func RecordAssembly(path string, pageSize int, duration time.Duration) {
	FeedAssemblyDuration.WithLabelValues(path).Observe(duration.Seconds())
	if path != "error" {
		FeedPageSize.Observe(float64(pageSize))
	}
}

// RecordWarm records one warmed (or skipped/failed) user.
func RecordWarm(result string) {
	WarmerUsers.WithLabelValues(result).Inc()
}
