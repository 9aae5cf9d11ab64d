// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and exposed
at /metrics by the API router.

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rejected by the rate limiter (counter)

KV Metrics:
  - kv_round_trips_total: One increment per network round trip (counter)
    Labels: op
  - kv_operation_duration_seconds, kv_errors_total

Feed Metrics:
  - feed_cache_hits_total, feed_cache_misses_total{reason}
  - feed_cache_evictions_total{cause}
  - feed_snapshot_fallbacks_total
  - feed_assembly_duration_seconds{path}, feed_page_size
  - feed_rank_fallbacks_total

Recall and Downstream Metrics:
  - recall_candidates{source}, recall_duration_seconds{source}
  - recall_strategy_failures_total{source}
  - downstream_requests_total{service,result}
  - downstream_partial_failures_total{service}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open

Event Metrics:
  - events_consumed_total{type}, events_deduplicated_total
  - events_parse_failed_total, event_processing_duration_seconds
  - event_fanout_keys

Warmer Metrics:
  - warmer_users_total{result}, warmer_cycle_duration_seconds

# Usage

	start := time.Now()
	err := store.Del(ctx, key)
	metrics.RecordKVOp("del", time.Since(start), err)
*/
package metrics
