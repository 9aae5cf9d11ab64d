// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package middleware provides the chi-compatible HTTP middleware shared by every
route: request ids, access logging and Prometheus instrumentation.

Components:

  - RequestID: reuses a well-formed X-Request-ID or generates a UUID, echoes it
    and stores it with a fresh correlation id for logging.Ctx
  - AccessLog: one structured line per request, level chosen by status
  - PrometheusMetrics: api_requests_total, api_request_duration_seconds and
    api_active_requests, labeled by chi route pattern

Stack order used by internal/api:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

Authentication, CORS and rate limiting live in internal/auth and internal/api.
*/
package middleware
