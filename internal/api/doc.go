// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package api exposes the feed core over HTTP with a chi router.

Routes:

	GET    /feed?algo={time|ch}&limit={1..100}&cursor={base64}   assembled feed page
	POST   /feed/seen     {"post_ids": [...]}                     record impressions
	DELETE /feed/cache                                            drop the caller's cached feed
	GET    /health/live                                           liveness, 204
	GET    /health/ready                                          KV ping, 200 or 503
	GET    /metrics                                               Prometheus exposition

The /feed routes require authentication (internal/auth) and are rate limited
per user. The caller is always the user whose feed is read or changed.

Errors use one body shape:

	{"error": {"code": "BAD_REQUEST", "message": "algo must be one of: time, ch"}}

Only BAD_REQUEST (400), UNAUTHENTICATED (401) and TOO_MANY_REQUESTS (429) are
returned by GET /feed. Every downstream or cache failure degrades the page
instead, so a well-formed request always gets 200.
*/
package api
