// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package models

// APIError is the error body returned for user-visible failures (400, 401, 429).
//
//	{"error": {"code": "BAD_REQUEST", "message": "unknown algorithm \"foo\""}}
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// MarkSeenRequest is the body of POST /feed/seen.
type MarkSeenRequest struct {
	PostIDs []PostID `json:"post_ids" validate:"required,min=1,max=500"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}
