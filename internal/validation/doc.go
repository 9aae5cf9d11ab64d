// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package validation wraps go-playground/validator v10 with a shared validator
// instance, feed-specific tags and messages shaped for the API error body.
//
// It validates two kinds of structs: request bodies decoded by the HTTP
// handlers (models.MarkSeenRequest) and the loaded service configuration.
//
// # Usage
//
//	var req models.MarkSeenRequest
//	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	    // 400
//	}
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    body := models.ErrorResponse{Error: verr.ToAPIError()}
//	    // 400 with body
//	}
//
// # Custom Tags
//
//   - trendwindow: one of the trending windows written by the ranking pipeline (1h, 24h, 7d)
//   - feedalgo: a feed ordering algorithm (time, ch)
//
// # Field Names
//
// Fields are reported by their json tag, falling back to the koanf tag and then
// the Go name. Nested fields keep their path without the root type, so a bad
// configuration reports "server.port" rather than "Config.Server.Port".
//
// # Error Body
//
// ToAPIError always uses the BAD_REQUEST code:
//
//	{"code": "BAD_REQUEST", "message": "post_ids must be at most 500 items",
//	 "details": {"field": "post_ids", "tag": "max"}}
//
// RequestValidationError unwraps to apperror.ErrBadRequest, so callers that
// only inspect error kinds map it to 400 without knowing this package.
package validation
