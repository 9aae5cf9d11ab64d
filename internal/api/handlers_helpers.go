// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
	"github.com/tomtom215/feedcore/internal/validation"
)

// Error codes not covered by apperror kinds.
const (
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// maxBodyBytes bounds request bodies. 500 post ids fit comfortably.
const maxBodyBytes = 64 << 10

// sanitizeLogValue escapes control characters so client input cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes v as the JSON body with status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes the standard error body.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: models.APIError{Code: code, Message: message}})
}

// respondAppError maps err to a response. User-visible errors keep their
// message; anything else is logged and answered with a generic 500.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: verr.ToAPIError()})
		return
	}

	kind := apperror.KindOf(err)
	if apperror.UserVisible(err) {
		var appErr *apperror.Error
		message := kind.String()
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
		respondError(w, kind.HTTPStatus(), kind.Code(), message)
		return
	}

	logging.Ctx(r.Context()).Error().
		Str("kind", kind.String()).
		Str("error", sanitizeLogValue(err.Error())).
		Str("path", r.URL.Path).
		Msg("API error")
	respondError(w, http.StatusInternalServerError, apperror.KindInternal.Code(), "internal error")
}

// decodeJSONBody decodes a bounded JSON body into dst. Unknown fields are
// rejected so typos in field names surface as 400s.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.BadRequest("request body exceeds %d bytes", maxBodyBytes)
		}
		return apperror.BadRequest("invalid JSON body: %s", sanitizeLogValue(err.Error()))
	}
	return nil
}
