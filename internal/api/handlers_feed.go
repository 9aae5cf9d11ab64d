// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/assembler"
	"github.com/tomtom215/feedcore/internal/auth"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
	"github.com/tomtom215/feedcore/internal/validation"
)

// Query defaults for GET /feed.
const (
	DefaultAlgo  = assembler.AlgoTime
	DefaultLimit = 20
)

// parseFeedRequest reads algo, limit and cursor. A missing algo or limit takes
// the default; a present but empty cursor is invalid, unlike a missing one.
func parseFeedRequest(r *http.Request, user models.UserID) (assembler.Request, error) {
	q := r.URL.Query()
	req := assembler.Request{User: user, Algo: DefaultAlgo, Limit: DefaultLimit}

	if algo := q.Get("algo"); algo != "" {
		req.Algo = assembler.Algorithm(algo)
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperror.BadRequest("limit must be an integer")
		}
		req.Limit = limit
	}
	if values, ok := q["cursor"]; ok {
		cursor := values[0]
		req.Cursor = &cursor
	}
	return req, nil
}

// GetFeed handles GET /feed.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, apperror.KindUnauthenticated.Code(), "authentication required")
		return
	}

	req, err := parseFeedRequest(r, user)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	res, err := h.assembler.GetFeed(r.Context(), req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	w.Header().Set("X-Feed-Path", res.Path)
	if res.PartialFailures > 0 {
		w.Header().Set("X-Feed-Partial-Failures", strconv.Itoa(res.PartialFailures))
	}
	respondJSON(w, http.StatusOK, res.Page)
}

// MarkSeen handles POST /feed/seen.
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, apperror.KindUnauthenticated.Code(), "authentication required")
		return
	}

	var body models.MarkSeenRequest
	if err := decodeJSONBody(w, r, &body); err != nil {
		respondAppError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondAppError(w, r, verr)
		return
	}

	if err := h.feeds.MarkSeen(r.Context(), user, body.PostIDs); err != nil {
		respondAppError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().Int("posts", len(body.PostIDs)).Msg("Impressions recorded")
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateCache handles DELETE /feed/cache. The next read rebuilds the feed
// from recall.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, apperror.KindUnauthenticated.Code(), "authentication required")
		return
	}

	if err := h.feeds.InvalidateFeed(r.Context(), user); err != nil {
		respondAppError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Feed cache invalidated on request")
	w.WriteHeader(http.StatusNoContent)
}
