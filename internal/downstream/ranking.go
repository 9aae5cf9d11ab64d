// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"
	"net/http"

	"github.com/tomtom215/feedcore/internal/models"
)

// Ranker orders candidates for the "ch" algorithm. The returned ids may omit
// candidates but never introduce new ones.
type Ranker interface {
	Rank(ctx context.Context, user models.UserID, candidates []models.Candidate) ([]models.PostID, error)
}

// RankingClient calls the ranking service over HTTP.
//
//	POST /v1/rank {"user_id","candidates":[...]} -> {"post_ids":[...]}
type RankingClient struct {
	svc *httpService
}

// NewRankingClient returns a ranking client. A nil http.Client uses a default one.
func NewRankingClient(cfg ServiceConfig, client *http.Client) *RankingClient {
	return &RankingClient{svc: newHTTPService(ServiceRanking, cfg, client)}
}

type rankRequest struct {
	UserID     models.UserID      `json:"user_id"`
	Candidates []models.Candidate `json:"candidates"`
}

type rankResponse struct {
	PostIDs []models.PostID `json:"post_ids"`
}

func (c *RankingClient) Rank(ctx context.Context, user models.UserID, candidates []models.Candidate) ([]models.PostID, error) {
	data, err := c.svc.do(ctx, "rank", http.MethodPost, "/v1/rank", nil, rankRequest{UserID: user, Candidates: candidates})
	if err != nil {
		return nil, err
	}
	resp, err := decode[rankResponse](ServiceRanking, "rank", data)
	if err != nil {
		return nil, err
	}
	return RestrictToCandidates(resp.PostIDs, candidates), nil
}

// RestrictToCandidates drops ids that are not among candidates and repeats of an id,
// keeping the ranker's order.
func RestrictToCandidates(ids []models.PostID, candidates []models.Candidate) []models.PostID {
	allowed := make(map[models.PostID]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.PostID] = true
	}
	out := make([]models.PostID, 0, len(ids))
	for _, id := range ids {
		if allowed[id] {
			out = append(out, id)
			allowed[id] = false
		}
	}
	return out
}
