// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/feedcore/internal/models"
)

// ServiceGraph, ServiceContent and ServiceRanking name the downstream services in
// metrics, breaker names and tallies.
const (
	ServiceGraph   = "graph"
	ServiceContent = "content"
	ServiceRanking = "ranking"
)

// GraphService is the social graph read API.
type GraphService interface {
	// GetFollowing returns up to limit users that user follows, in the graph's order.
	GetFollowing(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error)
	// GetFollowers returns up to limit users following user.
	GetFollowers(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error)
	IsFollowing(ctx context.Context, a, b models.UserID) (bool, error)
	IsBlocked(ctx context.Context, a, b models.UserID) (bool, error)
}

// GraphClient calls the graph service over HTTP.
//
//	GET /v1/users/{id}/following?limit=&offset=  -> {"user_ids":[...]}
//	GET /v1/users/{id}/followers?limit=&offset=  -> {"user_ids":[...]}
//	GET /v1/users/{a}/following/{b}              -> {"following":bool}
//	GET /v1/users/{a}/blocks/{b}                 -> {"blocked":bool}
type GraphClient struct {
	svc *httpService
}

// NewGraphClient returns a graph client. A nil http.Client uses a default one.
func NewGraphClient(cfg ServiceConfig, client *http.Client) *GraphClient {
	return &GraphClient{svc: newHTTPService(ServiceGraph, cfg, client)}
}

type userIDsResponse struct {
	UserIDs []models.UserID `json:"user_ids"`
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}

func (c *GraphClient) GetFollowing(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error) {
	return c.userList(ctx, "get_following", "/v1/users/"+user.String()+"/following", limit, offset)
}

func (c *GraphClient) GetFollowers(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error) {
	return c.userList(ctx, "get_followers", "/v1/users/"+user.String()+"/followers", limit, offset)
}

func (c *GraphClient) userList(ctx context.Context, op, path string, limit, offset int) ([]models.UserID, error) {
	data, err := c.svc.do(ctx, op, http.MethodGet, path, pageQuery(limit, offset), nil)
	if err != nil {
		return nil, err
	}
	resp, err := decode[userIDsResponse](ServiceGraph, op, data)
	if err != nil {
		return nil, err
	}
	if resp.UserIDs == nil {
		return []models.UserID{}, nil
	}
	return resp.UserIDs, nil
}

func (c *GraphClient) IsFollowing(ctx context.Context, a, b models.UserID) (bool, error) {
	data, err := c.svc.do(ctx, "is_following", http.MethodGet, "/v1/users/"+a.String()+"/following/"+b.String(), nil, nil)
	if err != nil {
		return false, err
	}
	resp, err := decode[struct {
		Following bool `json:"following"`
	}](ServiceGraph, "is_following", data)
	if err != nil {
		return false, err
	}
	return resp.Following, nil
}

func (c *GraphClient) IsBlocked(ctx context.Context, a, b models.UserID) (bool, error) {
	data, err := c.svc.do(ctx, "is_blocked", http.MethodGet, "/v1/users/"+a.String()+"/blocks/"+b.String(), nil, nil)
	if err != nil {
		return false, err
	}
	resp, err := decode[struct {
		Blocked bool `json:"blocked"`
	}](ServiceGraph, "is_blocked", data)
	if err != nil {
		return false, err
	}
	return resp.Blocked, nil
}
