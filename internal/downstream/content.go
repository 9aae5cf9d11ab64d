// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/feedcore/internal/models"
)

// PostStatusPublished is the only status the feed recalls.
const PostStatusPublished = "published"

// ContentService is the post read API.
type ContentService interface {
	// GetPostsByAuthor returns author's posts with the given status, newest first.
	GetPostsByAuthor(ctx context.Context, author models.AuthorID, status string, limit, offset int) ([]models.Post, error)
	// ListPostsByUsers returns posts of any of users created before before, newest first.
	ListPostsByUsers(ctx context.Context, users []models.UserID, before time.Time, limit int) ([]models.Post, error)
}

// ContentClient calls the content service over HTTP.
//
//	GET  /v1/authors/{id}/posts?status=&limit=&offset=          -> {"posts":[...]}
//	POST /v1/posts/by-users {"user_ids","before","limit"}       -> {"posts":[...]}
type ContentClient struct {
	svc *httpService
}

// NewContentClient returns a content client. A nil http.Client uses a default one.
func NewContentClient(cfg ServiceConfig, client *http.Client) *ContentClient {
	return &ContentClient{svc: newHTTPService(ServiceContent, cfg, client)}
}

type postsResponse struct {
	Posts []models.Post `json:"posts"`
}

func (c *ContentClient) GetPostsByAuthor(ctx context.Context, author models.AuthorID, status string, limit, offset int) ([]models.Post, error) {
	q := pageQuery(limit, offset)
	if status != "" {
		q.Set("status", status)
	}
	data, err := c.svc.do(ctx, "get_posts_by_author", http.MethodGet, "/v1/authors/"+author.String()+"/posts", q, nil)
	if err != nil {
		return nil, err
	}
	return c.posts("get_posts_by_author", data)
}

type listPostsRequest struct {
	UserIDs []models.UserID `json:"user_ids"`
	Before  time.Time       `json:"before"`
	Limit   int             `json:"limit"`
}

func (c *ContentClient) ListPostsByUsers(ctx context.Context, users []models.UserID, before time.Time, limit int) ([]models.Post, error) {
	if len(users) == 0 {
		return []models.Post{}, nil
	}
	data, err := c.svc.do(ctx, "list_posts_by_users", http.MethodPost, "/v1/posts/by-users", nil,
		listPostsRequest{UserIDs: users, Before: before.UTC(), Limit: limit})
	if err != nil {
		return nil, err
	}
	return c.posts("list_posts_by_users", data)
}

func (c *ContentClient) posts(op string, data []byte) ([]models.Post, error) {
	resp, err := decode[postsResponse](ServiceContent, op, data)
	if err != nil {
		return nil, err
	}
	if resp.Posts == nil {
		return []models.Post{}, nil
	}
	return resp.Posts, nil
}
