// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package recall

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/feedcore/internal/models"
)

var (
	userA = models.MustUserID("11111111-1111-4111-8111-111111111111")
	now   = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
)

func postID(i int) models.PostID {
	return models.MustPostID(fmt.Sprintf("00000000-0000-4000-8000-%012d", i))
}

func userID(i int) models.UserID {
	return models.MustUserID(fmt.Sprintf("00000000-0000-4000-9000-%012d", i))
}

// fakeGraph serves a fixed followee list.
type fakeGraph struct {
	following []models.UserID
	err       error
	gotLimit  int
}

func (g *fakeGraph) GetFollowing(_ context.Context, _ models.UserID, limit, _ int) ([]models.UserID, error) {
	g.gotLimit = limit
	if g.err != nil {
		return nil, g.err
	}
	return g.following, nil
}

func (g *fakeGraph) GetFollowers(context.Context, models.UserID, int, int) ([]models.UserID, error) {
	return nil, nil
}

func (g *fakeGraph) IsFollowing(context.Context, models.UserID, models.UserID) (bool, error) {
	return false, nil
}

func (g *fakeGraph) IsBlocked(context.Context, models.UserID, models.UserID) (bool, error) {
	return false, nil
}

// fakeContent serves posts per author and fails for selected authors.
type fakeContent struct {
	mu       sync.Mutex
	posts    map[models.UserID][]models.Post
	failFor  map[models.UserID]bool
	limits   map[models.UserID]int
	inFlight int
	maxSeen  int
	delay    time.Duration
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		posts:   map[models.UserID][]models.Post{},
		failFor: map[models.UserID]bool{},
		limits:  map[models.UserID]int{},
	}
}

func (c *fakeContent) GetPostsByAuthor(_ context.Context, author models.AuthorID, _ string, limit, _ int) ([]models.Post, error) {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.maxSeen {
		c.maxSeen = c.inFlight
	}
	c.limits[author] = limit
	fail := c.failFor[author]
	posts := c.posts[author]
	delay := c.delay
	c.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()

	if fail {
		return nil, errors.New("content unavailable")
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (c *fakeContent) ListPostsByUsers(context.Context, []models.UserID, time.Time, int) ([]models.Post, error) {
	return nil, nil
}

// staticStrategy returns fixed candidates, an error, or panics.
type staticStrategy struct {
	source   models.RecallSource
	cands    []models.Candidate
	err      error
	panics   bool
	gotLimit int
}

func (s *staticStrategy) Source() models.RecallSource { return s.source }

func (s *staticStrategy) Recall(_ context.Context, _ models.UserID, limit int) ([]models.Candidate, error) {
	s.gotLimit = limit
	if s.panics {
		panic("strategy exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.cands, nil
}

func cand(id int, src models.RecallSource) models.Candidate {
	return models.Candidate{PostID: postID(id), Source: src, Weight: 1, Timestamp: now.Add(-time.Duration(id) * time.Minute)}
}
