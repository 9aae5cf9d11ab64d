// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package recall

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
)

// GraphConfig tunes the followee fan-out.
type GraphConfig struct {
	// MaxFollowing bounds the followee list fetched from the graph service.
	MaxFollowing int `koanf:"max_following" validate:"min=1"`
	// FanoutCap bounds how many followees have their posts fetched.
	FanoutCap int `koanf:"fanout_cap" validate:"min=1"`
	// Concurrency bounds in-flight content calls per request.
	Concurrency int `koanf:"concurrency" validate:"min=1"`
	// MinPostsPerFollowee is the floor of the per-followee post budget.
	MinPostsPerFollowee int `koanf:"min_posts_per_followee" validate:"min=1"`
}

// DefaultGraphConfig returns the production fan-out settings.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		MaxFollowing:        1000,
		FanoutCap:           100,
		Concurrency:         16,
		MinPostsPerFollowee: 3,
	}
}

// Recency decay: a post loses weight linearly over this many hours, down to the floor.
const (
	recencyHorizonHours = 48.0
	recencyFloor        = 0.5
	followeeRankDecay   = 0.02
)

// errAllFolloweesFailed is returned when every followee's post fetch failed.
var errAllFolloweesFailed = errors.New("every followee post fetch failed")

// GraphStrategy recalls recent posts of the accounts a user follows.
type GraphStrategy struct {
	graph   downstream.GraphService
	content downstream.ContentService
	clock   clock.Clock
	cfg     GraphConfig
}

// NewGraphStrategy returns a graph strategy. Zero config fields take defaults.
func NewGraphStrategy(graph downstream.GraphService, content downstream.ContentService, clk clock.Clock, cfg GraphConfig) *GraphStrategy {
	def := DefaultGraphConfig()
	if cfg.MaxFollowing <= 0 {
		cfg.MaxFollowing = def.MaxFollowing
	}
	if cfg.FanoutCap <= 0 {
		cfg.FanoutCap = def.FanoutCap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MinPostsPerFollowee <= 0 {
		cfg.MinPostsPerFollowee = def.MinPostsPerFollowee
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &GraphStrategy{graph: graph, content: content, clock: clk, cfg: cfg}
}

func (s *GraphStrategy) Source() models.RecallSource { return models.SourceGraph }

// Recall fans out to the user's followees and returns their recent posts newest first.
//
// A failed followee fetch is skipped and counted on the request tally. The strategy
// fails only when the followee list cannot be fetched or every followee fetch failed.
func (s *GraphStrategy) Recall(ctx context.Context, user models.UserID, limit int) ([]models.Candidate, error) {
	followees, err := s.graph.GetFollowing(ctx, user, s.cfg.MaxFollowing, 0)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRecall, "recall.graph", err)
	}
	if len(followees) == 0 {
		return []models.Candidate{}, nil
	}
	if len(followees) > s.cfg.FanoutCap {
		followees = followees[:s.cfg.FanoutCap]
	}

	perFollowee := (limit + len(followees) - 1) / len(followees)
	if perFollowee < s.cfg.MinPostsPerFollowee {
		perFollowee = s.cfg.MinPostsPerFollowee
	}

	now := s.clock.Now()
	results := make([][]models.Candidate, len(followees))
	failed := make([]bool, len(followees))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, followee := range followees {
		g.Go(func() error {
			posts, err := s.content.GetPostsByAuthor(ctx, followee, downstream.PostStatusPublished, perFollowee, 0)
			if err != nil {
				failed[i] = true
				downstream.RecordFailure(ctx, downstream.ServiceContent)
				logging.Ctx(ctx).Debug().Err(err).Str("followee", followee.String()).Msg("Skipping followee after post fetch failure")
				return nil
			}
			base := 1.0 - followeeRankDecay*float64(i)
			cands := make([]models.Candidate, 0, len(posts))
			for _, p := range posts {
				author := p.AuthorID
				if author.IsZero() {
					author = followee
				}
				cands = append(cands, models.Candidate{
					PostID:    p.ID,
					AuthorID:  author,
					Source:    models.SourceGraph,
					Weight:    clamp(base*recencyBoost(now.Sub(p.CreatedAt).Hours()), MinWeight, MaxWeight),
					Timestamp: p.CreatedAt,
				})
			}
			results[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	out := make([]models.Candidate, 0, len(followees)*perFollowee)
	for i := range results {
		if failed[i] {
			failures++
		}
		out = append(out, results[i]...)
	}
	if failures == len(followees) {
		return nil, apperror.Wrap(apperror.KindRecall, "recall.graph", errAllFolloweesFailed)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func recencyBoost(ageHours float64) float64 {
	return clamp(1.0-ageHours/recencyHorizonHours, recencyFloor, 1.0)
}
