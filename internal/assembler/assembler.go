// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package assembler builds cursor-paginated feed pages.
//
// A request is served from the hot feed cache when the cached list covers the
// requested range. Otherwise candidates are recalled, ordered by the requested
// algorithm, filtered against the seen set, persisted to the feed cache and the
// long-TTL snapshot, then sliced. The read path is fail-open: when recall yields
// nothing because of failures the snapshot is served, and failing that an empty
// page. Only invalid input is reported as an error.
package assembler

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/feedcache"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
	"github.com/tomtom215/feedcore/internal/recall"
)

// Algorithm selects how recalled candidates are ordered.
type Algorithm string

const (
	// AlgoTime orders candidates newest first.
	AlgoTime Algorithm = "time"
	// AlgoCH asks the ranking service for the order.
	AlgoCH Algorithm = "ch"
)

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgoTime, AlgoCH:
		return Algorithm(s), nil
	default:
		return "", apperror.BadRequest("algo must be one of: time, ch")
	}
}

// Serving paths reported in Result.Path and the assembly duration metric.
const (
	PathCache    = "cache"
	PathRecall   = "recall"
	PathSnapshot = "snapshot"
	PathEmpty    = "empty"
)

// Page size bounds.
const (
	MinLimit = 1
	MaxLimit = 100
)

// ClampLimit forces limit into [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit < MinLimit:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Recaller produces deduplicated candidates. *recall.Layer implements it.
type Recaller interface {
	RecallCandidates(ctx context.Context, user models.UserID, overrides *recall.Limits) ([]models.Candidate, models.RecallStats)
}

// ActivityRecorder marks a user as active. *activity.Tracker implements it.
type ActivityRecorder interface {
	Touch(ctx context.Context, user models.UserID) error
}

// Deps are the collaborators of an Assembler. Ranker and Activity are optional.
type Deps struct {
	Cache    *feedcache.Cache
	Recall   Recaller
	Ranker   downstream.Ranker
	Activity ActivityRecorder
}

// Config tunes background writes.
type Config struct {
	// BackgroundTimeout bounds the detached snapshot and activity writes.
	BackgroundTimeout time.Duration `koanf:"background_timeout" validate:"min=0"`
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{BackgroundTimeout: 2 * time.Second}
}

// Request is one feed read. A nil Cursor means the first page.
type Request struct {
	User   models.UserID
	Algo   Algorithm
	Limit  int
	Cursor *string
}

// Result is an assembled page plus how it was produced.
type Result struct {
	Page            *models.FeedPage
	Path            string
	Stats           models.RecallStats
	PartialFailures int
}

// Assembler serves feed pages.
type Assembler struct {
	deps Deps
	cfg  Config
	bg   sync.WaitGroup
}

// New returns an Assembler.
func New(deps Deps, cfg Config) *Assembler {
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = DefaultConfig().BackgroundTimeout
	}
	return &Assembler{deps: deps, cfg: cfg}
}

// Wait blocks until every background write started so far has finished.
func (a *Assembler) Wait() { a.bg.Wait() }

// GetFeed assembles one page. The only errors are BadRequest for invalid input.
func (a *Assembler) GetFeed(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	algo, err := ParseAlgorithm(string(req.Algo))
	if err != nil {
		return nil, err
	}
	offset := 0
	if req.Cursor != nil {
		if offset, err = DecodeCursor(*req.Cursor); err != nil {
			return nil, err
		}
	}
	limit := ClampLimit(req.Limit)

	ctx, tally := downstream.WithTally(ctx)
	a.touch(ctx, req.User)

	res := a.assemble(ctx, req.User, algo, offset, limit)
	res.PartialFailures = tally.Total()

	metrics.RecordAssembly(res.Path, len(res.Page.Posts), time.Since(start))
	logging.Ctx(ctx).Debug().
		Str("user_id", req.User.String()).
		Str("algo", string(algo)).
		Str("path", res.Path).
		Int("offset", offset).
		Int("limit", limit).
		Int("posts", len(res.Page.Posts)).
		Int("partial_failures", res.PartialFailures).
		Msg("Feed assembled")
	return res, nil
}

// assemble runs the cache and recall paths. A panic anywhere in them falls back to
// the snapshot.
func (a *Assembler) assemble(ctx context.Context, user models.UserID, algo Algorithm, offset, limit int) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Str("user_id", user.String()).
				Msg("Feed assembly panicked, serving snapshot")
			res = a.fromSnapshot(ctx, user, offset, limit, models.RecallStats{})
		}
	}()

	if cached, ok := a.deps.Cache.GetFeed(ctx, user); ok && offset+limit <= len(cached.PostIDs) {
		return &Result{Page: paginate(cached.PostIDs, offset, limit), Path: PathCache}
	}

	cands, stats := a.deps.Recall.RecallCandidates(ctx, user, nil)
	if len(cands) == 0 {
		if stats.FailedStrategies > 0 {
			return a.fromSnapshot(ctx, user, offset, limit, stats)
		}
		return &Result{Page: models.EmptyPage(), Path: PathEmpty, Stats: stats}
	}

	ordered := a.order(ctx, user, algo, cands)
	unseen := a.deps.Cache.FilterUnseen(ctx, user, ordered)
	if len(unseen) == 0 {
		return &Result{Page: models.EmptyPage(), Path: PathEmpty, Stats: stats}
	}

	if err := a.deps.Cache.SetFeed(ctx, user, unseen, string(algo)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", user.String()).Msg("Failed to cache feed")
	}
	a.background(ctx, "snapshot", func(ctx context.Context) error {
		return a.deps.Cache.SetSnapshot(ctx, user, unseen, string(algo))
	})

	return &Result{Page: paginate(unseen, offset, limit), Path: PathRecall, Stats: stats}
}

// order returns candidate post ids in algo order.
func (a *Assembler) order(ctx context.Context, user models.UserID, algo Algorithm, cands []models.Candidate) []models.PostID {
	if algo == AlgoCH {
		if a.deps.Ranker == nil {
			return models.CandidatePostIDs(cands)
		}
		ranked, err := a.deps.Ranker.Rank(ctx, user, cands)
		if err == nil && len(ranked) > 0 {
			return ranked
		}
		metrics.FeedRankFallbacks.Inc()
		if err != nil {
			downstream.RecordFailure(ctx, downstream.ServiceRanking)
			logging.Ctx(ctx).Warn().Err(err).
				Bool("breaker_open", downstream.IsRejected(err)).
				Msg("Ranking unavailable, falling back to time order")
		}
	}
	byTime := make([]models.Candidate, len(cands))
	copy(byTime, cands)
	sort.SliceStable(byTime, func(i, j int) bool {
		return byTime[i].Timestamp.After(byTime[j].Timestamp)
	})
	return models.CandidatePostIDs(byTime)
}

// fromSnapshot serves the long-TTL snapshot, or an empty page when there is none.
func (a *Assembler) fromSnapshot(ctx context.Context, user models.UserID, offset, limit int, stats models.RecallStats) *Result {
	snap, ok := a.deps.Cache.GetSnapshot(ctx, user)
	if !ok {
		return &Result{Page: models.EmptyPage(), Path: PathEmpty, Stats: stats}
	}
	metrics.FeedSnapshotFallbacks.Inc()
	return &Result{Page: paginate(snap.PostIDs, offset, limit), Path: PathSnapshot, Stats: stats}
}

// touch records the request in the activity source without blocking it.
func (a *Assembler) touch(ctx context.Context, user models.UserID) {
	if a.deps.Activity == nil {
		return
	}
	a.background(ctx, "activity", func(ctx context.Context) error {
		return a.deps.Activity.Touch(ctx, user)
	})
}

// background runs fn detached from the request's cancellation.
func (a *Assembler) background(ctx context.Context, what string, fn func(ctx context.Context) error) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Ctx(ctx).Error().Str("task", what).Interface("panic", r).Msg("Background write panicked")
			}
		}()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.BackgroundTimeout)
		defer cancel()
		if err := fn(bctx); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("task", what).Msg("Background write failed")
		}
	}()
}

// paginate slices ids[offset:offset+limit]. The cursor always points just past the
// requested range and is omitted when the page holds no posts.
func paginate(ids []models.PostID, offset, limit int) *models.FeedPage {
	total := len(ids)
	if offset >= total {
		return &models.FeedPage{Posts: []models.PostID{}, TotalCount: total}
	}
	end := offset + limit
	if end > total {
		end = total
	}
	posts := make([]models.PostID, end-offset)
	copy(posts, ids[offset:end])
	cursor := EncodeCursor(offset + limit)
	return &models.FeedPage{
		Posts:      posts,
		Cursor:     &cursor,
		HasMore:    end < total,
		TotalCount: total,
	}
}
