// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package recall

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

// Limits holds the per-strategy candidate budgets.
type Limits struct {
	Graph        int `koanf:"graph" validate:"min=0,max=1000"`
	Trending     int `koanf:"trending" validate:"min=0,max=1000"`
	Personalized int `koanf:"personalized" validate:"min=0,max=1000"`
}

// DefaultLimits returns the production budgets.
func DefaultLimits() Limits {
	return Limits{Graph: 200, Trending: 50, Personalized: 100}
}

func (l Limits) forSource(s models.RecallSource) int {
	switch s {
	case models.SourceGraph:
		return l.Graph
	case models.SourceTrending:
		return l.Trending
	case models.SourcePersonalized:
		return l.Personalized
	default:
		return 0
	}
}

// merge returns l with every positive field of o applied.
func (l Limits) merge(o *Limits) Limits {
	if o == nil {
		return l
	}
	if o.Graph > 0 {
		l.Graph = o.Graph
	}
	if o.Trending > 0 {
		l.Trending = o.Trending
	}
	if o.Personalized > 0 {
		l.Personalized = o.Personalized
	}
	return l
}

// Layer dispatches the recall strategies and merges their output.
type Layer struct {
	strategies []Strategy
	limits     Limits
}

// NewLayer returns a layer over strategies. Nil strategies are ignored; the rest are
// ordered Graph, Trending, Personalized regardless of argument order.
func NewLayer(limits Limits, strategies ...Strategy) *Layer {
	ordered := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source() < ordered[j].Source()
	})
	return &Layer{strategies: ordered, limits: limits}
}

type strategyResult struct {
	cands []models.Candidate
	err   error
}

// RecallCandidates runs every strategy concurrently and returns the deduplicated
// candidates with per-request stats. It never fails: a strategy that errors or
// panics contributes nothing and is counted in stats.FailedStrategies.
func (l *Layer) RecallCandidates(ctx context.Context, user models.UserID, overrides *Limits) ([]models.Candidate, models.RecallStats) {
	limits := l.limits.merge(overrides)
	results := make([]strategyResult, len(l.strategies))

	var g errgroup.Group
	for i, s := range l.strategies {
		g.Go(func() error {
			results[i] = l.run(ctx, s, user, limits.forSource(s.Source()))
			return nil
		})
	}
	_ = g.Wait()

	var stats models.RecallStats
	total := 0
	for i, r := range results {
		if r.err != nil {
			stats.FailedStrategies++
			logging.Ctx(ctx).Warn().Err(r.err).Str("source", l.strategies[i].Source().String()).Msg("Recall strategy failed, treating as empty")
			continue
		}
		total += len(r.cands)
		switch l.strategies[i].Source() {
		case models.SourceGraph:
			stats.GraphCount += len(r.cands)
		case models.SourceTrending:
			stats.TrendingCount += len(r.cands)
		case models.SourcePersonalized:
			stats.PersonalizedCount += len(r.cands)
		}
	}

	seen := make(map[models.PostID]struct{}, total)
	out := make([]models.Candidate, 0, total)
	for _, r := range results {
		for _, c := range r.cands {
			if _, dup := seen[c.PostID]; dup {
				continue
			}
			seen[c.PostID] = struct{}{}
			out = append(out, c)
		}
	}
	stats.TotalAfterDedup = len(out)
	return out, stats
}

// run executes one strategy. A zero limit disables the strategy for the request.
func (l *Layer) run(ctx context.Context, s Strategy, user models.UserID, limit int) (res strategyResult) {
	if limit <= 0 {
		return strategyResult{cands: []models.Candidate{}}
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("source", s.Source().String()).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recall strategy panicked")
			res = strategyResult{err: apperror.Wrap(apperror.KindRecall, "recall."+s.Source().String(), fmt.Errorf("panic: %v", r))}
		}
		metrics.RecordRecall(s.Source().String(), len(res.cands), time.Since(start), res.err)
	}()

	cands, err := s.Recall(ctx, user, limit)
	if err != nil {
		return strategyResult{err: err}
	}
	return strategyResult{cands: cands}
}
