// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package recall

import (
	"context"

	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
)

// serviceKV names KV failures on the request tally.
const serviceKV = "kv"

// rankedSet reads precomputed candidates from a KV ranked set written by the
// ranking pipeline. Members are keys.RankMember values; the score is the rank score.
type rankedSet struct {
	kv     *kv.Client
	source models.RecallSource
	key    func(user models.UserID) string
}

// Recall returns the top limit members. A KV failure is logged and reads as empty.
func (r *rankedSet) Recall(ctx context.Context, user models.UserID, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		return []models.Candidate{}, nil
	}
	key := r.key(user)
	members, err := r.kv.ZRevRange(ctx, key, limit)
	if err != nil {
		downstream.RecordFailure(ctx, serviceKV)
		logging.Ctx(ctx).Warn().Err(err).Str("source", r.source.String()).Msg("Ranked set unavailable, recalling nothing")
		return []models.Candidate{}, nil
	}

	valid := make([]models.Candidate, 0, len(members))
	for _, m := range members {
		id, ts, err := keys.ParseRankMember(m.Member)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Skipping malformed ranked-set member")
			continue
		}
		valid = append(valid, models.Candidate{PostID: id, Source: r.source, Timestamp: ts})
	}
	for i := range valid {
		valid[i].Weight = RankWeight(i, len(valid))
	}
	return valid, nil
}

// TrendingStrategy recalls globally trending posts for one time window.
type TrendingStrategy struct {
	rankedSet
	window string
}

// NewTrendingStrategy returns a trending strategy for window (see keys.TrendingWindow*).
// An unknown window falls back to keys.TrendingWindowDay.
func NewTrendingStrategy(client *kv.Client, window string) *TrendingStrategy {
	if !keys.ValidTrendingWindow(window) {
		window = keys.TrendingWindowDay
	}
	key := keys.TrendingRank(window)
	return &TrendingStrategy{
		rankedSet: rankedSet{
			kv:     client,
			source: models.SourceTrending,
			key:    func(models.UserID) string { return key },
		},
		window: window,
	}
}

func (s *TrendingStrategy) Source() models.RecallSource { return models.SourceTrending }

// Window returns the trending window read by the strategy.
func (s *TrendingStrategy) Window() string { return s.window }

// PersonalizedStrategy recalls the per-user candidate list precomputed by the ranking pipeline.
type PersonalizedStrategy struct {
	rankedSet
}

// NewPersonalizedStrategy returns a personalized strategy.
func NewPersonalizedStrategy(client *kv.Client) *PersonalizedStrategy {
	return &PersonalizedStrategy{
		rankedSet: rankedSet{
			kv:     client,
			source: models.SourcePersonalized,
			key:    keys.PersonalizedRank,
		},
	}
}

func (s *PersonalizedStrategy) Source() models.RecallSource { return models.SourcePersonalized }
