// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package activity tracks when users last requested a feed.
//
// Activity is a single KV ranked set scored by unix seconds. The feed read path
// touches it; the cache warmer harvests the recently active users from it.
package activity

import (
	"context"
	"time"

	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
)

// Source lists recently active users.
type Source interface {
	RecentlyActive(ctx context.Context, window time.Duration, max int) ([]models.UserID, error)
}

// Tracker records and reads user activity.
type Tracker struct {
	kv    *kv.Client
	clock clock.Clock
}

// NewTracker returns a tracker backed by client.
func NewTracker(client *kv.Client, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Tracker{kv: client, clock: clk}
}

// Touch marks user active now.
func (t *Tracker) Touch(ctx context.Context, user models.UserID) error {
	member := kv.ScoredMember{Member: user.String(), Score: float64(t.clock.Now().Unix())}
	return t.kv.ZAdd(ctx, keys.RecentActivity(), []kv.ScoredMember{member}, t.kv.Policy().Activity)
}

// RecentlyActive returns up to max users active within window, most recent first.
// Members that do not parse as user ids are skipped.
func (t *Tracker) RecentlyActive(ctx context.Context, window time.Duration, max int) ([]models.UserID, error) {
	if max <= 0 {
		return []models.UserID{}, nil
	}
	since := t.clock.Now().Add(-window).Unix()
	members, err := t.kv.ZRevRangeByScore(ctx, keys.RecentActivity(), float64(since), max)
	if err != nil {
		return nil, err
	}
	users := make([]models.UserID, 0, len(members))
	for _, m := range members {
		id, err := models.ParseUserID(m.Member)
		if err != nil {
			logging.Ctx(ctx).Debug().Str("member", m.Member).Msg("Skipping malformed activity member")
			continue
		}
		users = append(users, id)
	}
	return users, nil
}

// Trim drops users whose last activity is older than window and returns how many
// were removed.
func (t *Tracker) Trim(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := t.clock.Now().Add(-window).Unix()
	return t.kv.ZRemRangeByScore(ctx, keys.RecentActivity(), float64(cutoff))
}
