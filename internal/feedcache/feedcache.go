// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package feedcache applies cache semantics to feed payloads: the main feed,
// the long-TTL snapshot and the per-user seen set.
//
// Reads never fail. A KV error, a stale schema version or an undecodable payload
// all read as a miss; stale and undecodable payloads are deleted on the way out.
// Writes return the KV error so callers can log it and carry on.
package feedcache

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

// Cache is the feed cache. It is safe for concurrent use.
type Cache struct {
	kv    *kv.Client
	clock clock.Clock
}

// New returns a Cache over client.
func New(client *kv.Client, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Cache{kv: client, clock: clk}
}

// GetFeed returns the cached feed of user. A returned feed always carries the
// current schema version.
//
// When the current-version key is absent, keys written by older schema versions
// are swept in a single pipelined delete.
func (c *Cache) GetFeed(ctx context.Context, user models.UserID) (*models.CachedFeed, bool) {
	return c.read(ctx, keys.Feed(user), keys.LegacyFeedKeys(user))
}

// GetSnapshot returns the long-TTL fallback copy of user's feed.
func (c *Cache) GetSnapshot(ctx context.Context, user models.UserID) (*models.CachedFeed, bool) {
	return c.read(ctx, keys.FeedSnapshot(user), nil)
}

func (c *Cache) read(ctx context.Context, key string, legacy []string) (*models.CachedFeed, bool) {
	data, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Feed cache read failed, treating as miss")
		metrics.FeedCacheMisses.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		metrics.FeedCacheMisses.WithLabelValues("absent").Inc()
		c.sweepLegacy(ctx, legacy)
		return nil, false
	}

	feed, err := keys.DecodeFeed(data)
	if err == nil {
		metrics.FeedCacheHits.Inc()
		return feed, true
	}

	cause := "corrupt"
	if errors.Is(err, keys.ErrStaleSchema) {
		cause = "stale"
	}
	metrics.FeedCacheMisses.WithLabelValues(cause).Inc()
	logging.Ctx(ctx).Debug().Err(err).Str("key", key).Str("cause", cause).Msg("Evicting unreadable feed payload")
	if err := c.kv.Del(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to evict feed payload")
	} else {
		metrics.FeedCacheEvictions.WithLabelValues(cause).Inc()
	}
	return nil, false
}

func (c *Cache) sweepLegacy(ctx context.Context, legacy []string) {
	if len(legacy) == 0 {
		return
	}
	if err := c.kv.PipelineDel(ctx, legacy); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Legacy feed key sweep failed")
		return
	}
	metrics.FeedCacheEvictions.WithLabelValues("legacy").Add(float64(len(legacy)))
}

// SetFeed stores postIDs as user's feed, stamped with the current time and
// schema version, under the jittered feed TTL.
func (c *Cache) SetFeed(ctx context.Context, user models.UserID, postIDs []models.PostID, algo string) error {
	return c.write(ctx, keys.Feed(user), postIDs, algo, c.kv.Jitter(c.kv.Policy().Feed))
}

// SetSnapshot stores the long-TTL fallback copy of user's feed.
func (c *Cache) SetSnapshot(ctx context.Context, user models.UserID, postIDs []models.PostID, algo string) error {
	return c.write(ctx, keys.FeedSnapshot(user), postIDs, algo, c.kv.Policy().Snapshot)
}

func (c *Cache) write(ctx context.Context, key string, postIDs []models.PostID, algo string, ttl time.Duration) error {
	ids := make([]models.PostID, len(postIDs))
	copy(ids, postIDs)
	data, err := keys.EncodeFeed(&models.CachedFeed{
		PostIDs:       ids,
		GeneratedAt:   c.clock.Now().UTC(),
		Algorithm:     algo,
		SchemaVersion: keys.CurrentSchemaVersion,
	})
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, key, data, ttl)
}

// InvalidateFeed deletes user's main feed payload.
func (c *Cache) InvalidateFeed(ctx context.Context, user models.UserID) error {
	if err := c.kv.Del(ctx, keys.Feed(user)); err != nil {
		return err
	}
	metrics.FeedCacheEvictions.WithLabelValues("invalidate").Inc()
	return nil
}

// BatchInvalidateFeeds deletes the feed payload of every user in one round trip.
// An empty batch does not touch the KV.
func (c *Cache) BatchInvalidateFeeds(ctx context.Context, users []models.UserID) error {
	if len(users) == 0 {
		return nil
	}
	ks := make([]string, len(users))
	for i, u := range users {
		ks[i] = keys.Feed(u)
	}
	if err := c.kv.PipelineDel(ctx, ks); err != nil {
		return err
	}
	metrics.FeedCacheEvictions.WithLabelValues("batch").Add(float64(len(ks)))
	return nil
}

// InvalidateUsers deletes the feed, snapshot and seen set of every user in one round trip.
func (c *Cache) InvalidateUsers(ctx context.Context, users ...models.UserID) error {
	if len(users) == 0 {
		return nil
	}
	ks := make([]string, 0, 3*len(users))
	for _, u := range users {
		ks = append(ks, keys.Feed(u), keys.FeedSnapshot(u), keys.FeedSeen(u))
	}
	if err := c.kv.PipelineDel(ctx, ks); err != nil {
		return err
	}
	metrics.FeedCacheEvictions.WithLabelValues("invalidate").Add(float64(len(ks)))
	return nil
}

// MarkSeen adds postIDs to user's seen set with the seen TTL in one round trip.
func (c *Cache) MarkSeen(ctx context.Context, user models.UserID, postIDs []models.PostID) error {
	if len(postIDs) == 0 {
		return nil
	}
	return c.kv.SAdd(ctx, keys.FeedSeen(user), models.PostIDStrings(postIDs), c.kv.Policy().Seen)
}

// FilterUnseen returns the ids of postIDs that user has not seen, in input order.
// Membership is tested in one round trip. On a KV error every id is treated as unseen.
func (c *Cache) FilterUnseen(ctx context.Context, user models.UserID, postIDs []models.PostID) []models.PostID {
	out := make([]models.PostID, 0, len(postIDs))
	if len(postIDs) == 0 {
		return out
	}
	seen, err := c.kv.SMIsMember(ctx, keys.FeedSeen(user), models.PostIDStrings(postIDs))
	if err != nil || len(seen) != len(postIDs) {
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Seen filter unavailable, serving unfiltered")
		}
		return append(out, postIDs...)
	}
	for i, id := range postIDs {
		if !seen[i] {
			out = append(out, id)
		}
	}
	return out
}

// ClearSeen deletes user's seen set.
func (c *Cache) ClearSeen(ctx context.Context, user models.UserID) error {
	return c.kv.Del(ctx, keys.FeedSeen(user))
}

// Ping checks KV connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.kv.Ping(ctx)
}
