// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"

	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/models"
)

// RelationshipPage is the size of the first relationship page kept in the cache.
// First-page reads up to this size are served from one cached entry.
const RelationshipPage = 1000

// CachedGraph is a read-through cache in front of a GraphService.
//
// First pages of following/followers and is_following checks are cached under the
// graph keys with the graph TTL. Later pages and block checks always go to the
// service. KV failures fall through to the service.
type CachedGraph struct {
	next GraphService
	kv   *kv.Client
}

// NewCachedGraph wraps next.
func NewCachedGraph(next GraphService, client *kv.Client) *CachedGraph {
	return &CachedGraph{next: next, kv: client}
}

func (g *CachedGraph) GetFollowing(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error) {
	return g.firstPage(ctx, keys.GraphFollowing(user), limit, offset, func(l, o int) ([]models.UserID, error) {
		return g.next.GetFollowing(ctx, user, l, o)
	})
}

func (g *CachedGraph) GetFollowers(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error) {
	return g.firstPage(ctx, keys.GraphFollowers(user), limit, offset, func(l, o int) ([]models.UserID, error) {
		return g.next.GetFollowers(ctx, user, l, o)
	})
}

func (g *CachedGraph) firstPage(ctx context.Context, key string, limit, offset int, fetch func(limit, offset int) ([]models.UserID, error)) ([]models.UserID, error) {
	if offset > 0 || limit <= 0 || limit > RelationshipPage {
		return fetch(limit, offset)
	}

	if data, ok, err := g.kv.Get(ctx, key); err == nil && ok {
		if ids, err := keys.DecodeUserIDs(data); err == nil {
			return head(ids, limit), nil
		}
		_ = g.kv.Del(ctx, key)
	}

	ids, err := fetch(RelationshipPage, 0)
	if err != nil {
		return nil, err
	}
	if data, err := keys.EncodeUserIDs(ids); err == nil {
		if err := g.kv.Set(ctx, key, data, g.kv.Jitter(g.kv.Policy().Graph)); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Relationship cache write failed")
		}
	}
	return head(ids, limit), nil
}

func head(ids []models.UserID, n int) []models.UserID {
	if len(ids) > n {
		ids = ids[:n]
	}
	out := make([]models.UserID, len(ids))
	copy(out, ids)
	return out
}

func (g *CachedGraph) IsFollowing(ctx context.Context, a, b models.UserID) (bool, error) {
	key := keys.GraphIsFollowing(a, b)
	if data, ok, err := g.kv.Get(ctx, key); err == nil && ok && len(data) == 1 {
		return data[0] == '1', nil
	}

	following, err := g.next.IsFollowing(ctx, a, b)
	if err != nil {
		return false, err
	}
	val := []byte{'0'}
	if following {
		val[0] = '1'
	}
	if err := g.kv.Set(ctx, key, val, g.kv.Jitter(g.kv.Policy().Graph)); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Relationship cache write failed")
	}
	return following, nil
}

// IsBlocked is never cached.
func (g *CachedGraph) IsBlocked(ctx context.Context, a, b models.UserID) (bool, error) {
	return g.next.IsBlocked(ctx, a, b)
}

// InvalidateRelationship drops every cached entry touched by an edge change
// between actor and target, in both directions, in one round trip.
func (g *CachedGraph) InvalidateRelationship(ctx context.Context, actor, target models.UserID) error {
	return g.kv.PipelineDel(ctx, []string{
		keys.GraphFollowing(actor),
		keys.GraphFollowers(actor),
		keys.GraphFollowing(target),
		keys.GraphFollowers(target),
		keys.GraphIsFollowing(actor, target),
		keys.GraphIsFollowing(target, actor),
	})
}
