// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/feedcore/internal/kv/kvtest"
	"github.com/tomtom215/feedcore/internal/models"
)

type countingGraph struct {
	mu        sync.Mutex
	following map[models.UserID][]models.UserID
	calls     map[string]int
	fail      bool
}

func newCountingGraph() *countingGraph {
	return &countingGraph{following: map[models.UserID][]models.UserID{}, calls: map[string]int{}}
}

func (g *countingGraph) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	if g.fail {
		return errors.New("graph down")
	}
	return nil
}

func (g *countingGraph) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *countingGraph) GetFollowing(_ context.Context, user models.UserID, limit, offset int) ([]models.UserID, error) {
	if err := g.record("following"); err != nil {
		return nil, err
	}
	return page(g.following[user], limit, offset), nil
}

func (g *countingGraph) GetFollowers(_ context.Context, _ models.UserID, _, _ int) ([]models.UserID, error) {
	if err := g.record("followers"); err != nil {
		return nil, err
	}
	return []models.UserID{}, nil
}

func (g *countingGraph) IsFollowing(_ context.Context, a, b models.UserID) (bool, error) {
	if err := g.record("is_following"); err != nil {
		return false, err
	}
	for _, f := range g.following[a] {
		if f == b {
			return true, nil
		}
	}
	return false, nil
}

func (g *countingGraph) IsBlocked(_ context.Context, _, _ models.UserID) (bool, error) {
	return false, g.record("is_blocked")
}

func page(ids []models.UserID, limit, offset int) []models.UserID {
	if offset >= len(ids) {
		return []models.UserID{}
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func TestCachedGraph_ReadThrough(t *testing.T) {
	inner := newCountingGraph()
	inner.following[alice] = []models.UserID{bob, carol}
	g := NewCachedGraph(inner, kvtest.NewClient(t))
	ctx := context.Background()

	first, err := g.GetFollowing(ctx, alice, 1000, 0)
	if err != nil || len(first) != 2 {
		t.Fatalf("first GetFollowing = %v, %v", first, err)
	}
	second, err := g.GetFollowing(ctx, alice, 1, 0)
	if err != nil || len(second) != 1 || second[0] != bob {
		t.Fatalf("second GetFollowing = %v, %v", second, err)
	}
	if got := inner.count("following"); got != 1 {
		t.Errorf("inner calls = %d, want 1", got)
	}

	// Later pages bypass the cache.
	if _, err := g.GetFollowing(ctx, alice, 10, 1); err != nil {
		t.Fatal(err)
	}
	if got := inner.count("following"); got != 2 {
		t.Errorf("inner calls after offset read = %d, want 2", got)
	}
}

func TestCachedGraph_IsFollowingAndInvalidate(t *testing.T) {
	inner := newCountingGraph()
	inner.following[alice] = []models.UserID{bob}
	g := NewCachedGraph(inner, kvtest.NewClient(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := g.IsFollowing(ctx, alice, bob)
		if err != nil || !ok {
			t.Fatalf("IsFollowing = %v, %v", ok, err)
		}
	}
	if got := inner.count("is_following"); got != 1 {
		t.Errorf("inner is_following calls = %d, want 1", got)
	}

	inner.following[alice] = nil
	if err := g.InvalidateRelationship(ctx, alice, bob); err != nil {
		t.Fatalf("InvalidateRelationship: %v", err)
	}
	ok, err := g.IsFollowing(ctx, alice, bob)
	if err != nil || ok {
		t.Errorf("IsFollowing after unfollow = %v, %v; want false", ok, err)
	}
}

func TestCachedGraph_ErrorsAreNotCached(t *testing.T) {
	inner := newCountingGraph()
	inner.fail = true
	g := NewCachedGraph(inner, kvtest.NewClient(t))
	ctx := context.Background()

	if _, err := g.GetFollowing(ctx, alice, 10, 0); err == nil {
		t.Fatal("expected error from failing graph")
	}
	inner.mu.Lock()
	inner.fail = false
	inner.following[alice] = []models.UserID{carol}
	inner.mu.Unlock()

	ids, err := g.GetFollowing(ctx, alice, 10, 0)
	if err != nil || len(ids) != 1 || ids[0] != carol {
		t.Errorf("GetFollowing after recovery = %v, %v", ids, err)
	}
}

func TestCachedGraph_KVDownFallsThrough(t *testing.T) {
	inner := newCountingGraph()
	inner.following[alice] = []models.UserID{bob}
	client, fs := kvtest.NewFaultyClient(t)
	fs.Fail("get", "set")
	g := NewCachedGraph(inner, client)

	ids, err := g.GetFollowing(context.Background(), alice, 10, 0)
	if err != nil || len(ids) != 1 {
		t.Errorf("GetFollowing with KV down = %v, %v", ids, err)
	}
}

func TestCachedGraph_BlocksAreNeverCached(t *testing.T) {
	inner := newCountingGraph()
	g := NewCachedGraph(inner, kvtest.NewClient(t))
	for i := 0; i < 2; i++ {
		_, _ = g.IsBlocked(context.Background(), alice, bob)
	}
	if got := inner.count("is_blocked"); got != 2 {
		t.Errorf("inner is_blocked calls = %d, want 2", got)
	}
}
