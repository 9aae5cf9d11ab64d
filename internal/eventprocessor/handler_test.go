// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/feedcache"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/kv/kvtest"
	"github.com/tomtom215/feedcore/internal/models"
)

func newHandler(t *testing.T, deps HandlerDeps, cfg HandlerConfig) *InvalidationHandler {
	t.Helper()
	h, err := NewInvalidationHandler(deps, cfg)
	if err != nil {
		t.Fatalf("NewInvalidationHandler: %v", err)
	}
	return h
}

func msg(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}

func TestNewInvalidationHandler(t *testing.T) {
	if _, err := NewInvalidationHandler(HandlerDeps{}, DefaultHandlerConfig()); err != ErrNilFeedCache {
		t.Errorf("nil feeds error = %v, want ErrNilFeedCache", err)
	}

	h := newHandler(t, HandlerDeps{Feeds: &fakeFeeds{}}, HandlerConfig{FanoutCap: -1})
	if h.cfg != DefaultHandlerConfig() {
		t.Errorf("cfg = %+v, want defaults", h.cfg)
	}
}

func TestDefaultHandlerConfig(t *testing.T) {
	cfg := DefaultHandlerConfig()
	if cfg.FanoutCap != 10000 {
		t.Errorf("FanoutCap = %d, want 10000", cfg.FanoutCap)
	}
	if cfg.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", cfg.BatchSize)
	}
}

func TestHandle_Relationship(t *testing.T) {
	for _, typ := range []string{"follow", "unfollow"} {
		t.Run(typ, func(t *testing.T) {
			feeds := &fakeFeeds{}
			graph := &fakeGraph{}
			h := newHandler(t, HandlerDeps{Feeds: feeds, Graph: graph}, DefaultHandlerConfig())

			err := h.Handle(msg(`{"type":"` + typ + `","actor":"` + uidA + `","target":"` + uidB + `"}`))
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			want := []models.UserID{models.MustUserID(uidA), models.MustUserID(uidB)}
			if len(feeds.batches) != 1 || !reflect.DeepEqual(feeds.batches[0], want) {
				t.Errorf("batches = %v, want one batch %v", feeds.batches, want)
			}
			if len(graph.edges) != 1 || graph.edges[0] != (edge{want[0], want[1]}) {
				t.Errorf("graph edges = %v", graph.edges)
			}
		})
	}
}

func TestHandle_RelationshipWithoutGraph(t *testing.T) {
	feeds := &fakeFeeds{}
	h := newHandler(t, HandlerDeps{Feeds: feeds}, DefaultHandlerConfig())
	if err := h.Handle(msg(`{"type":"follow","actor":"` + uidA + `","target":"` + uidB + `"}`)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(feeds.batches) != 1 {
		t.Errorf("batches = %d, want 1", len(feeds.batches))
	}
}

func TestHandle_Block(t *testing.T) {
	for _, typ := range []string{"block", "unblock"} {
		t.Run(typ, func(t *testing.T) {
			feeds := &fakeFeeds{}
			h := newHandler(t, HandlerDeps{Feeds: feeds}, DefaultHandlerConfig())

			if err := h.Handle(msg(`{"type":"` + typ + `","actor":"` + uidA + `","target":"` + uidB + `"}`)); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			want := [][]models.UserID{{models.MustUserID(uidA), models.MustUserID(uidB)}}
			if !reflect.DeepEqual(feeds.invalidated, want) {
				t.Errorf("invalidated = %v, want %v", feeds.invalidated, want)
			}
			if len(feeds.batches) != 0 {
				t.Errorf("block should not use feed-only invalidation")
			}
		})
	}
}

func TestHandle_PostFanout(t *testing.T) {
	tests := []struct {
		name      string
		followers int
		cfg       HandlerConfig
		wantSizes []int
		wantPages [][2]int
		wantTotal int
	}{
		{
			name:      "batches of 500",
			followers: 1200,
			cfg:       DefaultHandlerConfig(),
			wantSizes: []int{500, 500, 201},
			wantPages: [][2]int{{1000, 0}, {1000, 1000}},
			wantTotal: 1201,
		},
		{
			name:      "capped",
			followers: 120,
			cfg:       HandlerConfig{FanoutCap: 50, BatchSize: 500, FollowerPage: 20},
			wantSizes: []int{51},
			wantPages: [][2]int{{20, 0}, {20, 20}, {10, 40}},
			wantTotal: 51,
		},
		{
			name:      "no followers",
			followers: 0,
			cfg:       DefaultHandlerConfig(),
			wantSizes: []int{1},
			wantPages: [][2]int{{1000, 0}},
			wantTotal: 1,
		},
		{
			name:      "cap zero invalidates author only",
			followers: 10,
			cfg:       HandlerConfig{FanoutCap: 0, BatchSize: 500, FollowerPage: 100},
			wantSizes: []int{1},
			wantPages: nil,
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feeds := &fakeFeeds{}
			followers := &fakeFollowers{count: tt.followers}
			h := newHandler(t, HandlerDeps{Feeds: feeds, Followers: followers}, tt.cfg)

			err := h.Handle(msg(`{"type":"post_created","actor":"` + uidA + `","target":"p1"}`))
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := feeds.batchSizes(); !reflect.DeepEqual(got, tt.wantSizes) {
				t.Errorf("batch sizes = %v, want %v", got, tt.wantSizes)
			}
			if !reflect.DeepEqual(followers.pages, tt.wantPages) {
				t.Errorf("follower pages = %v, want %v", followers.pages, tt.wantPages)
			}
			all := feeds.allBatched()
			if len(all) != tt.wantTotal {
				t.Fatalf("invalidated %d users, want %d", len(all), tt.wantTotal)
			}
			if all[0] != models.MustUserID(uidA) {
				t.Errorf("first invalidated = %s, want author", all[0])
			}
		})
	}
}

func TestHandle_PostFanoutSkipsDuplicateFollowers(t *testing.T) {
	feeds := &fakeFeeds{}
	author := models.MustUserID(uidA)
	followers := &dupFollowers{ids: []models.UserID{userID(1), author, userID(1), userID(2)}}
	h := newHandler(t, HandlerDeps{Feeds: feeds, Followers: followers}, DefaultHandlerConfig())

	if err := h.Apply(context.Background(), &Event{Type: EventPostDeleted, Actor: author}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []models.UserID{author, userID(1), userID(2)}
	if got := feeds.allBatched(); !reflect.DeepEqual(got, want) {
		t.Errorf("invalidated = %v, want %v", got, want)
	}
}

type dupFollowers struct{ ids []models.UserID }

func (d *dupFollowers) GetFollowers(_ context.Context, _ models.UserID, _, offset int) ([]models.UserID, error) {
	if offset > 0 {
		return nil, nil
	}
	return d.ids, nil
}

func TestHandle_FollowerListFailure(t *testing.T) {
	feeds := &fakeFeeds{}
	followers := &fakeFollowers{count: 30, failAt: 10}
	h := newHandler(t, HandlerDeps{Feeds: feeds, Followers: followers},
		HandlerConfig{FanoutCap: 100, BatchSize: 500, FollowerPage: 10})

	err := h.Handle(msg(`{"type":"post_updated","actor":"` + uidA + `"}`))
	if !IsRetryableError(err) {
		t.Fatalf("Handle() error = %v, want RetryableError", err)
	}
	// Author and the first page are still invalidated before the retry.
	if got := len(feeds.allBatched()); got != 11 {
		t.Errorf("invalidated %d users, want 11", got)
	}
	if h.Stats().Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", h.Stats().Failed)
	}
}

func TestHandle_KVFailureIsRetryable(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		graph   *fakeGraph
		feeds   *fakeFeeds
	}{
		{"follow feeds", `{"type":"follow","actor":"` + uidA + `","target":"` + uidB + `"}`, &fakeGraph{}, &fakeFeeds{failFirst: 1}},
		{"follow graph", `{"type":"follow","actor":"` + uidA + `","target":"` + uidB + `"}`, &fakeGraph{err: errKVDown}, &fakeFeeds{}},
		{"block", `{"type":"block","actor":"` + uidA + `","target":"` + uidB + `"}`, &fakeGraph{}, &fakeFeeds{failFirst: 1}},
		{"post", `{"type":"post_created","actor":"` + uidA + `"}`, &fakeGraph{}, &fakeFeeds{failFirst: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, HandlerDeps{Feeds: tt.feeds, Graph: tt.graph}, DefaultHandlerConfig())
			err := h.Handle(msg(tt.payload))
			if !IsRetryableError(err) {
				t.Errorf("Handle() error = %v, want RetryableError", err)
			}
			if IsPermanentError(err) {
				t.Error("KV failure must not be permanent")
			}
		})
	}
}

func TestHandle_UnknownTypeAcked(t *testing.T) {
	feeds := &fakeFeeds{}
	h := newHandler(t, HandlerDeps{Feeds: feeds}, DefaultHandlerConfig())

	if err := h.Handle(msg(`{"type":"profile_updated","actor":"` + uidA + `"}`)); err != nil {
		t.Fatalf("Handle() error = %v, want nil", err)
	}
	stats := h.Stats()
	if stats.Unknown != 1 || stats.Processed != 1 {
		t.Errorf("Stats() = %+v, want one unknown processed", stats)
	}
	if len(feeds.batches)+len(feeds.invalidated) != 0 {
		t.Error("unknown event touched the cache")
	}
}

func TestHandle_MalformedIsPermanent(t *testing.T) {
	h := newHandler(t, HandlerDeps{Feeds: &fakeFeeds{}}, DefaultHandlerConfig())
	err := h.Handle(msg(`not json`))
	if !IsPermanentError(err) {
		t.Fatalf("Handle() error = %v, want PermanentError", err)
	}
	if h.Stats().Received != 1 || h.Stats().Failed != 1 {
		t.Errorf("Stats() = %+v", h.Stats())
	}
}

// Follow events against the real feed cache delete both users' feeds and leave
// unrelated users alone.
func TestHandle_FeedCacheIntegration(t *testing.T) {
	ctx := context.Background()
	client := kv.NewClient(kvtest.NewStore(t), kv.DefaultClientConfig(), &clock.FixedEntropy{})
	fc := feedcache.New(client, clock.NewMock(time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)))

	a, b, c := models.MustUserID(uidA), models.MustUserID(uidB), userID(3)
	posts := []models.PostID{models.MustPostID("00000000-0000-4000-8000-000000000001")}
	for _, u := range []models.UserID{a, b, c} {
		if err := fc.SetFeed(ctx, u, posts, "time"); err != nil {
			t.Fatalf("SetFeed: %v", err)
		}
	}

	h := newHandler(t, HandlerDeps{Feeds: fc}, DefaultHandlerConfig())
	if err := h.Handle(msg(`{"type":"follow","actor":"` + uidA + `","target":"` + uidB + `"}`)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	for _, tt := range []struct {
		user models.UserID
		want bool
	}{{a, false}, {b, false}, {c, true}} {
		_, ok, err := client.Get(ctx, keys.Feed(tt.user))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok != tt.want {
			t.Errorf("feed of %s present = %v, want %v", tt.user, ok, tt.want)
		}
	}
}
