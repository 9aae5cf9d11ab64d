// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/kv/kvtest"
	"github.com/tomtom215/feedcore/internal/models"
)

var epoch = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func user(i int) models.UserID {
	return models.MustUserID(fmt.Sprintf("00000000-0000-4000-9000-%012d", i))
}

func TestTracker_RecentlyActive(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(epoch)
	tr := NewTracker(kvtest.NewClient(t), clk)

	// user(1) is oldest, user(3) newest.
	for i := 1; i <= 3; i++ {
		if err := tr.Touch(ctx, user(i)); err != nil {
			t.Fatalf("Touch: %v", err)
		}
		clk.Advance(10 * time.Hour)
	}

	tests := []struct {
		name   string
		window time.Duration
		max    int
		want   []models.UserID
	}{
		{"all in window", 48 * time.Hour, 10, []models.UserID{user(3), user(2), user(1)}},
		{"capped", 48 * time.Hour, 2, []models.UserID{user(3), user(2)}},
		{"narrow window", 15 * time.Hour, 10, []models.UserID{user(3)}},
		{"zero max", 48 * time.Hour, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.RecentlyActive(ctx, tt.window, tt.max)
			if err != nil {
				t.Fatalf("RecentlyActive: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTracker_TouchRefreshes(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(epoch)
	tr := NewTracker(kvtest.NewClient(t), clk)

	_ = tr.Touch(ctx, user(1))
	_ = tr.Touch(ctx, user(2))
	clk.Advance(time.Hour)
	_ = tr.Touch(ctx, user(1))

	got, err := tr.RecentlyActive(ctx, 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("RecentlyActive: %v", err)
	}
	if len(got) != 2 || got[0] != user(1) {
		t.Errorf("got %v, want user(1) first and no duplicates", got)
	}
}

func TestTracker_Trim(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(epoch)
	tr := NewTracker(kvtest.NewClient(t), clk)

	_ = tr.Touch(ctx, user(1))
	clk.Advance(30 * time.Hour)
	_ = tr.Touch(ctx, user(2))

	removed, err := tr.Trim(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	got, _ := tr.RecentlyActive(ctx, 365*24*time.Hour, 10)
	if len(got) != 1 || got[0] != user(2) {
		t.Errorf("remaining = %v, want [user(2)]", got)
	}
}

func TestTracker_SkipsMalformedMembers(t *testing.T) {
	ctx := context.Background()
	client := kvtest.NewClient(t)
	clk := clock.NewMock(epoch)
	tr := NewTracker(client, clk)

	_ = tr.Touch(ctx, user(1))
	bad := kv.ScoredMember{Member: "garbage", Score: float64(epoch.Unix())}
	if err := client.ZAdd(ctx, keys.RecentActivity(), []kv.ScoredMember{bad}, time.Hour); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}

	got, err := tr.RecentlyActive(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("RecentlyActive: %v", err)
	}
	if len(got) != 1 || got[0] != user(1) {
		t.Errorf("got %v, want [user(1)]", got)
	}
}

func TestTracker_KVErrors(t *testing.T) {
	client, store := kvtest.NewFaultyClient(t)
	store.Fail("zadd", "zrevrangebyscore")
	tr := NewTracker(client, clock.NewMock(epoch))

	if err := tr.Touch(context.Background(), user(1)); !errors.Is(err, apperror.ErrCache) {
		t.Errorf("Touch error = %v, want cache kind", err)
	}
	if _, err := tr.RecentlyActive(context.Background(), time.Hour, 10); !errors.Is(err, apperror.ErrCache) {
		t.Errorf("RecentlyActive error = %v, want cache kind", err)
	}
}

func TestTracker_ConcurrentTouch(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(kvtest.NewClient(t), clock.NewMock(epoch))

	for i := 0; i < 300; i++ {
		if err := tr.Touch(ctx, user(i)); err != nil {
			t.Fatalf("Touch preload: %v", err)
		}
	}

	const requests = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := tr.Touch(ctx, user(1000+i)); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("%d/%d concurrent touches failed, first: %v", len(failures), requests, failures[0])
	}
	got, err := tr.RecentlyActive(ctx, time.Hour, 1000)
	if err != nil {
		t.Fatalf("RecentlyActive: %v", err)
	}
	if len(got) != 300+requests {
		t.Errorf("recorded users = %d, want %d", len(got), 300+requests)
	}
}
