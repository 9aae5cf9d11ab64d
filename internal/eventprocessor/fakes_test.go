// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedcore/internal/models"
)

var errKVDown = errors.New("kv down")

func userID(i int) models.UserID {
	return models.MustUserID(fmt.Sprintf("00000000-0000-4000-8000-%012d", i))
}

// fakeFeeds records invalidation calls. The first failFirst calls fail.
type fakeFeeds struct {
	mu          sync.Mutex
	batches     [][]models.UserID
	invalidated [][]models.UserID
	failFirst   int
	calls       int
}

func (f *fakeFeeds) fail() bool {
	f.calls++
	return f.calls <= f.failFirst
}

func (f *fakeFeeds) BatchInvalidateFeeds(_ context.Context, users []models.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errKVDown
	}
	f.batches = append(f.batches, append([]models.UserID(nil), users...))
	return nil
}

func (f *fakeFeeds) InvalidateUsers(_ context.Context, users ...models.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errKVDown
	}
	f.invalidated = append(f.invalidated, append([]models.UserID(nil), users...))
	return nil
}

func (f *fakeFeeds) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.batches))
	for i, b := range f.batches {
		out[i] = len(b)
	}
	return out
}

func (f *fakeFeeds) allBatched() []models.UserID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserID
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

type edge struct{ actor, target models.UserID }

type fakeGraph struct {
	mu    sync.Mutex
	edges []edge
	err   error
}

func (g *fakeGraph) InvalidateRelationship(_ context.Context, actor, target models.UserID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.edges = append(g.edges, edge{actor, target})
	return nil
}

// fakeFollowers serves count followers starting at userID(1000). Pages at or past
// failAt fail when failAt > 0.
type fakeFollowers struct {
	mu     sync.Mutex
	count  int
	failAt int
	pages  [][2]int // limit, offset
}

func (f *fakeFollowers) GetFollowers(_ context.Context, _ models.UserID, limit, offset int) ([]models.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, [2]int{limit, offset})
	if f.failAt > 0 && offset >= f.failAt {
		return nil, errors.New("graph unavailable")
	}
	var out []models.UserID
	for i := offset; i < f.count && len(out) < limit; i++ {
		out = append(out, userID(1000+i))
	}
	return out, nil
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
