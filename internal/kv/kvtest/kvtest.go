// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package kvtest provides KV fixtures for tests in other packages.
package kvtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/kv"
)

// ErrInjected is returned by a FaultyStore operation that was told to fail.
var ErrInjected = errors.New("kvtest: injected failure")

// NewStore opens an in-memory Badger store closed at test cleanup.
func NewStore(t testing.TB) *kv.BadgerStore {
	t.Helper()
	s, err := kv.OpenBadgerStore(kv.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewClient returns a Client over an in-memory store with zero jitter.
func NewClient(t testing.TB) *kv.Client {
	t.Helper()
	return kv.NewClient(NewStore(t), kv.DefaultClientConfig(), &clock.FixedEntropy{})
}

// FaultyStore wraps a Store and fails selected operations on demand.
type FaultyStore struct {
	kv.Store

	mu   sync.Mutex
	fail map[string]bool
}

// NewFaultyClient returns a Client over a FaultyStore so tests can break individual ops.
func NewFaultyClient(t testing.TB) (*kv.Client, *FaultyStore) {
	t.Helper()
	fs := &FaultyStore{Store: NewStore(t), fail: map[string]bool{}}
	return kv.NewClient(fs, kv.DefaultClientConfig(), &clock.FixedEntropy{}), fs
}

// Fail makes every listed op ("get", "set", "del", "sadd", "smismember", "zadd",
// "zrevrange", "zrevrangebyscore", "zremrangebyscore", "ping") return ErrInjected.
func (f *FaultyStore) Fail(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range ops {
		f.fail[op] = true
	}
}

// Heal clears every injected failure.
func (f *FaultyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]bool{}
}

func (f *FaultyStore) failing(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *FaultyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failing("get") {
		return nil, false, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *FaultyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failing("set") {
		return ErrInjected
	}
	return f.Store.Set(ctx, key, value, ttl)
}

func (f *FaultyStore) Del(ctx context.Context, keys ...string) error {
	if f.failing("del") {
		return ErrInjected
	}
	return f.Store.Del(ctx, keys...)
}

func (f *FaultyStore) SAdd(ctx context.Context, key string, members []string, ttl time.Duration) error {
	if f.failing("sadd") {
		return ErrInjected
	}
	return f.Store.SAdd(ctx, key, members, ttl)
}

func (f *FaultyStore) SMIsMember(ctx context.Context, key string, members []string) ([]bool, error) {
	if f.failing("smismember") {
		return nil, ErrInjected
	}
	return f.Store.SMIsMember(ctx, key, members)
}

func (f *FaultyStore) ZAdd(ctx context.Context, key string, members []kv.ScoredMember, ttl time.Duration) error {
	if f.failing("zadd") {
		return ErrInjected
	}
	return f.Store.ZAdd(ctx, key, members, ttl)
}

func (f *FaultyStore) ZRevRange(ctx context.Context, key string, limit int) ([]kv.ScoredMember, error) {
	if f.failing("zrevrange") {
		return nil, ErrInjected
	}
	return f.Store.ZRevRange(ctx, key, limit)
}

func (f *FaultyStore) ZRevRangeByScore(ctx context.Context, key string, min float64, limit int) ([]kv.ScoredMember, error) {
	if f.failing("zrevrangebyscore") {
		return nil, ErrInjected
	}
	return f.Store.ZRevRangeByScore(ctx, key, min, limit)
}

func (f *FaultyStore) ZRemRangeByScore(ctx context.Context, key string, max float64) (int64, error) {
	if f.failing("zremrangebyscore") {
		return 0, ErrInjected
	}
	return f.Store.ZRemRangeByScore(ctx, key, max)
}

func (f *FaultyStore) Ping(ctx context.Context) error {
	if f.failing("ping") {
		return ErrInjected
	}
	return f.Store.Ping(ctx)
}
