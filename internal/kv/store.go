// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package kv is the remote key-value layer of feedcore.
//
// Store is the raw command surface (one method call is one network round trip).
// Two implementations exist:
//
//   - RedisStore: production backend over github.com/redis/go-redis/v9
//   - BadgerStore: embedded backend over github.com/dgraph-io/badger/v4 for single-node
//     deployments, local development and tests
//
// Client wraps a Store with the TTL policy, per-call timeouts, round-trip
// instrumentation and error classification that the rest of feedcore relies on.
package kv

import (
	"context"
	"time"
)

// ScoredMember is a ranked-set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the KV command surface. Implementations must be safe for concurrent use.
// A zero ttl means no expiry.
type Store interface {
	// Get returns the value and true, or nil and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes every key in one round trip. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	// SAdd adds members and (re)sets the TTL in one round trip. Redis expires
	// the set as a whole; Badger expires each member ttl after its last add.
	SAdd(ctx context.Context, key string, members []string, ttl time.Duration) error
	// SMIsMember reports membership for each member, in order.
	SMIsMember(ctx context.Context, key string, members []string) ([]bool, error)

	// ZAdd upserts scored members and (re)sets the TTL, with the same backend
	// difference as SAdd.
	ZAdd(ctx context.Context, key string, members []ScoredMember, ttl time.Duration) error
	// ZRevRange returns up to limit members ordered by descending score.
	ZRevRange(ctx context.Context, key string, limit int) ([]ScoredMember, error)
	// ZRevRangeByScore returns up to limit members with score >= min, descending.
	ZRevRangeByScore(ctx context.Context, key string, min float64, limit int) ([]ScoredMember, error)
	// ZRemRangeByScore removes members with score < max and returns how many were removed.
	ZRemRangeByScore(ctx context.Context, key string, max float64) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
