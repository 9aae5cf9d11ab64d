// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package kv

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/metrics"
)

// TTLPolicy holds the base expiry of each key family. Writers add jitter on top.
type TTLPolicy struct {
	Feed     time.Duration `koanf:"feed"`
	Snapshot time.Duration `koanf:"snapshot"`
	Seen     time.Duration `koanf:"seen"`
	Graph    time.Duration `koanf:"graph"`
	Activity time.Duration `koanf:"activity"`
	// Jitter is the maximum fraction added to a base TTL (0.1 = up to +10%).
	Jitter float64 `koanf:"jitter"`
}

// DefaultTTLPolicy returns the production expiry policy.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Feed:     5 * time.Minute,
		Snapshot: 7 * 24 * time.Hour,
		Seen:     7 * 24 * time.Hour,
		Graph:    30 * time.Minute,
		Activity: 7 * 24 * time.Hour,
		Jitter:   0.1,
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Timeout bounds every single call.
	Timeout time.Duration `koanf:"timeout"`
	TTL     TTLPolicy     `koanf:"ttl"`
}

// DefaultClientConfig returns a 200ms per-call timeout and the default TTL policy.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout: 200 * time.Millisecond,
		TTL:     DefaultTTLPolicy(),
	}
}

// Client is the instrumented KV handle shared by every component.
// Each method maps to exactly one Store call and therefore one round trip.
type Client struct {
	store      Store
	cfg        ClientConfig
	entropy    clock.Entropy
	roundTrips atomic.Int64
}

// NewClient wraps store. A nil entropy source disables jitter.
func NewClient(store Store, cfg ClientConfig, entropy clock.Entropy) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	return &Client{store: store, cfg: cfg, entropy: entropy}
}

// Policy returns the TTL policy.
func (c *Client) Policy() TTLPolicy { return c.cfg.TTL }

// Jitter returns base extended by a random fraction in [0, Jitter).
func (c *Client) Jitter(base time.Duration) time.Duration {
	if base <= 0 || c.entropy == nil || c.cfg.TTL.Jitter <= 0 {
		return base
	}
	return base + time.Duration(float64(base)*c.cfg.TTL.Jitter*c.entropy.Float64())
}

// RoundTrips returns the number of store calls issued so far.
func (c *Client) RoundTrips() int64 { return c.roundTrips.Load() }

func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.roundTrips.Add(1)
	start := time.Now()
	err := fn(ctx)
	metrics.RecordKVOp(op, time.Since(start), err)
	if err != nil {
		return apperror.Wrap(apperror.KindCache, "kv."+op, err)
	}
	return nil
}

// Get returns the value and whether the key was present.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		val []byte
		ok  bool
	)
	err := c.call(ctx, "get", func(ctx context.Context) error {
		var err error
		val, ok, err = c.store.Get(ctx, key)
		return err
	})
	return val, ok, err
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.call(ctx, "set", func(ctx context.Context) error {
		return c.store.Set(ctx, key, value, ttl)
	})
}

func (c *Client) Del(ctx context.Context, key string) error {
	return c.call(ctx, "del", func(ctx context.Context) error {
		return c.store.Del(ctx, key)
	})
}

// PipelineDel deletes all keys in one round trip. An empty list issues no call.
func (c *Client) PipelineDel(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.call(ctx, "pipeline_del", func(ctx context.Context) error {
		return c.store.Del(ctx, keys...)
	})
}

func (c *Client) SAdd(ctx context.Context, key string, members []string, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	return c.call(ctx, "sadd", func(ctx context.Context) error {
		return c.store.SAdd(ctx, key, members, ttl)
	})
}

func (c *Client) SMIsMember(ctx context.Context, key string, members []string) ([]bool, error) {
	if len(members) == 0 {
		return []bool{}, nil
	}
	var out []bool
	err := c.call(ctx, "smismember", func(ctx context.Context) error {
		var err error
		out, err = c.store.SMIsMember(ctx, key, members)
		return err
	})
	return out, err
}

func (c *Client) ZAdd(ctx context.Context, key string, members []ScoredMember, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	return c.call(ctx, "zadd", func(ctx context.Context) error {
		return c.store.ZAdd(ctx, key, members, ttl)
	})
}

func (c *Client) ZRevRange(ctx context.Context, key string, limit int) ([]ScoredMember, error) {
	var out []ScoredMember
	err := c.call(ctx, "zrevrange", func(ctx context.Context) error {
		var err error
		out, err = c.store.ZRevRange(ctx, key, limit)
		return err
	})
	return out, err
}

func (c *Client) ZRevRangeByScore(ctx context.Context, key string, min float64, limit int) ([]ScoredMember, error) {
	var out []ScoredMember
	err := c.call(ctx, "zrevrangebyscore", func(ctx context.Context) error {
		var err error
		out, err = c.store.ZRevRangeByScore(ctx, key, min, limit)
		return err
	})
	return out, err
}

func (c *Client) ZRemRangeByScore(ctx context.Context, key string, max float64) (int64, error) {
	var n int64
	err := c.call(ctx, "zremrangebyscore", func(ctx context.Context) error {
		var err error
		n, err = c.store.ZRemRangeByScore(ctx, key, max)
		return err
	})
	return n, err
}

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", c.store.Ping)
}

// Close closes the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
