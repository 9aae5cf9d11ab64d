// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/tomtom215/feedcore/internal/clock"
)

// Defaults applied by NewLRU to non-positive arguments.
const (
	DefaultCapacity = 10000
	DefaultTTL      = 5 * time.Minute
)

type lruEntry struct {
	key       string
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used key set with per-entry TTL.
// The front of the list is the most recently used key.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    clock.Clock
	order    *list.List
	items    map[string]*list.Element

	hits   int64
	misses int64
}

// NewLRU returns an LRU holding at most capacity keys for ttl each.
func NewLRU(capacity int, ttl time.Duration, clk clock.Clock) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// SeenBefore reports whether key was recorded within the TTL. A new or expired key
// is recorded and reported as unseen.
func (c *LRU) SeenBefore(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if el, ok := c.items[key]; ok {
		if now.Before(el.Value.(*lruEntry).expiresAt) {
			c.order.MoveToFront(el)
			c.hits++
			return true
		}
		c.remove(el)
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, expiresAt: now.Add(c.ttl)})
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
	c.misses++
	return false
}

// Forget removes key so its next SeenBefore reports it unseen. Used when handling
// a recorded event failed and the redelivery must be processed.
func (c *LRU) Forget(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
		return true
	}
	return false
}

// CleanupExpired drops every expired key and returns how many were removed.
func (c *LRU) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*lruEntry).expiresAt) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len returns the number of keys held, expired or not.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns duplicate hits, first sightings and the current size.
func (c *LRU) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}

// remove must be called with the lock held.
func (c *LRU) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*lruEntry).key)
}
