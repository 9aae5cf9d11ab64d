// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package cache provides the bounded in-process LRU used for event deduplication.

The invalidation listener receives events with at-least-once delivery. Each event
id is recorded in an LRU with a TTL; a redelivered id inside the TTL is reported
as a duplicate and skipped. Capacity bounds memory regardless of event rate.

	seen := cache.NewLRU(10000, 10*time.Minute, clock.Real{})
	if seen.SeenBefore(evt.ID) {
	    return nil // already handled
	}

Expiry is lazy: entries are checked on access and can be swept with
CleanupExpired. All methods are safe for concurrent use.
*/
package cache
