// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package eventprocessor consumes relationship, content and moderation events from
// NATS JetStream and invalidates the feed cache entries they affect.
//
// # Topics
//
//	relationships.events     follow, unfollow
//	content.post.events      post_created, post_updated, post_deleted
//	moderation.block.events  block, unblock
//
// Every message is a JSON object {id, type, actor, target, ts}; unknown fields are
// ignored. For post events actor is the author and target is the post.
//
// # Invalidation
//
//   - follow/unfollow: the feeds of both endpoints, plus the cached graph entries
//     for the pair.
//   - post events: the author's feed and the feeds of up to FanoutCap followers,
//     paged through the graph service and deleted in pipelined batches. Followers
//     past the cap are repaired lazily on their next cache miss.
//   - block/unblock: feed, snapshot and seen set of both endpoints.
//
// Unknown event types are acknowledged and counted.
//
// # Delivery
//
// Delivery is at-least-once and every invalidation is idempotent. The router stacks
// Watermill middleware, outermost first:
//
//	Recoverer     panics become errors
//	Retry         exponential backoff, skipped for permanent errors
//	Throttle      optional messages-per-second cap
//	Deduplicate   bounded LRU keyed by event id
//	PoisonQueue   permanent failures are published to the poison topic and acked
//
// A handler error that survives the retries nacks the message so JetStream
// redelivers it.
//
// # Embedded server
//
// For single-node deployments EmbeddedServer runs nats-server in process with
// JetStream enabled; StreamInitializer creates or updates the event stream before
// the router subscribes.
package eventprocessor
