// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package models defines the value types shared across feedcore.

  - UserID, PostID, AuthorID: 128-bit ids with canonical lowercase text form
  - Candidate, RecallSource, RecallStats: recall output, never persisted
  - CachedFeed: the feed payload stored in the KV, versioned by SchemaVersion
  - FeedPage: one page of a feed as returned by GET /feed
  - Post: the part of a content-service post the core reads
  - APIError, ErrorResponse, MarkSeenRequest, HealthResponse: HTTP shapes

All JSON encoding goes through goccy/go-json; the id types implement
encoding.TextMarshaler so they serialize as strings and work as map keys.
*/
package models
