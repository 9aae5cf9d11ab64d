// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package models

import (
	"time"
)

// RecallSource names the strategy that produced a candidate.
type RecallSource int

const (
	SourceGraph RecallSource = iota
	SourceTrending
	SourcePersonalized
)

func (s RecallSource) String() string {
	switch s {
	case SourceGraph:
		return "graph"
	case SourceTrending:
		return "trending"
	case SourcePersonalized:
		return "personalized"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RecallSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Candidate is a post proposed by a recall strategy. Candidates live only for the
// duration of one feed request.
type Candidate struct {
	PostID    PostID       `json:"post_id"`
	AuthorID  AuthorID     `json:"author_id"`
	Source    RecallSource `json:"source"`
	Weight    float64      `json:"weight"`
	Timestamp time.Time    `json:"timestamp"`
}

// CandidatePostIDs extracts post ids in candidate order.
func CandidatePostIDs(cands []Candidate) []PostID {
	ids := make([]PostID, len(cands))
	for i := range cands {
		ids[i] = cands[i].PostID
	}
	return ids
}

// RecallStats counts candidates per strategy before dedup and in total after dedup.
type RecallStats struct {
	GraphCount        int `json:"graph_count"`
	TrendingCount     int `json:"trending_count"`
	PersonalizedCount int `json:"personalized_count"`
	TotalAfterDedup   int `json:"total_after_dedup"`

	// FailedStrategies is the number of strategies that returned an error or panicked.
	FailedStrategies int `json:"failed_strategies"`
}

// CachedFeed is the feed payload stored in the KV. It is replaced as a whole value.
type CachedFeed struct {
	PostIDs       []PostID  `json:"post_ids"`
	GeneratedAt   time.Time `json:"generated_at"`
	Algorithm     string    `json:"algorithm,omitempty"`
	SchemaVersion uint32    `json:"schema_version"`
}

// FeedPage is one page of an assembled feed as returned to clients.
type FeedPage struct {
	Posts      []PostID `json:"posts"`
	Cursor     *string  `json:"cursor"`
	HasMore    bool     `json:"has_more"`
	TotalCount int      `json:"total_count"`
}

// EmptyPage returns a page with no posts and no cursor.
func EmptyPage() *FeedPage {
	return &FeedPage{Posts: []PostID{}}
}

// Post is the subset of a content-service post the core needs.
type Post struct {
	ID        PostID    `json:"id"`
	AuthorID  AuthorID  `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status,omitempty"`
}

// WarmCandidateSet is the list of users harvested for one warmer cycle.
type WarmCandidateSet struct {
	Users       []UserID
	HarvestedAt time.Time
}
