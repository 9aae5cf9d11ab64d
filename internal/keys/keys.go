// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package keys is the single place where KV keys are built and where cached feed
// payloads are encoded and decoded.
//
// Every key has the form v{N}:{entity}:{id}[:{sub}] where N is CurrentSchemaVersion.
// Bumping the version orphans every key written by older code; readers sweep the
// orphaned feed keys on their next miss.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/feedcore/internal/models"
)

// CurrentSchemaVersion is stamped into keys and payloads.
// Version 1 stored post ids without the algorithm label.
const CurrentSchemaVersion uint32 = 2

// Trending windows written by the ranking pipeline.
const (
	TrendingWindowHour = "1h"
	TrendingWindowDay  = "24h"
	TrendingWindowWeek = "7d"
)

// ValidTrendingWindow reports whether w names a known trending window.
func ValidTrendingWindow(w string) bool {
	switch w {
	case TrendingWindowHour, TrendingWindowDay, TrendingWindowWeek:
		return true
	}
	return false
}

func prefix(version uint32) string {
	return "v" + strconv.FormatUint(uint64(version), 10) + ":"
}

func build(version uint32, parts ...string) string {
	return prefix(version) + strings.Join(parts, ":")
}

// Feed is the main feed payload key: v{N}:feed:{user}.
func Feed(user models.UserID) string {
	return build(CurrentSchemaVersion, "feed", user.String())
}

// FeedAtVersion is the feed key as written by schema version v.
func FeedAtVersion(v uint32, user models.UserID) string {
	return build(v, "feed", user.String())
}

// LegacyFeedKeys lists the feed keys of every schema version older than the current one.
func LegacyFeedKeys(user models.UserID) []string {
	out := make([]string, 0, CurrentSchemaVersion-1)
	for v := uint32(1); v < CurrentSchemaVersion; v++ {
		out = append(out, FeedAtVersion(v, user))
	}
	return out
}

// FeedSnapshot is the long-TTL fallback key: v{N}:feed:snapshot:{user}.
func FeedSnapshot(user models.UserID) string {
	return build(CurrentSchemaVersion, "feed", "snapshot", user.String())
}

// FeedSeen is the seen-set key: v{N}:feed:seen:{user}.
func FeedSeen(user models.UserID) string {
	return build(CurrentSchemaVersion, "feed", "seen", user.String())
}

// GraphFollowing is the cached followee list: v{N}:graph:following:{user}.
func GraphFollowing(user models.UserID) string {
	return build(CurrentSchemaVersion, "graph", "following", user.String())
}

// GraphFollowers is the cached follower list: v{N}:graph:followers:{user}.
func GraphFollowers(user models.UserID) string {
	return build(CurrentSchemaVersion, "graph", "followers", user.String())
}

// GraphIsFollowing is the cached edge check: v{N}:graph:is_following:{a}:{b}.
func GraphIsFollowing(a, b models.UserID) string {
	return build(CurrentSchemaVersion, "graph", "is_following", a.String(), b.String())
}

// TrendingRank is the global ranked set for a window: v{N}:rank:trending:{window}.
func TrendingRank(window string) string {
	return build(CurrentSchemaVersion, "rank", "trending", window)
}

// PersonalizedRank is the per-user precomputed ranked set: v{N}:rank:personalized:{user}.
func PersonalizedRank(user models.UserID) string {
	return build(CurrentSchemaVersion, "rank", "personalized", user.String())
}

// RecentActivity is the ranked set of users scored by last activity time.
func RecentActivity() string {
	return build(CurrentSchemaVersion, "activity", "recent")
}

// RankMember encodes a ranked-set member as {post}@{unix_millis} so the creation
// time travels with the post id.
func RankMember(post models.PostID, createdAt time.Time) string {
	return post.String() + "@" + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

// ParseRankMember decodes a member written by RankMember. A bare post id is accepted
// with a zero timestamp.
func ParseRankMember(member string) (models.PostID, time.Time, error) {
	idPart, tsPart, hasTS := strings.Cut(member, "@")
	id, err := models.ParsePostID(idPart)
	if err != nil {
		return models.PostID{}, time.Time{}, err
	}
	if !hasTS {
		return id, time.Time{}, nil
	}
	ms, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return models.PostID{}, time.Time{}, fmt.Errorf("parse rank member timestamp %q: %w", tsPart, err)
	}
	return id, time.UnixMilli(ms).UTC(), nil
}
