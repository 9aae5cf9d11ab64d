// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package keys

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/models"
)

// ErrStaleSchema is returned by DecodeFeed for payloads written by an older schema.
// Callers treat it as a miss and evict the key.
var ErrStaleSchema = errors.New("stale schema version")

// EncodeFeed serializes a feed payload. The payload must already carry its schema version.
func EncodeFeed(feed *models.CachedFeed) ([]byte, error) {
	if feed == nil {
		return nil, apperror.New(apperror.KindCodec, "keys.encode_feed", "nil feed")
	}
	data, err := json.Marshal(feed)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindCodec, "keys.encode_feed", err)
	}
	return data, nil
}

// DecodeFeed parses a feed payload.
//
// It returns ErrStaleSchema when schema_version is older than CurrentSchemaVersion
// (a missing field decodes as version 0) and a KindCodec error when the bytes are not a
// feed payload or carry a version newer than this build understands. It never returns a
// partially decoded value.
func DecodeFeed(data []byte) (*models.CachedFeed, error) {
	var feed models.CachedFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, apperror.Wrap(apperror.KindCodec, "keys.decode_feed", err)
	}
	switch {
	case feed.SchemaVersion < CurrentSchemaVersion:
		return nil, fmt.Errorf("keys.decode_feed: version %d: %w", feed.SchemaVersion, ErrStaleSchema)
	case feed.SchemaVersion > CurrentSchemaVersion:
		return nil, apperror.New(apperror.KindCodec, "keys.decode_feed",
			fmt.Sprintf("unknown schema version %d", feed.SchemaVersion))
	}
	if feed.PostIDs == nil {
		feed.PostIDs = []models.PostID{}
	}
	return &feed, nil
}

// userList is the payload of the graph relationship caches.
type userList struct {
	UserIDs       []models.UserID `json:"user_ids"`
	SchemaVersion uint32          `json:"schema_version"`
}

// EncodeUserIDs serializes a relationship list under the current schema version.
func EncodeUserIDs(ids []models.UserID) ([]byte, error) {
	data, err := json.Marshal(userList{UserIDs: ids, SchemaVersion: CurrentSchemaVersion})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindCodec, "keys.encode_user_ids", err)
	}
	return data, nil
}

// DecodeUserIDs parses a relationship list with the same version gating as DecodeFeed.
func DecodeUserIDs(data []byte) ([]models.UserID, error) {
	var list userList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, apperror.Wrap(apperror.KindCodec, "keys.decode_user_ids", err)
	}
	if list.SchemaVersion < CurrentSchemaVersion {
		return nil, fmt.Errorf("keys.decode_user_ids: version %d: %w", list.SchemaVersion, ErrStaleSchema)
	}
	if list.SchemaVersion > CurrentSchemaVersion {
		return nil, apperror.New(apperror.KindCodec, "keys.decode_user_ids",
			fmt.Sprintf("unknown schema version %d", list.SchemaVersion))
	}
	if list.UserIDs == nil {
		list.UserIDs = []models.UserID{}
	}
	return list.UserIDs, nil
}
