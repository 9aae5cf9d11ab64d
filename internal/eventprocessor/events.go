// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcore/internal/models"
)

// Event stream topics.
const (
	TopicRelationships = "relationships.events"
	TopicPosts         = "content.post.events"
	TopicBlocks        = "moderation.block.events"
)

// Topics lists every topic the listener subscribes to.
var Topics = []string{TopicRelationships, TopicPosts, TopicBlocks}

// EventType identifies what changed.
type EventType string

const (
	EventFollow      EventType = "follow"
	EventUnfollow    EventType = "unfollow"
	EventPostCreated EventType = "post_created"
	EventPostUpdated EventType = "post_updated"
	EventPostDeleted EventType = "post_deleted"
	EventBlock       EventType = "block"
	EventUnblock     EventType = "unblock"
)

// IsRelationship reports whether t changes a follow edge.
func (t EventType) IsRelationship() bool {
	return t == EventFollow || t == EventUnfollow
}

// IsPost reports whether t changes an author's posts.
func (t EventType) IsPost() bool {
	return t == EventPostCreated || t == EventPostUpdated || t == EventPostDeleted
}

// IsBlock reports whether t changes a block edge.
func (t EventType) IsBlock() bool {
	return t == EventBlock || t == EventUnblock
}

// Event is one change notification. For post events Actor is the author and
// Target the post id; otherwise both are user ids.
type Event struct {
	ID        string        `json:"id,omitempty"`
	Type      EventType     `json:"type"`
	Actor     models.UserID `json:"actor"`
	Target    string        `json:"target,omitempty"`
	Timestamp time.Time     `json:"ts"`
}

// TargetUser parses Target as a user id.
func (e *Event) TargetUser() (models.UserID, error) {
	return models.ParseUserID(e.Target)
}

// ParseEvent decodes payload. Any decode failure, and a known event type without
// the ids it needs, is permanent.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, NewPermanentError("malformed event", err)
	}
	if evt.Type == "" {
		return nil, NewPermanentError("event type missing", nil)
	}

	known := evt.Type.IsRelationship() || evt.Type.IsPost() || evt.Type.IsBlock()
	if !known {
		return &evt, nil
	}
	if evt.Actor.IsZero() {
		return nil, NewPermanentError("event actor missing", nil)
	}
	if evt.Type.IsRelationship() || evt.Type.IsBlock() {
		if _, err := evt.TargetUser(); err != nil {
			return nil, NewPermanentError("event target is not a user id", err)
		}
	}
	return &evt, nil
}

// eventID extracts only the id field of payload. It returns "" when the payload
// does not decode or carries no id.
func eventID(payload []byte) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return ""
	}
	return head.ID
}
