// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

// FeedInvalidator deletes cached feed state. Implemented by feedcache.Cache.
type FeedInvalidator interface {
	BatchInvalidateFeeds(ctx context.Context, users []models.UserID) error
	InvalidateUsers(ctx context.Context, users ...models.UserID) error
}

// RelationshipInvalidator drops cached graph entries for an edge.
// Implemented by downstream.CachedGraph.
type RelationshipInvalidator interface {
	InvalidateRelationship(ctx context.Context, actor, target models.UserID) error
}

// FollowerLister pages through a user's followers.
type FollowerLister interface {
	GetFollowers(ctx context.Context, user models.UserID, limit, offset int) ([]models.UserID, error)
}

// HandlerDeps are the collaborators of InvalidationHandler. Graph and Followers
// are optional: without Graph no graph cache is dropped, without Followers post
// events invalidate the author only.
type HandlerDeps struct {
	Feeds     FeedInvalidator
	Graph     RelationshipInvalidator
	Followers FollowerLister
}

// InvalidationHandler turns change events into feed cache invalidations.
type InvalidationHandler struct {
	deps HandlerDeps
	cfg  HandlerConfig

	received  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	unknown   atomic.Int64
}

// NewInvalidationHandler creates a handler. Non-positive config values take defaults.
func NewInvalidationHandler(deps HandlerDeps, cfg HandlerConfig) (*InvalidationHandler, error) {
	if deps.Feeds == nil {
		return nil, ErrNilFeedCache
	}
	def := DefaultHandlerConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FollowerPage <= 0 {
		cfg.FollowerPage = def.FollowerPage
	}
	if cfg.FanoutCap < 0 {
		cfg.FanoutCap = def.FanoutCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &InvalidationHandler{deps: deps, cfg: cfg}, nil
}

// Handle processes one message. It is registered with Router.AddConsumerHandler.
//
// Error handling:
//   - malformed payloads are permanent (poison topic, ack)
//   - KV and graph failures are retryable (retry, then nack)
//   - unknown event types return nil (ack)
func (h *InvalidationHandler) Handle(msg *message.Message) error {
	start := time.Now()
	h.received.Add(1)

	evt, err := ParseEvent(msg.Payload)
	if err != nil {
		h.failed.Add(1)
		metrics.EventsParseFailed.Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping unparseable event")
		return err
	}

	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	corrID := evt.ID
	if corrID == "" {
		corrID = msg.UUID
	}
	ctx = logging.ContextWithCorrelationID(ctx, corrID)
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	err = h.Apply(ctx, evt)
	metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.failed.Add(1)
		logging.Ctx(ctx).Warn().Err(err).
			Str("type", string(evt.Type)).
			Str("actor", evt.Actor.String()).
			Msg("Event invalidation failed")
		return err
	}
	h.processed.Add(1)
	return nil
}

// Apply performs the invalidations for evt.
func (h *InvalidationHandler) Apply(ctx context.Context, evt *Event) error {
	var err error
	switch {
	case evt.Type.IsRelationship():
		err = h.relationship(ctx, evt)
	case evt.Type.IsPost():
		err = h.post(ctx, evt.Actor)
	case evt.Type.IsBlock():
		err = h.block(ctx, evt)
	default:
		h.unknown.Add(1)
		metrics.EventsConsumed.WithLabelValues("unknown").Inc()
		logging.Ctx(ctx).Debug().Str("type", string(evt.Type)).Msg("Ignoring unknown event type")
		return nil
	}
	if err != nil {
		return err
	}
	metrics.EventsConsumed.WithLabelValues(string(evt.Type)).Inc()
	return nil
}

func (h *InvalidationHandler) relationship(ctx context.Context, evt *Event) error {
	target, err := evt.TargetUser()
	if err != nil {
		return NewPermanentError("event target is not a user id", err)
	}
	if err := h.deps.Feeds.BatchInvalidateFeeds(ctx, []models.UserID{evt.Actor, target}); err != nil {
		return NewRetryableError("invalidate relationship feeds", err)
	}
	if h.deps.Graph != nil {
		if err := h.deps.Graph.InvalidateRelationship(ctx, evt.Actor, target); err != nil {
			return NewRetryableError("invalidate relationship cache", err)
		}
	}
	return nil
}

func (h *InvalidationHandler) block(ctx context.Context, evt *Event) error {
	target, err := evt.TargetUser()
	if err != nil {
		return NewPermanentError("event target is not a user id", err)
	}
	if err := h.deps.Feeds.InvalidateUsers(ctx, evt.Actor, target); err != nil {
		return NewRetryableError("invalidate blocked users", err)
	}
	return nil
}

// post invalidates the author and up to FanoutCap followers. Feeds collected
// before a follower page fails are still invalidated; the error then triggers a
// redelivery that repeats the whole fan-out.
func (h *InvalidationHandler) post(ctx context.Context, author models.UserID) error {
	users, listErr := h.fanout(ctx, author)
	metrics.FanoutKeys.Observe(float64(len(users)))

	for start := 0; start < len(users); start += h.cfg.BatchSize {
		end := min(start+h.cfg.BatchSize, len(users))
		if err := h.deps.Feeds.BatchInvalidateFeeds(ctx, users[start:end]); err != nil {
			return NewRetryableError("invalidate follower feeds", err)
		}
	}
	if listErr != nil {
		return NewRetryableError("list followers", listErr)
	}
	return nil
}

// fanout returns the author followed by at most FanoutCap distinct followers.
func (h *InvalidationHandler) fanout(ctx context.Context, author models.UserID) ([]models.UserID, error) {
	users := []models.UserID{author}
	if h.deps.Followers == nil || h.cfg.FanoutCap == 0 {
		return users, nil
	}

	seen := map[models.UserID]struct{}{author: {}}
	followers := 0
	for offset := 0; followers < h.cfg.FanoutCap; {
		page := min(h.cfg.FollowerPage, h.cfg.FanoutCap-followers)
		ids, err := h.deps.Followers.GetFollowers(ctx, author, page, offset)
		if err != nil {
			return users, err
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			users = append(users, id)
			followers++
			if followers == h.cfg.FanoutCap {
				break
			}
		}
		if len(ids) < page {
			break
		}
		offset += len(ids)
	}
	if followers == h.cfg.FanoutCap {
		logging.Ctx(ctx).Debug().Str("author", author.String()).Int("cap", h.cfg.FanoutCap).
			Msg("Follower fan-out capped")
	}
	return users, nil
}

// HandlerStats holds runtime counters.
type HandlerStats struct {
	Received  int64
	Processed int64
	Failed    int64
	Unknown   int64
}

// Stats returns current handler counters.
func (h *InvalidationHandler) Stats() HandlerStats {
	return HandlerStats{
		Received:  h.received.Load(),
		Processed: h.processed.Load(),
		Failed:    h.failed.Load(),
		Unknown:   h.unknown.Load(),
	}
}
