// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"context"
	"time"

	"github.com/tomtom215/feedcore/internal/assembler"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/models"
)

// FeedAssembler serves feed pages. *assembler.Assembler implements it.
type FeedAssembler interface {
	GetFeed(ctx context.Context, req assembler.Request) (*assembler.Result, error)
}

// FeedStore is the part of the feed cache the handlers write to.
// *feedcache.Cache implements it.
type FeedStore interface {
	MarkSeen(ctx context.Context, user models.UserID, postIDs []models.PostID) error
	InvalidateFeed(ctx context.Context, user models.UserID) error
}

// Pinger reports backend health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerDeps are the collaborators of a Handler.
type HandlerDeps struct {
	Assembler FeedAssembler
	Feeds     FeedStore
	// Ready maps a check name ("kv") to its probe.
	Ready map[string]Pinger
	Clock clock.Clock
}

// Handler holds the HTTP handlers.
type Handler struct {
	assembler FeedAssembler
	feeds     FeedStore
	ready     map[string]Pinger
	clock     clock.Clock
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{
		assembler: deps.Assembler,
		feeds:     deps.Feeds,
		ready:     deps.Ready,
		clock:     clk,
		startTime: clk.Now(),
	}
}
