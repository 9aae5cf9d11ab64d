// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"
	"errors"
	"fmt"
)

// ListenerRunner matches *eventprocessor.Listener.
type ListenerRunner interface {
	Run(ctx context.Context) error
	IsRunning() bool
}

// errListenerStopped reports a Run that returned without error before shutdown.
var errListenerStopped = errors.New("invalidation listener stopped unexpectedly")

// EventListenerService supervises the invalidation listener. Every Serve call is
// a fresh connection, so a broker outage becomes a supervised restart.
//
//	l, _ := eventprocessor.NewListener(cfg.Events, handler, clock.Real{})
//	tree.AddMessagingService(services.NewEventListenerService(l))
type EventListenerService struct {
	listener ListenerRunner
	name     string
}

// NewEventListenerService wraps listener.
func NewEventListenerService(listener ListenerRunner) *EventListenerService {
	return &EventListenerService{
		listener: listener,
		name:     "invalidation-listener",
	}
}

// Serve implements suture.Service.
func (s *EventListenerService) Serve(ctx context.Context) error {
	err := s.listener.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		return errListenerStopped
	}
	return fmt.Errorf("invalidation listener failed: %w", err)
}

// IsRunning reports whether events are being processed.
func (s *EventListenerService) IsRunning() bool {
	return s.listener.IsRunning()
}

// String implements fmt.Stringer.
func (s *EventListenerService) String() string {
	return s.name
}
