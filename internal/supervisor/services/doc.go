// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package services provides suture.Service wrappers for feedcore components.

Each wrapper translates a component lifecycle into suture's context-aware Serve:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Binds its own listener per Serve, so bind errors surface before serving
  - Addr reports the bound address (useful with ":0")
  - Shutdown drains in-flight requests on cancel; a close while running is a crash

Cache Warmer (CacheWarmerService):
  - Waits StartupDelay, then runs one warm cycle per WarmInterval
  - A failed cycle is logged and never ends the service

Invalidation Listener (EventListenerService):
  - Calls Listener.Run, which owns the broker connection and router
  - Run returning before shutdown is a crash, so suture reconnects with backoff

The embedded BadgerDB store implements suture.Service itself (value log GC) and
is added to the data layer directly.

# Error Handling

	nil         -> stopped cleanly
	error       -> crashed, suture restarts it with backoff
	ctx.Err()   -> shutdown requested

All services implement fmt.Stringer; suture uses the name in its log events.
*/
package services
