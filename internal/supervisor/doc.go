// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package supervisor provides process supervision for feedcore using suture v4.

Every long-running component runs as a suture.Service inside a three-layer tree:

	RootSupervisor ("feedcore")
	├── DataSupervisor ("data-layer")
	│   ├── BadgerStore value log GC (embedded KV backend only)
	│   └── CacheWarmerService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventListenerService (invalidation listener)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The embedded NATS server, when enabled, is started by eventprocessor.NewListener
and outlives listener restarts; it is shut down after the tree stops.

A service that returns an error or panics is restarted with suture's backoff.
The messaging layer waits TreeConfig.ListenerBackoff once its failure
threshold trips; the other layers use FailureBackoff.
Canceling the context passed to Serve shuts the tree down in order, bounded by
TreeConfig.ShutdownTimeout. Supervisor events are logged through sutureslog on
the slog bridge of the zerolog logger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewCacheWarmerService(w, cfg.Warmer, logger))
	tree.AddMessagingService(services.NewEventListenerService(listener))
	tree.AddAPIService(services.NewHTTPServerService(server, ":8080", 10*time.Second, logger))
	return tree.Serve(ctx)
*/
package supervisor
