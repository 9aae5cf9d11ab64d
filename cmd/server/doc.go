// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package main is the entry point for the feedcore server.

Feedcore assembles personalized, cursor-paginated home feeds. It recalls
candidate posts from the social graph, trending and personalized rankings,
orders them by time or through an external ranking service, drops posts the
user has already seen and caches the result in a KV store.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("feedcore")
	├── DataSupervisor ("data-layer")
	│   ├── Badger value-log GC (kv.backend=badger)
	│   └── Cache warmer (warmer.enabled)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Invalidation listener (events.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog
 3. KV store: Redis (single node or cluster) or embedded Badger
 4. Downstream clients: graph (read-through cached), content, ranking
 5. Recall layer, activity tracker and feed assembler
 6. Cache warmer and invalidation listener
 7. Authentication and the chi router

# Configuration

Common environment variables:

	HTTP_PORT             listen port (default 8080)
	KV_BACKEND            redis or badger
	REDIS_ADDRS           comma-separated host:port list
	GRAPH_SERVICE_URL     social graph service
	CONTENT_SERVICE_URL   content service
	RANKING_SERVICE_URL   ranking service, empty disables algo=ch ranking
	AUTH_MODE             jwt or header
	JWT_SECRET            HS256 secret, 32+ characters
	NATS_ENABLED          run the invalidation listener
	LOG_LEVEL             trace, debug, info, warn, error

See internal/config for the full list.

# Example Usage

Local development with the embedded KV store and trusted user header:

	export KV_BACKEND=badger
	export BADGER_IN_MEMORY=true
	export AUTH_MODE=header
	./feedcore

Production:

	export REDIS_ADDRS=redis-0:6379,redis-1:6379,redis-2:6379
	export JWT_SECRET=$(openssl rand -base64 32)
	export NATS_ENABLED=true
	export NATS_URL=nats://nats:4222
	./feedcore

# Signal Handling

SIGINT and SIGTERM cancel the supervision tree. The HTTP server drains
in-flight requests, the listener disconnects, background cache writes finish
and the KV store is closed.
*/
package main
