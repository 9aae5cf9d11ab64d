// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

//go:build integration

// Package testinfra provides container-backed infrastructure for integration tests.
//
// It uses testcontainers-go to run a real Redis so the KV layer is exercised
// against the production backend rather than the embedded Badger store used by
// unit tests:
//
//	func TestSomething(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    redis, err := testinfra.NewRedisContainer(context.Background())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, redis)
//	    // kv.NewRedisStore(ctx, kv.RedisConfig{Addrs: []string{redis.Addr}})
//	}
//
// Every file carries the integration build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// Tests skip when Docker is unavailable. The first run pulls the Redis image.
package testinfra
