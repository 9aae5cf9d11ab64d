// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func testServerConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()
	cfg.JetStreamMaxMem = 16 << 20
	cfg.JetStreamMaxStore = 64 << 20
	return &cfg
}

// testStreamConfig fits inside the JetStream store of testServerConfig.
func testStreamConfig() StreamConfig {
	cfg := DefaultStreamConfig()
	cfg.MaxBytes = 32 << 20
	return cfg
}

func startServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	if testing.Short() {
		t.Skip("embedded NATS server skipped in short mode")
	}
	srv, err := NewEmbeddedServer(testServerConfig(t), 10*time.Second)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEmbeddedServer_StartAndEnsureStream(t *testing.T) {
	srv := startServer(t)

	if !srv.IsRunning() || !srv.JetStreamEnabled() {
		t.Fatal("server should be running with JetStream")
	}
	if srv.ClientURL() == "" {
		t.Fatal("ClientURL is empty")
	}

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New: %v", err)
	}

	cfg := testStreamConfig()
	streams, err := NewStreamInitializer(js, &cfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := streams.EnsureStream(ctx); err != nil {
		t.Fatalf("EnsureStream (create): %v", err)
	}
	if _, err := streams.EnsureStream(ctx); err != nil {
		t.Fatalf("EnsureStream (update): %v", err)
	}
	if !streams.IsHealthy(ctx) {
		t.Error("stream should be healthy")
	}
}

func TestEmbeddedServer_Shutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server skipped in short mode")
	}
	srv, err := NewEmbeddedServer(testServerConfig(t), 10*time.Second)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still running after Shutdown")
	}
}

func TestListener_OverEmbeddedNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server skipped in short mode")
	}
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Embedded = true
	cfg.Server = *testServerConfig(t)
	cfg.Stream = testStreamConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.Router = testRouterConfig()
	cfg.Subscriber.CloseTimeout = 2 * time.Second

	feeds := &fakeFeeds{}
	h := newHandler(t, HandlerDeps{Feeds: feeds}, DefaultHandlerConfig())
	l, err := NewListener(cfg, h, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Close(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	eventually(t, "listener running", l.IsRunning)

	pub, err := NewPublisher(l.URL(), nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	// The durable consumer delivers new messages only, so publish until one lands.
	payload := `{"id":"nats-1","type":"block","actor":"` + uidA + `","target":"` + uidB + `"}`
	eventually(t, "block event processed", func() bool {
		if h.Stats().Processed > 0 {
			return true
		}
		_ = pub.Publish(TopicBlocks, message.NewMessage(watermill.NewUUID(), []byte(payload)))
		time.Sleep(100 * time.Millisecond)
		return h.Stats().Processed > 0
	})

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("listener did not stop")
	}
	if l.IsRunning() {
		t.Error("IsRunning should be false after Run returns")
	}
}
