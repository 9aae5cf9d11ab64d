// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package downstream

import (
	"context"
	"sync"

	"github.com/tomtom215/feedcore/internal/metrics"
)

type tallyKey struct{}

// Tally counts the downstream calls a single request skipped after they failed.
type Tally struct {
	mu       sync.Mutex
	failures map[string]int
}

// WithTally attaches a fresh Tally to ctx.
func WithTally(ctx context.Context) (context.Context, *Tally) {
	t := &Tally{failures: make(map[string]int)}
	return context.WithValue(ctx, tallyKey{}, t), t
}

// TallyFrom returns the Tally attached to ctx, or nil.
func TallyFrom(ctx context.Context) *Tally {
	t, _ := ctx.Value(tallyKey{}).(*Tally)
	return t
}

// RecordFailure counts one skipped call against service, on the request's Tally
// when there is one and always in Prometheus.
func RecordFailure(ctx context.Context, service string) {
	metrics.DownstreamPartialFailures.WithLabelValues(service).Inc()
	if t := TallyFrom(ctx); t != nil {
		t.mu.Lock()
		t.failures[service]++
		t.mu.Unlock()
	}
}

// Total returns the number of recorded failures.
func (t *Tally) Total() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.failures {
		n += c
	}
	return n
}

// ByService returns a copy of the per-service counts.
func (t *Tally) ByService() map[string]int {
	out := make(map[string]int)
	if t == nil {
		return out
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range t.failures {
		out[k] = v
	}
	return out
}
