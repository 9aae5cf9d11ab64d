// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package clock provides the time and entropy capabilities injected into feedcore
// components, so that freshness math, TTL jitter and generated ids are deterministic
// under test.
package clock

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Mock is a settable clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the frozen time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Entropy supplies randomness and unique ids.
type Entropy interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// NewID returns a unique identifier string.
	NewID() string
}

// RealEntropy uses math/rand/v2 and random UUIDs.
type RealEntropy struct{}

// Float64 returns a pseudo-random value in [0, 1).
func (RealEntropy) Float64() float64 { return rand.Float64() } //nolint:gosec // jitter, not security

// NewID returns a random UUID string.
func (RealEntropy) NewID() string { return uuid.NewString() }

// FixedEntropy always returns the same float and sequential ids. Used in tests.
type FixedEntropy struct {
	Value float64

	mu  sync.Mutex
	seq int
}

// Float64 returns Value.
func (f *FixedEntropy) Float64() float64 { return f.Value }

// NewID returns "id-1", "id-2", ...
func (f *FixedEntropy) NewID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return "id-" + strconv.Itoa(f.seq)
}
