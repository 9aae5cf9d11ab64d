// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package kv

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_GetSetDel(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get on empty store = ok:%v err:%v, want miss", ok, err)
	}
	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("Get = %q ok:%v err:%v, want v", val, ok, err)
	}
	if err := s.Del(ctx, "k", "missing"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("key still present after Del")
	}
}

func TestBadgerStore_DelRemovesCollections(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	if err := s.SAdd(ctx, "set", []string{"a", "b"}, 0); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := s.ZAdd(ctx, "zset", []ScoredMember{{Member: "x", Score: 1}}, 0); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
	// A key sharing a prefix must survive.
	if err := s.SAdd(ctx, "settle", []string{"a"}, 0); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	if err := s.Del(ctx, "set", "zset"); err != nil {
		t.Fatalf("Del: %v", err)
	}

	got, _ := s.SMIsMember(ctx, "set", []string{"a", "b"})
	if got[0] || got[1] {
		t.Errorf("set members after Del = %v, want all false", got)
	}
	zs, _ := s.ZRevRange(ctx, "zset", 10)
	if len(zs) != 0 {
		t.Errorf("zset after Del = %v, want empty", zs)
	}
	other, _ := s.SMIsMember(ctx, "settle", []string{"a"})
	if !other[0] {
		t.Error("Del removed a key that only shares a prefix")
	}
}

func TestBadgerStore_Sets(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	if err := s.SAdd(ctx, "seen", []string{"p1", "p2"}, time.Hour); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := s.SAdd(ctx, "seen", []string{"p3"}, time.Hour); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	got, err := s.SMIsMember(ctx, "seen", []string{"p1", "p4", "p3"})
	if err != nil {
		t.Fatalf("SMIsMember: %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SMIsMember[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBadgerStore_SortedSets(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	members := []ScoredMember{
		{Member: "a", Score: 1},
		{Member: "b", Score: 3},
		{Member: "c", Score: 2},
		{Member: "d", Score: 5},
	}
	if err := s.ZAdd(ctx, "rank", members, 0); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}

	top, err := s.ZRevRange(ctx, "rank", 3)
	if err != nil {
		t.Fatalf("ZRevRange: %v", err)
	}
	wantOrder := []string{"d", "b", "c"}
	if len(top) != len(wantOrder) {
		t.Fatalf("ZRevRange len = %d, want %d", len(top), len(wantOrder))
	}
	for i, m := range wantOrder {
		if top[i].Member != m {
			t.Errorf("ZRevRange[%d] = %s, want %s", i, top[i].Member, m)
		}
	}

	above, err := s.ZRevRangeByScore(ctx, "rank", 2, 10)
	if err != nil {
		t.Fatalf("ZRevRangeByScore: %v", err)
	}
	if len(above) != 3 {
		t.Errorf("ZRevRangeByScore(min=2) len = %d, want 3", len(above))
	}

	// Upsert moves a member.
	if err := s.ZAdd(ctx, "rank", []ScoredMember{{Member: "a", Score: 10}}, time.Hour); err != nil {
		t.Fatalf("ZAdd upsert: %v", err)
	}
	top, _ = s.ZRevRange(ctx, "rank", 1)
	if len(top) != 1 || top[0].Member != "a" || top[0].Score != 10 {
		t.Errorf("after upsert top = %v, want a@10", top)
	}

	removed, err := s.ZRemRangeByScore(ctx, "rank", 3)
	if err != nil {
		t.Fatalf("ZRemRangeByScore: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1 (only c@2 is below 3)", removed)
	}

	if out, _ := s.ZRevRange(ctx, "rank", 0); len(out) != 0 {
		t.Errorf("ZRevRange(limit=0) = %v, want empty", out)
	}
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	s := newTestBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "k", []byte("v"), 0); err == nil {
		t.Error("Set with canceled context should fail")
	}
	if err := s.Ping(ctx); err == nil {
		t.Error("Ping with canceled context should fail")
	}
}

func TestBadgerStore_Serve(t *testing.T) {
	s := newTestBadger(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if s.String() == "" {
		t.Error("String() should name the service")
	}
}

func TestBadgerStore_ConcurrentCollectionWrites(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	preload := make([]ScoredMember, 0, 300)
	for i := 0; i < 300; i++ {
		preload = append(preload, ScoredMember{Member: fmt.Sprintf("old-%d", i), Score: 1})
	}
	if err := s.ZAdd(ctx, "activity", preload, time.Hour); err != nil {
		t.Fatalf("ZAdd preload: %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := ScoredMember{Member: fmt.Sprintf("new-%d", i), Score: float64(10 + i)}
			if err := s.ZAdd(ctx, "activity", []ScoredMember{m}, time.Hour); err != nil {
				errs <- fmt.Errorf("ZAdd %d: %w", i, err)
			}
			if err := s.SAdd(ctx, "seen", []string{fmt.Sprintf("p%d", i)}, time.Hour); err != nil {
				errs <- fmt.Errorf("SAdd %d: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	all, err := s.ZRevRange(ctx, "activity", 1000)
	if err != nil {
		t.Fatalf("ZRevRange: %v", err)
	}
	if len(all) != 300+writers {
		t.Errorf("activity members = %d, want %d", len(all), 300+writers)
	}

	probe := make([]string, writers)
	for i := range probe {
		probe[i] = fmt.Sprintf("p%d", i)
	}
	got, err := s.SMIsMember(ctx, "seen", probe)
	if err != nil {
		t.Fatalf("SMIsMember: %v", err)
	}
	for i, ok := range got {
		if !ok {
			t.Errorf("seen member %s missing", probe[i])
		}
	}
}

func TestBadgerStore_MemberTTLIsPerMember(t *testing.T) {
	s := newTestBadger(t)
	ctx := context.Background()

	if err := s.SAdd(ctx, "seen", []string{"old"}, time.Second); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := s.SAdd(ctx, "seen", []string{"new"}, time.Hour); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	// Badger TTLs have one-second granularity.
	time.Sleep(2100 * time.Millisecond)

	got, err := s.SMIsMember(ctx, "seen", []string{"old", "new"})
	if err != nil {
		t.Fatalf("SMIsMember: %v", err)
	}
	if got[0] || !got[1] {
		t.Errorf("SMIsMember(old, new) = %v, want [false true]", got)
	}
}
