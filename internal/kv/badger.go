// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/feedcore/internal/logging"
)

// BadgerConfig configures the embedded backend.
type BadgerConfig struct {
	Path        string        `koanf:"path"`
	InMemory    bool          `koanf:"in_memory"`
	SyncWrites  bool          `koanf:"sync_writes"`
	Compression bool          `koanf:"compression"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCRatio     float64       `koanf:"gc_ratio"`
}

// DefaultBadgerConfig returns defaults for a single-node deployment.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Path:        "/data/feedcore",
		Compression: true,
		GCInterval:  5 * time.Minute,
		GCRatio:     0.5,
	}
}

// Key prefixes. Collection members are stored one entry per member under
// {prefix}{key}\x00{member} so prefix iteration enumerates a single collection.
const (
	prefixString = "s/"
	prefixSet    = "m/"
	prefixZSet   = "z/"
	memberSep    = "\x00"
)

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	cfg BadgerConfig
}

// OpenBadgerStore opens (or creates) the database described by cfg.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger: path is required unless in_memory is set")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Badger KV store opened")
	return &BadgerStore{db: db, cfg: cfg}, nil
}

func stringKey(key string) []byte { return []byte(prefixString + key) }

func collectionPrefix(kind, key string) []byte { return []byte(kind + key + memberSep) }

func memberKey(kind, key, member string) []byte {
	return []byte(kind + key + memberSep + member)
}

func encodeScore(score float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(score))
	return buf
}

func decodeScore(buf []byte) (float64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("badger: corrupt score of %d bytes", len(buf))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
}

func newEntry(key, value []byte, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry(key, value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stringKey(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *BadgerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(stringKey(key), value, ttl))
	})
}

// Del collects every entry belonging to the keys and removes them in one write batch.
func (s *BadgerStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	var doomed [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			doomed = append(doomed, stringKey(key))
			for _, kind := range []string{prefixSet, prefixZSet} {
				p := collectionPrefix(kind, key)
				for it.Seek(p); it.ValidForPrefix(p); it.Next() {
					doomed = append(doomed, it.Item().KeyCopy(nil))
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("collect keys for delete: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range doomed {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
	}
	return wb.Flush()
}

// maxConflictRetries bounds update retries after badger.ErrConflict.
const maxConflictRetries = 5

// update runs fn in a read-write transaction, retrying when a concurrent
// commit touched a key fn read.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		if attempt > 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			time.Sleep(time.Duration(attempt) * time.Millisecond)
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// SAdd writes each member as its own entry. Unlike Redis, the TTL applies per
// member: a member expires ttl after it was last added. Writes are blind, so
// concurrent adds to one set never conflict and cost O(len(members)).
func (s *BadgerStore) SAdd(ctx context.Context, key string, members []string, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.SetEntry(newEntry(memberKey(prefixSet, key, m), nil, ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) SMIsMember(ctx context.Context, key string, members []string) ([]bool, error) {
	out := make([]bool, len(members))
	if len(members) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		for i, m := range members {
			_, err := txn.Get(memberKey(prefixSet, key, m))
			switch {
			case err == nil:
				out[i] = true
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ZAdd upserts members with the same per-member TTL semantics as SAdd.
func (s *BadgerStore) ZAdd(ctx context.Context, key string, members []ScoredMember, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.SetEntry(newEntry(memberKey(prefixZSet, key, m.Member), encodeScore(m.Score), ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) zMembers(txn *badger.Txn, key string) ([]ScoredMember, error) {
	opts := badger.DefaultIteratorOptions
	p := collectionPrefix(prefixZSet, key)
	opts.Prefix = p
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []ScoredMember
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		score, err := decodeScore(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredMember{Member: string(item.Key()[len(p):]), Score: score})
	}
	return out, nil
}

// sortDesc orders by score descending, ties broken by member descending (Redis ZREVRANGE order).
func sortDesc(ms []ScoredMember) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		return ms[i].Member > ms[j].Member
	})
}

func (s *BadgerStore) ZRevRange(ctx context.Context, key string, limit int) ([]ScoredMember, error) {
	return s.zRange(ctx, key, math.Inf(-1), limit)
}

func (s *BadgerStore) ZRevRangeByScore(ctx context.Context, key string, min float64, limit int) ([]ScoredMember, error) {
	return s.zRange(ctx, key, min, limit)
}

func (s *BadgerStore) zRange(ctx context.Context, key string, min float64, limit int) ([]ScoredMember, error) {
	if limit <= 0 {
		return []ScoredMember{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []ScoredMember
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = s.zMembers(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, 0, len(all))
	for _, m := range all {
		if m.Score >= min {
			out = append(out, m)
		}
	}
	sortDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *BadgerStore) ZRemRangeByScore(ctx context.Context, key string, max float64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var removed int64
	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = 0
		all, err := s.zMembers(txn, key)
		if err != nil {
			return err
		}
		for _, m := range all {
			if m.Score >= max {
				continue
			}
			if err := txn.Delete(memberKey(prefixZSet, key, m.Member)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Badger KV store closed")
	return nil
}

// RunGC reclaims value-log space until Badger reports nothing left to rewrite.
func (s *BadgerStore) RunGC() error {
	if s.cfg.InMemory {
		return nil
	}
	ratio := s.cfg.GCRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	for {
		err := s.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Serve runs periodic value-log GC until ctx is canceled. It implements suture.Service.
func (s *BadgerStore) Serve(ctx context.Context) error {
	interval := s.cfg.GCInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *BadgerStore) String() string {
	return "badger-kv-gc"
}
