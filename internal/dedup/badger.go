// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
)

// keyPrefix namespaces dedup keys inside the database.
const keyPrefix = "dedup:"

// BadgerStore is the durable Store. Each key is written with a BadgerDB
// TTL equal to the retention window, so expiry needs no sweep; RunGC only
// reclaims value log space.
type BadgerStore struct {
	db     *badger.DB
	config Config

	// Statistics
	totalRecords atomic.Int64
	totalHits    atomic.Int64
	totalMisses  atomic.Int64

	mu     sync.RWMutex
	closed bool
	lastGC time.Time
}

// OpenBadger opens (or creates) the database at cfg.Path.
func OpenBadger(cfg *Config) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
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
		Bool("sync_writes", cfg.SyncWrites).
		Dur("retention", cfg.Retention).
		Msg("dedup store opened")

	return &BadgerStore{db: db, config: *cfg}, nil
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func dbKey(key string) []byte {
	return []byte(keyPrefix + key)
}

// Exists implements Store.
func (s *BadgerStore) Exists(ctx context.Context, key string) (found bool, err error) {
	defer func() { recordOperation(BackendBadger, "exists", err) }()

	if err := s.precheck(ctx, key); err != nil {
		return false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read dedup key %s: %w", key, err)
	}

	if found {
		s.totalHits.Add(1)
	} else {
		s.totalMisses.Add(1)
	}
	return found, nil
}

// Record implements Store. Re-recording a key refreshes its entry and TTL.
func (s *BadgerStore) Record(ctx context.Context, key string, processedAt time.Time, runID string) (err error) {
	defer func() { recordOperation(BackendBadger, "record", err) }()

	if err := s.precheck(ctx, key); err != nil {
		return err
	}

	data, err := json.Marshal(Entry{Key: key, ProcessedAt: processedAt.UTC(), RunID: runID})
	if err != nil {
		return fmt.Errorf("marshal dedup entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(dbKey(key), data).WithTTL(s.config.Retention)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write dedup key %s: %w", key, err)
	}

	s.totalRecords.Add(1)
	return nil
}

// Get implements Manager.
func (s *BadgerStore) Get(ctx context.Context, key string) (entry Entry, ok bool, err error) {
	defer func() { recordOperation(BackendBadger, "get", err) }()

	if err := s.precheck(ctx, key); err != nil {
		return Entry{}, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("read dedup key %s: %w", key, err)
	}
	return entry, ok, nil
}

func (s *BadgerStore) precheck(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	return s.checkOpen()
}

// Clear implements Manager by dropping every key under the dedup prefix.
func (s *BadgerStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("clear dedup store: %w", err)
	}
	recordClear(BackendBadger)
	updateKeys(BackendBadger, 0)
	logging.Info().Str("path", s.config.Path).Msg("dedup store cleared")
	return nil
}

// RunGC triggers BadgerDB value log garbage collection until nothing is left to rewrite.
func (s *BadgerStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		recordGC(BackendBadger, time.Since(start).Seconds())
	}()

	for {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}

	s.mu.Lock()
	s.lastGC = time.Now()
	s.mu.Unlock()
	return nil
}

// Stats implements Manager. It counts live keys, so it walks the key index.
func (s *BadgerStore) Stats() Stats {
	s.mu.RLock()
	closed := s.closed
	lastGC := s.lastGC
	s.mu.RUnlock()

	stats := Stats{
		Backend: BackendBadger,
		Records: s.totalRecords.Load(),
		Hits:    s.totalHits.Load(),
		Misses:  s.totalMisses.Load(),
		LastGC:  lastGC,
	}
	if closed {
		return stats
	}

	if err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats.Keys++
		}
		return nil
	}); err != nil {
		logging.Warn().Err(err).Msg("dedup stats failed to count keys")
	}

	lsm, vlog := s.db.Size()
	stats.SizeBytes = lsm + vlog

	updateKeys(BackendBadger, stats.Keys)
	updateDBSize(stats.SizeBytes)
	return stats
}

// Close shuts the database down, giving up after CloseTimeout.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("dedup store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}

// HealthCheck implements eventprocessor.HealthCheckable.
func (s *BadgerStore) HealthCheck(_ context.Context) eventprocessor.ComponentHealth {
	if err := s.checkOpen(); err != nil {
		return eventprocessor.ComponentHealth{
			Name:      "dedup",
			Healthy:   false,
			Error:     err.Error(),
			LastCheck: time.Now(),
		}
	}

	stats := s.Stats()
	return eventprocessor.ComponentHealth{
		Name:    "dedup",
		Healthy: true,
		Message: "badger dedup store is operational",
		Details: map[string]interface{}{
			"backend":    BackendBadger,
			"path":       s.config.Path,
			"keys":       stats.Keys,
			"size_bytes": stats.SizeBytes,
			"last_gc":    stats.LastGC,
		},
		LastCheck: time.Now(),
	}
}
