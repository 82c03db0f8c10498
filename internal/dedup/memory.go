// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/railpath/internal/eventprocessor"
)

// MemoryStore keeps keys in a map. Entries older than the retention
// window read as absent and are dropped by RunGC.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	retention time.Duration
	now       func() time.Time
	closed    bool

	records, hits, misses int64
	lastGC                time.Time
}

// NewMemoryStore creates an empty store. A non-positive retention keeps keys forever.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]Entry),
		retention: retention,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for retention checks.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) expired(e Entry, now time.Time) bool {
	return s.retention > 0 && now.Sub(e.ProcessedAt) >= s.retention
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, key string) (found bool, err error) {
	defer func() { recordOperation(BackendMemory, "exists", err) }()

	_, ok, err := s.lookup(ctx, key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()
	return ok, nil
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, key string, processedAt time.Time, runID string) (err error) {
	defer func() { recordOperation(BackendMemory, "record", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.entries[key] = Entry{Key: key, ProcessedAt: processedAt.UTC(), RunID: runID}
	s.records++
	return nil
}

// Get implements Manager.
func (s *MemoryStore) Get(ctx context.Context, key string) (entry Entry, ok bool, err error) {
	defer func() { recordOperation(BackendMemory, "get", err) }()
	return s.lookup(ctx, key)
}

func (s *MemoryStore) lookup(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	if err := checkKey(key); err != nil {
		return Entry{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, false, ErrStoreClosed
	}
	e, found := s.entries[key]
	if !found || s.expired(e, s.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Clear implements Manager.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.entries = make(map[string]Entry)
	recordClear(BackendMemory)
	updateKeys(BackendMemory, 0)
	return nil
}

// RunGC drops expired entries.
func (s *MemoryStore) RunGC() error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	now := s.now()
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
		}
	}
	s.lastGC = now
	updateKeys(BackendMemory, int64(len(s.entries)))
	recordGC(BackendMemory, time.Since(start).Seconds())
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats implements Manager.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Backend: BackendMemory,
		Keys:    int64(len(s.entries)),
		Records: s.records,
		Hits:    s.hits,
		Misses:  s.misses,
		LastGC:  s.lastGC,
	}
}

// Close implements Manager.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HealthCheck implements eventprocessor.HealthCheckable.
func (s *MemoryStore) HealthCheck(_ context.Context) eventprocessor.ComponentHealth {
	stats := s.Stats()
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	details := map[string]interface{}{
		"backend": BackendMemory,
		"keys":    stats.Keys,
	}
	if closed {
		return eventprocessor.ComponentHealth{
			Name:      "dedup",
			Healthy:   false,
			Error:     ErrStoreClosed.Error(),
			Details:   details,
			LastCheck: time.Now(),
		}
	}
	return eventprocessor.ComponentHealth{
		Name:      "dedup",
		Healthy:   true,
		Message:   "in-memory dedup store is operational",
		Details:   details,
		LastCheck: time.Now(),
	}
}
