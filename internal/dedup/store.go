// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/railpath/internal/eventprocessor"
)

// Errors
var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("dedup store is closed")

	// ErrEmptyKey is returned when an empty dedup key is given.
	ErrEmptyKey = errors.New("dedup key cannot be empty")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown dedup backend")
)

// Store is the key-presence contract the stream processor consumes.
//
// Exists reports whether key was recorded inside the retention window.
// Record stores key with the time it was processed and the run that
// published it. Neither call serialises Exists+Record per key; two runs
// racing on one key may both publish it.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string, processedAt time.Time, runID string) error
}

// Entry is what Record stores for a key.
type Entry struct {
	Key         string    `json:"key"`
	ProcessedAt time.Time `json:"processedAt"`
	RunID       string    `json:"runId"`
}

// Stats describes the contents and activity of a store.
type Stats struct {
	Backend   string    `json:"backend"`
	Keys      int64     `json:"keys"`
	Records   int64     `json:"records"`
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	SizeBytes int64     `json:"sizeBytes,omitempty"`
	LastGC    time.Time `json:"lastGc,omitempty"`
}

// Manager is a Store with the operations used outside the processor:
// inspection from the API, clearing before a full refresh, garbage
// collection and shutdown.
type Manager interface {
	Store
	eventprocessor.HealthCheckable

	// Get returns the entry for key, or false if it is absent or expired.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Clear removes every key.
	Clear(ctx context.Context) error
	// RunGC drops expired keys and reclaims space.
	RunGC() error
	Stats() Stats
	Close() error
}

// Open creates the store selected by cfg.Backend.
func Open(cfg *Config) (Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(cfg.Retention), nil
	case BackendBadger:
		return OpenBadger(cfg)
	default:
		return nil, ErrUnknownBackend
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
