// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import "time"

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds dedup store configuration. It is filled from the
// `dedup` section of the application config.
type Config struct {
	// Backend selects the implementation: "memory" or "badger".
	Backend string

	// Path is the BadgerDB directory. Required for the badger backend.
	Path string

	// Retention is how long a recorded key suppresses republication.
	Retention time.Duration

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// GCInterval is the time between garbage collection runs.
	GCInterval time.Duration

	// GCRatio is the ratio for value log garbage collection.
	// Lower values reclaim more space but use more CPU.
	GCRatio float64

	// ClearBeforeFull clears the store before each full-feed run.
	ClearBeforeFull bool

	// BadgerDB tuning options
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
	Compression      bool

	// CloseTimeout bounds how long Close waits for BadgerDB.
	CloseTimeout time.Duration
}

// DefaultConfig returns the defaults: an in-memory store with 30 days of retention.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendMemory,
		Path:             "/data/dedup",
		Retention:        30 * 24 * time.Hour,
		SyncWrites:       true,
		GCInterval:       1 * time.Hour,
		GCRatio:          0.5,
		ClearBeforeFull:  false,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
		CloseTimeout:     30 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigError{Field: "Config", Message: "required"}
	}
	switch c.Backend {
	case BackendMemory, BackendBadger:
	default:
		return &ConfigError{Field: "Backend", Message: "must be memory or badger, got " + c.Backend}
	}

	if c.Retention < time.Minute {
		return &ConfigError{Field: "Retention", Message: "must be at least 1 minute"}
	}

	if c.GCInterval < time.Second {
		return &ConfigError{Field: "GCInterval", Message: "must be at least 1 second"}
	}

	if c.Backend != BackendBadger {
		return nil
	}

	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "dedup path is required for the badger backend"}
	}

	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return &ConfigError{Field: "GCRatio", Message: "must be between 0 and 1"}
	}

	if c.MemTableSize < 1024*1024 { // 1MB minimum
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}

	if c.ValueLogFileSize < 1024*1024 { // 1MB minimum
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}

	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2 (BadgerDB requirement)"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "dedup config error: " + e.Field + ": " + e.Message
}
