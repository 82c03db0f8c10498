// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Feed      FeedConfig      `koanf:"feed"`
	Stations  StationsConfig  `koanf:"stations"`
	Dedup     DedupConfig     `koanf:"dedup"`
	Publisher PublisherConfig `koanf:"publisher"`
	NATS      NATSConfig      `koanf:"nats"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a response. Synchronous run requests hold
	// the response until the run ends, so this should exceed feed.run_timeout.
	// Zero disables it.
	// Default: 0
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout is how long in-flight requests get on shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// FeedConfig holds where the feeds come from and per-run limits.
type FeedConfig struct {
	// UpdateSource and FullSource are a path, file:// URL or http(s):// URL.
	UpdateSource string `koanf:"update_source"`
	FullSource   string `koanf:"full_source"`

	// FetchTimeout bounds connecting to an HTTP source and receiving headers.
	// Default: 60s
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// RunTimeout bounds a single run. A run that hits it ends partial.
	// Zero means no limit.
	// Default: 30m
	RunTimeout time.Duration `koanf:"run_timeout"`

	// MaxLineBytes is the longest feed line decoded.
	// Default: 4MiB
	MaxLineBytes int `koanf:"max_line_bytes"`

	// MaxErrorSamples is how many error messages a run result keeps.
	// Default: 50
	MaxErrorSamples int `koanf:"max_error_samples"`

	// HistorySize is how many run results the API can return.
	// Default: 50
	HistorySize int `koanf:"history_size"`
}

// StationsConfig holds the station reference file settings.
type StationsConfig struct {
	// Path is a YAML, JSON or CSV station file.
	Path string `koanf:"path"`

	// RefreshInterval reloads the file periodically. Zero disables it.
	// Default: 1h
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// DedupConfig holds the deduplication store settings.
type DedupConfig struct {
	// Backend is memory or badger.
	// Default: memory
	Backend string `koanf:"backend"`

	// Path is the Badger directory. Required for the badger backend.
	Path string `koanf:"path"`

	// Retention is how long a processed key is remembered.
	// Default: 720h (30 days)
	Retention time.Duration `koanf:"retention"`

	// SyncWrites fsyncs every Badger write.
	// Default: false
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is how often expired keys are purged.
	// Default: 1h
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCRatio is Badger's value log discard ratio.
	// Default: 0.5
	GCRatio float64 `koanf:"gc_ratio"`

	// ClearBeforeFull empties the store before every full refresh.
	// Default: false
	ClearBeforeFull bool `koanf:"clear_before_full"`
}

// PublisherConfig selects and tunes the event sink.
type PublisherConfig struct {
	// Sink is log, memory or nats.
	// Default: log
	Sink string `koanf:"sink"`

	// Subject is the NATS subject events are published on.
	// Default: pathway.confirmed
	Subject string `koanf:"subject"`

	// RateLimit caps events per second. Zero is unlimited.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the token bucket size when RateLimit is set.
	// Default: 100
	RateBurst int `koanf:"rate_burst"`
}

// NATSConfig holds NATS JetStream settings for the nats sink.
type NATSConfig struct {
	// URL is the NATS server connection URL. Ignored when EmbeddedServer is set.
	URL string `koanf:"url"`

	// EmbeddedServer runs a NATS server in-process.
	// Default: true
	EmbeddedServer bool `koanf:"embedded_server"`

	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamName is the JetStream stream holding pathway events.
	// Default: PATHWAY_EVENTS
	StreamName string `koanf:"stream_name"`

	// StreamRetention is how long events stay in the stream.
	// Default: 168h
	StreamRetention time.Duration `koanf:"stream_retention"`

	// DuplicateWindow is JetStream's message ID dedup window.
	// Default: 2m
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// Circuit breaker around publishing.
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// SchedulerConfig holds the periodic run intervals. Zero disables a schedule.
type SchedulerConfig struct {
	UpdateInterval time.Duration `koanf:"update_interval"`
	FullInterval   time.Duration `koanf:"full_interval"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	// CORSOrigins lists allowed origins. Env: comma-separated.
	// Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests are allowed per RateLimitWindow per client IP.
	// Default: 100 per 1m
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Load loads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
