// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/railpath/config.yaml",
	"/etc/railpath/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // synchronous runs hold the response
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Feed: FeedConfig{
			FetchTimeout:    60 * time.Second,
			RunTimeout:      30 * time.Minute,
			MaxLineBytes:    4 * 1024 * 1024,
			MaxErrorSamples: 50,
			HistorySize:     50,
		},
		Stations: StationsConfig{
			Path:            "/data/stations.yaml",
			RefreshInterval: time.Hour,
		},
		Dedup: DedupConfig{
			Backend:         "memory",
			Path:            "/data/dedup",
			Retention:       30 * 24 * time.Hour,
			SyncWrites:      false,
			GCInterval:      time.Hour,
			GCRatio:         0.5,
			ClearBeforeFull: false,
		},
		Publisher: PublisherConfig{
			Sink:      "log",
			Subject:   "pathway.confirmed",
			RateLimit: 0,
			RateBurst: 100,
		},
		NATS: NATSConfig{
			URL:                     "nats://127.0.0.1:4222",
			EmbeddedServer:          true,
			Host:                    "127.0.0.1",
			Port:                    4222,
			StoreDir:                "/data/nats/jetstream",
			MaxMemory:               256 << 20, // 256MB
			MaxStore:                4 << 30,   // 4GB
			StreamName:              "PATHWAY_EVENTS",
			StreamRetention:         7 * 24 * time.Hour,
			DuplicateWindow:         2 * time.Minute,
			BreakerMaxRequests:      3,
			BreakerInterval:         30 * time.Second,
			BreakerTimeout:          10 * time.Second,
			BreakerFailureThreshold: 5,
		},
		Scheduler: SchedulerConfig{
			UpdateInterval: 0,
			FullInterval:   0,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Feed
	"feed_update_source":     "feed.update_source",
	"feed_full_source":       "feed.full_source",
	"feed_fetch_timeout":     "feed.fetch_timeout",
	"run_timeout":            "feed.run_timeout",
	"feed_max_line_bytes":    "feed.max_line_bytes",
	"feed_max_error_samples": "feed.max_error_samples",
	"run_history_size":       "feed.history_size",

	// Stations
	"stations_path":             "stations.path",
	"stations_refresh_interval": "stations.refresh_interval",

	// Dedup
	"dedup_backend":           "dedup.backend",
	"dedup_path":              "dedup.path",
	"dedup_retention":         "dedup.retention",
	"dedup_sync_writes":       "dedup.sync_writes",
	"dedup_gc_interval":       "dedup.gc_interval",
	"dedup_gc_ratio":          "dedup.gc_ratio",
	"dedup_clear_before_full": "dedup.clear_before_full",

	// Publisher
	"publisher_sink":     "publisher.sink",
	"publisher_subject":  "publisher.subject",
	"publish_rate_limit": "publisher.rate_limit",
	"publish_rate_burst": "publisher.rate_burst",

	// NATS
	"nats_url":                       "nats.url",
	"nats_embedded":                  "nats.embedded_server",
	"nats_host":                      "nats.host",
	"nats_port":                      "nats.port",
	"nats_store_dir":                 "nats.store_dir",
	"nats_max_memory":                "nats.max_memory",
	"nats_max_store":                 "nats.max_store",
	"nats_stream_name":               "nats.stream_name",
	"nats_stream_retention":          "nats.stream_retention",
	"nats_duplicate_window":          "nats.duplicate_window",
	"nats_breaker_max_requests":      "nats.breaker_max_requests",
	"nats_breaker_interval":          "nats.breaker_interval",
	"nats_breaker_timeout":           "nats.breaker_timeout",
	"nats_breaker_failure_threshold": "nats.breaker_failure_threshold",

	// Scheduler
	"schedule_update_interval": "scheduler.update_interval",
	"schedule_full_interval":   "scheduler.full_interval",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DEDUP_BACKEND -> dedup.backend
//   - FEED_UPDATE_SOURCE -> feed.update_source
//
// Unmapped variables return "" and are skipped, so unrelated environment
// variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
