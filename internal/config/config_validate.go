// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateFeed,
		c.validateStations,
		c.validateDedup,
		c.validatePublisher,
		c.validateNATS,
		c.validateScheduler,
		c.validateSecurity,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("HTTP timeouts must not be negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if err := validateSource(c.Feed.UpdateSource, "FEED_UPDATE_SOURCE"); err != nil {
		return err
	}
	if err := validateSource(c.Feed.FullSource, "FEED_FULL_SOURCE"); err != nil {
		return err
	}
	if c.Feed.FetchTimeout <= 0 {
		return fmt.Errorf("FEED_FETCH_TIMEOUT must be positive, got %v", c.Feed.FetchTimeout)
	}
	if c.Feed.RunTimeout < 0 {
		return fmt.Errorf("RUN_TIMEOUT must not be negative, got %v", c.Feed.RunTimeout)
	}
	if c.Feed.MaxLineBytes < 1024 {
		return fmt.Errorf("FEED_MAX_LINE_BYTES must be at least 1024, got %d", c.Feed.MaxLineBytes)
	}
	if c.Feed.MaxErrorSamples < 1 {
		return fmt.Errorf("FEED_MAX_ERROR_SAMPLES must be at least 1, got %d", c.Feed.MaxErrorSamples)
	}
	if c.Feed.HistorySize < 1 {
		return fmt.Errorf("RUN_HISTORY_SIZE must be at least 1, got %d", c.Feed.HistorySize)
	}
	return nil
}

func (c *Config) validateStations() error {
	if strings.TrimSpace(c.Stations.Path) == "" {
		return fmt.Errorf("STATIONS_PATH is required")
	}
	if c.Stations.RefreshInterval < 0 {
		return fmt.Errorf("STATIONS_REFRESH_INTERVAL must not be negative, got %v", c.Stations.RefreshInterval)
	}
	return nil
}

func (c *Config) validateDedup() error {
	switch c.Dedup.Backend {
	case "memory":
	case "badger":
		if strings.TrimSpace(c.Dedup.Path) == "" {
			return fmt.Errorf("DEDUP_PATH is required when DEDUP_BACKEND=badger")
		}
		if c.Dedup.GCRatio <= 0 || c.Dedup.GCRatio >= 1 {
			return fmt.Errorf("DEDUP_GC_RATIO must be between 0 and 1 exclusive, got %v", c.Dedup.GCRatio)
		}
	default:
		return fmt.Errorf("DEDUP_BACKEND must be memory or badger, got %q", c.Dedup.Backend)
	}
	if c.Dedup.Retention < time.Minute {
		return fmt.Errorf("DEDUP_RETENTION must be at least 1m, got %v", c.Dedup.Retention)
	}
	if c.Dedup.GCInterval < time.Second {
		return fmt.Errorf("DEDUP_GC_INTERVAL must be at least 1s, got %v", c.Dedup.GCInterval)
	}
	return nil
}

func (c *Config) validatePublisher() error {
	switch c.Publisher.Sink {
	case "log", "memory", "nats":
	default:
		return fmt.Errorf("PUBLISHER_SINK must be log, memory or nats, got %q", c.Publisher.Sink)
	}
	if c.Publisher.RateLimit < 0 {
		return fmt.Errorf("PUBLISH_RATE_LIMIT must not be negative, got %v", c.Publisher.RateLimit)
	}
	if c.Publisher.RateLimit > 0 && c.Publisher.RateBurst < 1 {
		return fmt.Errorf("PUBLISH_RATE_BURST must be at least 1 when rate limiting, got %d", c.Publisher.RateBurst)
	}
	if c.Publisher.Sink == "nats" && strings.TrimSpace(c.Publisher.Subject) == "" {
		return fmt.Errorf("PUBLISHER_SUBJECT is required when PUBLISHER_SINK=nats")
	}
	return nil
}

// validateNATS only applies when events go to NATS.
func (c *Config) validateNATS() error {
	if c.Publisher.Sink != "nats" {
		return nil
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.Port < 0 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 0 and 65535, got %d", c.NATS.Port)
		}
		if strings.TrimSpace(c.NATS.StoreDir) == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
		}
	} else if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if strings.TrimSpace(c.NATS.StreamName) == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required")
	}
	if !strings.HasPrefix(c.Publisher.Subject, "pathway.") {
		return fmt.Errorf("PUBLISHER_SUBJECT must be under pathway.> to land in the stream, got %q", c.Publisher.Subject)
	}
	if c.NATS.DuplicateWindow <= 0 {
		return fmt.Errorf("NATS_DUPLICATE_WINDOW must be positive, got %v", c.NATS.DuplicateWindow)
	}
	if c.NATS.StreamRetention > 0 && c.NATS.DuplicateWindow > c.NATS.StreamRetention {
		return fmt.Errorf("NATS_DUPLICATE_WINDOW (%v) must not exceed NATS_STREAM_RETENTION (%v)", c.NATS.DuplicateWindow, c.NATS.StreamRetention)
	}
	if c.NATS.BreakerFailureThreshold < 1 {
		return fmt.Errorf("NATS_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.UpdateInterval < 0 || c.Scheduler.FullInterval < 0 {
		return fmt.Errorf("schedule intervals must not be negative")
	}
	if c.Scheduler.UpdateInterval > 0 && c.Feed.UpdateSource == "" {
		return fmt.Errorf("FEED_UPDATE_SOURCE is required when SCHEDULE_UPDATE_INTERVAL is set")
	}
	if c.Scheduler.FullInterval > 0 && c.Feed.FullSource == "" {
		return fmt.Errorf("FEED_FULL_SOURCE is required when SCHEDULE_FULL_INTERVAL is set")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}
