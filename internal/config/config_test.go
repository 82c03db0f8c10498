// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
	if cfg.Feed.MaxLineBytes != 4*1024*1024 {
		t.Errorf("Feed.MaxLineBytes = %d, want 4MiB", cfg.Feed.MaxLineBytes)
	}
	if cfg.Dedup.GCRatio != 0.5 {
		t.Errorf("Dedup.GCRatio = %v, want 0.5", cfg.Dedup.GCRatio)
	}
	if cfg.NATS.StreamName != "PATHWAY_EVENTS" {
		t.Errorf("NATS.StreamName = %q, want PATHWAY_EVENTS", cfg.NATS.StreamName)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "HTTP_PORT"},
		{name: "zero shutdown", mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 }, wantErr: "SHUTDOWN_TIMEOUT"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "LOG_LEVEL"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "ftp source", mutate: func(c *Config) { c.Feed.UpdateSource = "ftp://x/y" }, wantErr: "FEED_UPDATE_SOURCE"},
		{name: "http source without host", mutate: func(c *Config) { c.Feed.FullSource = "https:///feed" }, wantErr: "FEED_FULL_SOURCE"},
		{name: "path source", mutate: func(c *Config) { c.Feed.FullSource = "/data/full.gz" }},
		{name: "file url source", mutate: func(c *Config) { c.Feed.UpdateSource = "file:///data/u.ndjson" }},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.Feed.FetchTimeout = 0 }, wantErr: "FEED_FETCH_TIMEOUT"},
		{name: "no run timeout", mutate: func(c *Config) { c.Feed.RunTimeout = 0 }},
		{name: "tiny line limit", mutate: func(c *Config) { c.Feed.MaxLineBytes = 10 }, wantErr: "FEED_MAX_LINE_BYTES"},
		{name: "zero samples", mutate: func(c *Config) { c.Feed.MaxErrorSamples = 0 }, wantErr: "FEED_MAX_ERROR_SAMPLES"},
		{name: "zero history", mutate: func(c *Config) { c.Feed.HistorySize = 0 }, wantErr: "RUN_HISTORY_SIZE"},
		{name: "no stations path", mutate: func(c *Config) { c.Stations.Path = " " }, wantErr: "STATIONS_PATH"},
		{name: "unknown backend", mutate: func(c *Config) { c.Dedup.Backend = "redis" }, wantErr: "DEDUP_BACKEND"},
		{name: "badger without path", mutate: func(c *Config) { c.Dedup.Backend = "badger"; c.Dedup.Path = "" }, wantErr: "DEDUP_PATH"},
		{name: "badger bad ratio", mutate: func(c *Config) { c.Dedup.Backend = "badger"; c.Dedup.GCRatio = 1 }, wantErr: "DEDUP_GC_RATIO"},
		{name: "memory ignores path", mutate: func(c *Config) { c.Dedup.Path = "" }},
		{name: "short retention", mutate: func(c *Config) { c.Dedup.Retention = time.Second }, wantErr: "DEDUP_RETENTION"},
		{name: "zero retention", mutate: func(c *Config) { c.Dedup.Retention = 0 }, wantErr: "DEDUP_RETENTION"},
		{name: "unknown sink", mutate: func(c *Config) { c.Publisher.Sink = "kafka" }, wantErr: "PUBLISHER_SINK"},
		{name: "negative rate", mutate: func(c *Config) { c.Publisher.RateLimit = -1 }, wantErr: "PUBLISH_RATE_LIMIT"},
		{name: "rate without burst", mutate: func(c *Config) { c.Publisher.RateLimit = 10; c.Publisher.RateBurst = 0 }, wantErr: "PUBLISH_RATE_BURST"},
		{name: "nats embedded", mutate: func(c *Config) { c.Publisher.Sink = "nats" }},
		{name: "nats external bad url", mutate: func(c *Config) {
			c.Publisher.Sink = "nats"
			c.NATS.EmbeddedServer = false
			c.NATS.URL = "http://nats:4222"
		}, wantErr: "NATS_URL"},
		{name: "nats subject outside stream", mutate: func(c *Config) {
			c.Publisher.Sink = "nats"
			c.Publisher.Subject = "events.pathway"
		}, wantErr: "PUBLISHER_SUBJECT"},
		{name: "nats window over retention", mutate: func(c *Config) {
			c.Publisher.Sink = "nats"
			c.NATS.StreamRetention = time.Minute
			c.NATS.DuplicateWindow = time.Hour
		}, wantErr: "NATS_DUPLICATE_WINDOW"},
		{name: "nats settings ignored for log sink", mutate: func(c *Config) { c.NATS.StreamName = "" }},
		{name: "schedule without source", mutate: func(c *Config) { c.Scheduler.UpdateInterval = time.Hour }, wantErr: "FEED_UPDATE_SOURCE"},
		{name: "full schedule with source", mutate: func(c *Config) {
			c.Scheduler.FullInterval = 24 * time.Hour
			c.Feed.FullSource = "/data/full.gz"
		}},
		{name: "rate limit zero", mutate: func(c *Config) { c.Security.RateLimitReqs = 0 }, wantErr: "RATE_LIMIT_REQUESTS"},
		{name: "rate limit disabled", mutate: func(c *Config) {
			c.Security.RateLimitReqs = 0
			c.Security.RateLimitDisabled = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	t.Parallel()

	valid := []string{"nats://localhost:4222", "tls://nats.example.com:4443", "ws://10.0.0.1:8080"}
	for _, u := range valid {
		if err := validateNATSURL(u); err != nil {
			t.Errorf("validateNATSURL(%q) = %v", u, err)
		}
	}
	invalid := []string{"", "http://localhost:4222", "nats://", "localhost:4222"}
	for _, u := range invalid {
		if err := validateNATSURL(u); err == nil {
			t.Errorf("validateNATSURL(%q) should fail", u)
		}
	}
}
