// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package config loads and validates Railpath configuration.

# Configuration Sources

Configuration is layered with Koanf v2, later layers winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, then config.yaml, config.yml,
    /etc/railpath/config.yaml, /etc/railpath/config.yml
  - Environment variables, through an explicit name map

Environment variables not in the map are ignored.

# Sections

  - server: HTTP_HOST, HTTP_PORT, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, SHUTDOWN_TIMEOUT
  - logging: LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - feed: FEED_UPDATE_SOURCE, FEED_FULL_SOURCE, FEED_FETCH_TIMEOUT, RUN_TIMEOUT,
    FEED_MAX_LINE_BYTES, FEED_MAX_ERROR_SAMPLES, RUN_HISTORY_SIZE
  - stations: STATIONS_PATH, STATIONS_REFRESH_INTERVAL
  - dedup: DEDUP_BACKEND (memory, badger), DEDUP_PATH, DEDUP_RETENTION,
    DEDUP_SYNC_WRITES, DEDUP_GC_INTERVAL, DEDUP_GC_RATIO, DEDUP_CLEAR_BEFORE_FULL
  - publisher: PUBLISHER_SINK (log, memory, nats), PUBLISHER_SUBJECT,
    PUBLISH_RATE_LIMIT, PUBLISH_RATE_BURST
  - nats: NATS_URL, NATS_EMBEDDED, NATS_HOST, NATS_PORT, NATS_STORE_DIR,
    NATS_MAX_MEMORY, NATS_MAX_STORE, NATS_STREAM_NAME, NATS_STREAM_RETENTION,
    NATS_DUPLICATE_WINDOW, NATS_BREAKER_*
  - scheduler: SCHEDULE_UPDATE_INTERVAL, SCHEDULE_FULL_INTERVAL (0 disables)
  - security: CORS_ORIGINS (comma-separated), RATE_LIMIT_REQUESTS,
    RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Durations use Go syntax ("30s", "720h").

# Example

	server:
	  port: 8080
	feed:
	  update_source: https://feeds.example.com/schedule/update.ndjson.gz
	  full_source: /data/feeds/full.ndjson.gz
	stations:
	  path: /data/stations.yaml
	dedup:
	  backend: badger
	  path: /data/dedup
	  retention: 720h
	publisher:
	  sink: nats
	scheduler:
	  update_interval: 1h
*/
package config
