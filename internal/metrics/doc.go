// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package init, and are exposed by the API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Pipeline Metrics:
  - railpath_runs_total: Finished runs (counter)
    Labels: feed_type, status
  - railpath_run_duration_seconds: Run duration (histogram)
    Labels: feed_type
  - railpath_lines_total: Feed lines read (counter)
    Labels: feed_type
  - railpath_schedules_filtered_total: Schedules dropped (counter)
    Labels: reason
  - railpath_events_published_total, railpath_publish_failures_total,
    railpath_duplicates_skipped_total, railpath_parse_errors_total (counters)
  - railpath_publish_duration_seconds: Per-event publish latency (histogram)
    Labels: sink
  - railpath_runs_in_flight (gauge)
  - railpath_station_table_entries (gauge)

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests

Circuit Breaker Metrics:
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

# Usage

Components call the Record helpers rather than touching collectors directly:

	metrics.RecordRun("update", "completed", elapsed)
	metrics.RecordFiltered("no_mapped_locations")

The helpers are safe for concurrent use.
*/
package metrics
