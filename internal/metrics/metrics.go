// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion pipeline.
// Dedup store metrics live with the store in internal/dedup.

var (
	// Pipeline Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railpath_runs_total",
			Help: "Total number of pipeline runs by feed type and final status",
		},
		[]string{"feed_type", "status"}, // status: completed, partial, failed
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railpath_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800}, // full extracts take minutes
		},
		[]string{"feed_type"},
	)

	LinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railpath_lines_total",
			Help: "Total number of feed lines read",
		},
		[]string{"feed_type"},
	)

	SchedulesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railpath_schedules_filtered_total",
			Help: "Total number of schedules filtered out, by reason",
		},
		[]string{"reason"},
	)

	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railpath_events_published_total",
			Help: "Total number of pathway confirmed events published",
		},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railpath_publish_failures_total",
			Help: "Total number of events that failed to publish",
		},
	)

	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railpath_duplicates_skipped_total",
			Help: "Total number of schedules skipped as already published",
		},
	)

	ParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railpath_parse_errors_total",
			Help: "Total number of feed lines that failed to decode",
		},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railpath_publish_duration_seconds",
			Help:    "Duration of a single event publish, by sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"}, // sink: log, memory, nats
	)

	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "railpath_runs_in_flight",
			Help: "Number of pipeline runs currently executing",
		},
	)

	StationTableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "railpath_station_table_entries",
			Help: "Number of TIPLOCs in the current station table",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordRun records the outcome of a finished pipeline run.
func RecordRun(feedType, status string, duration time.Duration) {
	RunsTotal.WithLabelValues(feedType, status).Inc()
	RunDuration.WithLabelValues(feedType).Observe(duration.Seconds())
}

// RecordLines adds n lines read for feedType.
func RecordLines(feedType string, n int) {
	if n > 0 {
		LinesTotal.WithLabelValues(feedType).Add(float64(n))
	}
}

// RecordFiltered records a schedule dropped by the filter or transformer.
func RecordFiltered(reason string) {
	SchedulesFiltered.WithLabelValues(reason).Inc()
}

// RecordEventPublished records a successful publish.
func RecordEventPublished() {
	EventsPublished.Inc()
}

// RecordPublishFailure records an event the sink rejected.
func RecordPublishFailure() {
	PublishFailures.Inc()
}

// RecordDuplicateSkipped records a schedule skipped by deduplication.
func RecordDuplicateSkipped() {
	DuplicatesSkipped.Inc()
}

// RecordParseError records a line that failed to decode.
func RecordParseError() {
	ParseErrors.Inc()
}

// ObservePublish records publish latency for a sink.
func ObservePublish(sink string, duration time.Duration) {
	PublishDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// TrackRunInFlight adjusts the in-flight run gauge.
func TrackRunInFlight(inc bool) {
	if inc {
		RunsInFlight.Inc()
	} else {
		RunsInFlight.Dec()
	}
}

// SetStationTableSize records the size of the newly loaded station table.
func SetStationTableSize(n int) {
	StationTableSize.Set(float64(n))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCircuitBreakerRequest records a call through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
// state follows gobreaker numbering: 0 closed, 1 half-open, 2 open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetAppInfo publishes the build version.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
