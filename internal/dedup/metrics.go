// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for dedup store operations
var (
	// dedupOperationsTotal counts store calls by operation and outcome.
	dedupOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railpath_dedup_operations_total",
		Help: "Total number of dedup store operations",
	}, []string{"backend", "operation", "result"})

	// dedupKeys is the number of keys held after the last stats or GC pass.
	dedupKeys = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railpath_dedup_keys",
		Help: "Current number of keys in the dedup store",
	}, []string{"backend"})

	// dedupDBSizeBytes is the current BadgerDB database size.
	dedupDBSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "railpath_dedup_db_size_bytes",
		Help: "Dedup BadgerDB database size in bytes",
	})

	// dedupGCRunsTotal counts garbage collection runs.
	dedupGCRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railpath_dedup_gc_runs_total",
		Help: "Total number of dedup store garbage collection runs",
	}, []string{"backend"})

	// dedupGCLatency measures garbage collection duration.
	dedupGCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railpath_dedup_gc_duration_seconds",
		Help:    "Dedup store garbage collection duration in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60},
	}, []string{"backend"})

	// dedupClearsTotal counts full clears of the store.
	dedupClearsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railpath_dedup_clears_total",
		Help: "Total number of times the dedup store was cleared",
	}, []string{"backend"})
)

func recordOperation(backend, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	dedupOperationsTotal.WithLabelValues(backend, operation, result).Inc()
}

func recordGC(backend string, seconds float64) {
	dedupGCRunsTotal.WithLabelValues(backend).Inc()
	dedupGCLatency.WithLabelValues(backend).Observe(seconds)
}

func recordClear(backend string) {
	dedupClearsTotal.WithLabelValues(backend).Inc()
}

func updateKeys(backend string, n int64) {
	dedupKeys.WithLabelValues(backend).Set(float64(n))
}

func updateDBSize(bytes int64) {
	dedupDBSizeBytes.Set(float64(bytes))
}
