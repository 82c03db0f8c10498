// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package dedup records which schedules have already been published so a
// later run can skip them.
//
// Keys are "<train uid>_<start date>". A key suppresses republication for
// the configured retention window (30 days by default). Two backends
// implement Manager:
//
//   - MemoryStore: a map guarded by a mutex; used in tests and for
//     single-process deployments that accept losing state on restart
//   - BadgerStore: BadgerDB with a per-key TTL; the production backend
//
// Clearing the store before a full refresh is the caller's decision
// (dedup.clear_before_full); the stream processor only calls Exists and
// Record.
//
// Compactor runs RunGC on an interval. It is wrapped as a supervised
// service in internal/supervisor/services.
package dedup
