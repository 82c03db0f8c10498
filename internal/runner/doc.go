// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package runner is the trigger layer in front of the pipeline. It
// validates a Request, assigns a run ID, resolves and opens the source,
// applies the run deadline and keeps a bounded history of results for the
// API. The scheduler, the HTTP API and the -once command all go through it.
// Runner.Shutdown interrupts every run in flight.
package runner
