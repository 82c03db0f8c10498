// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package api provides the HTTP trigger API for Railpath.

Operators and schedulers use it to start feed runs and inspect their
results. Every response uses the same JSON envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "..."}}

Endpoints:

	POST /api/v1/runs            start a run; ?wait=false returns 202 with the run ID
	GET  /api/v1/runs            recent runs, newest first
	GET  /api/v1/runs/{id}       one run's Result
	GET  /api/v1/dedup/{key}     look up a dedup entry (<train uid>_<YYYY-MM-DD>)
	GET  /api/v1/health          component health; 503 when unhealthy
	GET  /api/v1/health/live     liveness only
	GET  /api/v1/health/{name}   one component (stations, dedup, publisher)
	GET  /metrics                Prometheus exposition

A synchronous run answers 200 with its Result whatever the run's status.
Callers inspect Result.status; 4xx is reserved for requests that never
reached the runner.

Middleware order is request ID, real IP, request logging, panic recovery
and CORS for every route. The /api/v1 group (health excluded) adds
per-IP rate limiting with go-chi/httprate, Prometheus request metrics and
gzip compression.

Usage:

	h := api.NewHandler(runner, dedupStore, healthChecker)
	mw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(origins, 100, time.Minute, false))
	srv := &http.Server{Addr: ":8080", Handler: api.NewRouter(h, mw).Setup()}
*/
package api
