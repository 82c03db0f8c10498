// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package middleware provides HTTP middleware shared by the trigger API.

Key Components:

  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip responses for clients that accept it

Both are plain func(http.Handler) http.Handler and mount with chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

PrometheusMetrics must wrap the router (or sit inside r.Use) so the route
pattern is resolved by the time it records; mounted outside chi, every
request is labelled "unmatched".
*/
package middleware
