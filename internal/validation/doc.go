// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package validation validates run requests and API parameters with
// go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata, so repeated validation of the same request type is cheap.
// Field names in errors come from json tags, so a failure on
//
//	type Request struct {
//	    FeedType string `json:"feedType" validate:"required,oneof=update full"`
//	}
//
// reads "feedType must be one of: update full".
//
// Custom tags:
//
//	feedsource  a filesystem path, or a file://, http:// or https:// URL
//	dedupkey    a deduplication key of the form <train uid>_<YYYY-MM-DD>
//
// Errors are returned as *RequestValidationError; ToAPIError renders them in
// the API's VALIDATION_ERROR shape.
package validation
