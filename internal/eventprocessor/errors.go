// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import "errors"

// ErrPublisherClosed is returned when publishing through a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrNilPublisher is returned when attempting to wrap a nil publisher.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrUnknownSink is returned for a publisher sink name that is not supported.
var ErrUnknownSink = errors.New("unknown publisher sink")

// ErrDeadlineTooSoon is returned when a publish cannot start before the
// context's deadline. The context itself has not ended yet.
var ErrDeadlineTooSoon = errors.New("publish would exceed context deadline")
