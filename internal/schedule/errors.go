// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package schedule

import (
	"errors"
	"fmt"
)

// ErrNotAnObject is returned when a line is valid JSON but not an object envelope.
var ErrNotAnObject = errors.New("envelope is not a JSON object")

// ErrAmbiguousEnvelope is returned when a line carries more than one known record key.
var ErrAmbiguousEnvelope = errors.New("ambiguous envelope")

// ErrInvalidRunDays is returned for a schedule_days_runs value that is not a 7-day bitmask.
var ErrInvalidRunDays = errors.New("invalid schedule_days_runs")

// DecodeError reports a line that could not be decoded.
// It is recoverable: the stream continues with the next line.
type DecodeError struct {
	// Line is the 1-based line number within the decompressed stream.
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
