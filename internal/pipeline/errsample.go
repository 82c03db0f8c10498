// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package pipeline

import "github.com/tomtom215/railpath/internal/logging"

// maxErrorMessage caps one sampled message; parse errors may quote a whole line.
const maxErrorMessage = 512

// errorSample keeps the last max messages in a ring and counts all of them.
type errorSample struct {
	ring  []string
	next  int
	full  bool
	count int64
	// terminal, when set, is reported ahead of the ring.
	terminal string
}

func newErrorSample(max int) *errorSample {
	if max < 1 {
		max = 1
	}
	return &errorSample{ring: make([]string, 0, max)}
}

func (e *errorSample) add(msg string) {
	e.count++
	msg = logging.Truncate(msg, maxErrorMessage)
	if len(e.ring) < cap(e.ring) {
		e.ring = append(e.ring, msg)
		return
	}
	e.ring[e.next] = msg
	e.next = (e.next + 1) % len(e.ring)
	e.full = true
}

// fail records the error that ended the run. It is counted and always kept.
func (e *errorSample) fail(msg string) {
	e.count++
	e.terminal = msg
}

// messages returns the sample oldest first, with the terminal error leading.
func (e *errorSample) messages() []string {
	out := make([]string, 0, len(e.ring)+1)
	if e.terminal != "" {
		out = append(out, e.terminal)
	}
	if !e.full {
		return append(out, e.ring...)
	}
	out = append(out, e.ring[e.next:]...)
	return append(out, e.ring[:e.next]...)
}
