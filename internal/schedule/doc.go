// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package schedule decodes the CIF-style newline-delimited JSON schedule feed.
//
// Each line of the feed is an envelope object holding exactly one record body
// under a discriminating key:
//
//	{"JsonTimetableV1": {...}}     feed header
//	{"JsonScheduleV1": {...}}      train schedule
//	{"JsonAssociationV1": {...}}   association between two schedules
//
// Decode resolves the envelope once into the Record sum type. Any other
// envelope (for example the trailing {"EOF":true} marker or TIPLOC records)
// decodes to Unrecognized rather than failing, since the feed deliberately
// carries record kinds this pipeline does not act on.
//
// Syntax errors produce a *DecodeError carrying the line number:
//
//	rec, err := schedule.Decode(lineNo, line)
//	var decErr *schedule.DecodeError
//	if errors.As(err, &decErr) {
//	    // count and continue
//	}
//	switch r := rec.(type) {
//	case *schedule.ScheduleRecord:
//	    // filter, dedup, transform, publish
//	case *schedule.TimetableHeader, *schedule.AssociationRecord, schedule.Unrecognized:
//	    // valid content, not published
//	}
//
// Clock times and dates are kept as the feed's strings; no timezone or
// calendar conversion happens here.
package schedule
