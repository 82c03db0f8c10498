// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package filter decides which schedules are eligible for publication.
//
// Rules run in a fixed order and the first failing rule names the reason:
//
//  1. the STP indicator must be "N" (permanent new schedule)
//  2. the schedule must have at least one location
//  3. at least one location must resolve in the station table
//
// A rejection is expected steady-state behaviour, not an error.
package filter

import (
	"github.com/tomtom215/railpath/internal/schedule"
	"github.com/tomtom215/railpath/internal/stations"
)

// Reason names why a schedule was filtered. Values are used as metric labels.
type Reason string

const (
	// ReasonNone is returned alongside an eligible verdict.
	ReasonNone Reason = ""
	// ReasonNotPermanent rejects overlays, cancellations and permanent-base records.
	ReasonNotPermanent Reason = "stp_indicator_not_permanent"
	// ReasonNoLocations rejects schedules with an empty location list.
	ReasonNoLocations Reason = "no_locations"
	// ReasonNoMappedLocations rejects schedules none of whose TIPLOCs are known.
	ReasonNoMappedLocations Reason = "no_mapped_locations"
	// ReasonNoResolvedPassagePoints is used by the pipeline when the
	// transformer finds nothing to emit after a schedule passed the filter.
	ReasonNoResolvedPassagePoints Reason = "no_resolved_passage_points"
)

// AllReasons lists every reason, in rule order.
func AllReasons() []Reason {
	return []Reason{
		ReasonNotPermanent,
		ReasonNoLocations,
		ReasonNoMappedLocations,
		ReasonNoResolvedPassagePoints,
	}
}

// Engine applies the eligibility rules against a station table snapshot.
type Engine struct {
	stations stations.Lookup
}

// NewEngine creates an Engine that resolves TIPLOCs through lookup.
func NewEngine(lookup stations.Lookup) *Engine {
	return &Engine{stations: lookup}
}

// IsEligible reports whether rec may be published and, if not, why.
func (e *Engine) IsEligible(rec *schedule.ScheduleRecord) (bool, Reason) {
	if rec.STPIndicator != schedule.STPPermanent {
		return false, ReasonNotPermanent
	}
	if len(rec.Locations) == 0 {
		return false, ReasonNoLocations
	}
	for i := range rec.Locations {
		if e.stations != nil && e.stations.Contains(rec.Locations[i].TIPLOC) {
			return true, ReasonNone
		}
	}
	return false, ReasonNoMappedLocations
}
