// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package filter

import (
	"testing"

	"github.com/tomtom215/railpath/internal/schedule"
	"github.com/tomtom215/railpath/internal/stations"
)

func testTable(t *testing.T) *stations.Table {
	t.Helper()
	table, err := stations.NewTable([]stations.Entry{
		{TIPLOC: "EUSTON", StationMapping: stations.StationMapping{StationCode: "EUS", Name: "London Euston"}},
		{TIPLOC: "MNCRPIC", StationMapping: stations.StationMapping{StationCode: "MAN", Name: "Manchester Piccadilly"}},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func stops(tiplocs ...string) []schedule.LocationStop {
	out := make([]schedule.LocationStop, len(tiplocs))
	for i, code := range tiplocs {
		out[i] = schedule.LocationStop{TIPLOC: code}
	}
	return out
}

func TestEngine_IsEligible(t *testing.T) {
	t.Parallel()

	engine := NewEngine(testTable(t))

	tests := []struct {
		name       string
		rec        schedule.ScheduleRecord
		wantOK     bool
		wantReason Reason
	}{
		{
			name:   "permanent with mapped stops",
			rec:    schedule.ScheduleRecord{STPIndicator: "N", Locations: stops("EUSTON", "MKTNKYL", "MNCRPIC")},
			wantOK: true,
		},
		{
			name:   "one mapped stop is enough",
			rec:    schedule.ScheduleRecord{STPIndicator: "N", Locations: stops("NOWHERE", "MNCRPIC")},
			wantOK: true,
		},
		{
			name:       "overlay with valid stops",
			rec:        schedule.ScheduleRecord{STPIndicator: "O", Locations: stops("EUSTON", "MNCRPIC")},
			wantReason: ReasonNotPermanent,
		},
		{
			name:       "permanent base",
			rec:        schedule.ScheduleRecord{STPIndicator: "P", Locations: stops("EUSTON")},
			wantReason: ReasonNotPermanent,
		},
		{
			name:       "cancellation",
			rec:        schedule.ScheduleRecord{STPIndicator: "C", Locations: stops("EUSTON")},
			wantReason: ReasonNotPermanent,
		},
		{
			name:       "empty stp",
			rec:        schedule.ScheduleRecord{Locations: stops("EUSTON")},
			wantReason: ReasonNotPermanent,
		},
		{
			name:       "no locations",
			rec:        schedule.ScheduleRecord{STPIndicator: "N"},
			wantReason: ReasonNoLocations,
		},
		{
			name:       "only unknown tiploc",
			rec:        schedule.ScheduleRecord{STPIndicator: "N", Locations: stops("UNKNOWN")},
			wantReason: ReasonNoMappedLocations,
		},
		{
			name:       "stp checked before locations",
			rec:        schedule.ScheduleRecord{STPIndicator: "O"},
			wantReason: ReasonNotPermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := tt.rec
			ok, reason := engine.IsEligible(&rec)
			if ok != tt.wantOK {
				t.Errorf("IsEligible() ok = %v, want %v", ok, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("IsEligible() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestEngine_NilLookup(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	ok, reason := engine.IsEligible(&schedule.ScheduleRecord{STPIndicator: "N", Locations: stops("EUSTON")})
	if ok || reason != ReasonNoMappedLocations {
		t.Errorf("IsEligible() = %v, %q; want false, %q", ok, reason, ReasonNoMappedLocations)
	}
}

func TestAllReasons(t *testing.T) {
	t.Parallel()

	seen := map[Reason]bool{}
	for _, r := range AllReasons() {
		if r == ReasonNone {
			t.Error("AllReasons() includes the empty reason")
		}
		if seen[r] {
			t.Errorf("duplicate reason %q", r)
		}
		seen[r] = true
	}
}
