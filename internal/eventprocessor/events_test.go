// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"errors"
	"testing"
)

// validEvent returns a fully populated event for the sample W12345 journey.
func validEvent() *PathwayConfirmedEvent {
	event := NewPathwayConfirmedEvent("run-1")
	event.TrainServiceNumber = "W12345"
	event.TravelDate = "2024-01-08"
	event.Origin = "EUS"
	event.Destination = "MAN"
	event.PassagePoints = []PassagePoint{
		{StationCode: "EUS", StationName: "London Euston", Departure: "0800", Platform: "15"},
		{StationCode: "MKC", StationName: "Milton Keynes Central", Arrival: "0832", Departure: "0834", Platform: "4"},
		{StationCode: "MAN", StationName: "Manchester Piccadilly", Arrival: "1005", Platform: "5"},
	}
	return event
}

func TestNewPathwayConfirmedEvent(t *testing.T) {
	event := NewPathwayConfirmedEvent("run-42")

	if event.Metadata.EventID == "" {
		t.Error("Expected EventID to be set")
	}
	if event.Metadata.CorrelationID != "run-42" {
		t.Errorf("Expected CorrelationID=run-42, got %s", event.Metadata.CorrelationID)
	}
	if event.Metadata.Domain != EventDomain || event.Metadata.EventName != EventNamePathwayConfirmed {
		t.Errorf("Unexpected identity %s/%s", event.Metadata.Domain, event.Metadata.EventName)
	}
	if event.Metadata.SchemaVersion != SchemaVersion {
		t.Errorf("Expected SchemaVersion=%d, got %d", SchemaVersion, event.Metadata.SchemaVersion)
	}
	if event.Metadata.Timestamp.IsZero() || event.Metadata.Timestamp.Location().String() != "UTC" {
		t.Errorf("Expected UTC timestamp, got %v", event.Metadata.Timestamp)
	}

	other := NewPathwayConfirmedEvent("run-42")
	if other.Metadata.EventID == event.Metadata.EventID {
		t.Error("Expected unique event IDs")
	}
}

func TestPathwayConfirmedEvent_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *PathwayConfirmedEvent)
		errMsg string
	}{
		{name: "valid event", mutate: func(*PathwayConfirmedEvent) {}},
		{
			name:   "missing event id",
			mutate: func(e *PathwayConfirmedEvent) { e.Metadata.EventID = "" },
			errMsg: "metadata.eventId: required",
		},
		{
			name:   "missing correlation id",
			mutate: func(e *PathwayConfirmedEvent) { e.Metadata.CorrelationID = "" },
			errMsg: "metadata.correlationId: required",
		},
		{
			name:   "missing train service number",
			mutate: func(e *PathwayConfirmedEvent) { e.TrainServiceNumber = "" },
			errMsg: "trainServiceNumber: required",
		},
		{
			name:   "no passage points",
			mutate: func(e *PathwayConfirmedEvent) { e.PassagePoints = nil },
			errMsg: "passagePoints: at least one passage point required",
		},
		{
			name:   "origin mismatch",
			mutate: func(e *PathwayConfirmedEvent) { e.Origin = "MKC" },
			errMsg: "origin: must match first passage point",
		},
		{
			name:   "destination mismatch",
			mutate: func(e *PathwayConfirmedEvent) { e.Destination = "EUS" },
			errMsg: "destination: must match last passage point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(event)

			err := event.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error %q", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("Expected error %q, got %q", tt.errMsg, err.Error())
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestPathwayConfirmedEvent_DedupKey(t *testing.T) {
	if got := validEvent().DedupKey(); got != "W12345_2024-01-08" {
		t.Errorf("Expected W12345_2024-01-08, got %s", got)
	}
}
