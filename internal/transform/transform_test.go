// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/schedule"
	"github.com/tomtom215/railpath/internal/stations"
)

func sampleTable(t *testing.T) *stations.Table {
	t.Helper()
	table, err := stations.NewTable([]stations.Entry{
		{TIPLOC: "EUSTON", StationMapping: stations.StationMapping{StationCode: "EUS", Name: "London Euston", IsConnectionPoint: true}},
		{TIPLOC: "MKTNKYL", StationMapping: stations.StationMapping{StationCode: "MKC", Name: "Milton Keynes Central"}},
		{TIPLOC: "MNCRPIC", StationMapping: stations.StationMapping{StationCode: "MAN", Name: "Manchester Piccadilly"}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func sampleSchedule() *schedule.ScheduleRecord {
	return &schedule.ScheduleRecord{
		TrainUID:     "W12345",
		STPIndicator: schedule.STPPermanent,
		StartDate:    "2024-01-08",
		EndDate:      "2024-05-17",
		OperatorCode: "VT",
		Locations: []schedule.LocationStop{
			{TIPLOC: "EUSTON", Departure: "0800", PublicDeparture: "0800", Platform: "15", Position: schedule.PositionOrigin},
			{TIPLOC: "MKTNKYL", Arrival: "0832", Departure: "0834", Platform: "4", Position: schedule.PositionIntermediate},
			{TIPLOC: "MNCRPIC", Arrival: "1005", PublicArrival: "1005", Platform: "5", Position: schedule.PositionTerminating},
		},
	}
}

func fixedTransformer() *Transformer {
	clock := time.Date(2024, 1, 7, 22, 0, 0, 0, time.FixedZone("BST", 3600))
	return New(
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string { return "evt-1" }),
	)
}

func TestTransform_PreservesOrder(t *testing.T) {
	t.Parallel()

	event, err := fixedTransformer().Transform(sampleSchedule(), sampleTable(t), "run-7")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := []string{"EUS", "MKC", "MAN"}
	if len(event.PassagePoints) != len(want) {
		t.Fatalf("Expected %d passage points, got %d", len(want), len(event.PassagePoints))
	}
	for i, code := range want {
		if event.PassagePoints[i].StationCode != code {
			t.Errorf("passage point %d: expected %s, got %s", i, code, event.PassagePoints[i].StationCode)
		}
	}
	if event.Origin != "EUS" || event.Destination != "MAN" {
		t.Errorf("Expected EUS -> MAN, got %s -> %s", event.Origin, event.Destination)
	}
	if event.TrainServiceNumber != "W12345" || event.TravelDate != "2024-01-08" {
		t.Errorf("Unexpected identity %s/%s", event.TrainServiceNumber, event.TravelDate)
	}
	if err := event.Validate(); err != nil {
		t.Errorf("Expected valid event, got %v", err)
	}
}

func TestTransform_Metadata(t *testing.T) {
	t.Parallel()

	event, err := fixedTransformer().Transform(sampleSchedule(), sampleTable(t), "run-7")
	if err != nil {
		t.Fatal(err)
	}

	md := event.Metadata
	if md.CorrelationID != "run-7" {
		t.Errorf("Expected correlation ID run-7, got %s", md.CorrelationID)
	}
	if md.EventID != "evt-1" {
		t.Errorf("Expected event ID evt-1, got %s", md.EventID)
	}
	if md.Domain != eventprocessor.EventDomain || md.EventName != eventprocessor.EventNamePathwayConfirmed {
		t.Errorf("Unexpected identity %s/%s", md.Domain, md.EventName)
	}
	if md.Timestamp.Location() != time.UTC || md.Timestamp.Hour() != 21 {
		t.Errorf("Expected UTC timestamp 21:00, got %v", md.Timestamp)
	}
	if md.SchemaVersion != eventprocessor.SchemaVersion {
		t.Errorf("Expected schema version %d, got %d", eventprocessor.SchemaVersion, md.SchemaVersion)
	}
}

func TestTransform_CopiesTimesVerbatim(t *testing.T) {
	t.Parallel()

	rec := sampleSchedule()
	rec.Locations[1].Arrival = "0832H"

	event, err := fixedTransformer().Transform(rec, sampleTable(t), "run-7")
	if err != nil {
		t.Fatal(err)
	}

	first, mid, last := event.PassagePoints[0], event.PassagePoints[1], event.PassagePoints[2]
	if first.Arrival != "" || first.Departure != "0800" || first.PublicDeparture != "0800" || first.Platform != "15" {
		t.Errorf("origin point = %+v", first)
	}
	if mid.Arrival != "0832H" || mid.Departure != "0834" {
		t.Errorf("Expected half-minute clock string kept, got %+v", mid)
	}
	if last.StationName != "Manchester Piccadilly" || last.PublicArrival != "1005" {
		t.Errorf("destination point = %+v", last)
	}
}

func TestTransform_DropsUnresolvedStops(t *testing.T) {
	t.Parallel()

	rec := sampleSchedule()
	rec.Locations = append([]schedule.LocationStop{{TIPLOC: "WATFDJ", Departure: "0750"}}, rec.Locations...)
	rec.Locations = append(rec.Locations, schedule.LocationStop{TIPLOC: "LNGSGHT", Arrival: "1015"})
	rec.Locations[2].TIPLOC = "UNKNOWN"

	event, err := fixedTransformer().Transform(rec, sampleTable(t), "run-7")
	if err != nil {
		t.Fatal(err)
	}
	if len(event.PassagePoints) != 2 {
		t.Fatalf("Expected 2 resolved points, got %d", len(event.PassagePoints))
	}
	if event.Origin != "EUS" || event.Destination != "MAN" {
		t.Errorf("Expected origin/destination from resolved stops, got %s -> %s", event.Origin, event.Destination)
	}
}

func TestTransform_StopWithoutTimes(t *testing.T) {
	t.Parallel()

	rec := sampleSchedule()
	rec.Locations[1].Arrival = ""
	rec.Locations[1].Departure = ""
	rec.Locations[1].Pass = "0833"

	event, err := fixedTransformer().Transform(rec, sampleTable(t), "run-7")
	if err != nil {
		t.Fatal(err)
	}
	mid := event.PassagePoints[1]
	if mid.StationCode != "MKC" || mid.Arrival != "" || mid.Departure != "" {
		t.Errorf("Expected timeless passage point for MKC, got %+v", mid)
	}
}

func TestTransform_NoResolvedStops(t *testing.T) {
	t.Parallel()

	rec := sampleSchedule()
	for i := range rec.Locations {
		rec.Locations[i].TIPLOC = "NOWHERE"
	}

	tests := []struct {
		name   string
		lookup stations.Lookup
	}{
		{name: "unknown tiplocs", lookup: sampleTable(t)},
		{name: "nil lookup", lookup: nil},
		{name: "nil table", lookup: (*stations.Table)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := New().Transform(rec, tt.lookup, "run-7")
			if !errors.Is(err, ErrNoResolvedStops) {
				t.Errorf("Expected ErrNoResolvedStops, got %v", err)
			}
			if event != nil {
				t.Error("Expected no event")
			}
		})
	}
}

func TestNew_DefaultsAreUnique(t *testing.T) {
	t.Parallel()

	tr := New()
	a, err := tr.Transform(sampleSchedule(), sampleTable(t), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.Transform(sampleSchedule(), sampleTable(t), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Metadata.EventID == "" || a.Metadata.EventID == b.Metadata.EventID {
		t.Errorf("Expected unique event IDs, got %q and %q", a.Metadata.EventID, b.Metadata.EventID)
	}
}
