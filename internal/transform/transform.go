// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package transform maps eligible schedules to PathwayConfirmed events.
package transform

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/schedule"
	"github.com/tomtom215/railpath/internal/stations"
)

// ErrNoResolvedStops is returned when none of a schedule's locations
// resolve in the station table.
var ErrNoResolvedStops = errors.New("no location resolves to a known station")

// Transformer builds events from schedules.
type Transformer struct {
	now   func() time.Time
	newID func() string
}

// Option customises a Transformer.
type Option func(*Transformer)

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// WithIDGenerator sets the event ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Transformer) { t.newID = fn }
}

// New creates a Transformer that stamps events with UUIDs and the UTC wall clock.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform builds the event for rec. Stops whose TIPLOC is not in lookup
// are dropped; the first and last remaining stops become origin and
// destination. runID becomes the event's correlation ID.
func (t *Transformer) Transform(rec *schedule.ScheduleRecord, lookup stations.Lookup, runID string) (*eventprocessor.PathwayConfirmedEvent, error) {
	points := passagePoints(rec.Locations, lookup)
	if len(points) == 0 {
		return nil, ErrNoResolvedStops
	}

	return &eventprocessor.PathwayConfirmedEvent{
		TrainServiceNumber: rec.TrainUID,
		TravelDate:         rec.StartDate,
		Origin:             points[0].StationCode,
		Destination:        points[len(points)-1].StationCode,
		PassagePoints:      points,
		Metadata: eventprocessor.EventMetadata{
			Domain:        eventprocessor.EventDomain,
			EventName:     eventprocessor.EventNamePathwayConfirmed,
			EventID:       t.newID(),
			CorrelationID: runID,
			Timestamp:     t.now().UTC(),
			SchemaVersion: eventprocessor.SchemaVersion,
		},
	}, nil
}

func passagePoints(stops []schedule.LocationStop, lookup stations.Lookup) []eventprocessor.PassagePoint {
	if lookup == nil {
		return nil
	}
	points := make([]eventprocessor.PassagePoint, 0, len(stops))
	for i := range stops {
		stop := &stops[i]
		station, ok := lookup.Lookup(stop.TIPLOC)
		if !ok {
			continue
		}
		points = append(points, eventprocessor.PassagePoint{
			StationCode:     station.StationCode,
			StationName:     station.Name,
			Arrival:         stop.Arrival,
			Departure:       stop.Departure,
			Platform:        stop.Platform,
			PublicArrival:   stop.PublicArrival,
			PublicDeparture: stop.PublicDeparture,
		})
	}
	return points
}
