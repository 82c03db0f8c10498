// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to PathwayConfirmedEvent.
const SchemaVersion = 1

// Event identity constants carried in EventMetadata.
const (
	// EventDomain is the business domain tag of every emitted event.
	EventDomain = "rail.schedule"
	// EventNamePathwayConfirmed names the event emitted per eligible schedule.
	EventNamePathwayConfirmed = "PathwayConfirmed"
	// DefaultSubject is the NATS subject events are published on when none is configured.
	DefaultSubject = "pathway.confirmed"
)

// PassagePoint is one mapped station a train calls at or passes.
// Times are the feed's local clock strings, copied verbatim.
type PassagePoint struct {
	StationCode     string `json:"stationCode"`
	StationName     string `json:"stationName"`
	Arrival         string `json:"arrival"`
	Departure       string `json:"departure"`
	Platform        string `json:"platform"`
	PublicArrival   string `json:"publicArrival,omitempty"`
	PublicDeparture string `json:"publicDeparture,omitempty"`
}

// EventMetadata identifies an event and ties it to the run that produced it.
// CorrelationID is the run ID; every event of one run shares it.
type EventMetadata struct {
	Domain        string    `json:"domain"`
	EventName     string    `json:"eventName"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
	SchemaVersion int       `json:"schemaVersion"`
}

// PathwayConfirmedEvent is the normalized journey emitted for one eligible schedule.
// It is immutable once built; publishers only read it.
type PathwayConfirmedEvent struct {
	TrainServiceNumber string         `json:"trainServiceNumber"`
	TravelDate         string         `json:"travelDate"`
	Origin             string         `json:"origin"`
	Destination        string         `json:"destination"`
	PassagePoints      []PassagePoint `json:"passagePoints"`
	Metadata           EventMetadata  `json:"metadata"`
}

// NewPathwayConfirmedEvent creates an event with a unique ID, timestamp,
// schema version and the given correlation ID.
func NewPathwayConfirmedEvent(correlationID string) *PathwayConfirmedEvent {
	return &PathwayConfirmedEvent{
		Metadata: EventMetadata{
			Domain:        EventDomain,
			EventName:     EventNamePathwayConfirmed,
			EventID:       uuid.New().String(),
			CorrelationID: correlationID,
			Timestamp:     time.Now().UTC(),
			SchemaVersion: SchemaVersion,
		},
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *PathwayConfirmedEvent) Validate() error {
	if e.Metadata.EventID == "" {
		return &ValidationError{Field: "metadata.eventId", Message: "required"}
	}
	if e.Metadata.CorrelationID == "" {
		return &ValidationError{Field: "metadata.correlationId", Message: "required"}
	}
	if e.TrainServiceNumber == "" {
		return &ValidationError{Field: "trainServiceNumber", Message: "required"}
	}
	if len(e.PassagePoints) == 0 {
		return &ValidationError{Field: "passagePoints", Message: "at least one passage point required"}
	}
	if e.Origin != e.PassagePoints[0].StationCode {
		return &ValidationError{Field: "origin", Message: "must match first passage point"}
	}
	if e.Destination != e.PassagePoints[len(e.PassagePoints)-1].StationCode {
		return &ValidationError{Field: "destination", Message: "must match last passage point"}
	}
	return nil
}

// DedupKey returns the idempotency key of the schedule this event came from.
func (e *PathwayConfirmedEvent) DedupKey() string {
	return e.TrainServiceNumber + "_" + e.TravelDate
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
