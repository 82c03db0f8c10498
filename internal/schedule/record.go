// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package schedule

// Kind identifies which variant of Record a decoded line produced.
type Kind string

const (
	// KindSchedule is a JsonScheduleV1 record.
	KindSchedule Kind = "schedule"
	// KindTimetable is a JsonTimetableV1 header record.
	KindTimetable Kind = "timetable"
	// KindAssociation is a JsonAssociationV1 record.
	KindAssociation Kind = "association"
	// KindUnrecognized is any envelope without a known record key.
	KindUnrecognized Kind = "unrecognized"
)

// Record is the tagged variant produced by Decode.
//
// The set of implementations is closed: *ScheduleRecord, *TimetableHeader,
// *AssociationRecord and Unrecognized. Consumers switch on the concrete type
// once instead of re-inspecting the raw envelope.
type Record interface {
	Kind() Kind
	isRecord()
}

// STP indicator values.
const (
	STPPermanent     = "N"
	STPPermanentBase = "P"
	STPOverlay       = "O"
	STPCancellation  = "C"
)

// Position is where a LocationStop sits in the journey.
type Position string

const (
	PositionOrigin       Position = "origin"
	PositionIntermediate Position = "intermediate"
	PositionTerminating  Position = "terminating"
)

// LocationStop is one timing point of a schedule, in journey order.
// Times are the feed's clock strings ("HHMM" or "HHMMH") and are never parsed.
type LocationStop struct {
	TIPLOC          string   `json:"tiploc"`
	Arrival         string   `json:"arrival,omitempty"`
	Departure       string   `json:"departure,omitempty"`
	Pass            string   `json:"pass,omitempty"`
	PublicArrival   string   `json:"publicArrival,omitempty"`
	PublicDeparture string   `json:"publicDeparture,omitempty"`
	Platform        string   `json:"platform,omitempty"`
	Position        Position `json:"position"`
}

// ScheduleRecord is a train schedule. Locations keep feed order:
// the first entry is the origin and the last is the destination.
type ScheduleRecord struct {
	TrainUID        string         `json:"trainUid"`
	STPIndicator    string         `json:"stpIndicator"`
	StartDate       string         `json:"startDate"`
	EndDate         string         `json:"endDate"`
	RunDays         RunDays        `json:"runDays"`
	OperatorCode    string         `json:"operatorCode,omitempty"`
	TrainStatus     string         `json:"trainStatus,omitempty"`
	SignallingID    string         `json:"signallingId,omitempty"`
	TransactionType string         `json:"transactionType,omitempty"`
	Locations       []LocationStop `json:"locations"`
}

// Kind implements Record.
func (*ScheduleRecord) Kind() Kind { return KindSchedule }
func (*ScheduleRecord) isRecord() {}

// DedupKey returns the idempotency key for this schedule.
func (s *ScheduleRecord) DedupKey() string {
	return s.TrainUID + "_" + s.StartDate
}

// TimetableHeader is the feed header carried at the top of every extract.
type TimetableHeader struct {
	Classification string `json:"classification,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
	Owner          string `json:"owner,omitempty"`
	FeedType       string `json:"feedType,omitempty"`
	Sequence       int64  `json:"sequence,omitempty"`
}

// Kind implements Record.
func (*TimetableHeader) Kind() Kind { return KindTimetable }
func (*TimetableHeader) isRecord() {}

// AssociationRecord links two train schedules (joins, splits, next workings).
type AssociationRecord struct {
	TransactionType string `json:"transactionType,omitempty"`
	MainTrainUID    string `json:"mainTrainUid"`
	AssocTrainUID   string `json:"assocTrainUid"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	Category        string `json:"category,omitempty"`
	Location        string `json:"location,omitempty"`
	STPIndicator    string `json:"stpIndicator,omitempty"`
}

// Kind implements Record.
func (*AssociationRecord) Kind() Kind { return KindAssociation }
func (*AssociationRecord) isRecord() {}

// Unrecognized is a well-formed envelope with no record key this pipeline knows.
type Unrecognized struct {
	// Keys lists the top-level keys that were present, for diagnostics.
	Keys []string
}

// Kind implements Record.
func (Unrecognized) Kind() Kind { return KindUnrecognized }
func (Unrecognized) isRecord() {}

// RunDays holds the weekly running pattern, Monday first.
type RunDays [7]bool

// String renders the pattern in the feed's "1111100" form.
func (d RunDays) String() string {
	b := make([]byte, 7)
	for i, on := range d {
		if on {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// MarshalText implements encoding.TextMarshaler so events and API
// responses carry the compact form.
func (d RunDays) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
