// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package schedule

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Envelope keys that discriminate the record variants.
const (
	keySchedule    = "JsonScheduleV1"
	keyTimetable   = "JsonTimetableV1"
	keyAssociation = "JsonAssociationV1"
)

// cifSchedule is the wire shape of a JsonScheduleV1 body.
type cifSchedule struct {
	TrainUID        string     `json:"CIF_train_uid"`
	STPIndicator    string     `json:"CIF_stp_indicator"`
	StartDate       string     `json:"schedule_start_date"`
	EndDate         string     `json:"schedule_end_date"`
	DaysRuns        string     `json:"schedule_days_runs"`
	ATOCCode        string     `json:"atoc_code"`
	TrainStatus     string     `json:"train_status"`
	TransactionType string     `json:"transaction_type"`
	Segment         cifSegment `json:"schedule_segment"`
}

type cifSegment struct {
	SignallingID string        `json:"signalling_id"`
	Locations    []cifLocation `json:"schedule_location"`
}

type cifLocation struct {
	LocationType    string `json:"location_type"`
	RecordIdentity  string `json:"record_identity"`
	TiplocCode      string `json:"tiploc_code"`
	TiplocID        string `json:"tiploc_id"`
	Arrival         string `json:"arrival"`
	Departure       string `json:"departure"`
	Pass            string `json:"pass"`
	PublicArrival   string `json:"public_arrival"`
	PublicDeparture string `json:"public_departure"`
	Platform        string `json:"platform"`
}

type cifTimetable struct {
	Classification string `json:"classification"`
	Timestamp      int64  `json:"timestamp"`
	Owner          string `json:"owner"`
	Metadata       struct {
		Type     string `json:"type"`
		Sequence int64  `json:"sequence"`
	} `json:"Metadata"`
}

type cifAssociation struct {
	TransactionType string `json:"transaction_type"`
	MainTrainUID    string `json:"main_train_uid"`
	AssocTrainUID   string `json:"assoc_train_uid"`
	StartDate       string `json:"assoc_start_date"`
	EndDate         string `json:"assoc_end_date"`
	Category        string `json:"category"`
	Location        string `json:"location"`
	STPIndicator    string `json:"CIF_stp_indicator"`
}

// IsBlank reports whether a line carries nothing but whitespace.
// Blank lines are skipped by the caller and never reach Decode.
func IsBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

// Decode turns one feed line into a Record.
//
// lineNo is the 1-based position of the line in the decompressed stream and
// is carried on any *DecodeError. Envelopes without a known record key decode
// to Unrecognized; only structurally invalid input is an error.
func Decode(lineNo int, line []byte) (Record, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, &DecodeError{Line: lineNo, Err: err}
	}
	if envelope == nil {
		return nil, &DecodeError{Line: lineNo, Err: ErrNotAnObject}
	}

	var found []string
	for _, key := range []string{keySchedule, keyTimetable, keyAssociation} {
		if raw, ok := envelope[key]; ok && !isNull(raw) {
			found = append(found, key)
		}
	}

	switch len(found) {
	case 0:
		return unrecognized(envelope), nil
	case 1:
	default:
		return nil, &DecodeError{Line: lineNo, Err: fmt.Errorf("%w: %v", ErrAmbiguousEnvelope, found)}
	}

	var (
		rec Record
		err error
	)
	body := envelope[found[0]]
	switch found[0] {
	case keySchedule:
		rec, err = decodeSchedule(body)
	case keyTimetable:
		rec, err = decodeTimetable(body)
	case keyAssociation:
		rec, err = decodeAssociation(body)
	}
	if err != nil {
		return nil, &DecodeError{Line: lineNo, Err: fmt.Errorf("%s: %w", found[0], err)}
	}
	return rec, nil
}

func decodeSchedule(body json.RawMessage) (*ScheduleRecord, error) {
	var wire cifSchedule
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	days, err := parseRunDays(wire.DaysRuns)
	if err != nil {
		return nil, err
	}

	rec := &ScheduleRecord{
		TrainUID:        wire.TrainUID,
		STPIndicator:    wire.STPIndicator,
		StartDate:       wire.StartDate,
		EndDate:         wire.EndDate,
		RunDays:         days,
		OperatorCode:    wire.ATOCCode,
		TrainStatus:     wire.TrainStatus,
		SignallingID:    wire.Segment.SignallingID,
		TransactionType: wire.TransactionType,
		Locations:       make([]LocationStop, 0, len(wire.Segment.Locations)),
	}

	last := len(wire.Segment.Locations) - 1
	for i, loc := range wire.Segment.Locations {
		tiploc := loc.TiplocCode
		if tiploc == "" {
			tiploc = loc.TiplocID
		}
		rec.Locations = append(rec.Locations, LocationStop{
			TIPLOC:          tiploc,
			Arrival:         loc.Arrival,
			Departure:       loc.Departure,
			Pass:            loc.Pass,
			PublicArrival:   loc.PublicArrival,
			PublicDeparture: loc.PublicDeparture,
			Platform:        loc.Platform,
			Position:        positionOf(loc, i, last),
		})
	}
	return rec, nil
}

func decodeTimetable(body json.RawMessage) (*TimetableHeader, error) {
	var wire cifTimetable
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	return &TimetableHeader{
		Classification: wire.Classification,
		Timestamp:      wire.Timestamp,
		Owner:          wire.Owner,
		FeedType:       wire.Metadata.Type,
		Sequence:       wire.Metadata.Sequence,
	}, nil
}

func decodeAssociation(body json.RawMessage) (*AssociationRecord, error) {
	var wire cifAssociation
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	return &AssociationRecord{
		TransactionType: wire.TransactionType,
		MainTrainUID:    wire.MainTrainUID,
		AssocTrainUID:   wire.AssocTrainUID,
		StartDate:       wire.StartDate,
		EndDate:         wire.EndDate,
		Category:        wire.Category,
		Location:        wire.Location,
		STPIndicator:    wire.STPIndicator,
	}, nil
}

// positionOf maps the CIF record identity (LO/LI/LT) to a Position.
// Entries without one are placed by index.
func positionOf(loc cifLocation, i, last int) Position {
	code := loc.LocationType
	if code == "" {
		code = loc.RecordIdentity
	}
	switch code {
	case "LO":
		return PositionOrigin
	case "LT":
		return PositionTerminating
	case "LI":
		return PositionIntermediate
	}
	switch i {
	case 0:
		return PositionOrigin
	case last:
		return PositionTerminating
	default:
		return PositionIntermediate
	}
}

// parseRunDays reads the seven-character Monday-first bitmask.
// An empty value (as on delete transactions) yields no running days.
func parseRunDays(s string) (RunDays, error) {
	var days RunDays
	if s == "" {
		return days, nil
	}
	if len(s) != len(days) {
		return days, fmt.Errorf("%w: %q", ErrInvalidRunDays, s)
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			days[i] = true
		case '0':
		default:
			return days, fmt.Errorf("%w: %q", ErrInvalidRunDays, s)
		}
	}
	return days, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func unrecognized(envelope map[string]json.RawMessage) Unrecognized {
	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Unrecognized{Keys: keys}
}
