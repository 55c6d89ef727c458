package internal

import "time"

// EventTime is either a date-only (all-day) value or a date-time value,
// kept exactly as the gateway returned it.
type EventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

func (t EventTime) IsAllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// Effective returns the date-time when present, the date otherwise.
func (t EventTime) Effective() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Equal compares the effective instants. Date-times written with different
// offsets for the same instant are equal.
func (t EventTime) Equal(o EventTime) bool {
	if t.DateTime != "" && o.DateTime != "" {
		a, errA := time.Parse(time.RFC3339, t.DateTime)
		b, errB := time.Parse(time.RFC3339, o.DateTime)
		if errA == nil && errB == nil {
			return a.Equal(b)
		}
	}
	return t.Effective() == o.Effective()
}

type Attendee struct {
	Email          string
	Self           bool
	ResponseStatus ResponseStatus
}

// SourceEvent is an event as listed from a source calendar.
type SourceEvent struct {
	ID           string
	Status       EventStatus
	Start        EventTime
	End          EventTime
	Summary      string
	Description  string
	Location     string
	Attendees    []Attendee
	Recurrence   []string
	Transparency string
}

func (e SourceEvent) IsAllDay() bool {
	return e.Start.IsAllDay()
}

// SelfResponse returns the response status of the attendee record that
// belongs to the calling identity, or "" when there is none.
func (e SourceEvent) SelfResponse() ResponseStatus {
	for _, a := range e.Attendees {
		if a.Self {
			return a.ResponseStatus
		}
	}
	return ""
}

// Provenance records where a destination event came from. It is written for
// debugging only, lookups go through the mapping store.
type Provenance struct {
	SourceCalendarID string
	SourceEventID    string
	SyncedAt         time.Time
}

// DestinationEvent is the shaped event written to the destination calendar.
type DestinationEvent struct {
	ID           string
	Summary      string
	Description  string
	Location     string
	Start        EventTime
	End          EventTime
	Transparency string
	Visibility   string
	ColorID      string
	Recurrence   []string
	Provenance   Provenance
}

type EventStatus string

func (s EventStatus) String() string {
	return string(s)
}

var (
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCancelled EventStatus = "cancelled"
)

type ResponseStatus string

func (s ResponseStatus) String() string {
	return string(s)
}

var (
	NeedsAction ResponseStatus = "needsAction"
	Declined    ResponseStatus = "declined"
	Tentative   ResponseStatus = "tentative"
	Accepted    ResponseStatus = "accepted"
)

const (
	TransparencyOpaque      = "opaque"
	TransparencyTransparent = "transparent"
	VisibilityDefault       = "default"
	VisibilityPrivate       = "private"
)
