package google

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/mirrorcal/internal"
)

const (
	propSourceCalendarID = "mirrorcalSourceCalendarId"
	propSourceEventID    = "mirrorcalSourceEventId"
	propSyncedAt         = "mirrorcalSyncedAt"
)

func newSourceEvent(event *calendar.Event) *internal.SourceEvent {
	e := &internal.SourceEvent{
		ID:     event.Id,
		Status: internal.EventStatus(event.Status),
	}
	// Incremental listings return cancelled events with little more than
	// their id.
	if e.Status == internal.StatusCancelled {
		return e
	}

	e.Start = newEventTime(event.Start)
	e.End = newEventTime(event.End)
	e.Summary = event.Summary
	e.Description = event.Description
	e.Location = event.Location
	e.Recurrence = event.Recurrence
	e.Transparency = event.Transparency
	for _, a := range event.Attendees {
		e.Attendees = append(e.Attendees, internal.Attendee{
			Email:          a.Email,
			Self:           a.Self,
			ResponseStatus: internal.ResponseStatus(a.ResponseStatus),
		})
	}
	return e
}

func newDestinationEvent(event *calendar.Event) *internal.DestinationEvent {
	e := &internal.DestinationEvent{
		ID:           event.Id,
		Summary:      event.Summary,
		Description:  event.Description,
		Location:     event.Location,
		Start:        newEventTime(event.Start),
		End:          newEventTime(event.End),
		Transparency: event.Transparency,
		Visibility:   event.Visibility,
		ColorID:      event.ColorId,
		Recurrence:   event.Recurrence,
	}
	if event.ExtendedProperties != nil {
		props := event.ExtendedProperties.Private
		e.Provenance.SourceCalendarID = props[propSourceCalendarID]
		e.Provenance.SourceEventID = props[propSourceEventID]
		e.Provenance.SyncedAt, _ = time.Parse(time.RFC3339, props[propSyncedAt])
	}
	return e
}

func newGoogleEvent(e *internal.DestinationEvent) *calendar.Event {
	visibility := e.Visibility
	if visibility == "" {
		visibility = internal.VisibilityDefault
	}
	return &calendar.Event{
		Summary:      e.Summary,
		Description:  e.Description,
		Location:     e.Location,
		Start:        newGoogleEventTime(e.Start),
		End:          newGoogleEventTime(e.End),
		Transparency: e.Transparency,
		Visibility:   visibility,
		ColorId:      e.ColorID,
		Recurrence:   e.Recurrence,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				propSourceCalendarID: e.Provenance.SourceCalendarID,
				propSourceEventID:    e.Provenance.SourceEventID,
				propSyncedAt:         e.Provenance.SyncedAt.UTC().Format(time.RFC3339),
			},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
}

func newEventTime(t *calendar.EventDateTime) internal.EventTime {
	if t == nil {
		return internal.EventTime{}
	}
	return internal.EventTime{
		Date:     t.Date,
		DateTime: t.DateTime,
		TimeZone: t.TimeZone,
	}
}

func newGoogleEventTime(t internal.EventTime) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		Date:     t.Date,
		DateTime: t.DateTime,
		TimeZone: t.TimeZone,
	}
}

// nullUnsetTime makes a patch clear the form of t that is not in use. Patch
// merges nested objects, a stored date would otherwise survive next to a new
// dateTime.
func nullUnsetTime(t *calendar.EventDateTime) {
	switch {
	case t.Date == "" && t.DateTime != "":
		t.NullFields = append(t.NullFields, "Date")
	case t.DateTime == "" && t.Date != "":
		t.NullFields = append(t.NullFields, "DateTime")
	}
}
