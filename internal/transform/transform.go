// Package transform shapes source events for the destination calendar and
// decides whether a destination event has drifted from its source.
package transform

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/guilherme-santos/mirrorcal/internal"
)

const (
	DefaultBusyLabel = "予定あり"
	NoTitleLabel     = "(タイトルなし)"

	labelPlaceholder = "{label}"
)

// ShouldSync reports whether e qualifies for the destination. Cancelled
// events always qualify so their deletion can be processed.
func ShouldSync(e *internal.SourceEvent, opts internal.SyncOptions) bool {
	if e.Status == internal.StatusCancelled {
		return true
	}
	if !opts.IncludeAllDayEvents && e.IsAllDay() {
		return false
	}
	if !opts.IncludeDeclinedEvents && e.SelfResponse() == internal.Declined {
		return false
	}
	return true
}

type Transformer struct {
	opts internal.MappingOptions
	now  func() time.Time
}

func New(opts internal.MappingOptions) *Transformer {
	if opts.BusyLabel == "" {
		opts.BusyLabel = DefaultBusyLabel
	}
	return &Transformer{
		opts: opts,
		now:  time.Now,
	}
}

// Prefix substitutes the calendar label into the configured template.
func (t *Transformer) Prefix(cal *internal.Calendar) string {
	if t.opts.PrefixFormat == "" {
		return ""
	}
	return strings.ReplaceAll(t.opts.PrefixFormat, labelPlaceholder, cal.Label)
}

// Map shapes e according to the calendar's privacy mode.
func (t *Transformer) Map(e *internal.SourceEvent, cal *internal.Calendar) *internal.DestinationEvent {
	dst := &internal.DestinationEvent{
		Start:   e.Start,
		End:     e.End,
		ColorID: cal.ColorID,
		Provenance: internal.Provenance{
			SourceCalendarID: cal.ID,
			SourceEventID:    e.ID,
			SyncedAt:         t.now().UTC(),
		},
	}
	prefix := t.Prefix(cal)

	switch cal.Privacy {
	case internal.PrivacyBusy:
		dst.Summary = prefix + t.opts.BusyLabel
		dst.Visibility = internal.VisibilityPrivate
		dst.Transparency = internal.TransparencyOpaque

	case internal.PrivacyTitleOnly:
		dst.Summary = prefix + summaryOrFallback(e.Summary)
		dst.Transparency = transparencyOrDefault(e.Transparency)

	case internal.PrivacyFull:
		dst.Summary = prefix + summaryOrFallback(e.Summary)
		dst.Transparency = transparencyOrDefault(e.Transparency)
		if t.opts.CopyDescription && e.Description != "" {
			dst.Description = e.Description
		}
		if t.opts.CopyLocation && e.Location != "" {
			dst.Location = e.Location
		}
		if t.opts.SetAsPrivate {
			dst.Visibility = internal.VisibilityPrivate
		}
		if len(e.Recurrence) > 0 {
			dst.Recurrence = validRecurrence(e, cal)
		}

	default:
		panic("transform: unhandled privacy mode " + cal.Privacy.String())
	}
	return dst
}

// HasChanges recomputes the shape of src and reports whether existing no
// longer matches it.
func (t *Transformer) HasChanges(src *internal.SourceEvent, existing *internal.DestinationEvent, cal *internal.Calendar) bool {
	want := t.Map(src, cal)

	if want.Summary != existing.Summary {
		return true
	}
	if !want.Start.Equal(existing.Start) || !want.End.Equal(existing.End) {
		return true
	}
	if cal.Privacy == internal.PrivacyFull {
		if want.Description != existing.Description || want.Location != existing.Location {
			return true
		}
	}
	return false
}

func summaryOrFallback(s string) string {
	if s == "" {
		return NoTitleLabel
	}
	return s
}

func transparencyOrDefault(s string) string {
	if s == "" {
		return internal.TransparencyOpaque
	}
	return s
}

// validRecurrence returns e's recurrence lines unchanged, or nil when one of
// its RRULEs cannot be parsed. The remote API rejects the whole event on a
// malformed rule.
func validRecurrence(e *internal.SourceEvent, cal *internal.Calendar) []string {
	for _, line := range e.Recurrence {
		rule, ok := strings.CutPrefix(line, "RRULE:")
		if !ok {
			continue
		}
		if _, err := rrule.StrToROption(rule); err != nil {
			internal.Logger(cal).
				WithError(err).
				WithField("event", e.ID).
				Warnf("dropping unparsable recurrence %q", line)
			return nil
		}
	}
	return append([]string(nil), e.Recurrence...)
}
