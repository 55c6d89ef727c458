package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/guilherme-santos/mirrorcal/internal"
)

// Gateway talks to the Google Calendar API v3.
type Gateway struct {
	svc *calendar.Service
}

func NewGateway(svc *calendar.Service) *Gateway {
	return &Gateway{svc: svc}
}

func (g *Gateway) ListEvents(ctx context.Context, calendarID string, opts internal.ListOptions) (*internal.EventPage, error) {
	call := g.svc.Events.
		List(calendarID).
		Context(ctx).
		ShowDeleted(true).
		SingleEvents(true)
	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}
	if opts.Incremental() {
		call = call.SyncToken(opts.SyncToken)
	} else {
		if !opts.TimeMin.IsZero() {
			call = call.TimeMin(opts.TimeMin.Format(time.RFC3339))
		}
		if !opts.TimeMax.IsZero() {
			call = call.TimeMax(opts.TimeMax.Format(time.RFC3339))
		}
	}
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}

	events, err := call.Do()
	if err != nil {
		return nil, classify(err, opList)
	}
	logf(calendarID, "listed %d event(s), more pages: %v", len(events.Items), events.NextPageToken != "")

	page := &internal.EventPage{
		Items:         make([]*internal.SourceEvent, 0, len(events.Items)),
		NextPageToken: events.NextPageToken,
		NextSyncToken: events.NextSyncToken,
	}
	for _, item := range events.Items {
		page.Items = append(page.Items, newSourceEvent(item))
	}
	return page, nil
}

func (g *Gateway) GetEvent(ctx context.Context, calendarID, eventID string) (*internal.DestinationEvent, error) {
	gevent, err := g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, opTarget)
	}
	// A deleted event can still be fetched, it only comes back cancelled.
	if gevent.Status == string(internal.StatusCancelled) {
		return nil, fmt.Errorf("google: event %s: %w", eventID, internal.ErrNotFound)
	}
	return newDestinationEvent(gevent), nil
}

func (g *Gateway) InsertEvent(ctx context.Context, calendarID string, e *internal.DestinationEvent) (string, error) {
	gevent, err := g.svc.Events.Insert(calendarID, newGoogleEvent(e)).Context(ctx).Do()
	if err != nil {
		return "", classify(err, opWrite)
	}
	logf(calendarID, "created event %s: %q", gevent.Id, e.Summary)
	return gevent.Id, nil
}

func (g *Gateway) PatchEvent(ctx context.Context, calendarID, eventID string, e *internal.DestinationEvent) error {
	gevent := newGoogleEvent(e)
	gevent.Reminders = nil
	// Empty strings must reach the API so that fields dropped by the
	// privacy mode are cleared on the destination.
	gevent.ForceSendFields = []string{"Summary", "Description", "Location", "Transparency"}
	nullUnsetTime(gevent.Start)
	nullUnsetTime(gevent.End)

	_, err := g.svc.Events.Patch(calendarID, eventID, gevent).Context(ctx).Do()
	if err != nil {
		return classify(err, opTarget)
	}
	logf(calendarID, "updated event %s: %q", eventID, e.Summary)
	return nil
}

func (g *Gateway) RemoveEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return classify(err, opTarget)
	}
	logf(calendarID, "deleted event %s", eventID)
	return nil
}

func logf(calendarID, format string, a ...any) {
	log.WithField("calendar", calendarID).Debugf("google: "+format, a...)
}

type operation int

const (
	opList operation = iota
	opTarget
	opWrite
)

// classify maps API errors onto the error classes the syncer acts upon.
// Errors left unclassified are transient.
func classify(err error, op operation) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return fmt.Errorf("google: %w", err)
	}

	switch {
	case gErr.Code == http.StatusGone && op == opList:
		return fmt.Errorf("google: %w: %w", internal.ErrTokenInvalidated, err)
	case (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) && op == opTarget:
		return fmt.Errorf("google: %w: %w", internal.ErrNotFound, err)
	case alreadyDeleted(err):
		return fmt.Errorf("google: %w: %w", internal.ErrNotFound, err)
	case gErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("google: %w: %w", internal.ErrPermission, err)
	case gErr.Code == http.StatusForbidden && !shouldRetry(err):
		return fmt.Errorf("google: %w: %w", internal.ErrPermission, err)
	}
	return fmt.Errorf("google: %w", err)
}

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded") ||
		errIsReason(err, "userRateLimitExceeded") ||
		errIsReason(err, "quotaExceeded")
}

func alreadyDeleted(err error) bool {
	return errIsReason(err, "deleted")
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, err := range gErr.Errors {
		switch err.Reason {
		case reason:
			return true
		}
	}
	return false
}
