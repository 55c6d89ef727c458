package syncer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/guilherme-santos/mirrorcal/internal"
	"github.com/guilherme-santos/mirrorcal/internal/transform"
)

// maxTokenResets bounds how often one calendar sync falls back to a full
// resync after its change token was invalidated.
const maxTokenResets = 1

// SyncCalendar reconciles the destination with the configured calendar id,
// as a change notification would. An id missing from the configuration fails
// with internal.ErrUnknownCalendar, a disabled calendar is left untouched.
func (s *Syncer) SyncCalendar(ctx context.Context, calendarID string) (*CalendarResult, error) {
	idx := slices.IndexFunc(s.cfg.Calendars, func(c *Calendar) bool { return c.ID == calendarID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", internal.ErrUnknownCalendar, calendarID)
	}
	cal := s.cfg.Calendars[idx]
	if !cal.Enabled {
		internal.Logger(cal).Debug("Calendar disabled, skipping")
		return &CalendarResult{CalendarID: cal.ID, Label: cal.Label}, nil
	}
	return s.syncCalendar(ctx, cal)
}

// syncCalendar returns a result that is never nil, even on error.
func (s *Syncer) syncCalendar(ctx context.Context, cal *Calendar) (*CalendarResult, error) {
	res := &CalendarResult{
		CalendarID: cal.ID,
		Label:      cal.Label,
	}
	logger := internal.Logger(cal)

	srcAccount := cal.Account
	if srcAccount == "" {
		srcAccount = s.cfg.DestinationAccount
	}
	src, err := s.mux.Get(srcAccount)
	if err != nil {
		return res, fmt.Errorf("loading source gateway: %w", err)
	}
	dst, err := s.mux.Get(s.cfg.DestinationAccount)
	if err != nil {
		return res, fmt.Errorf("loading destination gateway: %w", err)
	}

	for resets := 0; ; resets++ {
		err = s.reconcile(ctx, src, dst, cal, res)
		if !errors.Is(err, internal.ErrTokenInvalidated) {
			break
		}
		if resets >= maxTokenResets {
			return res, fmt.Errorf("change token still rejected after a full resync: %w", err)
		}
		logger.Warn("Change token invalidated, running a full resync")
		if err := s.storage.DeleteSyncToken(ctx, cal.ID); err != nil {
			return res, err
		}
	}
	if err != nil {
		return res, err
	}

	logger.Infof("Sync complete! %d created, %d updated, %d deleted (%s)",
		res.Created, res.Updated, res.Deleted, mode(res.FullSync))
	return res, nil
}

// reconcile makes one pass over the source listing. The new change token is
// stored only after the last page, so an interrupted pass leaves the previous
// token in place and the next run redoes the work.
func (s *Syncer) reconcile(ctx context.Context, src, dst internal.Gateway, cal *Calendar, res *CalendarResult) error {
	token, err := s.storage.SyncToken(ctx, cal.ID)
	if err != nil {
		return err
	}

	opts := internal.ListOptions{MaxResults: s.cfg.Sync.BatchSize}
	if token != "" {
		opts.SyncToken = token
	} else {
		now := s.now()
		opts.TimeMin = now.AddDate(0, 0, -s.cfg.Sync.SyncPastDays)
		opts.TimeMax = now.AddDate(0, 0, s.cfg.Sync.SyncWindowDays)
		res.FullSync = true
	}
	internal.Logger(cal).Infof("Syncing %s...", mode(!opts.Incremental()))

	it := newEventIterator(ctx, src, cal.ID, opts)
	for it.Next() {
		if err := s.processEvent(ctx, dst, cal, it.Event(), res); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	internal.Logger(cal).Debugf("Listed %d page(s)", it.Pages())

	if token := it.SyncToken(); token != "" {
		if err := s.storage.SetSyncToken(ctx, cal.ID, token); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) processEvent(ctx context.Context, dst internal.Gateway, cal *Calendar, event *internal.SourceEvent, res *CalendarResult) error {
	dstID, err := s.storage.DestinationEventID(ctx, cal.ID, event.ID)
	if err != nil {
		return err
	}

	if event.Status == internal.StatusCancelled || !transform.ShouldSync(event, s.cfg.Sync) {
		if dstID == "" {
			return nil
		}
		if err := s.deleteEvent(ctx, dst, cal, event, dstID); err != nil {
			return err
		}
		res.Deleted++
		return nil
	}

	shaped := s.transform.Map(event, cal)
	if dstID == "" {
		if err := s.createEvent(ctx, dst, cal, event, shaped); err != nil {
			return err
		}
		res.Created++
		return nil
	}

	existing, err := dst.GetEvent(ctx, s.cfg.Sync.DestinationCalendarID, dstID)
	if errors.Is(err, internal.ErrNotFound) {
		internal.Logger(cal).Infof("Event %s is gone from the destination, creating it again", dstID)
		if err := s.createEvent(ctx, dst, cal, event, shaped); err != nil {
			return err
		}
		res.Created++
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting destination event %s: %w", dstID, err)
	}

	if !s.transform.HasChanges(event, existing, cal) {
		return nil
	}
	updated, err := s.updateEvent(ctx, dst, cal, dstID, shaped)
	if err != nil {
		return err
	}
	if updated {
		res.Updated++
	}
	return nil
}

func (s *Syncer) deleteEvent(ctx context.Context, dst internal.Gateway, cal *Calendar, event *internal.SourceEvent, dstID string) error {
	internal.Logger(cal).Infof("Deleting event %s (source %s)", dstID, event.ID)

	if err := s.removeDestination(ctx, dst, cal, dstID); err != nil {
		return err
	}
	if err := s.storage.RemoveMapping(ctx, cal.ID, event.ID); err != nil {
		return fmt.Errorf("removing mapping of %s: %w", event.ID, err)
	}
	return nil
}

// removeDestination deletes a destination event, an event already gone
// counts as deleted.
func (s *Syncer) removeDestination(ctx context.Context, dst internal.Gateway, cal *Calendar, dstID string) error {
	err := dst.RemoveEvent(ctx, s.cfg.Sync.DestinationCalendarID, dstID)
	if errors.Is(err, internal.ErrNotFound) {
		internal.Logger(cal).Debugf("Event %s was already deleted", dstID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting destination event %s: %w", dstID, err)
	}
	return nil
}

func (s *Syncer) createEvent(ctx context.Context, dst internal.Gateway, cal *Calendar, event *internal.SourceEvent, shaped *internal.DestinationEvent) error {
	logger := internal.Logger(cal)
	logger.Infof("Creating event: %q on %s", shaped.Summary, formatEventTime(shaped.Start))

	dstID, err := dst.InsertEvent(ctx, s.cfg.Sync.DestinationCalendarID, shaped)
	if err != nil {
		return fmt.Errorf("creating event for %s: %w", event.ID, err)
	}
	logger.Debugf("Map event id %s to %s", event.ID, dstID)

	err = s.storage.AddMapping(ctx, cal.ID, event.ID, dstID)
	if err != nil {
		// Without a mapping the next run would create the event a second
		// time, so take it back.
		if rmErr := s.removeDestination(ctx, dst, cal, dstID); rmErr != nil {
			logger.WithError(rmErr).Errorf("Unable to remove unmapped event %s", dstID)
		}
		return fmt.Errorf("saving mapping of %s: %w", event.ID, err)
	}
	return nil
}

// updateEvent reports false when the destination event disappeared in the
// meantime, the next run recreates it.
func (s *Syncer) updateEvent(ctx context.Context, dst internal.Gateway, cal *Calendar, dstID string, shaped *internal.DestinationEvent) (bool, error) {
	internal.Logger(cal).Infof("Updating event %s: %q on %s", dstID, shaped.Summary, formatEventTime(shaped.Start))

	err := dst.PatchEvent(ctx, s.cfg.Sync.DestinationCalendarID, dstID, shaped)
	if errors.Is(err, internal.ErrNotFound) {
		internal.Logger(cal).Debugf("Event %s vanished before the update", dstID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("updating destination event %s: %w", dstID, err)
	}
	return true, nil
}
