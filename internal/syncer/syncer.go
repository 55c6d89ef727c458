// Package syncer mirrors the events of every configured source calendar
// into the destination calendar.
package syncer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/guilherme-santos/mirrorcal/internal"
	"github.com/guilherme-santos/mirrorcal/internal/mapping"
	"github.com/guilherme-santos/mirrorcal/internal/transform"
)

type (
	Mux      = internal.Mux
	Calendar = internal.Calendar
)

// Storage is the mapping store.
type Storage interface {
	SyncToken(_ context.Context, calendarID string) (string, error)
	SetSyncToken(_ context.Context, calendarID, token string) error
	DeleteSyncToken(_ context.Context, calendarID string) error

	EventMap(_ context.Context, calendarID string) (mapping.EventMap, error)
	DestinationEventID(_ context.Context, calendarID, srcEventID string) (string, error)
	AddMapping(_ context.Context, calendarID, srcEventID, dstEventID string) error
	RemoveMapping(_ context.Context, calendarID, srcEventID string) error
	MappedCalendars(context.Context) ([]string, error)

	SetLastSync(context.Context, time.Time) error
	ClearAll(context.Context) error
}

// Config is the read-only run configuration.
type Config struct {
	// DestinationAccount owns the destination calendar. Calendars without
	// an account are read with it as well.
	DestinationAccount string
	Calendars          []*Calendar
	Sync               internal.SyncOptions
	Mapping            internal.MappingOptions
}

type Syncer struct {
	mux       Mux
	storage   Storage
	cfg       Config
	transform *transform.Transformer
	now       func() time.Time
}

func New(mux Mux, storage Storage, cfg Config) *Syncer {
	if cfg.Mapping.CopyAttendees || cfg.Mapping.CopyReminders {
		log.Warn("copyAttendees and copyReminders are not applied, attendees and reminders are never copied")
	}
	return &Syncer{
		mux:       mux,
		storage:   storage,
		cfg:       cfg,
		transform: transform.New(cfg.Mapping),
		now:       time.Now,
	}
}

// Sync runs every enabled calendar, or only the given ones, in configuration
// order. A failing calendar is reported in the result and does not stop the
// others. Asking for a calendar missing from the configuration fails before
// anything is synced.
func (s *Syncer) Sync(ctx context.Context, calendarIDs ...string) (*RunResult, error) {
	cals, err := s.selectCalendars(calendarIDs)
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Errors:    []CalendarError{},
		Calendars: []*CalendarResult{},
	}
	logger := log.WithField("run", res.RunID)
	logger.Infof("Syncing %d calendar(s) into %s", len(cals), s.cfg.Sync.DestinationCalendarID)

	for _, cal := range cals {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		calRes, err := s.syncCalendar(ctx, cal)
		res.add(calRes)
		if err != nil {
			internal.Logger(cal).WithError(err).Error("Sync failed")
			res.Errors = append(res.Errors, CalendarError{
				CalendarID: cal.ID,
				Label:      cal.Label,
				Message:    err.Error(),
				Err:        err,
			})
		}
	}

	res.FinishedAt = s.now()
	res.DurationMs = res.FinishedAt.Sub(res.StartedAt).Milliseconds()
	if err := s.storage.SetLastSync(ctx, res.FinishedAt); err != nil {
		logger.WithError(err).Warn("Unable to save last sync timestamp")
	}

	logger.WithFields(log.Fields{
		"durationMs": res.DurationMs,
		"created":    res.TotalCreated,
		"updated":    res.TotalUpdated,
		"deleted":    res.TotalDeleted,
		"errors":     len(res.Errors),
	}).Info("Sync complete")
	return res, nil
}

func (s *Syncer) selectCalendars(ids []string) ([]*Calendar, error) {
	for _, id := range ids {
		if !slices.ContainsFunc(s.cfg.Calendars, func(c *Calendar) bool { return c.ID == id }) {
			return nil, fmt.Errorf("%w: %s", internal.ErrUnknownCalendar, id)
		}
	}

	var cals []*Calendar
	for _, cal := range s.cfg.Calendars {
		if len(ids) > 0 && !slices.Contains(ids, cal.ID) {
			continue
		}
		if !cal.Enabled {
			internal.Logger(cal).Debug("Calendar disabled, skipping")
			continue
		}
		cals = append(cals, cal)
	}
	return cals, nil
}

// Reset forgets every change token and mapping, the next run is a full
// resync. Mirrored events stay on the destination.
func (s *Syncer) Reset(ctx context.Context) error {
	if err := s.storage.ClearAll(ctx); err != nil {
		return err
	}
	log.Info("Sync state cleared")
	return nil
}

// Purge removes every mirrored event known to the mapping store from the
// destination, then clears the sync state. It returns how many events were
// removed.
func (s *Syncer) Purge(ctx context.Context) (int, error) {
	dst, err := s.mux.Get(s.cfg.DestinationAccount)
	if err != nil {
		return 0, fmt.Errorf("loading destination gateway: %w", err)
	}
	calIDs, err := s.storage.MappedCalendars(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, calID := range calIDs {
		m, err := s.storage.EventMap(ctx, calID)
		if err != nil {
			return removed, err
		}
		cal := &Calendar{ID: calID}
		for srcID, dstID := range m {
			if err := s.removeDestination(ctx, dst, cal, dstID); err != nil {
				return removed, err
			}
			if err := s.storage.RemoveMapping(ctx, calID, srcID); err != nil {
				return removed, err
			}
			removed++
		}
		internal.Logger(cal).Infof("Removed %d mirrored event(s)", len(m))
	}
	return removed, s.storage.ClearAll(ctx)
}
