// Package mapping persists the association between source events and the
// destination events created for them, together with the per-calendar change
// tokens and the time of the last run.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	syncTokenPrefix = "syncToken_"
	eventMapPrefix  = "eventMap_"
	lastSyncKey     = "lastSyncTimestamp"
)

// KV is the storage substrate. Get reports ok=false for a missing key.
type KV interface {
	Get(_ context.Context, key string) (value string, ok bool, err error)
	Set(_ context.Context, key, value string) error
	Delete(_ context.Context, key string) error
	Keys(_ context.Context, prefix string) ([]string, error)
}

// EventMap maps source event ids to destination event ids.
type EventMap map[string]string

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func SyncTokenKey(calendarID string) string {
	return syncTokenPrefix + calendarID
}

func EventMapKey(calendarID string) string {
	return eventMapPrefix + calendarID
}

// SyncToken returns "" when no token is stored.
func (s *Store) SyncToken(ctx context.Context, calendarID string) (string, error) {
	token, _, err := s.kv.Get(ctx, SyncTokenKey(calendarID))
	if err != nil {
		return "", fmt.Errorf("mapping: reading sync token: %w", err)
	}
	return token, nil
}

func (s *Store) SetSyncToken(ctx context.Context, calendarID, token string) error {
	if err := s.kv.Set(ctx, SyncTokenKey(calendarID), token); err != nil {
		return fmt.Errorf("mapping: saving sync token: %w", err)
	}
	return nil
}

func (s *Store) DeleteSyncToken(ctx context.Context, calendarID string) error {
	if err := s.kv.Delete(ctx, SyncTokenKey(calendarID)); err != nil {
		return fmt.Errorf("mapping: deleting sync token: %w", err)
	}
	return nil
}

// EventMap never returns a nil map.
func (s *Store) EventMap(ctx context.Context, calendarID string) (EventMap, error) {
	raw, ok, err := s.kv.Get(ctx, EventMapKey(calendarID))
	if err != nil {
		return nil, fmt.Errorf("mapping: reading event map: %w", err)
	}
	m := EventMap{}
	if !ok || raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("mapping: decoding event map of %s: %w", calendarID, err)
	}
	return m, nil
}

func (s *Store) SetEventMap(ctx context.Context, calendarID string, m EventMap) error {
	if m == nil {
		m = EventMap{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("mapping: encoding event map: %w", err)
	}
	if err := s.kv.Set(ctx, EventMapKey(calendarID), string(raw)); err != nil {
		return fmt.Errorf("mapping: saving event map: %w", err)
	}
	return nil
}

// DestinationEventID returns "" when srcEventID is not mapped.
func (s *Store) DestinationEventID(ctx context.Context, calendarID, srcEventID string) (string, error) {
	m, err := s.EventMap(ctx, calendarID)
	if err != nil {
		return "", err
	}
	return m[srcEventID], nil
}

// AddMapping sets or replaces the destination event of srcEventID.
func (s *Store) AddMapping(ctx context.Context, calendarID, srcEventID, dstEventID string) error {
	m, err := s.EventMap(ctx, calendarID)
	if err != nil {
		return err
	}
	m[srcEventID] = dstEventID
	return s.SetEventMap(ctx, calendarID, m)
}

func (s *Store) RemoveMapping(ctx context.Context, calendarID, srcEventID string) error {
	m, err := s.EventMap(ctx, calendarID)
	if err != nil {
		return err
	}
	if _, ok := m[srcEventID]; !ok {
		return nil
	}
	delete(m, srcEventID)
	return s.SetEventMap(ctx, calendarID, m)
}

// LastSync returns the zero time when no run was recorded.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	raw, ok, err := s.kv.Get(ctx, lastSyncKey)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("mapping: parsing %s: %w", lastSyncKey, err)
	}
	return t, nil
}

func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, lastSyncKey, t.UTC().Format(time.RFC3339))
}

// MappedCalendars lists the calendars that have an event map.
func (s *Store) MappedCalendars(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, eventMapPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, eventMapPrefix)
	}
	return ids, nil
}

// ClearAll removes every change token and event map. Other keys, including
// the last run timestamp, are kept.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, prefix := range []string{syncTokenPrefix, eventMapPrefix} {
		keys, err := s.kv.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("mapping: listing %s keys: %w", prefix, err)
		}
		for _, k := range keys {
			if err := s.kv.Delete(ctx, k); err != nil {
				return fmt.Errorf("mapping: deleting %s: %w", k, err)
			}
		}
	}
	return nil
}
