package syncer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/guilherme-santos/mirrorcal/internal"
)

type versionedEvent struct {
	event   *internal.SourceEvent
	version int
}

// fakeGateway keeps source calendars with a change history and a
// destination calendar in memory.
type fakeGateway struct {
	mu sync.Mutex

	sources  map[string][]*versionedEvent
	version  int
	tokens   map[string]int
	dest     map[string]*internal.DestinationEvent
	nextDest int

	listErrs   map[string][]error
	insertErrs map[string]error

	lists   []internal.ListOptions
	inserts int
	patches int
	removes int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sources:    make(map[string][]*versionedEvent),
		tokens:     make(map[string]int),
		dest:       make(map[string]*internal.DestinationEvent),
		listErrs:   make(map[string][]error),
		insertErrs: make(map[string]error),
	}
}

// put adds or replaces a source event, recording it as a change.
func (g *fakeGateway) put(calendarID string, e *internal.SourceEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.version++
	cp := *e
	for _, v := range g.sources[calendarID] {
		if v.event.ID == e.ID {
			v.event, v.version = &cp, g.version
			return
		}
	}
	g.sources[calendarID] = append(g.sources[calendarID], &versionedEvent{event: &cp, version: g.version})
}

func (g *fakeGateway) cancel(calendarID, eventID string) {
	g.put(calendarID, &internal.SourceEvent{ID: eventID, Status: internal.StatusCancelled})
}

func (g *fakeGateway) invalidateTokens() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tokens = make(map[string]int)
}

func (g *fakeGateway) failNextList(calendarID string, errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listErrs[calendarID] = append(g.listErrs[calendarID], errs...)
}

func (g *fakeGateway) destEvents() map[string]*internal.DestinationEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]*internal.DestinationEvent, len(g.dest))
	for k, v := range g.dest {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (g *fakeGateway) ListEvents(_ context.Context, calendarID string, opts internal.ListOptions) (*internal.EventPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lists = append(g.lists, opts)
	if errs := g.listErrs[calendarID]; len(errs) > 0 {
		g.listErrs[calendarID] = errs[1:]
		return nil, errs[0]
	}

	since := 0
	if opts.Incremental() {
		v, ok := g.tokens[opts.SyncToken]
		if !ok {
			return nil, fmt.Errorf("fake: %w", internal.ErrTokenInvalidated)
		}
		since = v
	}

	var items []*internal.SourceEvent
	for _, v := range g.sources[calendarID] {
		if v.version > since {
			cp := *v.event
			items = append(items, &cp)
		}
	}

	offset := 0
	if opts.PageToken != "" {
		offset, _ = strconv.Atoi(strings.TrimPrefix(opts.PageToken, "p"))
	}
	size := len(items)
	if opts.MaxResults > 0 {
		size = int(opts.MaxResults)
	}
	end := min(offset+size, len(items))

	page := &internal.EventPage{Items: items[offset:end]}
	if end < len(items) {
		page.NextPageToken = "p" + strconv.Itoa(end)
	} else {
		token := fmt.Sprintf("tok-%s-%d", calendarID, g.version)
		g.tokens[token] = g.version
		page.NextSyncToken = token
	}
	return page, nil
}

func (g *fakeGateway) GetEvent(_ context.Context, _, eventID string) (*internal.DestinationEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.dest[eventID]
	if !ok {
		return nil, fmt.Errorf("fake: %s: %w", eventID, internal.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (g *fakeGateway) InsertEvent(_ context.Context, _ string, e *internal.DestinationEvent) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.insertErrs[e.Provenance.SourceEventID]; err != nil {
		return "", err
	}
	g.inserts++
	g.nextDest++
	cp := *e
	cp.ID = "d" + strconv.Itoa(g.nextDest)
	g.dest[cp.ID] = &cp
	return cp.ID, nil
}

func (g *fakeGateway) PatchEvent(_ context.Context, _, eventID string, e *internal.DestinationEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.dest[eventID]; !ok {
		return internal.ErrNotFound
	}
	g.patches++
	cp := *e
	cp.ID = eventID
	g.dest[eventID] = &cp
	return nil
}

func (g *fakeGateway) RemoveEvent(_ context.Context, _, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.dest[eventID]; !ok {
		return internal.ErrNotFound
	}
	g.removes++
	delete(g.dest, eventID)
	return nil
}

// removeDestManually simulates a human deleting a mirrored event.
func (g *fakeGateway) removeDestManually(eventID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.dest, eventID)
}

type fakeMux map[string]internal.Gateway

func (m fakeMux) Get(account string) (internal.Gateway, error) {
	gw, ok := m[account]
	if !ok {
		return nil, fmt.Errorf("account %q is not registered", account)
	}
	return gw, nil
}
