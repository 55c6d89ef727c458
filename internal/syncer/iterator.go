package syncer

import (
	"context"

	"github.com/guilherme-santos/mirrorcal/internal"
)

// eventIterator walks every page of a listing in order. The change token
// becomes available only once the last page has been consumed.
type eventIterator struct {
	ctx        context.Context
	gw         internal.Gateway
	calendarID string
	opts       internal.ListOptions

	page      *internal.EventPage
	idx       int
	pages     int
	current   *internal.SourceEvent
	syncToken string
	done      bool
	err       error
}

func newEventIterator(ctx context.Context, gw internal.Gateway, calendarID string, opts internal.ListOptions) *eventIterator {
	return &eventIterator{
		ctx:        ctx,
		gw:         gw,
		calendarID: calendarID,
		opts:       opts,
	}
}

func (it *eventIterator) Next() bool {
	for it.err == nil && !it.done {
		if it.page != nil && it.idx < len(it.page.Items) {
			it.current = it.page.Items[it.idx]
			it.idx++
			return true
		}
		if it.page != nil {
			if it.page.NextPageToken == "" {
				it.syncToken = it.page.NextSyncToken
				it.done = true
				break
			}
			it.opts.PageToken = it.page.NextPageToken
		}

		page, err := it.gw.ListEvents(it.ctx, it.calendarID, it.opts)
		if err != nil {
			it.err = err
			break
		}
		if page == nil {
			page = &internal.EventPage{}
		}
		it.page, it.idx = page, 0
		it.pages++
	}
	it.current = nil
	return false
}

func (it *eventIterator) Event() *internal.SourceEvent {
	if it.current == nil {
		panic("syncer: Event() called without a successful Next()")
	}
	return it.current
}

// SyncToken returns the token of the last page, "" before the listing is
// complete or when the gateway issued none.
func (it *eventIterator) SyncToken() string {
	return it.syncToken
}

func (it *eventIterator) Pages() int {
	return it.pages
}

func (it *eventIterator) Err() error {
	return it.err
}
