package internal

import (
	"context"
	"time"
)

type Mux interface {
	Get(account string) (Gateway, error)
}

// Gateway is the remote calendar API.
type Gateway interface {
	// ListEvents returns one page of events. It returns ErrTokenInvalidated
	// when opts.SyncToken is no longer accepted.
	ListEvents(_ context.Context, calendarID string, opts ListOptions) (*EventPage, error)
	// GetEvent returns ErrNotFound when the event does not exist.
	GetEvent(_ context.Context, calendarID, eventID string) (*DestinationEvent, error)
	InsertEvent(_ context.Context, calendarID string, _ *DestinationEvent) (string, error)
	PatchEvent(_ context.Context, calendarID, eventID string, _ *DestinationEvent) error
	// RemoveEvent returns ErrNotFound when the event is already gone.
	RemoveEvent(_ context.Context, calendarID, eventID string) error
}

// ListOptions selects either an incremental listing (SyncToken) or a
// windowed one (TimeMin/TimeMax). Cancelled events and expanded recurring
// instances are always requested.
type ListOptions struct {
	SyncToken  string
	TimeMin    time.Time
	TimeMax    time.Time
	PageToken  string
	MaxResults int64
}

func (o ListOptions) Incremental() bool {
	return o.SyncToken != ""
}

type EventPage struct {
	Items         []*SourceEvent
	NextPageToken string
	NextSyncToken string
}
