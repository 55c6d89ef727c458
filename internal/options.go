package internal

// SyncOptions are the run-wide fetch and filter settings.
type SyncOptions struct {
	DestinationCalendarID string
	SyncWindowDays        int
	SyncPastDays          int
	IncludeAllDayEvents   bool
	IncludeDeclinedEvents bool
	BatchSize             int64
}

// MappingOptions govern how source events are shaped for the destination.
type MappingOptions struct {
	PrefixFormat    string
	BusyLabel       string
	CopyDescription bool
	CopyLocation    bool
	// CopyAttendees and CopyReminders are accepted for compatibility but not
	// applied, copying either would widen what leaves the source calendar.
	CopyAttendees bool
	CopyReminders bool
	SetAsPrivate  bool
}
