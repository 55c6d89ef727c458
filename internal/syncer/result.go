package syncer

import "time"

// CalendarResult counts what one calendar sync did. Counts of a failed sync
// cover the events processed before the failure.
type CalendarResult struct {
	CalendarID string `json:"calendarId"`
	Label      string `json:"label"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Deleted    int    `json:"deleted"`
	FullSync   bool   `json:"fullSync"`
}

type CalendarError struct {
	CalendarID string `json:"calendarId"`
	Label      string `json:"label"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

// RunResult aggregates a run over every selected calendar.
type RunResult struct {
	RunID        string            `json:"runId"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	DurationMs   int64             `json:"durationMs"`
	TotalCreated int               `json:"totalCreated"`
	TotalUpdated int               `json:"totalUpdated"`
	TotalDeleted int               `json:"totalDeleted"`
	Errors       []CalendarError   `json:"errors"`
	Calendars    []*CalendarResult `json:"calendars"`
}

func (r *RunResult) add(res *CalendarResult) {
	r.Calendars = append(r.Calendars, res)
	r.TotalCreated += res.Created
	r.TotalUpdated += res.Updated
	r.TotalDeleted += res.Deleted
}

func (r *RunResult) HasErrors() bool {
	return len(r.Errors) > 0
}
