package syncer

import (
	"time"

	"github.com/guilherme-santos/mirrorcal/internal"
)

func formatEventTime(t internal.EventTime) string {
	if t.DateTime == "" {
		return t.Date
	}
	d, err := time.Parse(time.RFC3339, t.DateTime)
	if err != nil {
		return t.DateTime
	}
	return d.In(time.Local).Format("02 Jan 06 15:04")
}

func mode(full bool) string {
	if full {
		return "full"
	}
	return "incremental"
}
