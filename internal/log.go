package internal

import (
	log "github.com/sirupsen/logrus"
)

// Logger returns an entry tagged with the calendar, if any.
func Logger(cal *Calendar) *log.Entry {
	entry := log.NewEntry(log.StandardLogger())
	if cal != nil {
		entry = entry.WithField("calendar", cal.ID)
		if cal.Label != "" {
			entry = entry.WithField("label", cal.Label)
		}
	}
	return entry
}
