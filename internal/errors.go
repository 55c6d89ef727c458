package internal

import "errors"

var (
	// ErrTokenInvalidated is returned when the remote index no longer accepts
	// a change token and a full resync is required.
	ErrTokenInvalidated = errors.New("change token invalidated")
	ErrNotFound         = errors.New("not found")
	ErrPermission       = errors.New("permission denied")
	ErrUnknownCalendar  = errors.New("calendar is not configured")
)

// IsPermanent reports whether retrying err cannot help.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTokenInvalidated)
}
