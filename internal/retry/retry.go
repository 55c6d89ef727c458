// Package retry runs remote calls again after transient failures, waiting
// exponentially longer between attempts.
package retry

import (
	"context"
	"time"

	"github.com/guilherme-santos/mirrorcal/internal"
)

type Policy struct {
	// Attempts is the total number of calls, values below 1 mean one call.
	Attempts  int
	BaseDelay time.Duration
	// Permanent reports errors that must not be retried. Defaults to
	// internal.IsPermanent.
	Permanent func(error) bool
}

// Delay returns the wait before the given retry (1-based):
// BaseDelay * 2^(attempt-1).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay << (attempt - 1)
}

// Do calls fn until it succeeds, fails permanently, or runs out of
// attempts, returning the last error. The wait between attempts is cut short
// when ctx is done.
func Do(ctx context.Context, p Policy, fn func() error) error {
	permanent := p.Permanent
	if permanent == nil {
		permanent = internal.IsPermanent
	}
	attempts := max(p.Attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || permanent(err) || attempt >= attempts {
			return err
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// Value is Do for calls returning a result.
func Value[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var v T
	err := Do(ctx, p, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}
