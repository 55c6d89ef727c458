package calendar

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/guilherme-santos/mirrorcal/internal"
	"github.com/guilherme-santos/mirrorcal/internal/retry"
)

// Gateway applies the retry policy and a request rate limit to every call of
// the wrapped gateway.
type Gateway struct {
	next    internal.Gateway
	policy  retry.Policy
	limiter *rate.Limiter
}

// WithRetry wraps gw. A nil limiter disables rate limiting.
func WithRetry(gw internal.Gateway, policy retry.Policy, limiter *rate.Limiter) *Gateway {
	return &Gateway{
		next:    gw,
		policy:  policy,
		limiter: limiter,
	}
}

func (g *Gateway) ListEvents(ctx context.Context, calendarID string, opts internal.ListOptions) (*internal.EventPage, error) {
	return retry.Value(ctx, g.policy, func() (*internal.EventPage, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return g.next.ListEvents(ctx, calendarID, opts)
	})
}

func (g *Gateway) GetEvent(ctx context.Context, calendarID, eventID string) (*internal.DestinationEvent, error) {
	return retry.Value(ctx, g.policy, func() (*internal.DestinationEvent, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return g.next.GetEvent(ctx, calendarID, eventID)
	})
}

func (g *Gateway) InsertEvent(ctx context.Context, calendarID string, e *internal.DestinationEvent) (string, error) {
	return retry.Value(ctx, g.policy, func() (string, error) {
		if err := g.wait(ctx); err != nil {
			return "", err
		}
		return g.next.InsertEvent(ctx, calendarID, e)
	})
}

func (g *Gateway) PatchEvent(ctx context.Context, calendarID, eventID string, e *internal.DestinationEvent) error {
	return retry.Do(ctx, g.policy, func() error {
		if err := g.wait(ctx); err != nil {
			return err
		}
		return g.next.PatchEvent(ctx, calendarID, eventID, e)
	})
}

func (g *Gateway) RemoveEvent(ctx context.Context, calendarID, eventID string) error {
	return retry.Do(ctx, g.policy, func() error {
		if err := g.wait(ctx); err != nil {
			return err
		}
		return g.next.RemoveEvent(ctx, calendarID, eventID)
	})
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
