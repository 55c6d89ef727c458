package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/guilherme-santos/mirrorcal/internal"
	"github.com/guilherme-santos/mirrorcal/internal/retry"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListEvents(ctx context.Context, calendarID string, opts internal.ListOptions) (*internal.EventPage, error) {
	args := m.Called(ctx, calendarID, opts)
	page, _ := args.Get(0).(*internal.EventPage)
	return page, args.Error(1)
}

func (m *mockGateway) GetEvent(ctx context.Context, calendarID, eventID string) (*internal.DestinationEvent, error) {
	args := m.Called(ctx, calendarID, eventID)
	e, _ := args.Get(0).(*internal.DestinationEvent)
	return e, args.Error(1)
}

func (m *mockGateway) InsertEvent(ctx context.Context, calendarID string, e *internal.DestinationEvent) (string, error) {
	args := m.Called(ctx, calendarID, e)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) PatchEvent(ctx context.Context, calendarID, eventID string, e *internal.DestinationEvent) error {
	return m.Called(ctx, calendarID, eventID, e).Error(0)
}

func (m *mockGateway) RemoveEvent(ctx context.Context, calendarID, eventID string) error {
	return m.Called(ctx, calendarID, eventID).Error(0)
}

var testPolicy = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}

func TestGatewayRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	next := &mockGateway{}
	gw := WithRetry(next, testPolicy, rate.NewLimiter(rate.Inf, 1))

	e := &internal.DestinationEvent{Summary: "x"}
	next.On("InsertEvent", ctx, "dst", e).Return("", errors.New("503")).Twice()
	next.On("InsertEvent", ctx, "dst", e).Return("new-id", nil).Once()

	id, err := gw.InsertEvent(ctx, "dst", e)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	next.AssertExpectations(t)
}

func TestGatewayFailsFastOnPermanentErrors(t *testing.T) {
	ctx := context.Background()
	next := &mockGateway{}
	gw := WithRetry(next, testPolicy, nil)

	next.On("RemoveEvent", ctx, "dst", "gone").Return(fmt.Errorf("google: %w", internal.ErrNotFound)).Once()
	next.On("ListEvents", ctx, "src", mock.Anything).Return(nil, internal.ErrTokenInvalidated).Once()
	next.On("GetEvent", ctx, "dst", "secret").Return(nil, internal.ErrPermission).Once()

	assert.ErrorIs(t, gw.RemoveEvent(ctx, "dst", "gone"), internal.ErrNotFound)
	_, err := gw.ListEvents(ctx, "src", internal.ListOptions{SyncToken: "t"})
	assert.ErrorIs(t, err, internal.ErrTokenInvalidated)
	_, err = gw.GetEvent(ctx, "dst", "secret")
	assert.ErrorIs(t, err, internal.ErrPermission)

	next.AssertExpectations(t)
}

func TestGatewayGivesUpAfterAttempts(t *testing.T) {
	ctx := context.Background()
	next := &mockGateway{}
	gw := WithRetry(next, testPolicy, nil)

	boom := errors.New("timeout")
	next.On("PatchEvent", ctx, "dst", "id", mock.Anything).Return(boom).Times(3)

	err := gw.PatchEvent(ctx, "dst", "id", &internal.DestinationEvent{})
	assert.ErrorIs(t, err, boom)
	next.AssertExpectations(t)
}

func TestMux(t *testing.T) {
	mux := NewMux()
	gw := &mockGateway{}
	mux.Register("default", gw)

	got, err := mux.Get("default")
	require.NoError(t, err)
	assert.Same(t, gw, got)

	_, err = mux.Get("missing")
	assert.Error(t, err)
}
