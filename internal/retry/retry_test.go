package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guilherme-santos/mirrorcal/internal"
)

var errFlaky = errors.New("flaky")

func TestDelay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
}

func TestDo(t *testing.T) {
	ctx := context.Background()
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(ctx, p, func() error {
			calls++
			if calls < 3 {
				return errFlaky
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		err := Do(ctx, p, func() error {
			calls++
			return fmt.Errorf("attempt %d: %w", calls, errFlaky)
		})
		assert.EqualError(t, err, "attempt 3: flaky")
		assert.Equal(t, 3, calls)
	})

	for _, permanent := range []error{internal.ErrPermission, internal.ErrNotFound, internal.ErrTokenInvalidated} {
		t.Run("does not retry "+permanent.Error(), func(t *testing.T) {
			calls := 0
			err := Do(ctx, p, func() error {
				calls++
				return fmt.Errorf("google: %w", permanent)
			})
			assert.ErrorIs(t, err, permanent)
			assert.Equal(t, 1, calls)
		})
	}

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_ = Do(ctx, Policy{}, func() error {
			calls++
			return errFlaky
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("stops waiting when context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := Do(ctx, Policy{Attempts: 5, BaseDelay: time.Hour}, func() error {
			calls++
			return errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 1, calls)
	})
}

func TestValue(t *testing.T) {
	calls := 0
	v, err := Value(context.Background(), Policy{Attempts: 2}, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errFlaky
		}
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}
