package mapping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSyncToken(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	token, err := s.SyncToken(ctx, "cal")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.SetSyncToken(ctx, "cal", "tok-1"))
	raw, ok, _ := kv.Get(ctx, "syncToken_cal")
	assert.True(t, ok)
	assert.Equal(t, "tok-1", raw)

	require.NoError(t, s.DeleteSyncToken(ctx, "cal"))
	token, err = s.SyncToken(ctx, "cal")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStoreMappings(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	m, err := s.EventMap(ctx, "cal")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)

	require.NoError(t, s.AddMapping(ctx, "cal", "src-1", "dst-1"))
	require.NoError(t, s.AddMapping(ctx, "cal", "src-2", "dst-2"))
	require.NoError(t, s.AddMapping(ctx, "other", "src-1", "dst-9"))

	id, err := s.DestinationEventID(ctx, "cal", "src-1")
	require.NoError(t, err)
	assert.Equal(t, "dst-1", id)

	raw, _, _ := kv.Get(ctx, "eventMap_cal")
	assert.JSONEq(t, `{"src-1":"dst-1","src-2":"dst-2"}`, raw)

	t.Run("replacing keeps a single entry", func(t *testing.T) {
		require.NoError(t, s.AddMapping(ctx, "cal", "src-1", "dst-1b"))
		m, err := s.EventMap(ctx, "cal")
		require.NoError(t, err)
		assert.Equal(t, EventMap{"src-1": "dst-1b", "src-2": "dst-2"}, m)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.RemoveMapping(ctx, "cal", "src-2"))
		require.NoError(t, s.RemoveMapping(ctx, "cal", "missing"))

		id, err := s.DestinationEventID(ctx, "cal", "src-2")
		require.NoError(t, err)
		assert.Empty(t, id)

		id, err = s.DestinationEventID(ctx, "other", "src-1")
		require.NoError(t, err)
		assert.Equal(t, "dst-9", id)
	})

	t.Run("corrupt map", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "eventMap_bad", "{not json"))
		_, err := s.EventMap(ctx, "bad")
		assert.Error(t, err)
		require.NoError(t, kv.Delete(ctx, "eventMap_bad"))
	})

	ids, err := s.MappedCalendars(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cal", "other"}, ids)
}

func TestStoreLastSync(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV())

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.FixedZone("JST", 9*3600))
	require.NoError(t, s.SetLastSync(ctx, now))

	last, err = s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(last))
}

func TestStoreClearAll(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	require.NoError(t, s.SetSyncToken(ctx, "a", "t"))
	require.NoError(t, s.SetSyncToken(ctx, "b", "t"))
	require.NoError(t, s.AddMapping(ctx, "a", "x", "y"))
	require.NoError(t, s.SetLastSync(ctx, time.Now()))
	require.NoError(t, kv.Set(ctx, "unrelated", "keep"))

	require.NoError(t, s.ClearAll(ctx))

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"lastSyncTimestamp", "unrelated"}, keys)
}
