package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/mirrorcal/internal/mapping"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageKV(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageKeysMatchPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	for _, k := range []string{"syncToken_a", "syncToken_b", "syncTokenXc", "eventMap_a"} {
		require.NoError(t, s.Set(ctx, k, "v"))
	}

	keys, err := s.Keys(ctx, "syncToken_")
	require.NoError(t, err)
	assert.Equal(t, []string{"syncToken_a", "syncToken_b"}, keys)

	all, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStorageBacksMappingStore(t *testing.T) {
	ctx := context.Background()
	store := mapping.NewStore(setupTestStorage(t))

	require.NoError(t, store.SetSyncToken(ctx, "work@example.com", "tok"))
	require.NoError(t, store.AddMapping(ctx, "work@example.com", "src", "dst"))

	id, err := store.DestinationEventID(ctx, "work@example.com", "src")
	require.NoError(t, err)
	assert.Equal(t, "dst", id)

	require.NoError(t, store.ClearAll(ctx))

	token, err := store.SyncToken(ctx, "work@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	id, err = store.DestinationEventID(ctx, "work@example.com", "src")
	require.NoError(t, err)
	assert.Empty(t, id)
}
