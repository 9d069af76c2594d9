package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "kantong.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, found, err := s.Get(ctx, "pocket:primary")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "pocket:primary", []byte(`{"id":"primary"}`)))
	v, found, err := s.Get(ctx, "pocket:primary")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"id":"primary"}`, string(v))

	require.NoError(t, s.Del(ctx, "pocket:primary"))
	require.NoError(t, s.Del(ctx, "pocket:primary"))
	_, found, err = s.Get(ctx, "pocket:primary")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStorePrefixScan(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	keys := []string{
		"expense:2025-10:01",
		"expense:2025-11:01",
		"expense:2025-11:02",
		"expense:2025-110",
		"income:2025-11:01",
	}
	for _, k := range keys {
		require.NoError(t, s.Set(ctx, k, []byte(k)))
	}

	entries, err := s.GetByPrefix(ctx, "expense:2025-11:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "expense:2025-11:01", entries[0].Key)
	assert.Equal(t, "expense:2025-11:02", entries[1].Key)
	assert.Equal(t, "expense:2025-11:02", string(entries[1].Value))

	entries, err = s.GetByPrefix(ctx, "transfer:")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBoltStoreHonorsCancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), context.Canceled)
}
