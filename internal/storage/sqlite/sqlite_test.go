package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "kantong.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, found, err := repo.Get(ctx, "budget:2025-11")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "budget:2025-11", []byte(`{"initialBudget":5000000}`)))
	require.NoError(t, repo.Set(ctx, "budget:2025-11", []byte(`{"initialBudget":6000000}`)))

	v, found, err := repo.Get(ctx, "budget:2025-11")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"initialBudget":6000000}`, string(v))

	require.NoError(t, repo.Del(ctx, "budget:2025-11"))
	_, found, err = repo.Get(ctx, "budget:2025-11")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLitePrefixScanInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, k := range []string{"income:2025-11:b", "income:2025-11:a", "income:2025-12:c", "income-name:gaji"} {
		require.NoError(t, repo.Set(ctx, k, []byte(k)))
	}
	// An upsert must not move the row.
	require.NoError(t, repo.Set(ctx, "income:2025-11:b", []byte("updated")))

	entries, err := repo.GetByPrefix(ctx, "income:2025-11:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "income:2025-11:b", entries[0].Key)
	assert.Equal(t, "updated", string(entries[0].Value))
	assert.Equal(t, "income:2025-11:a", entries[1].Key)
}

func TestSQLitePrefixEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Set(ctx, "income-name:a_b", []byte("1")))
	require.NoError(t, repo.Set(ctx, "income-name:axb", []byte("2")))

	entries, err := repo.GetByPrefix(ctx, "income-name:a_")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "income-name:a_b", entries[0].Key)
}

func TestMigrateReportsVersionAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kantong.db")

	version, err := Migrate(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, err = Migrate(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
