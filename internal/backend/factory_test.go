package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kantong/internal/config"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "bolt", config: Config{Type: BoltBackend, BoltDBPath: filepath.Join(dir, "kantong.db")}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "kantong.sqlite")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, result.Close()) })

			require.NoError(t, result.Store.Set(ctx, "pocket:abc", []byte(`{"id":"abc"}`)))
			got, ok, err := result.Store.Get(ctx, "pocket:abc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"id":"abc"}`, string(got))
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = f.CreateBackend(context.Background(), Config{Type: BoltBackend})
	assert.ErrorContains(t, err, "bolt database path is required")
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "nope"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.sqlite"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.sqlite", cfg.SQLiteDBPath)
}
