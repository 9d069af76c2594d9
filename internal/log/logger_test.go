package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, JSON: true, Output: &buf})

	logger.Info("Transaction recorded", FieldMonth, "2025-11")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ComponentLedger, rec[FieldComponent])
	assert.Equal(t, "2025-11", rec[FieldMonth])
	assert.Equal(t, "Transaction recorded", rec["msg"])
}

func TestLoggerWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentApp, JSON: true, Output: &buf})

	base.WithComponent(ComponentWorker).Warn("slow")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"component"`)))
	assert.Contains(t, buf.String(), `"component":"worker"`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentReconcile).
		WithOperation(OpReconcile).
		WithTransaction("expense", "2025-11", "tx-1", 125_000).
		WithPocket("primary").
		WithError(errors.New("boom")).
		WithError(nil)

	assert.Equal(t, ComponentReconcile, f[FieldComponent])
	assert.Equal(t, OpReconcile, f[FieldOperation])
	assert.Equal(t, "tx-1", f[FieldTxID])
	assert.Equal(t, int64(125_000), f[FieldAmount])
	assert.Equal(t, "primary", f[FieldPocketID])
	assert.Equal(t, "boom", f[FieldError])
	assert.Len(t, f.ToSlice(), len(f)*2)
}
