package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kantong/internal/amqp"
	"kantong/internal/core"
	"kantong/internal/services"
)

type fakeReconciler struct {
	mu       sync.Mutex
	checked  []core.MonthKey
	allCalls int
	reports  []services.Report
	err      error
}

func (f *fakeReconciler) CheckMonth(_ context.Context, month core.MonthKey) (services.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, month)
	if f.err != nil {
		return services.Report{}, f.err
	}
	return services.Report{
		Month:  month,
		Issues: []services.Issue{{Kind: services.IssueFundsMismatch, Month: month, Detail: "off by 1"}},
	}, nil
}

func (f *fakeReconciler) CheckAll(context.Context) ([]services.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	return f.reports, f.err
}

func (f *fakeReconciler) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summary(_ context.Context, month core.MonthKey) (core.MonthSummary, error) {
	return core.MonthSummary{Month: month, TotalProjected: 42}, nil
}

type fakeExporter struct {
	exported []core.MonthKey
	err      error
}

func (f *fakeExporter) ExportMonth(_ context.Context, s core.MonthSummary) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.exported = append(f.exported, s.Month)
	return "'" + s.Month.String() + "'!A1:F10", nil
}

func TestHandleLedgerEventReconcilesAndExports(t *testing.T) {
	rec := &fakeReconciler{}
	exp := &fakeExporter{}
	w := NewReconcileWorker(rec, fakeSummarizer{}, exp)

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent("2025-11", "expense", "tx-1", amqp.OpCreate))
	require.NoError(t, err)

	assert.Equal(t, []core.MonthKey{"2025-11"}, rec.checked)
	assert.Equal(t, []core.MonthKey{"2025-11"}, exp.exported)
}

func TestHandleLedgerEventWithoutExporter(t *testing.T) {
	rec := &fakeReconciler{}
	w := NewReconcileWorker(rec, fakeSummarizer{}, nil)

	require.NoError(t, w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent("2025-11", "", "", amqp.OpLock)))
	assert.Len(t, rec.checked, 1)
}

func TestHandleLedgerEventDropsMalformedMonth(t *testing.T) {
	rec := &fakeReconciler{}
	w := NewReconcileWorker(rec, fakeSummarizer{}, &fakeExporter{})

	err := w.HandleLedgerEvent(context.Background(), &amqp.LedgerEvent{Month: "Nov 2025", Op: amqp.OpCreate})
	require.NoError(t, err)
	assert.Empty(t, rec.checked)
}

func TestHandleLedgerEventPropagatesFailures(t *testing.T) {
	boom := errors.New("boom")

	w := NewReconcileWorker(&fakeReconciler{err: boom}, fakeSummarizer{}, nil)
	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent("2025-11", "income", "x", amqp.OpUpdate))
	assert.ErrorIs(t, err, boom)

	w = NewReconcileWorker(&fakeReconciler{}, fakeSummarizer{}, &fakeExporter{err: boom})
	err = w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent("2025-11", "income", "x", amqp.OpUpdate))
	assert.ErrorIs(t, err, boom)
}

func TestStartupCheckExportsEveryMonth(t *testing.T) {
	rec := &fakeReconciler{reports: []services.Report{{Month: "2025-10"}, {Month: "2025-11"}}}
	exp := &fakeExporter{}
	w := NewReconcileWorker(rec, fakeSummarizer{}, exp)

	require.NoError(t, w.StartupCheck(context.Background()))
	assert.Equal(t, []core.MonthKey{"2025-10", "2025-11"}, exp.exported)
}

func TestRunStopsOnCancel(t *testing.T) {
	rec := &fakeReconciler{}
	w := NewReconcileWorker(rec, fakeSummarizer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rec.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
