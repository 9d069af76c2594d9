package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kantong/internal/amqp"
	"kantong/internal/core"
	klog "kantong/internal/log"
	"kantong/internal/services"
	"kantong/internal/sheets"
)

type (
	// Reconciler checks ledger consistency.
	Reconciler interface {
		CheckMonth(ctx context.Context, month core.MonthKey) (services.Report, error)
		CheckAll(ctx context.Context) ([]services.Report, error)
	}

	// Summarizer builds month summaries for export.
	Summarizer interface {
		Summary(ctx context.Context, month core.MonthKey) (core.MonthSummary, error)
	}
)

// ReconcileWorker re-checks months touched by ledger events and keeps the
// optional spreadsheet report in step.
type ReconcileWorker struct {
	reconciler Reconciler
	summaries  Summarizer
	exporter   sheets.ReportExporter
}

// NewReconcileWorker creates a worker. exporter may be nil to skip sheet export.
func NewReconcileWorker(reconciler Reconciler, summaries Summarizer, exporter sheets.ReportExporter) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		summaries:  summaries,
		exporter:   exporter,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *ReconcileWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		klog.FieldComponent, klog.ComponentWorker,
		klog.FieldMonth, ev.Month,
		klog.FieldKind, ev.Kind,
		klog.FieldTxID, ev.ID,
		klog.FieldOperation, ev.Op)

	month, err := core.ParseMonthKey(ev.Month)
	if err != nil {
		// Redelivery cannot fix a malformed month.
		slog.WarnContext(ctx, "Dropping ledger event with malformed month",
			klog.FieldMonth, ev.Month,
			klog.FieldError, err,
			"error_type", klog.ErrorTypeValidation)
		return nil
	}

	return w.processMonth(ctx, month)
}

// StartupCheck reconciles every stored month, recovering from events missed
// while the worker was down.
func (w *ReconcileWorker) StartupCheck(ctx context.Context) error {
	reports, err := w.reconciler.CheckAll(ctx)
	if err != nil {
		return fmt.Errorf("reconcile all months: %w", err)
	}

	failing := 0
	var errs []error
	for _, r := range reports {
		if !r.OK() {
			failing++
		}
		if err := w.export(ctx, r.Month); err != nil {
			errs = append(errs, err)
		}
	}

	slog.InfoContext(ctx, "Startup reconcile completed",
		klog.FieldComponent, klog.ComponentReconcile,
		klog.FieldOperation, klog.OpStartup,
		"months", len(reports),
		"inconsistent", failing,
		"export_errors", len(errs))

	return errors.Join(errs...)
}

// Run reconciles all months every interval until ctx is cancelled.
func (w *ReconcileWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic reconcile stopped")
			return
		case <-ticker.C:
			reports, err := w.reconciler.CheckAll(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic reconcile failed",
					klog.FieldComponent, klog.ComponentReconcile,
					klog.FieldError, err)
				continue
			}
			issues := 0
			for _, r := range reports {
				issues += len(r.Issues)
			}
			slog.DebugContext(ctx, "Periodic reconcile completed",
				klog.FieldComponent, klog.ComponentReconcile,
				klog.FieldOperation, klog.OpReconcile,
				"months", len(reports),
				klog.FieldIssues, issues)
		}
	}
}

func (w *ReconcileWorker) processMonth(ctx context.Context, month core.MonthKey) error {
	report, err := w.reconciler.CheckMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", month, err)
	}
	for _, issue := range report.Issues {
		slog.WarnContext(ctx, "Ledger inconsistency",
			klog.FieldComponent, klog.ComponentReconcile,
			klog.FieldMonth, month,
			"issue", issue.String())
	}

	return w.export(ctx, month)
}

func (w *ReconcileWorker) export(ctx context.Context, month core.MonthKey) error {
	if w.exporter == nil {
		return nil
	}
	summary, err := w.summaries.Summary(ctx, month)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", month, err)
	}
	ref, err := w.exporter.ExportMonth(ctx, summary)
	if err != nil {
		return fmt.Errorf("export %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Month report exported",
		klog.FieldComponent, klog.ComponentSheets,
		klog.FieldOperation, klog.OpExport,
		klog.FieldMonth, month,
		klog.FieldSheetsRange, ref)
	return nil
}
