package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kantong/internal/core"
	"kantong/internal/storage"
)

type IssueKind string

const (
	IssueUnknownPocket  IssueKind = "unknown_pocket"
	IssueSelfTransfer   IssueKind = "self_transfer"
	IssueStaleExclusion IssueKind = "stale_exclusion"
	IssueFundsMismatch  IssueKind = "funds_mismatch"
)

// Issue is one inconsistency found in a month.
type Issue struct {
	Kind          IssueKind
	Month         core.MonthKey
	TransactionID string
	TxKind        core.Kind
	Detail        string
}

func (i Issue) String() string {
	if i.TransactionID == "" {
		return fmt.Sprintf("%s %s: %s", i.Month, i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s %s %s/%s: %s", i.Month, i.Kind, i.TxKind, i.TransactionID, i.Detail)
}

// Report is the outcome of checking one month.
type Report struct {
	Month     core.MonthKey
	Issues    []Issue
	CheckedAt time.Time
}

func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// Reconciler checks that a month's stored records are mutually consistent.
type Reconciler struct {
	repo       *storage.Repository
	pockets    *PocketRegistry
	aggregator *Aggregator
}

func NewReconciler(repo *storage.Repository, pockets *PocketRegistry, aggregator *Aggregator) *Reconciler {
	return &Reconciler{
		repo:       repo,
		pockets:    pockets,
		aggregator: aggregator,
	}
}

// CheckMonth reports records pointing at unknown pockets, self-transfers,
// exclusions of missing records, and any difference between the sum of pocket
// balances and the funds that entered or left the known pockets.
func (r *Reconciler) CheckMonth(ctx context.Context, month core.MonthKey) (Report, error) {
	if err := month.Validate(); err != nil {
		return Report{}, err
	}

	pockets, err := r.pockets.List(ctx, core.PocketFilter{})
	if err != nil {
		return Report{}, err
	}
	known := make(map[string]bool, len(pockets))
	for _, p := range pockets {
		known[p.ID] = true
	}

	ledger, err := r.aggregator.loadMonth(ctx, month)
	if err != nil {
		return Report{}, err
	}

	report := Report{Month: month, CheckedAt: r.repo.Now()}
	add := func(kind IssueKind, t *core.Transaction, detail string) {
		issue := Issue{Kind: kind, Month: month, Detail: detail}
		if t != nil {
			issue.TransactionID = t.ID
			issue.TxKind = t.Kind
		}
		report.Issues = append(report.Issues, issue)
	}

	ids := map[core.Kind]map[string]bool{
		core.KindExpense: {},
		core.KindIncome:  {},
	}
	for i := range ledger.transactions {
		t := &ledger.transactions[i]
		if set, ok := ids[t.Kind]; ok {
			set[t.ID] = true
		}
		if !known[t.Pocket()] {
			add(IssueUnknownPocket, t, fmt.Sprintf("pocket %q does not exist", t.Pocket()))
		}
		if t.Kind != core.KindTransfer {
			continue
		}
		if !known[t.Destination()] {
			add(IssueUnknownPocket, t, fmt.Sprintf("destination pocket %q does not exist", t.Destination()))
		}
		if t.Pocket() == t.Destination() {
			add(IssueSelfTransfer, t, fmt.Sprintf("transfer from %q to itself", t.Pocket()))
		}
	}

	for _, id := range ledger.exclusions.ExcludedExpenseIDs {
		if !ids[core.KindExpense][id] {
			add(IssueStaleExclusion, &core.Transaction{ID: id, Kind: core.KindExpense}, "excluded expense does not exist")
		}
	}
	for _, id := range ledger.exclusions.ExcludedIncomeIDs {
		if !ids[core.KindIncome][id] {
			add(IssueStaleExclusion, &core.Transaction{ID: id, Kind: core.KindIncome}, "excluded income does not exist")
		}
	}

	summary, err := r.aggregator.MonthSummary(ctx, month, pockets)
	if err != nil {
		return Report{}, err
	}
	pocketIDs := make([]string, 0, len(pockets))
	for _, p := range pockets {
		pocketIDs = append(pocketIDs, p.ID)
	}
	opening, err := r.aggregator.openingBalances(ctx, month, pocketIDs)
	if err != nil {
		return Report{}, err
	}

	expected := ledger.budget.Base(ledger.exclusions.IsDeductionExcluded)
	for _, amount := range opening {
		expected += amount
	}
	for _, t := range ledger.transactions {
		if ledger.exclusions.Excludes(t) || !known[t.Pocket()] {
			continue
		}
		switch t.Kind {
		case core.KindExpense:
			expected -= t.Amount
		case core.KindIncome:
			expected += t.Amount
		}
	}
	if diff := summary.TotalProjected - expected; diff != 0 {
		add(IssueFundsMismatch, nil, fmt.Sprintf("pocket balances total %d, funds account for %d (difference %d)",
			summary.TotalProjected, expected, diff))
	}

	if report.OK() {
		slog.DebugContext(ctx, "Month reconciled", "month", month)
	} else {
		slog.WarnContext(ctx, "Month has ledger inconsistencies", "month", month, "issues", len(report.Issues))
	}
	return report, nil
}

// CheckAll reconciles every month that holds transactions, oldest first.
func (r *Reconciler) CheckAll(ctx context.Context) ([]Report, error) {
	months, err := r.repo.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	reports := make([]Report, 0, len(months))
	for _, m := range months {
		rep, err := r.CheckMonth(ctx, m)
		if err != nil {
			return reports, fmt.Errorf("check %s: %w", m, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
