package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kantong/internal/core"
	"kantong/internal/storage"
)

// historyConcurrency bounds the number of earlier months loaded at once when
// computing a custom pocket's opening balance.
const historyConcurrency = 4

// Clock yields the current instant.
type Clock func() time.Time

// Aggregator derives pocket balances from budget records, exclude states and
// the month's transactions. It owns no state; every call reads the store.
type Aggregator struct {
	repo     *storage.Repository
	clock    Clock
	location *time.Location
}

type AggregatorOption func(*Aggregator)

// WithAggregatorClock pins "today" for the realtime/projected split.
func WithAggregatorClock(clock Clock) AggregatorOption {
	return func(a *Aggregator) {
		a.clock = clock
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) AggregatorOption {
	return func(a *Aggregator) {
		if loc != nil {
			a.location = loc
		}
	}
}

func NewAggregator(repo *storage.Repository, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		repo:     repo,
		clock:    time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Today returns the current calendar day in the configured location.
func (a *Aggregator) Today() core.Date {
	return core.DateOf(a.clock().In(a.location))
}

// CurrentMonth returns the month containing Today.
func (a *Aggregator) CurrentMonth() core.MonthKey {
	return a.Today().Month()
}

// monthLedger is everything stored for one month.
type monthLedger struct {
	month        core.MonthKey
	budget       core.BudgetRecord
	exclusions   core.ExcludeState
	transactions []core.Transaction
}

// loadMonth issues the budget, exclude-state and per-kind reads concurrently
// and joins them before returning.
func (a *Aggregator) loadMonth(ctx context.Context, month core.MonthKey) (monthLedger, error) {
	var (
		budget     core.BudgetRecord
		exclusions core.ExcludeState
		byKind     = make([][]core.Transaction, len(core.Kinds))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := a.repo.GetBudget(gctx, month)
		if err != nil {
			return fmt.Errorf("load budget: %w", err)
		}
		budget = b
		return nil
	})
	g.Go(func() error {
		s, err := a.repo.GetExcludeState(gctx, month)
		if err != nil {
			return fmt.Errorf("load exclude state: %w", err)
		}
		exclusions = s
		return nil
	})
	for i, kind := range core.Kinds {
		g.Go(func() error {
			txs, err := a.repo.ListByMonth(gctx, kind, month)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			byKind[i] = txs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return monthLedger{}, fmt.Errorf("load month %s: %w", month, err)
	}

	var txs []core.Transaction
	for _, list := range byKind {
		txs = append(txs, list...)
	}
	return monthLedger{
		month:        month,
		budget:       budget,
		exclusions:   exclusions,
		transactions: txs,
	}, nil
}

// foldBalance splits the month's included transactions at today and applies
// each one's signed effect on pocketID.
func foldBalance(pocketID string, base int64, ledger monthLedger, today core.Date) (realtime, projected int64) {
	realtime = base
	var future int64
	for _, t := range ledger.transactions {
		if ledger.exclusions.Excludes(t) {
			continue
		}
		delta := t.Effect(pocketID)
		if delta == 0 {
			continue
		}
		if t.Date.After(today) {
			future += delta
		} else {
			realtime += delta
		}
	}
	return realtime, realtime + future
}

// netFlow is the month's total effect on pocketID regardless of date.
func netFlow(pocketID string, ledger monthLedger) int64 {
	_, projected := foldBalance(pocketID, 0, ledger, core.Date{})
	return projected
}

// openingBalances returns, per custom pocket, the net flow of every month
// before month. The primary pocket opens from its budget record instead.
func (a *Aggregator) openingBalances(ctx context.Context, month core.MonthKey, pocketIDs []string) (map[string]int64, error) {
	opening := make(map[string]int64, len(pocketIDs))
	var custom []string
	for _, id := range pocketIDs {
		if id == core.PrimaryPocketID {
			continue
		}
		opening[id] = 0
		custom = append(custom, id)
	}
	if len(custom) == 0 {
		return opening, nil
	}

	months, err := a.repo.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	var earlier []core.MonthKey
	for _, m := range months {
		if m < month {
			earlier = append(earlier, m)
		}
	}

	ledgers := make([]monthLedger, len(earlier))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for i, m := range earlier {
		g.Go(func() error {
			l, err := a.loadMonth(gctx, m)
			if err != nil {
				return err
			}
			ledgers[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, l := range ledgers {
		for _, id := range custom {
			opening[id] += netFlow(id, l)
		}
	}
	return opening, nil
}

func (a *Aggregator) base(pocketID string, ledger monthLedger, opening map[string]int64) int64 {
	if pocketID == core.PrimaryPocketID {
		return ledger.budget.Base(ledger.exclusions.IsDeductionExcluded)
	}
	return opening[pocketID]
}

// ComputeBalance folds the month's ledger into pocketID's balances. An empty
// pocketID means the primary pocket.
func (a *Aggregator) ComputeBalance(ctx context.Context, pocketID string, month core.MonthKey) (core.PocketBalance, error) {
	if err := month.Validate(); err != nil {
		return core.PocketBalance{}, err
	}
	pocketID = core.NormalizePocketID(pocketID)

	var (
		ledger  monthLedger
		opening map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := a.loadMonth(gctx, month)
		ledger = l
		return err
	})
	g.Go(func() error {
		o, err := a.openingBalances(gctx, month, []string{pocketID})
		opening = o
		return err
	})
	if err := g.Wait(); err != nil {
		return core.PocketBalance{}, fmt.Errorf("compute balance for %s: %w", pocketID, err)
	}

	realtime, projected := foldBalance(pocketID, a.base(pocketID, ledger, opening), ledger, a.Today())

	slog.DebugContext(ctx, "Computed pocket balance",
		"pocket_id", pocketID,
		"month", month,
		"realtime", realtime,
		"projected", projected)

	return core.PocketBalance{
		PocketID:         pocketID,
		Month:            month,
		AvailableBalance: projected,
		RealtimeBalance:  realtime,
		ProjectedBalance: projected,
	}, nil
}

// MonthSummary computes every given pocket's balance from a single read of the
// month, plus month-wide expense and income totals of included records.
func (a *Aggregator) MonthSummary(ctx context.Context, month core.MonthKey, pockets []core.Pocket) (core.MonthSummary, error) {
	if err := month.Validate(); err != nil {
		return core.MonthSummary{}, err
	}

	ids := make([]string, 0, len(pockets))
	for _, p := range pockets {
		ids = append(ids, p.ID)
	}

	ledger, err := a.loadMonth(ctx, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	opening, err := a.openingBalances(ctx, month, ids)
	if err != nil {
		return core.MonthSummary{}, err
	}

	summary := core.MonthSummary{
		Month:      month,
		Budget:     ledger.budget,
		Exclusions: ledger.exclusions,
		Pockets:    make([]core.PocketSummary, 0, len(pockets)),
	}

	today := a.Today()
	for _, p := range pockets {
		realtime, projected := foldBalance(p.ID, a.base(p.ID, ledger, opening), ledger, today)
		summary.Pockets = append(summary.Pockets, core.PocketSummary{
			Pocket: p,
			Balance: core.PocketBalance{
				PocketID:         p.ID,
				Month:            month,
				AvailableBalance: projected,
				RealtimeBalance:  realtime,
				ProjectedBalance: projected,
			},
		})
		summary.TotalRealtime += realtime
		summary.TotalProjected += projected
	}

	for _, t := range ledger.transactions {
		if ledger.exclusions.Excludes(t) {
			continue
		}
		switch t.Kind {
		case core.KindExpense:
			summary.TotalExpenses += t.Amount
		case core.KindIncome:
			summary.TotalIncomes += t.Amount
		}
	}

	return summary, nil
}
