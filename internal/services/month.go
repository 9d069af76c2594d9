package services

import (
	"context"
	"fmt"
	"log/slog"

	"kantong/internal/amqp"
	"kantong/internal/core"
)

func (l *Ledger) GetBudget(ctx context.Context, month core.MonthKey) (core.BudgetRecord, error) {
	if err := month.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	return l.repo.GetBudget(ctx, month)
}

// SaveBudget overwrites the month's budget record. A locked month keeps its
// budget as well as its transactions.
func (l *Ledger) SaveBudget(ctx context.Context, month core.MonthKey, b core.BudgetRecord) (core.BudgetRecord, error) {
	if err := month.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	if err := l.ensureUnlocked(ctx, month); err != nil {
		return core.BudgetRecord{}, err
	}
	saved, err := l.repo.SaveBudget(ctx, month, b)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("save budget: %w", err)
	}
	l.publish(ctx, month, "", "", amqp.OpBudget)
	return saved, nil
}

func (l *Ledger) GetExcludeState(ctx context.Context, month core.MonthKey) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	return l.repo.GetExcludeState(ctx, month)
}

// SetExcludeState replaces the whole state, including the lock flag.
func (l *Ledger) SetExcludeState(ctx context.Context, month core.MonthKey, state core.ExcludeState) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	return l.repo.SetExcludeState(ctx, month, state)
}

// ClearExcludeState resets the month to unlocked with nothing excluded.
func (l *Ledger) ClearExcludeState(ctx context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return err
	}
	if err := l.repo.ClearExcludeState(ctx, month); err != nil {
		return err
	}
	l.publish(ctx, month, "", "", amqp.OpUnlock)
	return nil
}

func (l *Ledger) Lock(ctx context.Context, month core.MonthKey) (core.ExcludeState, error) {
	return l.setLocked(ctx, month, true)
}

func (l *Ledger) Unlock(ctx context.Context, month core.MonthKey) (core.ExcludeState, error) {
	return l.setLocked(ctx, month, false)
}

func (l *Ledger) setLocked(ctx context.Context, month core.MonthKey, locked bool) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	state, err := l.repo.GetExcludeState(ctx, month)
	if err != nil {
		return core.ExcludeState{}, err
	}
	if state.Locked == locked {
		return state, nil
	}
	state.Locked = locked
	state, err = l.repo.SetExcludeState(ctx, month, state)
	if err != nil {
		return core.ExcludeState{}, err
	}

	op := amqp.OpUnlock
	if locked {
		op = amqp.OpLock
	}
	slog.InfoContext(ctx, "Month lock changed", "month", month, "locked", locked)
	l.publish(ctx, month, "", "", op)
	return state, nil
}

// ExcludeTransaction removes an expense or income from aggregation without
// deleting it.
func (l *Ledger) ExcludeTransaction(ctx context.Context, kind core.Kind, month core.MonthKey, id string) (core.ExcludeState, error) {
	return l.setExcluded(ctx, kind, month, id, true)
}

// IncludeTransaction reverses ExcludeTransaction.
func (l *Ledger) IncludeTransaction(ctx context.Context, kind core.Kind, month core.MonthKey, id string) (core.ExcludeState, error) {
	return l.setExcluded(ctx, kind, month, id, false)
}

func (l *Ledger) setExcluded(ctx context.Context, kind core.Kind, month core.MonthKey, id string, excluded bool) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	if kind != core.KindExpense && kind != core.KindIncome {
		return core.ExcludeState{}, core.NewValidationError("kind", "only expenses and incomes can be excluded")
	}
	state, err := l.unlockedState(ctx, month)
	if err != nil {
		return core.ExcludeState{}, err
	}
	if excluded {
		if _, err := l.repo.Get(ctx, kind, month, id); err != nil {
			return core.ExcludeState{}, err
		}
	}
	if err := state.SetExcluded(kind, id, excluded); err != nil {
		return core.ExcludeState{}, err
	}
	state, err = l.repo.SetExcludeState(ctx, month, state)
	if err != nil {
		return core.ExcludeState{}, err
	}

	op := amqp.OpInclude
	if excluded {
		op = amqp.OpExclude
	}
	l.publish(ctx, month, kind, id, op)
	return state, nil
}

// SetDeductionExcluded toggles whether the budget's income deduction counts.
func (l *Ledger) SetDeductionExcluded(ctx context.Context, month core.MonthKey, excluded bool) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	state, err := l.unlockedState(ctx, month)
	if err != nil {
		return core.ExcludeState{}, err
	}
	state.IsDeductionExcluded = excluded
	state, err = l.repo.SetExcludeState(ctx, month, state)
	if err != nil {
		return core.ExcludeState{}, err
	}
	l.publish(ctx, month, "", "", amqp.OpBudget)
	return state, nil
}

// Balance computes one pocket's balance for month.
func (l *Ledger) Balance(ctx context.Context, pocketID string, month core.MonthKey) (core.PocketBalance, error) {
	if _, err := l.pockets.Get(ctx, pocketID); err != nil {
		return core.PocketBalance{}, err
	}
	return l.aggregator.ComputeBalance(ctx, pocketID, month)
}

// Summary computes balances for every pocket, archived ones included.
func (l *Ledger) Summary(ctx context.Context, month core.MonthKey) (core.MonthSummary, error) {
	pockets, err := l.pockets.List(ctx, core.PocketFilter{})
	if err != nil {
		return core.MonthSummary{}, err
	}
	return l.aggregator.MonthSummary(ctx, month, pockets)
}
