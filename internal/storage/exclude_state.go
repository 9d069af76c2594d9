package storage

import (
	"context"
	"fmt"

	"kantong/internal/core"
)

// GetExcludeState returns the month's exclude state or the unlocked, empty default.
func (r *Repository) GetExcludeState(ctx context.Context, month core.MonthKey) (core.ExcludeState, error) {
	state := core.DefaultExcludeState()
	if _, err := r.getJSON(ctx, ExcludeStateKey(month), &state); err != nil {
		return core.ExcludeState{}, err
	}
	if state.ExcludedExpenseIDs == nil {
		state.ExcludedExpenseIDs = []string{}
	}
	if state.ExcludedIncomeIDs == nil {
		state.ExcludedIncomeIDs = []string{}
	}
	return state, nil
}

// SetExcludeState replaces the whole state for the month. It does not merge;
// callers read, modify and write back.
func (r *Repository) SetExcludeState(ctx context.Context, month core.MonthKey, state core.ExcludeState) (core.ExcludeState, error) {
	if err := month.Validate(); err != nil {
		return core.ExcludeState{}, err
	}
	state.UpdatedAt = r.now()
	if err := r.putJSON(ctx, ExcludeStateKey(month), state); err != nil {
		return core.ExcludeState{}, err
	}
	return state, nil
}

// ClearExcludeState resets the month to the lazy default.
func (r *Repository) ClearExcludeState(ctx context.Context, month core.MonthKey) error {
	if err := r.kv.Del(ctx, ExcludeStateKey(month)); err != nil {
		return fmt.Errorf("clear exclude state %s: %w", month, err)
	}
	return nil
}
