package storage

import (
	"context"

	"kantong/internal/core"
)

// GetBudget returns the month's budget record, or the zero-valued default when
// none has been saved. Reads never persist the default.
func (r *Repository) GetBudget(ctx context.Context, month core.MonthKey) (core.BudgetRecord, error) {
	var b core.BudgetRecord
	if _, err := r.getJSON(ctx, BudgetKey(month), &b); err != nil {
		return core.BudgetRecord{}, err
	}
	return b, nil
}

// SaveBudget overwrites the month's budget record and stamps updatedAt.
func (r *Repository) SaveBudget(ctx context.Context, month core.MonthKey, b core.BudgetRecord) (core.BudgetRecord, error) {
	if err := month.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	b.UpdatedAt = r.now()
	if err := r.putJSON(ctx, BudgetKey(month), b); err != nil {
		return core.BudgetRecord{}, err
	}
	return b, nil
}
