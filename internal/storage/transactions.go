package storage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"kantong/internal/core"
)

// Append stores a new transaction under a fresh id and returns the id.
// Only required-field presence is checked; amounts must already be normalized.
func (r *Repository) Append(ctx context.Context, kind core.Kind, month core.MonthKey, draft core.TransactionDraft) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	if err := month.Validate(); err != nil {
		return "", err
	}
	if err := draft.Validate(); err != nil {
		return "", err
	}

	tx := core.Transaction{
		ID:        r.newID(),
		Kind:      kind,
		CreatedAt: r.now(),
	}
	draft.Apply(&tx)

	if err := r.putJSON(ctx, TransactionKey(kind, month, tx.ID), tx); err != nil {
		return "", fmt.Errorf("append %s: %w", kind, err)
	}

	slog.DebugContext(ctx, "Transaction appended",
		"kind", kind,
		"month", month,
		"id", tx.ID,
		"amount", tx.Amount)

	return tx.ID, nil
}

// Get loads one transaction or returns core.ErrNotFound.
func (r *Repository) Get(ctx context.Context, kind core.Kind, month core.MonthKey, id string) (core.Transaction, error) {
	var tx core.Transaction
	found, err := r.getJSON(ctx, TransactionKey(kind, month, id), &tx)
	if err != nil {
		return core.Transaction{}, err
	}
	if !found {
		return core.Transaction{}, fmt.Errorf("%w: %s %s in %s", core.ErrNotFound, kind, id, month)
	}
	return tx, nil
}

// Update replaces the mutable fields of an existing transaction. The id and
// createdAt are preserved and updatedAt is refreshed.
func (r *Repository) Update(ctx context.Context, kind core.Kind, month core.MonthKey, id string, draft core.TransactionDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	tx, err := r.Get(ctx, kind, month, id)
	if err != nil {
		return err
	}

	draft.Apply(&tx)
	now := r.now()
	tx.UpdatedAt = &now

	if err := r.putJSON(ctx, TransactionKey(kind, month, id), tx); err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	return nil
}

// Remove deletes an existing transaction or returns core.ErrNotFound.
func (r *Repository) Remove(ctx context.Context, kind core.Kind, month core.MonthKey, id string) error {
	key := TransactionKey(kind, month, id)
	_, found, err := r.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return fmt.Errorf("%w: %s %s in %s", core.ErrNotFound, kind, id, month)
	}
	if err := r.kv.Del(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ListByMonth returns every record of kind in month, in backend order.
func (r *Repository) ListByMonth(ctx context.Context, kind core.Kind, month core.MonthKey) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	txs, err := scanJSON[core.Transaction](ctx, r.kv, MonthPrefix(kind, month))
	if err != nil {
		return nil, err
	}
	// Records written before kind was persisted carry it only in their key.
	for i := range txs {
		txs[i].Kind = kind
	}
	return txs, nil
}

// ListMonths returns the distinct months holding any transaction, ascending.
func (r *Repository) ListMonths(ctx context.Context) ([]core.MonthKey, error) {
	seen := map[core.MonthKey]struct{}{}
	for _, kind := range core.Kinds {
		entries, err := r.kv.GetByPrefix(ctx, string(kind)+":")
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		for _, e := range entries {
			if _, month, _, ok := ParseTransactionKey(e.Key); ok {
				seen[month] = struct{}{}
			}
		}
	}
	months := make([]core.MonthKey, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	slices.Sort(months)
	return months, nil
}
