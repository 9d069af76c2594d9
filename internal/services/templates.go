package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"kantong/internal/core"
)

// CreateTemplate saves a reusable expense or income shape. The pocket must exist.
func (l *Ledger) CreateTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	if err := t.Validate(); err != nil {
		return core.Template{}, err
	}
	if strings.TrimSpace(t.PocketID) != "" {
		if _, err := l.pockets.Get(ctx, t.PocketID); err != nil {
			return core.Template{}, err
		}
	}
	return l.repo.CreateTemplate(ctx, t)
}

func (l *Ledger) ListTemplates(ctx context.Context) ([]core.Template, error) {
	return l.repo.ListTemplates(ctx)
}

func (l *Ledger) DeleteTemplate(ctx context.Context, id string) error {
	return l.repo.DeleteTemplate(ctx, id)
}

// ApplyTemplate records a new transaction from a template on date, going
// through the same checks as a manual entry.
func (l *Ledger) ApplyTemplate(ctx context.Context, id string, month core.MonthKey, date core.Date) (core.Transaction, error) {
	t, err := l.repo.GetTemplate(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	amount := decimal.NewFromInt(t.Amount)
	in := core.TransactionInput{
		Name:     t.Name,
		Amount:   &amount,
		Date:     date,
		PocketID: t.PocketID,
		Items:    t.Items,
		Color:    t.Color,
	}
	return l.record(ctx, t.Kind, month, in)
}

// SuggestIncomeNames returns remembered income labels starting with prefix.
func (l *Ledger) SuggestIncomeNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	entries, err := l.repo.SuggestIncomeNames(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}
