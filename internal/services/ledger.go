package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"kantong/internal/amqp"
	"kantong/internal/core"
	"kantong/internal/rates"
	"kantong/internal/storage"
)

// Publisher announces ledger changes. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error
}

// Ledger orchestrates writes: it owns the month lock check, pocket checks and
// currency normalization, then delegates persistence to the repository.
type Ledger struct {
	repo       *storage.Repository
	pockets    *PocketRegistry
	aggregator *Aggregator
	rates      rates.Source
	publisher  Publisher
}

type LedgerOption func(*Ledger)

// WithRateSource enables fetching rates for conversionType=api entries.
func WithRateSource(src rates.Source) LedgerOption {
	return func(l *Ledger) {
		l.rates = src
	}
}

// WithPublisher enables ledger events after successful writes.
func WithPublisher(p Publisher) LedgerOption {
	return func(l *Ledger) {
		l.publisher = p
	}
}

func NewLedger(repo *storage.Repository, pockets *PocketRegistry, aggregator *Aggregator, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:       repo,
		pockets:    pockets,
		aggregator: aggregator,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Pockets() *PocketRegistry {
	return l.pockets
}

func (l *Ledger) Aggregator() *Aggregator {
	return l.aggregator
}

func (l *Ledger) RecordExpense(ctx context.Context, month core.MonthKey, in core.TransactionInput) (core.Transaction, error) {
	return l.record(ctx, core.KindExpense, month, in)
}

func (l *Ledger) RecordIncome(ctx context.Context, month core.MonthKey, in core.TransactionInput) (core.Transaction, error) {
	return l.record(ctx, core.KindIncome, month, in)
}

// RecordTransfer moves funds from in.PocketID to in.ToPocketID as one record.
func (l *Ledger) RecordTransfer(ctx context.Context, month core.MonthKey, in core.TransactionInput) (core.Transaction, error) {
	return l.record(ctx, core.KindTransfer, month, in)
}

func (l *Ledger) record(ctx context.Context, kind core.Kind, month core.MonthKey, in core.TransactionInput) (core.Transaction, error) {
	draft, err := l.prepare(ctx, kind, month, in)
	if err != nil {
		return core.Transaction{}, err
	}

	id, err := l.repo.Append(ctx, kind, month, draft)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", kind, err)
	}

	if kind == core.KindIncome {
		if err := l.repo.RecordIncomeName(ctx, draft.Name); err != nil {
			slog.WarnContext(ctx, "Failed to remember income name", "name", draft.Name, "error", err)
		}
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"kind", kind,
		"month", month,
		"id", id,
		"pocket_id", draft.PocketID,
		"amount", *draft.Amount)

	l.publish(ctx, month, kind, id, amqp.OpCreate)
	return l.repo.Get(ctx, kind, month, id)
}

// UpdateTransaction rewrites an existing record. The record stays in its month.
func (l *Ledger) UpdateTransaction(ctx context.Context, kind core.Kind, month core.MonthKey, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return core.Transaction{}, err
	}
	draft, err := l.prepare(ctx, kind, month, in)
	if err != nil {
		return core.Transaction{}, err
	}
	if _, err := l.repo.Get(ctx, kind, month, id); err != nil {
		return core.Transaction{}, err
	}
	if err := l.repo.Update(ctx, kind, month, id, draft); err != nil {
		return core.Transaction{}, fmt.Errorf("update %s: %w", kind, err)
	}

	l.publish(ctx, month, kind, id, amqp.OpUpdate)
	return l.repo.Get(ctx, kind, month, id)
}

// RemoveTransaction deletes a record and drops it from the month's exclusions.
func (l *Ledger) RemoveTransaction(ctx context.Context, kind core.Kind, month core.MonthKey, id string) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := month.Validate(); err != nil {
		return err
	}
	state, err := l.unlockedState(ctx, month)
	if err != nil {
		return err
	}
	if err := l.repo.Remove(ctx, kind, month, id); err != nil {
		return err
	}

	if state.Excludes(core.Transaction{ID: id, Kind: kind}) {
		err := state.SetExcluded(kind, id, false)
		if err == nil {
			_, err = l.repo.SetExcludeState(ctx, month, state)
		}
		if err != nil {
			slog.WarnContext(ctx, "Failed to drop removed transaction from exclusions",
				"kind", kind, "month", month, "id", id, "error", err)
		}
	}

	l.publish(ctx, month, kind, id, amqp.OpDelete)
	return nil
}

func (l *Ledger) ListTransactions(ctx context.Context, kind core.Kind, month core.MonthKey) ([]core.Transaction, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return l.repo.ListByMonth(ctx, kind, month)
}

// prepare runs every check that precedes a store write, in order: month key,
// lock, pockets, date, normalization.
func (l *Ledger) prepare(ctx context.Context, kind core.Kind, month core.MonthKey, in core.TransactionInput) (core.TransactionDraft, error) {
	if err := month.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	if err := l.ensureUnlocked(ctx, month); err != nil {
		return core.TransactionDraft{}, err
	}
	if err := in.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	if !in.Amount.IsPositive() {
		return core.TransactionDraft{}, core.NewValidationError("amount", "amount must be positive")
	}

	source := core.NormalizePocketID(in.PocketID)
	if err := l.ensureWritablePocket(ctx, source); err != nil {
		return core.TransactionDraft{}, err
	}
	var destination string
	if kind == core.KindTransfer {
		destination = core.NormalizePocketID(in.ToPocketID)
		if destination == source {
			return core.TransactionDraft{}, core.NewValidationError("toPocketId", "transfer source and destination must differ")
		}
		if err := l.ensureWritablePocket(ctx, destination); err != nil {
			return core.TransactionDraft{}, err
		}
	}

	if !month.Contains(in.Date) {
		return core.TransactionDraft{}, core.NewValidationError("date", fmt.Sprintf("date %s is outside month %s", in.Date, month))
	}

	amount, audit, err := l.normalize(ctx, in)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	if amount <= 0 {
		return core.TransactionDraft{}, core.NewValidationError("amount", "converted amount rounds to zero")
	}

	draft := core.TransactionDraft{
		Name:       in.Name,
		Amount:     &amount,
		Date:       in.Date,
		Items:      in.Items,
		Color:      in.Color,
		FromIncome: in.FromIncome,
		Deduction:  in.Deduction,
	}
	// The primary pocket is stored as the implied empty reference.
	if source != core.PrimaryPocketID {
		draft.PocketID = source
	}
	if kind == core.KindTransfer {
		draft.PocketID = source
		draft.ToPocketID = destination
	}
	if audit != nil {
		draft.Currency = &audit.currency
		draft.OriginalAmount = &audit.original
		draft.ExchangeRate = &audit.rate
		draft.ConversionType = &audit.conversionType
	}
	return draft, nil
}

type conversionAudit struct {
	currency       string
	original       decimal.Decimal
	rate           decimal.Decimal
	conversionType core.ConversionType
}

// normalize converts the input amount to reporting units. Foreign amounts
// also return the audit fields stored next to the converted amount.
func (l *Ledger) normalize(ctx context.Context, in core.TransactionInput) (int64, *conversionAudit, error) {
	if core.IsReportingCurrency(in.Currency) {
		amount, err := core.Normalize(*in.Amount, in.Currency, nil, in.ConversionType)
		return amount, nil, err
	}

	rate := in.ExchangeRate
	if rate == nil && in.ConversionType == core.ConversionAPI {
		fetched, err := l.fetchRate(ctx, in.Currency)
		if err != nil {
			return 0, nil, err
		}
		rate = &fetched
	}

	amount, err := core.Normalize(*in.Amount, in.Currency, rate, in.ConversionType)
	if err != nil {
		return 0, nil, err
	}

	ct := in.ConversionType
	if ct == "" {
		ct = core.ConversionManual
	}
	return amount, &conversionAudit{
		currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		original:       *in.Amount,
		rate:           *rate,
		conversionType: ct,
	}, nil
}

func (l *Ledger) fetchRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if l.rates == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate source configured for %s", core.ErrInvalidConversion, currency)
	}
	r, err := l.rates.GetRate(ctx, currency, core.ReportingCurrency)
	if err != nil {
		slog.WarnContext(ctx, "Exchange rate lookup failed", "currency", currency, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", core.ErrInvalidConversion, err)
	}
	return r.Value, nil
}

func (l *Ledger) ensureWritablePocket(ctx context.Context, id string) error {
	p, err := l.pockets.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return fmt.Errorf("%w: pocket %s is archived", core.ErrForbidden, p.ID)
	}
	return nil
}

func (l *Ledger) ensureUnlocked(ctx context.Context, month core.MonthKey) error {
	_, err := l.unlockedState(ctx, month)
	return err
}

func (l *Ledger) unlockedState(ctx context.Context, month core.MonthKey) (core.ExcludeState, error) {
	state, err := l.repo.GetExcludeState(ctx, month)
	if err != nil {
		return core.ExcludeState{}, err
	}
	if state.Locked {
		return core.ExcludeState{}, fmt.Errorf("%w: %s", core.ErrMonthLocked, month)
	}
	return state, nil
}

func (l *Ledger) publish(ctx context.Context, month core.MonthKey, kind core.Kind, id, op string) {
	if l.publisher == nil {
		return
	}
	evt := amqp.NewLedgerEvent(month.String(), kind.String(), id, op)
	if err := l.publisher.PublishLedgerEvent(ctx, evt); err != nil {
		// The write already succeeded; reconciliation picks the month up on its next pass.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"month", month,
			"kind", kind,
			"id", id,
			"op", op,
			"error", err)
	}
}
