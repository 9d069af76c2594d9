package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense  Kind = "expense"
	KindIncome   Kind = "income"
	KindTransfer Kind = "transfer"
)

// Kind distinguishes the transaction collections. It is also the storage key prefix.
type Kind string

// Kinds lists every transaction kind in aggregation order.
var Kinds = []Kind{KindExpense, KindIncome, KindTransfer}

func (k Kind) Validate() error {
	switch k {
	case KindExpense, KindIncome, KindTransfer:
		return nil
	default:
		return NewValidationError("kind", fmt.Sprintf("unknown transaction kind %q", string(k)))
	}
}

func (k Kind) String() string {
	return string(k)
}

type (
	LineItem struct {
		Name   string `json:"name"`
		Amount int64  `json:"amount"`
	}

	// Transaction is a stored expense, income or transfer. Amount is always in
	// reporting-currency units; the optional currency fields are audit data only.
	Transaction struct {
		ID         string     `json:"id"`
		Kind       Kind       `json:"kind"`
		Name       string     `json:"name"`
		Amount     int64      `json:"amount"`
		Date       Date       `json:"date"`
		PocketID   string     `json:"pocketId,omitempty"`
		ToPocketID string     `json:"toPocketId,omitempty"`
		CreatedAt  time.Time  `json:"createdAt"`
		UpdatedAt  *time.Time `json:"updatedAt,omitempty"`

		Items          []LineItem       `json:"items,omitempty"`
		Color          *string          `json:"color,omitempty"`
		FromIncome     *bool            `json:"fromIncome,omitempty"`
		Currency       *string          `json:"currency,omitempty"`
		OriginalAmount *decimal.Decimal `json:"originalAmount,omitempty"`
		ExchangeRate   *decimal.Decimal `json:"exchangeRate,omitempty"`
		ConversionType *ConversionType  `json:"conversionType,omitempty"`
		Deduction      *int64           `json:"deduction,omitempty"`
	}

	// TransactionDraft is the already-normalized record handed to the store.
	// Amount is a pointer so that "absent" is distinguishable from zero.
	TransactionDraft struct {
		Name       string
		Amount     *int64
		Date       Date
		PocketID   string
		ToPocketID string

		Items          []LineItem
		Color          *string
		FromIncome     *bool
		Currency       *string
		OriginalAmount *decimal.Decimal
		ExchangeRate   *decimal.Decimal
		ConversionType *ConversionType
		Deduction      *int64
	}

	// TransactionInput is what a caller enters: an amount in some currency,
	// not yet converted.
	TransactionInput struct {
		Name           string
		Amount         *decimal.Decimal
		Currency       string
		ExchangeRate   *decimal.Decimal
		ConversionType ConversionType
		Date           Date
		PocketID       string
		ToPocketID     string

		Items      []LineItem
		Color      *string
		FromIncome *bool
		Deduction  *int64
	}
)

// Pocket returns the source pocket, resolving the implied primary reference.
func (t Transaction) Pocket() string {
	return NormalizePocketID(t.PocketID)
}

// Destination returns the receiving pocket of a transfer.
func (t Transaction) Destination() string {
	return NormalizePocketID(t.ToPocketID)
}

// Effect returns the signed change this transaction applies to pocketID.
// A transfer debits its source and credits its destination; a transfer to
// the same pocket nets zero.
func (t Transaction) Effect(pocketID string) int64 {
	switch t.Kind {
	case KindExpense:
		if t.Pocket() == pocketID {
			return -t.Amount
		}
	case KindIncome:
		if t.Pocket() == pocketID {
			return t.Amount
		}
	case KindTransfer:
		var delta int64
		if t.Pocket() == pocketID {
			delta -= t.Amount
		}
		if t.Destination() == pocketID {
			delta += t.Amount
		}
		return delta
	}
	return 0
}

// Touches reports whether the transaction references pocketID on either side.
func (t Transaction) Touches(pocketID string) bool {
	if t.Pocket() == pocketID {
		return true
	}
	return t.Kind == KindTransfer && t.Destination() == pocketID
}

// Validate checks required-field presence only; business rules live upstream.
func (d TransactionDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return NewValidationError("name", "name cannot be empty")
	}
	if d.Amount == nil {
		return NewValidationError("amount", "amount is required")
	}
	return nil
}

// Apply writes the draft onto t, leaving identity and creation time untouched.
func (d TransactionDraft) Apply(t *Transaction) {
	t.Name = strings.TrimSpace(d.Name)
	if d.Amount != nil {
		t.Amount = *d.Amount
	}
	t.Date = d.Date
	t.PocketID = d.PocketID
	t.ToPocketID = d.ToPocketID
	t.Items = d.Items
	t.Color = d.Color
	t.FromIncome = d.FromIncome
	t.Currency = d.Currency
	t.OriginalAmount = d.OriginalAmount
	t.ExchangeRate = d.ExchangeRate
	t.ConversionType = d.ConversionType
	t.Deduction = d.Deduction
}

// Draft converts a stored transaction back into an editable draft.
func (t Transaction) Draft() TransactionDraft {
	amount := t.Amount
	return TransactionDraft{
		Name:           t.Name,
		Amount:         &amount,
		Date:           t.Date,
		PocketID:       t.PocketID,
		ToPocketID:     t.ToPocketID,
		Items:          t.Items,
		Color:          t.Color,
		FromIncome:     t.FromIncome,
		Currency:       t.Currency,
		OriginalAmount: t.OriginalAmount,
		ExchangeRate:   t.ExchangeRate,
		ConversionType: t.ConversionType,
		Deduction:      t.Deduction,
	}
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", "name cannot be empty")
	}
	if len(in.Name) > 200 {
		return NewValidationError("name", "name too long (max 200 characters)")
	}
	if in.Amount == nil {
		return NewValidationError("amount", "amount is required")
	}
	if in.Date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if err := in.Date.Validate(); err != nil {
		return NewValidationError("date", err.Error())
	}
	return in.ConversionType.Validate()
}
