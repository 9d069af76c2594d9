package core

import (
	"slices"
	"time"
)

// BudgetRecord holds the per-month scalar inputs of the primary pocket.
type BudgetRecord struct {
	InitialBudget    int64     `json:"initialBudget"`
	Carryover        int64     `json:"carryover"`
	AdditionalIncome int64     `json:"additionalIncome"`
	Notes            string    `json:"notes,omitempty"`
	IncomeDeduction  int64     `json:"incomeDeduction"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

// Base returns the month's opening figure for the primary pocket.
func (b BudgetRecord) Base(deductionExcluded bool) int64 {
	base := b.InitialBudget + b.Carryover + b.AdditionalIncome
	if !deductionExcluded {
		base -= b.IncomeDeduction
	}
	return base
}

// ExcludeState is the per-month override set. Locked freezes the month's transactions.
type ExcludeState struct {
	Locked              bool      `json:"locked"`
	ExcludedExpenseIDs  []string  `json:"excludedExpenseIds"`
	ExcludedIncomeIDs   []string  `json:"excludedIncomeIds"`
	IsDeductionExcluded bool      `json:"isDeductionExcluded"`
	UpdatedAt           time.Time `json:"updatedAt,omitempty"`
}

// DefaultExcludeState is the lazy default: unlocked, nothing excluded.
func DefaultExcludeState() ExcludeState {
	return ExcludeState{
		ExcludedExpenseIDs: []string{},
		ExcludedIncomeIDs:  []string{},
	}
}

// Excludes reports whether t is removed from aggregation. Only expenses and
// incomes can be excluded.
func (s ExcludeState) Excludes(t Transaction) bool {
	switch t.Kind {
	case KindExpense:
		return slices.Contains(s.ExcludedExpenseIDs, t.ID)
	case KindIncome:
		return slices.Contains(s.ExcludedIncomeIDs, t.ID)
	default:
		return false
	}
}

// SetExcluded adds or removes id from the exclusion set of kind.
func (s *ExcludeState) SetExcluded(kind Kind, id string, excluded bool) error {
	var set *[]string
	switch kind {
	case KindExpense:
		set = &s.ExcludedExpenseIDs
	case KindIncome:
		set = &s.ExcludedIncomeIDs
	default:
		return NewValidationError("kind", "only expenses and incomes can be excluded")
	}
	idx := slices.Index(*set, id)
	switch {
	case excluded && idx < 0:
		*set = append(*set, id)
	case !excluded && idx >= 0:
		*set = slices.Delete(*set, idx, idx+1)
	}
	return nil
}

// PocketBalance is derived on every read and never persisted.
type PocketBalance struct {
	PocketID         string   `json:"pocketId"`
	Month            MonthKey `json:"month"`
	AvailableBalance int64    `json:"availableBalance"`
	RealtimeBalance  int64    `json:"realtimeBalance"`
	ProjectedBalance int64    `json:"projectedBalance"`
}

// PocketSummary pairs a pocket with its balance for reports.
type PocketSummary struct {
	Pocket  Pocket
	Balance PocketBalance
}

// MonthSummary is a compact overview of every pocket for one month.
type MonthSummary struct {
	Month          MonthKey
	Budget         BudgetRecord
	Exclusions     ExcludeState
	Pockets        []PocketSummary
	TotalExpenses  int64
	TotalIncomes   int64
	TotalRealtime  int64
	TotalProjected int64
}
