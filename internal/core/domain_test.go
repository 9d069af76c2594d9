package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.Error(t, err, "case %d", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2025, 11, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-11-05"}`, string(b))

	var out struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-11-20"}`), &out))
	assert.Equal(t, NewDate(2025, 11, 20), out.D)
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	late := time.Date(2025, 11, 10, 23, 59, 0, 0, jakarta)
	assert.Equal(t, NewDate(2025, 11, 10), DateOf(late))
}

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-11", true},
		{"2025-01", true},
		{"2025-1", false},
		{"2025-13", false},
		{"25-11", false},
		{"2025/11", false},
		{"", false},
	}
	for _, tc := range cases {
		m, err := ParseMonthKey(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, MonthKey(tc.in), m)
			continue
		}
		require.Error(t, err, tc.in)
		field, ok := ValidationField(err)
		assert.True(t, ok)
		assert.Equal(t, "month", field)
	}
}

func TestMonthKeyNavigation(t *testing.T) {
	m := MonthKey("2025-01")
	assert.Equal(t, MonthKey("2024-12"), m.Prev())
	assert.Equal(t, MonthKey("2025-02"), m.Next())
	assert.Equal(t, NewDate(2025, 1, 1), m.Start())
	assert.True(t, m.Contains(NewDate(2025, 1, 31)))
	assert.False(t, m.Contains(NewDate(2025, 2, 1)))
}

func TestTransactionEffect(t *testing.T) {
	expense := Transaction{Kind: KindExpense, Amount: 800000}
	income := Transaction{Kind: KindIncome, Amount: 50000, PocketID: "a"}
	transfer := Transaction{Kind: KindTransfer, Amount: 100000, PocketID: "a", ToPocketID: "b"}
	self := Transaction{Kind: KindTransfer, Amount: 100000, PocketID: "a", ToPocketID: "a"}

	assert.Equal(t, int64(-800000), expense.Effect(PrimaryPocketID))
	assert.Equal(t, int64(0), expense.Effect("a"))
	assert.Equal(t, int64(50000), income.Effect("a"))
	assert.Equal(t, int64(0), income.Effect(PrimaryPocketID))
	assert.Equal(t, int64(-100000), transfer.Effect("a"))
	assert.Equal(t, int64(100000), transfer.Effect("b"))
	assert.Equal(t, int64(0), transfer.Effect("c"))
	assert.Equal(t, int64(0), self.Effect("a"))
	assert.True(t, transfer.Touches("b"))
	assert.False(t, income.Touches("b"))
}

func TestTransactionDraftValidate(t *testing.T) {
	amount := int64(1)
	assert.NoError(t, TransactionDraft{Name: "ok", Amount: &amount}.Validate())

	err := TransactionDraft{Name: "  ", Amount: &amount}.Validate()
	field, _ := ValidationField(err)
	assert.Equal(t, "name", field)

	err = TransactionDraft{Name: "ok"}.Validate()
	field, _ = ValidationField(err)
	assert.Equal(t, "amount", field)
}

func TestExcludeStateSetExcluded(t *testing.T) {
	s := DefaultExcludeState()
	require.NoError(t, s.SetExcluded(KindExpense, "e1", true))
	require.NoError(t, s.SetExcluded(KindExpense, "e1", true))
	require.NoError(t, s.SetExcluded(KindIncome, "i1", true))
	assert.Equal(t, []string{"e1"}, s.ExcludedExpenseIDs)
	assert.True(t, s.Excludes(Transaction{Kind: KindExpense, ID: "e1"}))
	assert.False(t, s.Excludes(Transaction{Kind: KindIncome, ID: "e1"}))

	require.NoError(t, s.SetExcluded(KindExpense, "e1", false))
	assert.Empty(t, s.ExcludedExpenseIDs)
	assert.ErrorIs(t, s.SetExcluded(KindTransfer, "t1", true), ErrValidation)
}

func TestBudgetRecordBase(t *testing.T) {
	b := BudgetRecord{InitialBudget: 5000000, Carryover: 250000, AdditionalIncome: 100000, IncomeDeduction: 50000}
	assert.Equal(t, int64(5300000), b.Base(false))
	assert.Equal(t, int64(5350000), b.Base(true))
}

func TestPocketDraftValidate(t *testing.T) {
	assert.NoError(t, PocketDraft{Name: "Tabungan"}.Validate())
	assert.ErrorIs(t, PocketDraft{Name: "   "}.Validate(), ErrValidation)

	empty := ""
	assert.ErrorIs(t, PocketUpdate{Name: &empty}.Validate(), ErrValidation)
	assert.NoError(t, PocketUpdate{}.Validate())
}
