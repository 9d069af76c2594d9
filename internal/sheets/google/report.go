package google

import (
	"cmp"

	"kantong/internal/core"
)

var reportHeader = []any{"Pocket", "Type", "Status", "Realtime", "Projected", "Available"}

// reportRows lays a month summary out as sheet rows: a title block, one row
// per pocket in registry order, and a totals block. Amounts stay integers so
// USER_ENTERED keeps them numeric.
func reportRows(s core.MonthSummary) [][]any {
	rows := [][]any{
		{"Bulan", s.Month.String()},
		{"Anggaran awal", s.Budget.InitialBudget},
		{"Carryover", s.Budget.Carryover},
		{"Pemasukan tambahan", s.Budget.AdditionalIncome},
		{"Potongan", deduction(s)},
		{"Terkunci", s.Exclusions.Locked},
		{},
		reportHeader,
	}

	for _, p := range s.Pockets {
		rows = append(rows, []any{
			cmp.Or(p.Pocket.Name, p.Pocket.ID),
			string(p.Pocket.Type),
			string(p.Pocket.Status),
			p.Balance.RealtimeBalance,
			p.Balance.ProjectedBalance,
			p.Balance.AvailableBalance,
		})
	}

	rows = append(rows,
		[]any{},
		[]any{"Total pengeluaran", s.TotalExpenses},
		[]any{"Total pemasukan", s.TotalIncomes},
		[]any{"Total realtime", s.TotalRealtime},
		[]any{"Total proyeksi", s.TotalProjected},
	)
	return rows
}

func deduction(s core.MonthSummary) int64 {
	if s.Exclusions.IsDeductionExcluded {
		return 0
	}
	return s.Budget.IncomeDeduction
}

// sheetTitle names the tab a month is exported to.
func sheetTitle(prefix string, month core.MonthKey) string {
	if prefix == "" {
		return month.String()
	}
	return prefix + " " + month.String()
}
