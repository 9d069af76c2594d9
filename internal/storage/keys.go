package storage

import (
	"strings"

	"kantong/internal/core"
)

// Key prefixes.
const (
	PrefixBudget       = "budget:"
	PrefixExcludeState = "exclude-state:"
	PrefixPocket       = "pocket:"
	PrefixTemplate     = "template:"
	PrefixIncomeName   = "income-name:"
)

func BudgetKey(month core.MonthKey) string {
	return PrefixBudget + string(month)
}

func ExcludeStateKey(month core.MonthKey) string {
	return PrefixExcludeState + string(month)
}

func PocketKey(id string) string {
	return PrefixPocket + id
}

func TemplateKey(id string) string {
	return PrefixTemplate + id
}

// IncomeNameKey lowercases the name so suggestions are case-insensitive.
func IncomeNameKey(name string) string {
	return PrefixIncomeName + strings.ToLower(strings.TrimSpace(name))
}

// MonthPrefix is the scan prefix for one kind in one month: "expense:2025-11:".
func MonthPrefix(kind core.Kind, month core.MonthKey) string {
	return string(kind) + ":" + string(month) + ":"
}

// TransactionKey is "{kind}:{YYYY-MM}:{id}".
func TransactionKey(kind core.Kind, month core.MonthKey, id string) string {
	return MonthPrefix(kind, month) + id
}

// ParseTransactionKey splits a transaction key into its parts.
func ParseTransactionKey(key string) (kind core.Kind, month core.MonthKey, id string, ok bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	kind = core.Kind(parts[0])
	if kind.Validate() != nil {
		return "", "", "", false
	}
	m, err := core.ParseMonthKey(parts[1])
	if err != nil || parts[2] == "" {
		return "", "", "", false
	}
	return kind, m, parts[2], true
}
