package core

import (
	"strings"
	"time"
)

type (
	// Template is a saved transaction shape that can be applied to any month.
	Template struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Kind      Kind       `json:"kind"`
		Amount    int64      `json:"amount"`
		PocketID  string     `json:"pocketId,omitempty"`
		Items     []LineItem `json:"items,omitempty"`
		Color     *string    `json:"color,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
		UpdatedAt time.Time  `json:"updatedAt"`
	}

	// IncomeName remembers an income label for suggestions.
	IncomeName struct {
		Name       string    `json:"name"`
		Uses       int       `json:"uses"`
		LastUsedAt time.Time `json:"lastUsedAt"`
	}
)

func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", "template name cannot be empty")
	}
	switch t.Kind {
	case KindExpense, KindIncome:
	default:
		return NewValidationError("kind", "templates support expenses and incomes only")
	}
	if t.Amount <= 0 {
		return NewValidationError("amount", "template amount must be positive")
	}
	return nil
}
