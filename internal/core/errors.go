package core

import (
	"errors"
	"fmt"
)

// Error kinds reported by the ledger. Typed errors below match them via errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrBalanceNotZero    = errors.New("balance not zero")
	ErrNotFound          = errors.New("not found")
	ErrMonthLocked       = errors.New("month locked")
	ErrInvalidConversion = errors.New("invalid conversion")
)

// ValidationError names the offending field of a rejected write.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BalanceNotZeroError carries the balance that blocked an archive.
type BalanceNotZeroError struct {
	PocketID string
	Balance  int64
}

func (e *BalanceNotZeroError) Error() string {
	return fmt.Sprintf("pocket %s has balance %d, must be exactly 0 to archive", e.PocketID, e.Balance)
}

func (e *BalanceNotZeroError) Is(target error) bool {
	return target == ErrBalanceNotZero
}

// ValidationField extracts the field name from a validation error chain.
func ValidationField(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field, true
	}
	return "", false
}
