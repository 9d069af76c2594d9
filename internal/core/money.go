// Package core provides money parsing and currency normalization.
//
// Every amount that reaches storage is an integer number of reporting-currency
// units (IDR). Foreign amounts are converted exactly once, here, and the result
// is never re-derived from the retained original amount or rate.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ReportingCurrency is the single currency all stored amounts are normalized into.
const ReportingCurrency = "IDR"

const (
	ConversionManual ConversionType = "manual"
	ConversionAPI    ConversionType = "api"
)

var (
	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// ConversionType records where an exchange rate came from. It never changes the arithmetic.
type ConversionType string

func (c ConversionType) Validate() error {
	switch c {
	case "", ConversionManual, ConversionAPI:
		return nil
	default:
		return NewValidationError("conversionType", fmt.Sprintf("unknown conversion type %q", string(c)))
	}
}

// IsReportingCurrency reports whether code denotes the reporting currency.
// An empty code means the amount was entered in the reporting currency.
func IsReportingCurrency(code string) bool {
	code = strings.TrimSpace(code)
	return code == "" || strings.EqualFold(code, ReportingCurrency)
}

// Normalize converts an entered amount into integer reporting-currency units.
//
// Amounts already in the reporting currency are only rounded. Foreign amounts
// require a positive exchange rate; the product is rounded half away from zero.
//
// Examples:
//
//	Normalize(12.5, "USD", 16000, manual) -> 200000
//	Normalize(1500.5, "IDR", nil, "")     -> 1501
func Normalize(amount decimal.Decimal, currency string, exchangeRate *decimal.Decimal, conversionType ConversionType) (int64, error) {
	if err := conversionType.Validate(); err != nil {
		return 0, err
	}
	if IsReportingCurrency(currency) {
		return roundToUnits(amount)
	}
	if exchangeRate == nil {
		return 0, fmt.Errorf("%w: missing exchange rate for %s", ErrInvalidConversion, strings.ToUpper(currency))
	}
	if !exchangeRate.IsPositive() {
		return 0, fmt.Errorf("%w: exchange rate for %s must be positive, got %s", ErrInvalidConversion, strings.ToUpper(currency), exchangeRate.String())
	}
	return roundToUnits(amount.Mul(*exchangeRate))
}

// roundToUnits rounds half away from zero (decimal.Round) and rejects results
// outside the int64 range instead of letting IntPart wrap.
func roundToUnits(d decimal.Decimal) (int64, error) {
	r := d.Round(0)
	if r.GreaterThan(maxUnits) || r.LessThan(minUnits) {
		return 0, fmt.Errorf("%w: amount %s is out of range", ErrInvalidConversion, r.String())
	}
	return r.IntPart(), nil
}

// ParseAmount parses a user-entered decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative and
// zero values are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("amount", "amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", fmt.Sprintf("%q is not a number", s))
	}
	if !d.IsPositive() {
		return decimal.Zero, NewValidationError("amount", "amount must be positive")
	}
	if d.GreaterThan(maxUnits) {
		return decimal.Zero, NewValidationError("amount", "amount is too large")
	}
	return d, nil
}

// FormatIDR renders an integer amount with dot thousand separators, e.g. "Rp4.200.000".
func FormatIDR(amount int64) string {
	neg := amount < 0
	magnitude := uint64(amount)
	if neg {
		magnitude = -magnitude
	}
	digits := strconv.FormatUint(magnitude, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}
