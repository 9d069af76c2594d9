package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day. Time-of-day is always zero and the location UTC.
	Date struct {
		time.Time
	}

	// MonthKey is the YYYY-MM partition shared by every per-month entity.
	MonthKey string
)

var (
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Month returns the month key the date belongs to.
func (d Date) Month() MonthKey {
	return MonthKeyOf(d.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKeyOf returns the month key of t in t's own location.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// ParseMonthKey validates a zero-padded YYYY-MM key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[4] != '-' {
		return "", NewValidationError("month", fmt.Sprintf("%q is not in YYYY-MM format", s))
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", NewValidationError("month", fmt.Sprintf("%q is not a valid month", s))
	}
	return MonthKeyOf(t), nil
}

func (m MonthKey) Validate() error {
	_, err := ParseMonthKey(string(m))
	return err
}

// Start returns the first day of the month.
func (m MonthKey) Start() Date {
	t, _ := time.Parse("2006-01", string(m))
	return Date{Time: t}
}

// Contains reports whether d falls inside the month.
func (m MonthKey) Contains(d Date) bool {
	return d.Month() == m
}

// Prev returns the previous month key.
func (m MonthKey) Prev() MonthKey {
	return MonthKeyOf(m.Start().AddDate(0, -1, 0))
}

// Next returns the following month key.
func (m MonthKey) Next() MonthKey {
	return MonthKeyOf(m.Start().AddDate(0, 1, 0))
}

func (m MonthKey) String() string {
	return string(m)
}
