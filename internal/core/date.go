package core

import (
	"fmt"
	"time"
)

// Date is a calendar day pinned to UTC midnight. All cycle-window comparisons
// are timezone-naive and inclusive on both ends.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Before reports whether d is strictly earlier than other (calendar days).
func (d Date) BeforeDay(other Date) bool {
	return d.Time.Before(other.Time)
}

// AfterDay reports whether d is strictly later than other (calendar days).
func (d Date) AfterDay(other Date) bool {
	return d.Time.After(other.Time)
}

// Within reports whether start <= d <= end, inclusive on both ends.
func (d Date) Within(start, end Date) bool {
	return !d.Time.Before(start.Time) && !d.Time.After(end.Time)
}

// MonthKey identifies a budgeting month as "YYYY-MM". It is the business key
// of a monthly plan and the persisted attribution of a reconciled expense.
type MonthKey string

// ParseMonthKey validates a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(s), nil
}

// MonthKeyOf returns the month key of a calendar day.
func MonthKeyOf(d Date) MonthKey {
	return MonthKey(d.Format("2006-01"))
}

func (k MonthKey) Validate() error {
	_, err := ParseMonthKey(string(k))
	return err
}

// First returns the first day of the month.
func (k MonthKey) First() Date {
	t, _ := time.Parse("2006-01", string(k))
	return Date{Time: t}
}

// Last returns the last day of the month.
func (k MonthKey) Last() Date {
	first := k.First()
	return Date{Time: first.AddDate(0, 1, -1)}
}

func (k MonthKey) String() string {
	return string(k)
}
