// Package fiscal maps real-world dates to accounting dates and fiscal month
// keys. Everything here is pure: the salary-shift policy is injected, never
// read from global state.
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"persacc/internal/models"
)

// MonthLayout is the layout of a fiscal month key.
const MonthLayout = "2006-01"

// Policy decides when salary-like income is attributed to the following
// fiscal month.
type Policy struct {
	// ShiftDay is the first day of month from which salary-like income is
	// moved forward. Values <= 1 disable shifting.
	ShiftDay int
	// SalaryKeywords are matched case-insensitively against the concept.
	SalaryKeywords []string
}

// NewPolicy builds a Policy, normalizing keywords to lower case.
func NewPolicy(shiftDay int, keywords []string) Policy {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return Policy{ShiftDay: shiftDay, SalaryKeywords: normalized}
}

// IsSalaryLike reports whether an income concept matches a salary keyword.
func (p Policy) IsSalaryLike(movementType models.MovementType, concept string) bool {
	if movementType != models.MovementTypeIncome {
		return false
	}
	lower := strings.ToLower(concept)
	for _, kw := range p.SalaryKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// AccountingDate returns the date a movement is booked on. Salary-like income
// received on or after ShiftDay is moved to the first day of the next month,
// unless the liquidity flag is set. Movements dated the 1st never shift.
func (p Policy) AccountingDate(realDate time.Time, movementType models.MovementType, liquidityFlag bool, concept string) time.Time {
	d := Date(realDate)
	if liquidityFlag || p.ShiftDay <= 1 || d.Day() == 1 {
		return d
	}
	if d.Day() < p.ShiftDay || !p.IsSalaryLike(movementType, concept) {
		return d
	}
	return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Month returns the fiscal month key of an accounting date.
func Month(accountingDate time.Time) string {
	return accountingDate.Format(MonthLayout)
}

// ParseMonth parses a "YYYY-MM" key into the first day of that month.
func ParseMonth(month string) (time.Time, error) {
	if len(month) != len(MonthLayout) {
		return time.Time{}, fmt.Errorf("invalid fiscal month %q: expected YYYY-MM", month)
	}
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid fiscal month %q: %w", month, err)
	}
	return t, nil
}

// ValidateMonth reports whether month is a well formed key.
func ValidateMonth(month string) error {
	_, err := ParseMonth(month)
	return err
}

// FirstDay returns the first day of a fiscal month.
func FirstDay(month string) (time.Time, error) {
	return ParseMonth(month)
}

// LastDay returns the last day of a fiscal month.
func LastDay(month string) (time.Time, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return time.Time{}, err
	}
	return first.AddDate(0, 1, -1), nil
}

// NextMonth returns the key of the month after month.
func NextMonth(month string) (string, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return Month(first.AddDate(0, 1, 0)), nil
}

// PrevMonth returns the key of the month before month.
func PrevMonth(month string) (string, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return Month(first.AddDate(0, -1, 0)), nil
}

// Year returns the calendar year of a fiscal month key.
func Year(month string) (int, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	return first.Year(), nil
}

// YearPrefix returns the LIKE pattern matching every fiscal month of year.
func YearPrefix(year int) string {
	return strconv.Itoa(year) + "-%"
}

// Compare orders two well formed fiscal month keys. Keys are zero padded so
// lexical order is calendar order.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}
