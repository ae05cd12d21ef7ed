package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthStatus is the lifecycle phase of a fiscal month.
type MonthStatus string

const (
	MonthStatusOpen MonthStatus = "OPEN"
	// MonthStatusClosing only exists inside the close transaction.
	MonthStatusClosing MonthStatus = "CLOSING"
	MonthStatusClosed  MonthStatus = "CLOSED"
)

// MonthState is the per-month closing record keyed by fiscal month.
// The derived fields are only populated once the month is closed.
type MonthState struct {
	FiscalMonth      string              `gorm:"primaryKey;size:7" json:"fiscal_month"`
	Status           MonthStatus         `gorm:"not null;default:OPEN" json:"status"`
	ClosedAt         *time.Time          `json:"closed_at,omitempty"`
	OpeningBalance   decimal.Decimal     `gorm:"type:decimal(20,8);not null;default:0" json:"opening_balance"`
	SalaryAmount     decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"salary_amount"`
	TotalIncome      decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"total_income"`
	TotalExpense     decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"total_expense"`
	TotalInvestment  decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"total_investment"`
	ClosingBalance   decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"closing_balance"`
	NextMonthPayroll decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"next_month_payroll"`
	Notes            string              `gorm:"not null;default:''" json:"notes"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// IsClosed reports whether the month has been closed.
func (s *MonthState) IsClosed() bool {
	return s.Status == MonthStatusClosed
}
