package models

import (
	"time"

	"persacc/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot is the immutable record of one month close. It is written once
// inside the close transaction and never updated.
type Snapshot struct {
	ID                  string          `gorm:"type:text;primaryKey" json:"id"`
	ClosedMonth         string          `gorm:"size:7;not null;uniqueIndex" json:"closed_month"`
	ExecutedAt          time.Time       `gorm:"not null" json:"executed_at"`
	BalanceMethod       string          `gorm:"not null" json:"balance_method"`
	RealBankBalance     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"real_bank_balance"`
	NewMonthPayroll     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"new_month_payroll"`
	SurplusRetentionPct decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"surplus_retention_pct"`
	SalaryRetentionPct  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"salary_retention_pct"`
	SurplusBase         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"surplus_base"`
	SurplusRetention    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"surplus_retention"`
	SalaryRetention     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"salary_retention"`
	ConsequencesAmount  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"consequences_amount"`
	ExpectedBalance     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"expected_balance"`
	RecordedDeviation   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"recorded_deviation"`
	RetentionExecuted   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"retention_executed"`
	ClosingBalance      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"closing_balance"`
	NewOpeningBalance   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"new_opening_balance"`
	CreatedAt           time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new snapshots.
func (s *Snapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
