package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is a single ledger entry. Amount is always positive; the
// movement type carries the sign.
type Movement struct {
	Base
	RealDate       time.Time       `gorm:"type:date;not null;index" json:"real_date"`
	AccountingDate time.Time       `gorm:"type:date;not null" json:"accounting_date"`
	FiscalMonth    string          `gorm:"size:7;not null;index" json:"fiscal_month"`
	MovementType   MovementType    `gorm:"column:movement_type;not null;index" json:"movement_type"`
	CategoryID     string          `gorm:"type:text;not null;index" json:"category_id"`
	RelevanceCode  *RelevanceCode  `json:"relevance_code,omitempty"`
	Concept        string          `gorm:"not null;default:''" json:"concept"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	LiquidityFlag  bool            `gorm:"not null;default:false" json:"liquidity_flag"`
	Source         MovementSource  `gorm:"not null;default:MANUAL" json:"source"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}

// IsAutoGenerated reports whether the movement was booked by a month close.
func (m *Movement) IsAutoGenerated() bool {
	return m.Source == SourceAutoClose
}
