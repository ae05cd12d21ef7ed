package models

import (
	"time"

	"persacc/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables keyed by a generated id.
// Ledger rows are never soft-deleted: movements are removed for real and
// categories are deactivated through their Active flag.
type Base struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
