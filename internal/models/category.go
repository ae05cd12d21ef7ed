package models

// Category is a master record a movement is booked against. A category is
// valid for exactly one movement type.
type Category struct {
	Base
	Name         string       `gorm:"not null;uniqueIndex" json:"name"`
	MovementType MovementType `gorm:"column:movement_type;not null" json:"movement_type"`
	Active       bool         `gorm:"not null;default:true" json:"active"`
}

// CategoryUsage pairs a category with the number of movements referencing it.
type CategoryUsage struct {
	Category
	MovementCount int64 `json:"movement_count"`
}
