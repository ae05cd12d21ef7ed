package server

import (
	"gorm.io/gorm"

	"persacc/internal/config"
	"persacc/internal/events"
	"persacc/internal/services"
)

// NewServices wires the core services over one database handle.
func NewServices(db *gorm.DB, ledger config.LedgerConfig, publisher events.Publisher) Services {
	movements := services.NewMovementService(db, ledger)
	categories := services.NewCategoryService(db)
	return Services{
		Movements:  movements,
		Categories: categories,
		Months:     services.NewMonthService(db),
		KPIs:       services.NewKPIService(db),
		Closing:    services.NewClosingService(db, ledger, movements, categories, publisher),
	}
}
