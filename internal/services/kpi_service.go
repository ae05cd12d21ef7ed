package services

import (
	"gorm.io/gorm"

	apperrors "persacc/internal/errors"
	"persacc/internal/fiscal"
	"persacc/internal/kpi"
	"persacc/internal/models"
)

// kpiService loads movements and hands them to the kpi package.
type kpiService struct {
	db *gorm.DB
}

// NewKPIService creates a new KPIServicer.
func NewKPIService(db *gorm.DB) KPIServicer {
	return &kpiService{db: db}
}

// MonthKPIs summarizes one fiscal month. An empty month yields zero totals.
func (s *kpiService) MonthKPIs(month string) (*kpi.MonthSummary, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return nil, apperrors.ErrInvalidFiscalMonth
	}
	movements, err := loadMovements(s.db, Period{FiscalMonth: month})
	if err != nil {
		return nil, err
	}
	summary := kpi.SummarizeMonth(month, movements)
	return &summary, nil
}

// YearKPIs summarizes every fiscal month of a calendar year.
func (s *kpiService) YearKPIs(year int) (*kpi.YearSummary, error) {
	movements, err := loadMovements(s.db, Period{Year: year})
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	summary := kpi.SummarizeYear(year, movements, kpi.YearOptions{CategoryNames: names})
	return &summary, nil
}

// loadMovements reads a period without preloading categories.
func loadMovements(db *gorm.DB, period Period) ([]models.Movement, error) {
	scope, err := periodScope(period)
	if err != nil {
		return nil, err
	}
	var movements []models.Movement
	if err := db.Scopes(scope).
		Order("accounting_date ASC, created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return movements, nil
}
