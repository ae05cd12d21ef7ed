package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "persacc/internal/errors"
	"persacc/internal/fiscal"
	"persacc/internal/models"
	"persacc/internal/pagination"
)

// monthService is the repository of month states and close snapshots.
type monthService struct {
	db *gorm.DB
}

// NewMonthService creates a new MonthServicer.
func NewMonthService(db *gorm.DB) MonthServicer {
	return &monthService{db: db}
}

// GetMonthState returns the stored state of a fiscal month.
func (s *monthService) GetMonthState(month string) (*models.MonthState, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return nil, apperrors.ErrInvalidFiscalMonth
	}
	state, err := findMonthState(s.db, month)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, apperrors.ErrMonthNotFound
	}
	return state, nil
}

// IsMonthClosed reports whether month is at or before the latest closed month.
func (s *monthService) IsMonthClosed(month string) (bool, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return false, apperrors.ErrInvalidFiscalMonth
	}
	return isMonthClosed(s.db, month)
}

// ListClosedMonths returns the keys of every closed month in ascending order.
func (s *monthService) ListClosedMonths() ([]string, error) {
	var months []string
	if err := s.db.Model(&models.MonthState{}).
		Where("status = ?", models.MonthStatusClosed).
		Order("fiscal_month ASC").
		Pluck("fiscal_month", &months).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return months, nil
}

// ListMonthStates returns every stored month state in ascending order.
func (s *monthService) ListMonthStates() ([]models.MonthState, error) {
	var states []models.MonthState
	if err := s.db.Order("fiscal_month ASC").Find(&states).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return states, nil
}

// OpenMonth creates an OPEN month with the given opening balance, or sets
// the opening balance of a month that is still open.
func (s *monthService) OpenMonth(month string, openingBalance decimal.Decimal) (*models.MonthState, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return nil, apperrors.ErrInvalidFiscalMonth
	}

	var state *models.MonthState
	err := s.db.Transaction(func(tx *gorm.DB) error {
		closed, err := isMonthClosed(tx, month)
		if err != nil {
			return err
		}
		if closed {
			return apperrors.ErrMonthClosed
		}
		state, err = upsertOpenMonth(tx, month, openingBalance)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetSnapshot returns the snapshot written when month was closed.
func (s *monthService) GetSnapshot(month string) (*models.Snapshot, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return nil, apperrors.ErrInvalidFiscalMonth
	}
	var snapshot models.Snapshot
	if err := s.db.Where("closed_month = ?", month).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// GetLatestSnapshot returns the snapshot of the most recently closed month.
func (s *monthService) GetLatestSnapshot() (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := s.db.Order("closed_month DESC").First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// ListSnapshots returns a page of snapshots, newest first. A zero year lists every year.
func (s *monthService) ListSnapshots(year int, page pagination.PageRequest) (*pagination.PageResponse[models.Snapshot], error) {
	page.Defaults()

	base := s.db.Model(&models.Snapshot{})
	if year != 0 {
		base = base.Where("closed_month LIKE ?", fiscal.YearPrefix(year))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.Snapshot
	if err := base.Scopes(pagination.Paginate(page)).
		Order("closed_month DESC").
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// The helpers below take the handle to query through so that the close can
// run them on its transaction.

// findMonthState returns nil without error when the month has no row yet.
func findMonthState(db *gorm.DB, month string) (*models.MonthState, error) {
	var state models.MonthState
	if err := db.Where("fiscal_month = ?", month).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &state, nil
}

// isMonthClosed holds for every month up to the latest CLOSED one, so a
// month that never got a row is still closed once a later month is.
func isMonthClosed(db *gorm.DB, month string) (bool, error) {
	var count int64
	if err := db.Model(&models.MonthState{}).
		Where("status = ? AND fiscal_month >= ?", models.MonthStatusClosed, month).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// lastClosedMonth returns "" when no month has been closed.
func lastClosedMonth(db *gorm.DB) (string, error) {
	var months []string
	if err := db.Model(&models.MonthState{}).
		Where("status = ?", models.MonthStatusClosed).
		Order("fiscal_month DESC").
		Limit(1).
		Pluck("fiscal_month", &months).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(months) == 0 {
		return "", nil
	}
	return months[0], nil
}

// nextClosableMonth is the month after the last closed one. Before the
// first close it is the earliest month holding movements or a state row;
// it is "" when the ledger is empty and any month may be closed.
func nextClosableMonth(db *gorm.DB) (string, error) {
	last, err := lastClosedMonth(db)
	if err != nil {
		return "", err
	}
	if last != "" {
		next, err := fiscal.NextMonth(last)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return next, nil
	}

	earliest := ""
	for _, model := range []interface{}{&models.MonthState{}, &models.Movement{}} {
		var months []string
		if err := db.Model(model).
			Order("fiscal_month ASC").
			Limit(1).
			Pluck("fiscal_month", &months).Error; err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(months) > 0 && (earliest == "" || fiscal.Compare(months[0], earliest) < 0) {
			earliest = months[0]
		}
	}
	return earliest, nil
}

// ensureMonthState creates an OPEN row with a zero opening balance when the
// month has none.
func ensureMonthState(db *gorm.DB, month string) error {
	state := models.MonthState{FiscalMonth: month, Status: models.MonthStatusOpen}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// upsertOpenMonth makes sure month exists as OPEN with the given opening
// balance. A row in any other status is left alone and reported.
func upsertOpenMonth(db *gorm.DB, month string, openingBalance decimal.Decimal) (*models.MonthState, error) {
	state, err := findMonthState(db, month)
	if err != nil {
		return nil, err
	}

	if state == nil {
		state = &models.MonthState{
			FiscalMonth:    month,
			Status:         models.MonthStatusOpen,
			OpeningBalance: openingBalance,
		}
		if err := db.Create(state).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return state, nil
	}

	if state.Status != models.MonthStatusOpen {
		return nil, apperrors.WithMessage(apperrors.ErrMonthClosed, "month "+month+" is not open")
	}
	if err := db.Model(state).Update("opening_balance", openingBalance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	state.OpeningBalance = openingBalance
	return state, nil
}
