package services

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"persacc/internal/config"
	apperrors "persacc/internal/errors"
	"persacc/internal/fiscal"
	"persacc/internal/models"
	"persacc/internal/pagination"
)

// movementService is the movement store. Every write goes through the
// closed-month guard except the automatic movements of a close.
type movementService struct {
	db     *gorm.DB
	policy fiscal.Policy
	ledger config.LedgerConfig
}

// NewMovementService creates a new MovementServicer.
func NewMovementService(db *gorm.DB, ledger config.LedgerConfig) MovementServicer {
	return &movementService{
		db:     db,
		policy: fiscal.NewPolicy(ledger.SalaryShiftDay, ledger.SalaryKeywords),
		ledger: ledger,
	}
}

// InsertMovement validates and stores a manual movement, deriving its
// accounting date and fiscal month.
func (s *movementService) InsertMovement(in MovementInput) (*models.Movement, error) {
	if !in.MovementType.Valid() {
		return nil, apperrors.ErrInvalidMovementType
	}

	// Default date to today if not provided
	if in.RealDate.IsZero() {
		in.RealDate = time.Now()
	}

	movement := &models.Movement{
		RealDate:      fiscal.Date(in.RealDate),
		MovementType:  in.MovementType,
		CategoryID:    in.CategoryID,
		RelevanceCode: in.RelevanceCode,
		Concept:       strings.TrimSpace(in.Concept),
		Amount:        in.Amount,
		LiquidityFlag: in.LiquidityFlag,
		Source:        models.SourceManual,
	}
	s.assignFiscalMonth(movement)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkMonthOpen(tx, movement.FiscalMonth); err != nil {
			return err
		}
		if err := s.validateWithDB(tx, movement); err != nil {
			return err
		}
		return s.createWithDB(tx, movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// CreateAutoMovement books a movement generated by a month close on tx.
func (s *movementService) CreateAutoMovement(tx *gorm.DB, movement *models.Movement) error {
	movement.Source = models.SourceAutoClose
	movement.RealDate = fiscal.Date(movement.RealDate)
	s.assignFiscalMonth(movement)
	if err := s.validateWithDB(tx, movement); err != nil {
		return err
	}
	return s.createWithDB(tx, movement)
}

// UpdateMovement applies upd to a movement. Both the month the movement
// is in and the month it would move to must be open.
func (s *movementService) UpdateMovement(id string, upd MovementUpdate) (*models.Movement, error) {
	var movement *models.Movement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = findMovement(tx, id)
		if err != nil {
			return err
		}
		if err := checkMonthOpen(tx, movement.FiscalMonth); err != nil {
			return err
		}

		if upd.MovementType != nil {
			if !upd.MovementType.Valid() {
				return apperrors.ErrInvalidMovementType
			}
			movement.MovementType = *upd.MovementType
			if movement.MovementType != models.MovementTypeExpense && upd.RelevanceCode == nil {
				movement.RelevanceCode = nil
			}
		}
		if upd.RealDate != nil {
			movement.RealDate = fiscal.Date(*upd.RealDate)
		}
		if upd.CategoryID != nil {
			movement.CategoryID = *upd.CategoryID
			movement.Category = nil
		}
		if upd.RelevanceCode != nil {
			movement.RelevanceCode = upd.RelevanceCode
		}
		if upd.Concept != nil {
			movement.Concept = strings.TrimSpace(*upd.Concept)
		}
		if upd.Amount != nil {
			movement.Amount = *upd.Amount
		}
		if upd.LiquidityFlag != nil {
			movement.LiquidityFlag = *upd.LiquidityFlag
		}

		previousMonth := movement.FiscalMonth
		s.assignFiscalMonth(movement)
		if movement.FiscalMonth != previousMonth {
			if err := checkMonthOpen(tx, movement.FiscalMonth); err != nil {
				return err
			}
		}

		if err := s.validateWithDB(tx, movement); err != nil {
			return err
		}
		if err := ensureMonthState(tx, movement.FiscalMonth); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// DeleteMovement removes a movement of an open month.
func (s *movementService) DeleteMovement(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		movement, err := findMovement(tx, id)
		if err != nil {
			return err
		}
		if err := checkMonthOpen(tx, movement.FiscalMonth); err != nil {
			return err
		}
		if err := tx.Delete(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetMovementByID retrieves a movement with its category.
func (s *movementService) GetMovementByID(id string) (*models.Movement, error) {
	var movement models.Movement
	if err := s.db.Preload("Category").Where("id = ?", id).First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &movement, nil
}

// ListMovements returns every movement of a fiscal month or a year in
// accounting order.
func (s *movementService) ListMovements(period Period) ([]models.Movement, error) {
	scope, err := periodScope(period)
	if err != nil {
		return nil, err
	}

	var movements []models.Movement
	if err := s.db.Preload("Category").
		Scopes(scope).
		Order("accounting_date ASC, real_date ASC, created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return movements, nil
}

// SearchMovements returns a filtered page of movements, newest first. The
// period is optional here.
func (s *movementService) SearchMovements(filter MovementFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Movement], error) {
	page.Defaults()

	base := s.db.Model(&models.Movement{})
	if filter.Period != (Period{}) {
		scope, err := periodScope(filter.Period)
		if err != nil {
			return nil, err
		}
		base = base.Scopes(scope)
	}
	base = applyMovementFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var movements []models.Movement
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("accounting_date DESC, created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(movements, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AvailableYears lists the years that hold at least one movement, newest first.
func (s *movementService) AvailableYears() ([]int, error) {
	var raw []string
	if err := s.db.Model(&models.Movement{}).
		Distinct().
		Pluck("SUBSTR(fiscal_month, 1, 4)", &raw).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	years := make([]int, 0, len(raw))
	for _, r := range raw {
		y, err := strconv.Atoi(r)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (s *movementService) assignFiscalMonth(m *models.Movement) {
	m.AccountingDate = s.policy.AccountingDate(m.RealDate, m.MovementType, m.LiquidityFlag, m.Concept)
	m.FiscalMonth = fiscal.Month(m.AccountingDate)
}

// validateWithDB checks the movement invariants. Category lookups go
// through db so that they see the caller's transaction.
func (s *movementService) validateWithDB(db *gorm.DB, m *models.Movement) error {
	if !m.MovementType.Valid() {
		return apperrors.ErrInvalidMovementType
	}
	if !m.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}

	if m.MovementType == models.MovementTypeExpense {
		if m.RelevanceCode == nil {
			if s.ledger.EnableRelevance {
				return apperrors.ErrMissingRelevance
			}
			code := models.RelevanceCode(s.ledger.DefaultRelevance)
			m.RelevanceCode = &code
		}
		if !m.RelevanceCode.Valid() {
			return apperrors.ErrInvalidRelevanceCode
		}
	} else if m.RelevanceCode != nil {
		return apperrors.ErrUnexpectedRelevance
	}

	if m.CategoryID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required")
	}
	category, err := findCategory(db, m.CategoryID)
	if err != nil {
		return err
	}
	if category.MovementType != m.MovementType {
		return apperrors.ErrCategoryTypeMismatch
	}
	if !category.Active {
		return apperrors.ErrCategoryInactive
	}
	return nil
}

// createWithDB stores a validated movement, creating its month row on demand.
func (s *movementService) createWithDB(tx *gorm.DB, m *models.Movement) error {
	if err := ensureMonthState(tx, m.FiscalMonth); err != nil {
		return err
	}
	if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func checkMonthOpen(db *gorm.DB, month string) error {
	closed, err := isMonthClosed(db, month)
	if err != nil {
		return err
	}
	if closed {
		return apperrors.WithMessage(apperrors.ErrMonthClosed, "fiscal month "+month+" is closed")
	}
	return nil
}

func findMovement(db *gorm.DB, id string) (*models.Movement, error) {
	var movement models.Movement
	if err := db.Where("id = ?", id).First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &movement, nil
}

// periodScope filters on exactly one of a fiscal month or a year.
func periodScope(p Period) (func(*gorm.DB) *gorm.DB, error) {
	switch {
	case p.FiscalMonth != "" && p.Year != 0:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "use either a fiscal month or a year, not both")
	case p.FiscalMonth != "":
		if err := fiscal.ValidateMonth(p.FiscalMonth); err != nil {
			return nil, apperrors.ErrInvalidFiscalMonth
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fiscal_month = ?", p.FiscalMonth)
		}, nil
	case p.Year != 0:
		if p.Year < 1 || p.Year > 9999 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must have four digits")
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("fiscal_month LIKE ?", fiscal.YearPrefix(p.Year))
		}, nil
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a fiscal month or a year is required")
	}
}

func applyMovementFilters(q *gorm.DB, f MovementFilter) *gorm.DB {
	if f.MovementType != nil {
		q = q.Where("movement_type = ?", *f.MovementType)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Source != nil {
		q = q.Where("source = ?", *f.Source)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		q = q.Where("LOWER(concept) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
