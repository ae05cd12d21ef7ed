package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"persacc/internal/closing"
	"persacc/internal/kpi"
	"persacc/internal/models"
	"persacc/internal/pagination"
)

// MovementInput holds the fields of a new movement. The accounting date and
// fiscal month are derived, never supplied.
type MovementInput struct {
	RealDate      time.Time
	MovementType  models.MovementType
	CategoryID    string
	RelevanceCode *models.RelevanceCode
	Concept       string
	Amount        decimal.Decimal
	LiquidityFlag bool
}

// MovementUpdate holds optional changes to a movement. Nil fields are left
// as they are. Changing an expense to another type drops its relevance code.
type MovementUpdate struct {
	RealDate      *time.Time
	MovementType  *models.MovementType
	CategoryID    *string
	RelevanceCode *models.RelevanceCode
	Concept       *string
	Amount        *decimal.Decimal
	LiquidityFlag *bool
}

// Period selects either one fiscal month or one calendar year.
type Period struct {
	FiscalMonth string
	Year        int
}

// MovementFilter holds optional filter parameters for searching movements.
type MovementFilter struct {
	Period       Period
	MovementType *models.MovementType
	CategoryID   *string
	Source       *models.MovementSource
	Query        string
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
}

// MovementServicer defines the contract of the movement store.
type MovementServicer interface {
	InsertMovement(in MovementInput) (*models.Movement, error)
	UpdateMovement(id string, upd MovementUpdate) (*models.Movement, error)
	DeleteMovement(id string) error
	GetMovementByID(id string) (*models.Movement, error)
	ListMovements(period Period) ([]models.Movement, error)
	SearchMovements(filter MovementFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Movement], error)
	AvailableYears() ([]int, error)
	// CreateAutoMovement books a movement generated by a month close. It runs
	// on the caller's transaction and skips the closed-month check.
	CreateAutoMovement(tx *gorm.DB, movement *models.Movement) error
}

// CategoryServicer defines the contract for category masters.
type CategoryServicer interface {
	CreateCategory(name string, movementType models.MovementType) (*models.Category, error)
	ListCategories(movementType *models.MovementType, includeInactive bool) ([]models.CategoryUsage, error)
	GetCategoryByID(id string) (*models.Category, error)
	UpdateCategory(id string, name string, movementType *models.MovementType, active *bool) (*models.Category, error)
	// DeleteCategory hard-deletes an unused category and deactivates a used one.
	DeleteCategory(id string) (deactivated bool, err error)
	EnsureCategory(tx *gorm.DB, name string, movementType models.MovementType) (*models.Category, error)
}

// MonthServicer defines the contract of the month state and snapshot repository.
type MonthServicer interface {
	GetMonthState(month string) (*models.MonthState, error)
	IsMonthClosed(month string) (bool, error)
	ListClosedMonths() ([]string, error)
	ListMonthStates() ([]models.MonthState, error)
	OpenMonth(month string, openingBalance decimal.Decimal) (*models.MonthState, error)
	GetSnapshot(month string) (*models.Snapshot, error)
	GetLatestSnapshot() (*models.Snapshot, error)
	ListSnapshots(year int, page pagination.PageRequest) (*pagination.PageResponse[models.Snapshot], error)
}

// KPIServicer computes period summaries from the movement store.
type KPIServicer interface {
	MonthKPIs(month string) (*kpi.MonthSummary, error)
	YearKPIs(year int) (*kpi.YearSummary, error)
}

// CloseRequest is the user input of a month close. Nil percentages and an
// empty balance method fall back to the configured defaults.
type CloseRequest struct {
	RealBankBalance     decimal.Decimal
	NewPayroll          decimal.Decimal
	SurplusRetentionPct *decimal.Decimal
	SalaryRetentionPct  *decimal.Decimal
	Consequences        decimal.Decimal
	BalanceMethod       closing.BalanceMethod
	Notes               string
}

// ClosePreview is the outcome of a close computed without writing anything.
type ClosePreview struct {
	FiscalMonth    string           `json:"fiscal_month"`
	NextMonth      string           `json:"next_month"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Input          closing.Input    `json:"input"`
	Summary        kpi.MonthSummary `json:"summary"`
	Result         closing.Result   `json:"result"`
}

// ClosingServicer runs the month close state machine.
type ClosingServicer interface {
	NextClosableMonth() (string, error)
	PreviewClose(month string, req CloseRequest) (*ClosePreview, error)
	CloseMonth(month string, req CloseRequest) (*models.Snapshot, error)
}
