package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"persacc/internal/closing"
	"persacc/internal/config"
	apperrors "persacc/internal/errors"
	"persacc/internal/events"
	"persacc/internal/fiscal"
	"persacc/internal/kpi"
	"persacc/internal/logger"
	"persacc/internal/models"
)

const publishTimeout = 30 * time.Second

// closingService runs the month close. All reads and writes of a close go
// through one database transaction.
type closingService struct {
	db         *gorm.DB
	ledger     config.LedgerConfig
	movements  MovementServicer
	categories CategoryServicer
	publisher  events.Publisher
	now        func() time.Time
}

// NewClosingService creates a new ClosingServicer. A nil publisher disables
// the month-closed event.
func NewClosingService(
	db *gorm.DB,
	ledger config.LedgerConfig,
	movements MovementServicer,
	categories CategoryServicer,
	publisher events.Publisher,
) ClosingServicer {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &closingService{
		db:         db,
		ledger:     ledger,
		movements:  movements,
		categories: categories,
		publisher:  publisher,
		now:        time.Now,
	}
}

// NextClosableMonth returns the only month a close is accepted for. On an
// empty ledger any month may be closed and the current month is returned.
func (s *closingService) NextClosableMonth() (string, error) {
	next, err := nextClosableMonth(s.db)
	if err != nil {
		return "", err
	}
	if next == "" {
		next = fiscal.Month(s.now().UTC())
	}
	return next, nil
}

// PreviewClose runs every check and computation of a close without writing.
func (s *closingService) PreviewClose(month string, req CloseRequest) (*ClosePreview, error) {
	in, err := s.resolveInput(req)
	if err != nil {
		return nil, err
	}
	preview, _, err := s.prepare(s.db, month, in)
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// CloseMonth closes month: it books the automatic movements, freezes the
// month state, opens the next month and stores the snapshot. Nothing is
// written unless every step succeeds.
func (s *closingService) CloseMonth(month string, req CloseRequest) (*models.Snapshot, error) {
	in, err := s.resolveInput(req)
	if err != nil {
		return nil, err
	}

	var (
		snapshot *models.Snapshot
		preview  *ClosePreview
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var (
			state *models.MonthState
			err   error
		)
		preview, state, err = s.prepare(tx, month, in)
		if err != nil {
			return err
		}

		state, err = s.beginClosing(tx, month, state)
		if err != nil {
			return err
		}

		if err := s.bookAutoMovements(tx, preview); err != nil {
			return err
		}

		executedAt := s.now().UTC()
		if err := s.finishClosing(tx, state, preview, req, executedAt); err != nil {
			return err
		}

		if _, err := upsertOpenMonth(tx, preview.NextMonth, preview.Result.NextOpeningBalance); err != nil {
			return err
		}

		snapshot = newSnapshot(preview, executedAt)
		if err := tx.Create(snapshot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.Named("closing")
	log.Infow("month closed",
		"fiscal_month", month,
		"next_month", preview.NextMonth,
		"closing_balance", preview.Result.ClosingBalance.String(),
		"next_opening_balance", preview.Result.NextOpeningBalance.String(),
		"deviation", preview.Result.Deviation.String(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishMonthClosed(ctx, events.NewMonthClosed(snapshot, preview.NextMonth)); err != nil {
		log.Warnw("failed to publish month closed event", "fiscal_month", month, "error", err)
	}

	return snapshot, nil
}

// resolveInput fills configured defaults into req and validates the result.
func (s *closingService) resolveInput(req CloseRequest) (closing.Input, error) {
	in := closing.Input{
		RealBankBalance:     req.RealBankBalance,
		NewPayroll:          req.NewPayroll,
		SurplusRetentionPct: s.ledger.DefaultSurplusRetentionPct,
		SalaryRetentionPct:  s.ledger.DefaultSalaryRetentionPct,
		Consequences:        req.Consequences,
		BalanceMethod:       req.BalanceMethod,
	}
	if in.BalanceMethod == "" {
		in.BalanceMethod = closing.BalanceMethod(s.ledger.BalanceMethod)
	}
	if req.SurplusRetentionPct != nil {
		in.SurplusRetentionPct = *req.SurplusRetentionPct
	}
	if req.SalaryRetentionPct != nil {
		in.SalaryRetentionPct = *req.SalaryRetentionPct
	}
	if !s.ledger.EnableRetentions {
		in.SurplusRetentionPct = decimal.Zero
		in.SalaryRetentionPct = decimal.Zero
	}

	if err := in.Validate(); err != nil {
		return closing.Input{}, apperrors.WithMessage(apperrors.ErrInvalidCloseInput, err.Error())
	}
	return in, nil
}

// prepare checks that month may be closed and computes the close. It
// returns the stored month state, nil when the month has no row yet.
func (s *closingService) prepare(db *gorm.DB, month string, in closing.Input) (*ClosePreview, *models.MonthState, error) {
	if err := fiscal.ValidateMonth(month); err != nil {
		return nil, nil, apperrors.ErrInvalidFiscalMonth
	}

	state, err := findMonthState(db, month)
	if err != nil {
		return nil, nil, err
	}
	closed, err := isMonthClosed(db, month)
	if err != nil {
		return nil, nil, err
	}
	if closed || (state != nil && state.Status != models.MonthStatusOpen) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrAlreadyClosed, "fiscal month "+month+" is already closed")
	}

	expected, err := nextClosableMonth(db)
	if err != nil {
		return nil, nil, err
	}
	if expected != "" && expected != month {
		return nil, nil, apperrors.WithMessage(apperrors.ErrNotNextInSequence,
			"fiscal month "+month+" cannot be closed before "+expected)
	}

	movements, err := loadMovements(db, Period{FiscalMonth: month})
	if err != nil {
		return nil, nil, err
	}
	summary := kpi.SummarizeMonth(month, movements)

	opening := decimal.Zero
	if state != nil {
		opening = state.OpeningBalance
	}
	result, err := closing.Compute(in, closing.Ledger{
		OpeningBalance:   opening,
		ManualBalance:    summary.ManualBalance,
		ManualInvestment: summary.ManualInvestment,
	})
	if err != nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidCloseInput, err.Error())
	}

	next, err := fiscal.NextMonth(month)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &ClosePreview{
		FiscalMonth:    month,
		NextMonth:      next,
		OpeningBalance: opening,
		Input:          in,
		Summary:        summary,
		Result:         result,
	}, state, nil
}

// beginClosing moves the month to CLOSING, opening it first when it has no row.
func (s *closingService) beginClosing(tx *gorm.DB, month string, state *models.MonthState) (*models.MonthState, error) {
	if closing.PhaseOf(state) == closing.PhaseUninitialized {
		state = &models.MonthState{FiscalMonth: month, Status: models.MonthStatusOpen}
		if err := tx.Create(state).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if !closing.CanTransition(closing.PhaseOf(state), closing.PhaseClosing) {
		return nil, apperrors.ErrAlreadyClosed
	}
	if err := tx.Model(state).Update("status", models.MonthStatusClosing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	state.Status = models.MonthStatusClosing
	return state, nil
}

// bookAutoMovements stores the retention and payroll movements of a close.
// The surplus retention belongs to the closed month; the payroll and the
// retentions taken from it are dated the first day of the next month.
func (s *closingService) bookAutoMovements(tx *gorm.DB, p *ClosePreview) error {
	lastDay, err := fiscal.LastDay(p.FiscalMonth)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	firstOfNext, err := fiscal.FirstDay(p.NextMonth)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	cats := s.ledger.Categories
	entries := []struct {
		category  string
		mvType    models.MovementType
		date      time.Time
		concept   string
		amount    decimal.Decimal
		liquidity bool
	}{
		{cats.SurplusRetention, models.MovementTypeInvestment, lastDay, "Surplus retention " + p.FiscalMonth, p.Result.SurplusRetention, false},
		{cats.Salary, models.MovementTypeIncome, firstOfNext, "Payroll " + p.NextMonth, p.Input.NewPayroll, true},
		{cats.SalaryRetention, models.MovementTypeInvestment, firstOfNext, "Salary retention " + p.NextMonth, p.Result.SalaryRetention, false},
		{cats.Consequences, models.MovementTypeInvestment, firstOfNext, "Consequences " + p.FiscalMonth, p.Result.Consequences, false},
	}

	for _, e := range entries {
		if !e.amount.IsPositive() {
			continue
		}
		category, err := s.categories.EnsureCategory(tx, e.category, e.mvType)
		if err != nil {
			return err
		}
		movement := &models.Movement{
			RealDate:      e.date,
			MovementType:  e.mvType,
			CategoryID:    category.ID,
			Concept:       e.concept,
			Amount:        e.amount,
			LiquidityFlag: e.liquidity,
		}
		if err := s.movements.CreateAutoMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}

// finishClosing stores the derived figures and marks the month CLOSED.
func (s *closingService) finishClosing(tx *gorm.DB, state *models.MonthState, p *ClosePreview, req CloseRequest, executedAt time.Time) error {
	if !closing.CanTransition(closing.PhaseOf(state), closing.PhaseClosed) {
		return apperrors.WithMessage(apperrors.ErrInternalServer, "month "+state.FiscalMonth+" is not closing")
	}
	updates := map[string]interface{}{
		"status":             models.MonthStatusClosed,
		"closed_at":          executedAt,
		"salary_amount":      decimal.NewNullDecimal(p.Summary.Income),
		"total_income":       decimal.NewNullDecimal(p.Summary.Income),
		"total_expense":      decimal.NewNullDecimal(p.Summary.Expense),
		"total_investment":   decimal.NewNullDecimal(p.Result.TotalInvestmentOfMonth),
		"closing_balance":    decimal.NewNullDecimal(p.Result.ClosingBalance),
		"next_month_payroll": decimal.NewNullDecimal(p.Input.NewPayroll),
		"notes":              req.Notes,
	}
	if err := tx.Model(state).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func newSnapshot(p *ClosePreview, executedAt time.Time) *models.Snapshot {
	return &models.Snapshot{
		ClosedMonth:         p.FiscalMonth,
		ExecutedAt:          executedAt,
		BalanceMethod:       string(p.Input.BalanceMethod),
		RealBankBalance:     p.Input.RealBankBalance,
		NewMonthPayroll:     p.Input.NewPayroll,
		SurplusRetentionPct: p.Input.SurplusRetentionPct,
		SalaryRetentionPct:  p.Input.SalaryRetentionPct,
		SurplusBase:         p.Result.SurplusBase,
		SurplusRetention:    p.Result.SurplusRetention,
		SalaryRetention:     p.Result.SalaryRetention,
		ConsequencesAmount:  p.Result.Consequences,
		ExpectedBalance:     p.Result.ExpectedBalance,
		RecordedDeviation:   p.Result.Deviation,
		RetentionExecuted:   p.Result.RetentionExecuted,
		ClosingBalance:      p.Result.ClosingBalance,
		NewOpeningBalance:   p.Result.NextOpeningBalance,
	}
}
