package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"persacc/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestCategory creates an active category of the given movement type.
func CreateTestCategory(t *testing.T, db *gorm.DB, movementType models.MovementType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:         fmt.Sprintf("Test Category %d", nextID()),
		MovementType: movementType,
		Active:       true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestMovement writes a manual movement straight to the table,
// bypassing the service checks. The accounting date equals the real date.
func CreateTestMovement(t *testing.T, db *gorm.DB, category *models.Category, realDate time.Time, amount string) *models.Movement {
	t.Helper()

	movement := &models.Movement{
		RealDate:       realDate,
		AccountingDate: realDate,
		FiscalMonth:    realDate.Format("2006-01"),
		MovementType:   category.MovementType,
		CategoryID:     category.ID,
		Concept:        fmt.Sprintf("Test movement %d", nextID()),
		Amount:         decimal.RequireFromString(amount),
		Source:         models.SourceManual,
	}
	if category.MovementType == models.MovementTypeExpense {
		code := models.RelevanceNecessary
		movement.RelevanceCode = &code
	}
	if err := db.Create(movement).Error; err != nil {
		t.Fatalf("failed to create test movement: %v", err)
	}
	return movement
}

// CreateTestMonthState stores a month state with the given status and opening balance.
func CreateTestMonthState(t *testing.T, db *gorm.DB, month string, status models.MonthStatus, opening string) *models.MonthState {
	t.Helper()

	state := &models.MonthState{
		FiscalMonth:    month,
		Status:         status,
		OpeningBalance: decimal.RequireFromString(opening),
	}
	if status == models.MonthStatusClosed {
		now := time.Now().UTC()
		state.ClosedAt = &now
	}
	if err := db.Create(state).Error; err != nil {
		t.Fatalf("failed to create test month state: %v", err)
	}
	return state
}
