package testutil_test

import (
	"testing"
	"time"

	"persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"categories", "movements", "month_states", "snapshots"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestCategory(t, first, models.MovementTypeExpense)

	var count int64
	if err := second.Model(&models.Category{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, got %d categories", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	category := testutil.CreateTestCategory(t, db, models.MovementTypeExpense)
	if category.ID == "" {
		t.Fatal("category should have a generated ID")
	}
	if !category.Active {
		t.Error("expected an active category")
	}

	movement := testutil.CreateTestMovement(t, db, category, testutil.Date(2024, time.March, 10), "12.50")
	if movement.FiscalMonth != "2024-03" {
		t.Errorf("expected fiscal month 2024-03, got %s", movement.FiscalMonth)
	}
	if movement.RelevanceCode == nil {
		t.Error("expense fixtures should carry a relevance code")
	}
	testutil.AssertDecimal(t, "12.5", movement.Amount, "amount")

	state := testutil.CreateTestMonthState(t, db, "2024-02", models.MonthStatusClosed, "100")
	if !state.IsClosed() || state.ClosedAt == nil {
		t.Error("expected a closed month with a closing timestamp")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrMonthClosed, "custom message")
	testutil.AssertAppError(t, err, "MONTH_CLOSED")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
