package services

import (
	"testing"

	"persacc/internal/models"
	"persacc/internal/pagination"
	"persacc/internal/testutil"
)

func TestIsMonthClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMonthService(db)

	closed, err := svc.IsMonthClosed("2024-03")
	testutil.AssertNoError(t, err)
	if closed {
		t.Error("nothing is closed on an empty ledger")
	}

	testutil.CreateTestMonthState(t, db, "2024-03", models.MonthStatusClosed, "0")
	testutil.CreateTestMonthState(t, db, "2024-04", models.MonthStatusOpen, "0")

	tests := []struct {
		month  string
		closed bool
	}{
		{"2023-11", true},
		{"2024-03", true},
		{"2024-04", false},
		{"2025-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			got, err := svc.IsMonthClosed(tt.month)
			testutil.AssertNoError(t, err)
			if got != tt.closed {
				t.Errorf("IsMonthClosed(%s) = %v, want %v", tt.month, got, tt.closed)
			}
		})
	}

	_, err = svc.IsMonthClosed("March")
	testutil.AssertAppError(t, err, "INVALID_FISCAL_MONTH")
}

func TestMonthStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMonthService(db)

	testutil.CreateTestMonthState(t, db, "2024-02", models.MonthStatusClosed, "10")
	testutil.CreateTestMonthState(t, db, "2024-01", models.MonthStatusClosed, "0")
	testutil.CreateTestMonthState(t, db, "2024-03", models.MonthStatusOpen, "20")

	t.Run("closed_months_ascending", func(t *testing.T) {
		months, err := svc.ListClosedMonths()
		testutil.AssertNoError(t, err)
		if len(months) != 2 || months[0] != "2024-01" || months[1] != "2024-02" {
			t.Errorf("expected [2024-01 2024-02], got %v", months)
		}
	})

	t.Run("all_states", func(t *testing.T) {
		states, err := svc.ListMonthStates()
		testutil.AssertNoError(t, err)
		if len(states) != 3 {
			t.Errorf("expected 3 states, got %d", len(states))
		}
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := svc.GetMonthState("2030-01")
		testutil.AssertAppError(t, err, "MONTH_NOT_FOUND")
	})
}

func TestOpenMonth(t *testing.T) {
	t.Run("creates_with_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMonthService(db)

		state, err := svc.OpenMonth("2024-01", testutil.Dec("1500"))
		testutil.AssertNoError(t, err)
		if state.Status != models.MonthStatusOpen {
			t.Errorf("expected OPEN, got %s", state.Status)
		}
		testutil.AssertDecimal(t, "1500", state.OpeningBalance, "opening balance")
	})

	t.Run("updates_open_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMonthService(db)
		testutil.CreateTestMonthState(t, db, "2024-01", models.MonthStatusOpen, "0")

		_, err := svc.OpenMonth("2024-01", testutil.Dec("300"))
		testutil.AssertNoError(t, err)

		state, err := svc.GetMonthState("2024-01")
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "300", state.OpeningBalance, "opening balance")
	})

	t.Run("closed_month_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMonthService(db)
		testutil.CreateTestMonthState(t, db, "2024-02", models.MonthStatusClosed, "0")

		_, err := svc.OpenMonth("2024-01", testutil.Dec("1"))
		testutil.AssertAppError(t, err, "MONTH_CLOSED")
	})
}

func TestSnapshots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMonthService(db)

	_, err := svc.GetLatestSnapshot()
	testutil.AssertAppError(t, err, "SNAPSHOT_NOT_FOUND")

	for _, month := range []string{"2023-12", "2024-01", "2024-02"} {
		snap := &models.Snapshot{ClosedMonth: month, BalanceMethod: "BEFORE_SALARY"}
		if err := db.Create(snap).Error; err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}

	latest, err := svc.GetLatestSnapshot()
	testutil.AssertNoError(t, err)
	if latest.ClosedMonth != "2024-02" {
		t.Errorf("expected latest 2024-02, got %s", latest.ClosedMonth)
	}

	got, err := svc.GetSnapshot("2024-01")
	testutil.AssertNoError(t, err)
	if got.ID == "" {
		t.Error("expected a generated snapshot ID")
	}

	_, err = svc.GetSnapshot("2024-05")
	testutil.AssertAppError(t, err, "SNAPSHOT_NOT_FOUND")

	page, err := svc.ListSnapshots(2024, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 2 || page.Data[0].ClosedMonth != "2024-02" {
		t.Errorf("expected 2 snapshots of 2024 newest first, got %d", page.TotalItems)
	}

	all, err := svc.ListSnapshots(0, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if all.TotalItems != 3 {
		t.Errorf("expected 3 snapshots, got %d", all.TotalItems)
	}
}
