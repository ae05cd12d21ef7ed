package cli

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"persacc/internal/config"
	"persacc/internal/events"
	"persacc/internal/models"
	"persacc/internal/server"
	"persacc/internal/testutil"
)

type harness struct {
	db  *gorm.DB
	out *bytes.Buffer
	err *bytes.Buffer
	app *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	h := &harness{db: db, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.app = &App{
		Open: func() (server.Services, func(), error) {
			return server.NewServices(db, config.DefaultLedger(), &events.Recorder{}), func() {}, nil
		},
		Out: h.out,
		Err: h.err,
	}
	return h
}

// exec runs one ledgerctl invocation and resets the captured output first.
func (h *harness) exec(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.out.Reset()
	h.err.Reset()

	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	cmdr := subcommands.NewCommander(fs, "ledgerctl")
	cmdr.Output = h.out
	cmdr.Error = h.err
	h.app.Register(cmdr)
	require.NoError(t, fs.Parse(args))
	return cmdr.Execute(context.Background())
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)
	food := testutil.CreateTestCategory(t, h.db, models.MovementTypeExpense)

	status := h.exec(t, "add", "-d", "2024-03-05", "-category", strings.ToLower(food.Name),
		"-amount", "12.50", "-relevance", "enjoyed", "-concept", "lunch")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), "2024-03")

	status = h.exec(t, "ls", "-m", "2024-03")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), food.Name)
	assert.Contains(t, h.out.String(), "ENJOYED")
	assert.Contains(t, h.out.String(), "12.50")
	assert.Contains(t, h.out.String(), "lunch")
}

func TestAddErrors(t *testing.T) {
	h := newHarness(t)
	food := testutil.CreateTestCategory(t, h.db, models.MovementTypeExpense)

	t.Run("missing_amount", func(t *testing.T) {
		status := h.exec(t, "add", "-category", food.Name)
		assert.Equal(t, subcommands.ExitUsageError, status)
	})

	t.Run("bad_date", func(t *testing.T) {
		status := h.exec(t, "add", "-category", food.Name, "-amount", "1", "-d", "05/03/2024")
		assert.Equal(t, subcommands.ExitUsageError, status)
	})

	t.Run("unknown_category", func(t *testing.T) {
		status := h.exec(t, "add", "-category", "nope", "-amount", "1", "-relevance", "necessary")
		assert.Equal(t, subcommands.ExitFailure, status)
		assert.Contains(t, h.err.String(), "CATEGORY_NOT_FOUND")
	})

	t.Run("expense_without_relevance", func(t *testing.T) {
		status := h.exec(t, "add", "-category", food.Name, "-amount", "1", "-d", "2024-03-01")
		assert.Equal(t, subcommands.ExitFailure, status)
		assert.Contains(t, h.err.String(), "MISSING_RELEVANCE")
	})
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	food := testutil.CreateTestCategory(t, h.db, models.MovementTypeExpense)
	mv := testutil.CreateTestMovement(t, h.db, food, testutil.Date(2024, 3, 1), "5")

	assert.Equal(t, subcommands.ExitUsageError, h.exec(t, "rm"))

	status := h.exec(t, "rm", mv.ID)
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), "deleted "+mv.ID)

	assert.Equal(t, subcommands.ExitFailure, h.exec(t, "rm", mv.ID))
}

func TestCategories(t *testing.T) {
	h := newHarness(t)
	food := testutil.CreateTestCategory(t, h.db, models.MovementTypeExpense)
	testutil.CreateTestMovement(t, h.db, food, testutil.Date(2024, 3, 1), "5")
	testutil.CreateTestCategory(t, h.db, models.MovementTypeIncome)

	status := h.exec(t, "categories", "-type", "expense")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())

	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], food.Name)
	assert.True(t, strings.HasSuffix(lines[1], "1"))
}

func TestKPIs(t *testing.T) {
	h := newHarness(t)
	income := testutil.CreateTestCategory(t, h.db, models.MovementTypeIncome)
	testutil.CreateTestMovement(t, h.db, income, testutil.Date(2024, 3, 1), "100")

	assert.Equal(t, subcommands.ExitUsageError, h.exec(t, "kpis"))
	assert.Equal(t, subcommands.ExitUsageError, h.exec(t, "kpis", "-m", "2024-03", "-y", "2024"))

	status := h.exec(t, "kpis", "-m", "2024-03")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), `"total_income": "100"`)

	status = h.exec(t, "kpis", "-y", "2024")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())

	status = h.exec(t, "kpis", "-m", "2024-13")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, h.err.String(), "INVALID_FISCAL_MONTH")
}

func TestCloseFlow(t *testing.T) {
	h := newHarness(t)
	testutil.CreateTestMonthState(t, h.db, "2024-03", models.MonthStatusOpen, "1000")
	food := testutil.CreateTestCategory(t, h.db, models.MovementTypeExpense)
	testutil.CreateTestMovement(t, h.db, food, testutil.Date(2024, 3, 10), "200")

	status := h.exec(t, "next")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Equal(t, "2024-03\n", h.out.String())

	assert.Equal(t, subcommands.ExitUsageError, h.exec(t, "close", "-balance", "800"))

	status = h.exec(t, "preview", "-balance", "800", "-payroll", "2000")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), `"fiscal_month": "2024-03"`)

	// a preview writes nothing
	status = h.exec(t, "next")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "2024-03\n", h.out.String())

	status = h.exec(t, "close", "-balance", "800", "-payroll", "2000", "-surplus-pct", "0.1", "-notes", "march")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), `"closed_month": "2024-03"`)

	status = h.exec(t, "close", "-m", "2024-03", "-balance", "800", "-payroll", "2000")
	assert.Equal(t, subcommands.ExitFailure, status)

	status = h.exec(t, "next")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "2024-04\n", h.out.String())

	status = h.exec(t, "months")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), "CLOSED")
	assert.Contains(t, h.out.String(), "2024-04")

	status = h.exec(t, "snapshot")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Contains(t, h.out.String(), `"closed_month": "2024-03"`)

	status = h.exec(t, "snapshot", "-m", "2023-01")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, h.err.String(), "SNAPSHOT_NOT_FOUND")
}
