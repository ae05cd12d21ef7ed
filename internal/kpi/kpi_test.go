package kpi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persacc/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rel(c models.RelevanceCode) *models.RelevanceCode { return &c }

func mv(month string, day int, t models.MovementType, amount string, concept string) models.Movement {
	first, _ := time.Parse("2006-01", month)
	m := models.Movement{
		Base:         models.Base{ID: month + concept},
		RealDate:     first.AddDate(0, 0, day-1),
		FiscalMonth:  month,
		MovementType: t,
		CategoryID:   "cat-" + string(t),
		Concept:      concept,
		Amount:       dec(amount),
		Source:       models.SourceManual,
	}
	if t == models.MovementTypeExpense {
		m.RelevanceCode = rel(models.RelevanceNecessary)
	}
	return m
}

func TestSummarizeMonth(t *testing.T) {
	movements := []models.Movement{
		mv("2024-03", 1, models.MovementTypeIncome, "2000", "Payroll"),
		mv("2024-03", 3, models.MovementTypeExpense, "120.50", "Supermarket"),
		mv("2024-03", 4, models.MovementTypeExpense, "30", "Cinema"),
		mv("2024-03", 5, models.MovementTypeInvestment, "200", "Index fund"),
		mv("2024-03", 6, models.MovementTypeTransferIn, "50", "From savings"),
		mv("2024-03", 7, models.MovementTypeTransferOut, "20", "To wallet"),
		mv("2024-04", 1, models.MovementTypeExpense, "999", "Other month"),
	}
	movements[2].RelevanceCode = rel(models.RelevanceEnjoyed)

	auto := mv("2024-03", 31, models.MovementTypeInvestment, "100", "Surplus retention")
	auto.Source = models.SourceAutoClose
	autoPay := mv("2024-03", 1, models.MovementTypeIncome, "1500", "Payroll auto")
	autoPay.Source = models.SourceAutoClose
	movements = append(movements, auto, autoPay)

	s := SummarizeMonth("2024-03", movements)

	assert.Equal(t, "2024-03", s.FiscalMonth)
	assert.Equal(t, 8, s.MovementCount)
	assert.True(t, dec("3500").Equal(s.Income), "income %s", s.Income)
	assert.True(t, dec("150.50").Equal(s.Expense), "expense %s", s.Expense)
	assert.True(t, dec("300").Equal(s.Investment), "investment %s", s.Investment)
	assert.True(t, dec("50").Equal(s.TransferIn))
	assert.True(t, dec("20").Equal(s.TransferOut))
	assert.True(t, dec("3349.50").Equal(s.Balance), "balance %s", s.Balance)
	assert.True(t, dec("3379.50").Equal(s.NetCashFlow), "net cash flow %s", s.NetCashFlow)

	t.Run("manual_figures_skip_auto_close_movements", func(t *testing.T) {
		assert.True(t, dec("200").Equal(s.ManualInvestment))
		assert.True(t, dec("1849.50").Equal(s.ManualBalance), "manual balance %s", s.ManualBalance)
	})

	t.Run("relevance_has_all_codes_and_sums_to_expense", func(t *testing.T) {
		require.Len(t, s.Relevance, 4)
		for _, code := range models.RelevanceCodes {
			_, ok := s.Relevance[code]
			assert.True(t, ok, "missing %s", code)
		}
		assert.True(t, dec("120.50").Equal(s.Relevance[models.RelevanceNecessary]))
		assert.True(t, dec("30").Equal(s.Relevance[models.RelevanceEnjoyed]))
		assert.True(t, s.Relevance[models.RelevanceNonsense].IsZero())
		assert.True(t, s.Expense.Equal(s.Relevance.Sum()))
	})
}

func TestSummarizeMonth_EmptyPeriod(t *testing.T) {
	s := SummarizeMonth("2024-01", nil)
	assert.Zero(t, s.MovementCount)
	assert.True(t, s.Balance.IsZero())
	assert.Len(t, s.Relevance, 4)
	assert.True(t, s.Relevance.Sum().IsZero())
}

func TestSummarizeMonth_DoesNotMutateInput(t *testing.T) {
	movements := []models.Movement{
		mv("2024-03", 2, models.MovementTypeExpense, "10", "b"),
		mv("2024-03", 1, models.MovementTypeExpense, "20", "a"),
	}
	before := append([]models.Movement(nil), movements...)
	_ = SummarizeMonth("2024-03", movements)
	_ = SummarizeYear(2024, movements, YearOptions{})
	assert.Equal(t, before, movements)
}

func TestSummarizeYear(t *testing.T) {
	movements := []models.Movement{
		mv("2024-01", 1, models.MovementTypeIncome, "1000", "Payroll"),
		mv("2024-01", 10, models.MovementTypeExpense, "400", "Supermarket weekly shop"),
		mv("2024-02", 1, models.MovementTypeIncome, "1000", "Payroll"),
		mv("2024-02", 12, models.MovementTypeExpense, "100", "Supermarket snacks"),
		mv("2024-02", 20, models.MovementTypeInvestment, "300", "ETF"),
		mv("2024-03", 1, models.MovementTypeIncome, "1000", "Payroll"),
		mv("2024-03", 5, models.MovementTypeExpense, "100", "Cinema with friends"),
		mv("2023-12", 5, models.MovementTypeExpense, "5000", "Last year"),
	}
	movements[6].CategoryID = "cat-leisure"

	s := SummarizeYear(2024, movements, YearOptions{
		CategoryNames: map[string]string{"cat-EXPENSE": "Supermarket", "cat-leisure": "Leisure"},
	})

	assert.Equal(t, 7, s.MovementCount)
	assert.True(t, dec("3000").Equal(s.Income))
	assert.True(t, dec("600").Equal(s.Expense))
	assert.True(t, dec("2400").Equal(s.Balance))
	assert.True(t, dec("0.1").Equal(s.SavingsPct), "savings %s", s.SavingsPct)
	require.Len(t, s.Months, 3)
	assert.Equal(t, "2024-01", s.Months[0].FiscalMonth)

	t.Run("best_month_ties_go_to_earliest", func(t *testing.T) {
		require.NotNil(t, s.BestMonth)
		require.NotNil(t, s.WorstMonth)
		// February and March both balance 900.
		assert.Equal(t, "2024-02", s.BestMonth.FiscalMonth)
		assert.Equal(t, "2024-01", s.WorstMonth.FiscalMonth)
	})

	t.Run("top_expense_category", func(t *testing.T) {
		require.NotNil(t, s.TopExpenseCategory)
		assert.Equal(t, "Supermarket", s.TopExpenseCategory.Name)
		assert.True(t, dec("500").Equal(s.TopExpenseCategory.Total))
	})

	t.Run("word_counts_skip_short_and_stop_words", func(t *testing.T) {
		require.NotEmpty(t, s.WordCounts)
		assert.Equal(t, WordCount{Word: "supermarket", Count: 2}, s.WordCounts[0])
		for _, wc := range s.WordCounts {
			assert.NotEqual(t, "with", wc.Word)
		}
	})

	t.Run("top_entries_by_amount", func(t *testing.T) {
		require.Len(t, s.TopEntries, 3)
		assert.True(t, dec("400").Equal(s.TopEntries[0].Amount))
		// equal amounts keep the earliest first
		assert.Equal(t, "2024-02", s.TopEntries[1].FiscalMonth)
	})

	t.Run("daily_activity", func(t *testing.T) {
		require.NotNil(t, s.Activity)
		assert.Equal(t, "2024-01-10", s.Activity.TopDay)
		assert.Equal(t, 3, s.Activity.ActiveDays)
		assert.True(t, dec("200").Equal(s.Activity.AveragePerActiveDay))
	})
}

func TestSummarizeYear_NoIncome(t *testing.T) {
	s := SummarizeYear(2024, []models.Movement{
		mv("2024-05", 2, models.MovementTypeInvestment, "10", "x"),
	}, YearOptions{})
	assert.True(t, s.SavingsPct.IsZero())
	assert.Nil(t, s.Activity)
	assert.Nil(t, s.TopExpenseCategory)
}

func TestSummarizeYear_Empty(t *testing.T) {
	s := SummarizeYear(2030, nil, YearOptions{})
	assert.Nil(t, s.BestMonth)
	assert.Nil(t, s.WorstMonth)
	assert.Empty(t, s.Months)
	assert.Len(t, s.Relevance, 4)
}
