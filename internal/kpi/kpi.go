// Package kpi reduces a set of movements to period summaries. All functions
// are pure: they never mutate their input and run in a single pass over it.
package kpi

import (
	"github.com/shopspring/decimal"

	"persacc/internal/models"
)

// Totals holds the sum of amounts per movement type.
type Totals struct {
	Income      decimal.Decimal `json:"total_income"`
	Expense     decimal.Decimal `json:"total_expense"`
	Investment  decimal.Decimal `json:"total_investment"`
	TransferIn  decimal.Decimal `json:"total_transfer_in"`
	TransferOut decimal.Decimal `json:"total_transfer_out"`
}

func (t *Totals) add(m *models.Movement) {
	switch m.MovementType {
	case models.MovementTypeIncome:
		t.Income = t.Income.Add(m.Amount)
	case models.MovementTypeExpense:
		t.Expense = t.Expense.Add(m.Amount)
	case models.MovementTypeInvestment:
		t.Investment = t.Investment.Add(m.Amount)
	case models.MovementTypeTransferIn:
		t.TransferIn = t.TransferIn.Add(m.Amount)
	case models.MovementTypeTransferOut:
		t.TransferOut = t.TransferOut.Add(m.Amount)
	}
}

// balance is income minus expense.
func (t Totals) balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// netCashFlow is the liquidity change implied by the totals, investments excluded.
func (t Totals) netCashFlow() decimal.Decimal {
	return t.Income.Add(t.TransferIn).Sub(t.Expense).Sub(t.TransferOut)
}

// RelevanceBreakdown sums expense amounts per relevance code. Every code is
// always present.
type RelevanceBreakdown map[models.RelevanceCode]decimal.Decimal

func newRelevanceBreakdown() RelevanceBreakdown {
	b := make(RelevanceBreakdown, len(models.RelevanceCodes))
	for _, code := range models.RelevanceCodes {
		b[code] = decimal.Zero
	}
	return b
}

func (b RelevanceBreakdown) add(m *models.Movement) {
	if m.MovementType != models.MovementTypeExpense || m.RelevanceCode == nil {
		return
	}
	b[*m.RelevanceCode] = b[*m.RelevanceCode].Add(m.Amount)
}

// Sum returns the total across all codes.
func (b RelevanceBreakdown) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// MonthSummary is the KPI set of one fiscal month.
type MonthSummary struct {
	FiscalMonth string `json:"fiscal_month"`
	Totals
	Balance     decimal.Decimal `json:"balance"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
	// Manual figures exclude movements booked by a month close.
	ManualInvestment decimal.Decimal    `json:"manual_investment"`
	ManualBalance    decimal.Decimal    `json:"manual_balance"`
	Relevance        RelevanceBreakdown `json:"relevance"`
	MovementCount    int                `json:"movement_count"`
}

// SummarizeMonth computes the KPIs of the movements whose fiscal month is month.
func SummarizeMonth(month string, movements []models.Movement) MonthSummary {
	var all, manual Totals
	relevance := newRelevanceBreakdown()
	count := 0

	for i := range movements {
		m := &movements[i]
		if m.FiscalMonth != month {
			continue
		}
		count++
		all.add(m)
		if !m.IsAutoGenerated() {
			manual.add(m)
		}
		relevance.add(m)
	}

	return MonthSummary{
		FiscalMonth:      month,
		Totals:           all,
		Balance:          all.balance(),
		NetCashFlow:      all.netCashFlow(),
		ManualInvestment: manual.Investment,
		ManualBalance:    manual.balance(),
		Relevance:        relevance,
		MovementCount:    count,
	}
}
