// Package closing holds the arithmetic and phase rules of the month close.
// It performs no I/O; the services package runs it inside a database
// transaction and persists the result.
package closing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"persacc/internal/models"
)

// BalanceMethod tells whether the real bank balance already includes the
// payroll of the following month.
type BalanceMethod string

const (
	BeforeSalary BalanceMethod = "BEFORE_SALARY"
	AfterSalary  BalanceMethod = "AFTER_SALARY"
)

// Valid reports whether m is a known balance method.
func (m BalanceMethod) Valid() bool {
	return m == BeforeSalary || m == AfterSalary
}

// Phase is the lifecycle state of a fiscal month as seen by the close.
type Phase string

const (
	PhaseUninitialized Phase = "UNINITIALIZED"
	PhaseOpen          Phase = Phase(models.MonthStatusOpen)
	PhaseClosing       Phase = Phase(models.MonthStatusClosing)
	PhaseClosed        Phase = Phase(models.MonthStatusClosed)
)

var transitions = map[Phase][]Phase{
	PhaseUninitialized: {PhaseOpen},
	PhaseOpen:          {PhaseClosing},
	PhaseClosing:       {PhaseClosed},
}

// CanTransition reports whether a month may move from one phase to another.
// CLOSED is terminal.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PhaseOf maps a stored month state (nil when absent) to its phase.
func PhaseOf(state *models.MonthState) Phase {
	if state == nil {
		return PhaseUninitialized
	}
	return Phase(state.Status)
}

// Input is what the user supplies to close a month.
type Input struct {
	RealBankBalance     decimal.Decimal `json:"real_bank_balance"`
	NewPayroll          decimal.Decimal `json:"new_payroll"`
	SurplusRetentionPct decimal.Decimal `json:"surplus_retention_pct"`
	SalaryRetentionPct  decimal.Decimal `json:"salary_retention_pct"`
	Consequences        decimal.Decimal `json:"consequences"`
	BalanceMethod       BalanceMethod   `json:"balance_method"`
}

// Validate checks ranges before any computation.
func (in Input) Validate() error {
	one := decimal.NewFromInt(1)
	if !in.BalanceMethod.Valid() {
		return fmt.Errorf("unsupported balance method %q", in.BalanceMethod)
	}
	if in.SurplusRetentionPct.IsNegative() || in.SurplusRetentionPct.GreaterThan(one) {
		return fmt.Errorf("surplus retention pct must be between 0 and 1")
	}
	if in.SalaryRetentionPct.IsNegative() || in.SalaryRetentionPct.GreaterThan(one) {
		return fmt.Errorf("salary retention pct must be between 0 and 1")
	}
	if in.NewPayroll.IsNegative() {
		return fmt.Errorf("new payroll must not be negative")
	}
	if in.Consequences.IsNegative() {
		return fmt.Errorf("consequences amount must not be negative")
	}
	return nil
}

// Ledger is what the close reads from the books of the month being closed.
type Ledger struct {
	OpeningBalance   decimal.Decimal
	ManualBalance    decimal.Decimal
	ManualInvestment decimal.Decimal
}

// Result holds every derived quantity of a close.
type Result struct {
	SurplusBase            decimal.Decimal `json:"surplus_base"`
	SurplusRetention       decimal.Decimal `json:"surplus_retention"`
	SalaryRetention        decimal.Decimal `json:"salary_retention"`
	Consequences           decimal.Decimal `json:"consequences"`
	RetentionExecuted      decimal.Decimal `json:"retention_executed"`
	TotalInvestmentOfMonth decimal.Decimal `json:"total_investment_of_month"`
	ClosingBalance         decimal.Decimal `json:"closing_balance"`
	NextOpeningBalance     decimal.Decimal `json:"next_opening_balance"`
	ExpectedBalance        decimal.Decimal `json:"expected_balance"`
	Deviation              decimal.Decimal `json:"deviation"`
}

// Compute runs the close arithmetic. Order matters: the surplus base feeds
// both the retention and the deviation check.
func Compute(in Input, ledger Ledger) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	surplusBase := in.RealBankBalance
	if in.BalanceMethod == AfterSalary {
		surplusBase = in.RealBankBalance.Sub(in.NewPayroll)
	}

	surplusRetention := surplusBase.Mul(in.SurplusRetentionPct)
	salaryRetention := in.NewPayroll.Mul(in.SalaryRetentionPct)

	// consequences only reduce the next opening balance
	closingBalance := surplusBase.Sub(surplusRetention)
	nextOpening := closingBalance.Add(in.NewPayroll).Sub(salaryRetention).Sub(in.Consequences)

	// Auto movements from the previous close are already part of the opening
	// balance, so the reconciliation uses manual figures only.
	expected := ledger.OpeningBalance.Add(ledger.ManualBalance).Sub(ledger.ManualInvestment)

	retention := surplusRetention.Add(salaryRetention).Add(in.Consequences)

	return Result{
		SurplusBase:            surplusBase,
		SurplusRetention:       surplusRetention,
		SalaryRetention:        salaryRetention,
		Consequences:           in.Consequences,
		RetentionExecuted:      retention,
		TotalInvestmentOfMonth: ledger.ManualInvestment.Add(retention),
		ClosingBalance:         closingBalance,
		NextOpeningBalance:     nextOpening,
		ExpectedBalance:        expected,
		Deviation:              expected.Sub(surplusBase),
	}, nil
}
