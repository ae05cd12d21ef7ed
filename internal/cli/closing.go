package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"persacc/internal/closing"
	"persacc/internal/server"
	"persacc/internal/services"
)

type kpisCmd struct {
	app   *App
	month string
	year  int
}

func (*kpisCmd) Name() string     { return "kpis" }
func (*kpisCmd) Synopsis() string { return "print the KPIs of a month or a year as JSON" }
func (*kpisCmd) Usage() string {
	return "ledgerctl kpis (-m <YYYY-MM> | -y <year>)\n"
}

func (c *kpisCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Fiscal month (YYYY-MM).")
	f.IntVar(&c.year, "y", 0, "Calendar year.")
}

func (c *kpisCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.month == "") == (c.year == 0) {
		fmt.Fprintln(c.app.Err, "exactly one of -m or -y is required")
		return subcommands.ExitUsageError
	}

	return c.app.run(func(svc server.Services) error {
		if c.month != "" {
			summary, err := svc.KPIs.MonthKPIs(c.month)
			if err != nil {
				return err
			}
			return c.app.printJSON(summary)
		}
		summary, err := svc.KPIs.YearKPIs(c.year)
		if err != nil {
			return err
		}
		return c.app.printJSON(summary)
	})
}

type nextCmd struct {
	app *App
}

func (*nextCmd) Name() string             { return "next" }
func (*nextCmd) Synopsis() string         { return "print the next closable month" }
func (*nextCmd) Usage() string            { return "ledgerctl next\n" }
func (*nextCmd) SetFlags(_ *flag.FlagSet) {}

func (c *nextCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc server.Services) error {
		month, err := svc.Closing.NextClosableMonth()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.app.Out, month)
		return nil
	})
}

type monthsCmd struct {
	app *App
}

func (*monthsCmd) Name() string             { return "months" }
func (*monthsCmd) Synopsis() string         { return "list month states" }
func (*monthsCmd) Usage() string            { return "ledgerctl months\n" }
func (*monthsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *monthsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc server.Services) error {
		states, err := svc.Months.ListMonthStates()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MONTH\tSTATUS\tOPENING\tCLOSING")
		for _, s := range states {
			closingBalance := "-"
			if s.ClosingBalance.Valid {
				closingBalance = s.ClosingBalance.Decimal.StringFixed(2)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.FiscalMonth, s.Status, s.OpeningBalance.StringFixed(2), closingBalance)
		}
		return w.Flush()
	})
}

// closeCmd runs a month close, or only computes it when preview is set.
type closeCmd struct {
	app     *App
	preview bool

	month        string
	balance      decimalFlag
	payroll      decimalFlag
	surplusPct   decimalFlag
	salaryPct    decimalFlag
	consequences decimalFlag
	method       string
	notes        string
}

func (c *closeCmd) Name() string {
	if c.preview {
		return "preview"
	}
	return "close"
}

func (c *closeCmd) Synopsis() string {
	if c.preview {
		return "compute a month close without writing anything"
	}
	return "close a fiscal month and carry its balance forward"
}

func (c *closeCmd) Usage() string {
	return fmt.Sprintf(`ledgerctl %s -balance <amount> -payroll <amount> [-m <YYYY-MM>] [-surplus-pct <0..1>] [-salary-pct <0..1>] [-consequences <amount>] [-method BEFORE_SALARY|AFTER_SALARY]

  Closes the next closable month unless -m is given. Omitted percentages and
  method fall back to the configured defaults.
`, c.Name())
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Fiscal month to close (defaults to the next closable month).")
	f.Var(&c.balance, "balance", "Real bank balance at the close.")
	f.Var(&c.payroll, "payroll", "Payroll of the following month.")
	f.Var(&c.surplusPct, "surplus-pct", "Share of the surplus moved to investment.")
	f.Var(&c.salaryPct, "salary-pct", "Share of the payroll moved to investment.")
	f.Var(&c.consequences, "consequences", "Precomputed consequences amount.")
	f.StringVar(&c.method, "method", "", "Balance method (BEFORE_SALARY or AFTER_SALARY).")
	if !c.preview {
		f.StringVar(&c.notes, "notes", "", "Free text stored with the month.")
	}
}

func (c *closeCmd) request() services.CloseRequest {
	return services.CloseRequest{
		RealBankBalance:     c.balance.orZero(),
		NewPayroll:          c.payroll.orZero(),
		SurplusRetentionPct: c.surplusPct.value,
		SalaryRetentionPct:  c.salaryPct.value,
		Consequences:        c.consequences.orZero(),
		BalanceMethod:       closing.BalanceMethod(strings.ToUpper(c.method)),
		Notes:               c.notes,
	}
}

func (c *closeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.balance.value == nil || c.payroll.value == nil {
		fmt.Fprintln(c.app.Err, "-balance and -payroll are required")
		return subcommands.ExitUsageError
	}

	return c.app.run(func(svc server.Services) error {
		month := c.month
		if month == "" {
			next, err := svc.Closing.NextClosableMonth()
			if err != nil {
				return err
			}
			month = next
		}

		if c.preview {
			preview, err := svc.Closing.PreviewClose(month, c.request())
			if err != nil {
				return err
			}
			return c.app.printJSON(preview)
		}

		snapshot, err := svc.Closing.CloseMonth(month, c.request())
		if err != nil {
			return err
		}
		return c.app.printJSON(snapshot)
	})
}

type snapshotCmd struct {
	app   *App
	month string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "print the snapshot of a closed month" }
func (*snapshotCmd) Usage() string {
	return "ledgerctl snapshot [-m <YYYY-MM>]\n\n  Prints the latest snapshot unless -m is given.\n"
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Closed fiscal month (YYYY-MM).")
}

func (c *snapshotCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc server.Services) error {
		if c.month == "" {
			snapshot, err := svc.Months.GetLatestSnapshot()
			if err != nil {
				return err
			}
			return c.app.printJSON(snapshot)
		}
		snapshot, err := svc.Months.GetSnapshot(c.month)
		if err != nil {
			return err
		}
		return c.app.printJSON(snapshot)
	})
}
