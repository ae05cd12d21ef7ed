package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"persacc/internal/models"
	"persacc/internal/server"
	"persacc/internal/services"
)

type addCmd struct {
	app       *App
	date      string
	kind      string
	category  string
	relevance string
	concept   string
	amount    decimalFlag
	liquid    bool
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a movement" }
func (*addCmd) Usage() string {
	return `ledgerctl add -type <type> -category <name|id> -amount <amount> [-d <date>] [-relevance <code>] [-concept <text>] [-liquid]

  Records a movement. The fiscal month is derived from the date, the movement
  type and the concept. Expenses need a relevance code.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Real date of the movement (YYYY-MM-DD, defaults to today).")
	f.StringVar(&c.kind, "type", "EXPENSE", "Movement type (EXPENSE, INCOME, TRANSFER_IN, TRANSFER_OUT, INVESTMENT).")
	f.StringVar(&c.category, "category", "", "Category name or id.")
	f.StringVar(&c.relevance, "relevance", "", "Relevance code of an expense (NECESSARY, ENJOYED, SUPERFLUOUS, NONSENSE).")
	f.StringVar(&c.concept, "concept", "", "Free text description.")
	f.Var(&c.amount, "amount", "Positive amount.")
	f.BoolVar(&c.liquid, "liquid", false, "The money is already available; disables the salary shift.")
}

func (c *addCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.category == "" || c.amount.value == nil {
		fmt.Fprintln(c.app.Err, "-category and -amount are required")
		return subcommands.ExitUsageError
	}

	in := services.MovementInput{
		MovementType:  models.MovementType(strings.ToUpper(c.kind)),
		Concept:       c.concept,
		Amount:        c.amount.orZero(),
		LiquidityFlag: c.liquid,
	}
	if c.date != "" {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			fmt.Fprintf(c.app.Err, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		in.RealDate = d
	}
	if c.relevance != "" {
		code := models.RelevanceCode(strings.ToUpper(c.relevance))
		in.RelevanceCode = &code
	}

	return c.app.run(func(svc server.Services) error {
		cat, err := resolveCategory(svc, c.category)
		if err != nil {
			return err
		}
		in.CategoryID = cat.ID

		mv, err := svc.Movements.InsertMovement(in)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "%s %s %s %s in %s\n", mv.ID, mv.MovementType, mv.Amount, cat.Name, mv.FiscalMonth)
		return nil
	})
}

type listCmd struct {
	app   *App
	month string
	year  int
}

func (*listCmd) Name() string     { return "ls" }
func (*listCmd) Synopsis() string { return "list the movements of a month or a year" }
func (*listCmd) Usage() string {
	return `ledgerctl ls [-m <YYYY-MM> | -y <year>]

  Lists movements in accounting date order. Defaults to the current month.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Fiscal month (YYYY-MM).")
	f.IntVar(&c.year, "y", 0, "Calendar year.")
}

func (c *listCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period := services.Period{FiscalMonth: c.month, Year: c.year}
	if c.month == "" && c.year == 0 {
		period.FiscalMonth = time.Now().Format("2006-01")
	}

	return c.app.run(func(svc server.Services) error {
		movements, err := svc.Movements.ListMovements(period)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tMONTH\tTYPE\tCATEGORY\tRELEVANCE\tAMOUNT\tCONCEPT\tID")
		for i := range movements {
			m := &movements[i]
			category := m.CategoryID
			if m.Category != nil {
				category = m.Category.Name
			}
			relevance := ""
			if m.RelevanceCode != nil {
				relevance = string(*m.RelevanceCode)
			}
			concept := m.Concept
			if m.IsAutoGenerated() {
				concept += " (auto)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				m.RealDate.Format("2006-01-02"), m.FiscalMonth, m.MovementType, category,
				relevance, m.Amount.StringFixed(2), concept, m.ID)
		}
		return w.Flush()
	})
}

type rmCmd struct {
	app *App
}

func (*rmCmd) Name() string             { return "rm" }
func (*rmCmd) Synopsis() string         { return "delete movements of open months" }
func (*rmCmd) Usage() string            { return "ledgerctl rm <id>...\n" }
func (*rmCmd) SetFlags(_ *flag.FlagSet) {}

func (c *rmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(c.app.Err, "at least one movement id is required")
		return subcommands.ExitUsageError
	}

	return c.app.run(func(svc server.Services) error {
		for _, id := range f.Args() {
			if err := svc.Movements.DeleteMovement(id); err != nil {
				return err
			}
			fmt.Fprintf(c.app.Out, "deleted %s\n", id)
		}
		return nil
	})
}

type categoriesCmd struct {
	app  *App
	kind string
	all  bool
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories with their usage" }
func (*categoriesCmd) Usage() string {
	return "ledgerctl categories [-type <type>] [-all]\n"
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "", "Only categories of this movement type.")
	f.BoolVar(&c.all, "all", false, "Include inactive categories.")
}

func (c *categoriesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var kind *models.MovementType
	if c.kind != "" {
		mt := models.MovementType(strings.ToUpper(c.kind))
		kind = &mt
	}

	return c.app.run(func(svc server.Services) error {
		cats, err := svc.Categories.ListCategories(kind, c.all)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tACTIVE\tMOVEMENTS")
		for _, cat := range cats {
			fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", cat.Name, cat.MovementType, cat.Active, cat.MovementCount)
		}
		return w.Flush()
	})
}
