// Package cli implements ledgerctl, the command line front end of the ledger.
package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	apperrors "persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/server"
)

// Opener connects to the ledger and returns its services together with a
// function releasing every resource.
type Opener func() (server.Services, func(), error)

// App carries what every command needs. As a short lived CLI it opens the
// ledger once per command.
type App struct {
	Open Opener
	Out  io.Writer
	Err  io.Writer
}

// NewApp returns an App writing to the standard streams.
func NewApp(open Opener) *App {
	return &App{Open: open, Out: os.Stdout, Err: os.Stderr}
}

// Register the subcommands.
func (a *App) Register(c *subcommands.Commander) {
	c.Register(&addCmd{app: a}, "movements")
	c.Register(&listCmd{app: a}, "movements")
	c.Register(&rmCmd{app: a}, "movements")
	c.Register(&categoriesCmd{app: a}, "movements")

	c.Register(&kpisCmd{app: a}, "reports")

	c.Register(&nextCmd{app: a}, "closing")
	c.Register(&monthsCmd{app: a}, "closing")
	c.Register(&closeCmd{app: a, preview: true}, "closing")
	c.Register(&closeCmd{app: a}, "closing")
	c.Register(&snapshotCmd{app: a}, "closing")
}

// run opens the ledger, calls fn and maps its error to an exit status.
func (a *App) run(fn func(svc server.Services) error) subcommands.ExitStatus {
	svc, closeFn, err := a.Open()
	if err != nil {
		fmt.Fprintf(a.Err, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := fn(svc); err != nil {
		a.printError(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *App) printError(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(a.Err, "%s: %s\n", appErr.Code, appErr.Message)
		return
	}
	fmt.Fprintln(a.Err, err)
}

// printJSON writes v as indented JSON.
func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decimalFlag is an optional decimal command line value.
type decimalFlag struct {
	value *decimal.Decimal
}

func (d *decimalFlag) String() string {
	if d.value == nil {
		return ""
	}
	return d.value.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid decimal %q", s)
	}
	d.value = &v
	return nil
}

// orZero returns the flag value, or zero when it was not given.
func (d *decimalFlag) orZero() decimal.Decimal {
	if d.value == nil {
		return decimal.Zero
	}
	return *d.value
}

var _ flag.Value = (*decimalFlag)(nil)

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(svc server.Services, ref string) (*models.Category, error) {
	cats, err := svc.Categories.ListCategories(nil, true)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].ID == ref || strings.EqualFold(cats[i].Name, ref) {
			return &cats[i].Category, nil
		}
	}
	return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "no category named "+ref)
}
