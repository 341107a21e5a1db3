package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"expensetracker/internal/cli"
	"expensetracker/internal/client"
	"expensetracker/internal/report"
)

var (
	apiURL string
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	now              = time.Now
)

var commands = []subcommands.Command{
	&listCmd{},
	&addCmd{},
	&editCmd{},
	&deleteCmd{},
	&statsCmd{},
	&breakdownCmd{},
	&exportCmd{},
	&categoriesCmd{},
}

func defaultAPIURL() string {
	if v := os.Getenv("EXPENSE_API_URL"); v != "" {
		return v
	}
	return "http://localhost:5000"
}

func newClient() (*client.Client, error) {
	return client.New(apiURL)
}

// loadTracker returns a tracker holding the current server list.
func loadTracker(ctx context.Context) (*client.Tracker, error) {
	api, err := newClient()
	if err != nil {
		return nil, err
	}
	tr := client.NewTracker(api, now)
	if err := tr.Load(ctx); err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return tr, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(stderr, err)
	return subcommands.ExitFailure
}

func show(md string) subcommands.ExitStatus {
	if err := cli.PrintMarkdown(stdout, md); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// formFlags are the expense fields shared by add and edit.
type formFlags struct {
	amount      string
	category    string
	description string
	date        string
}

func (p *formFlags) set(f *flag.FlagSet, categoryDefault string) {
	f.StringVar(&p.amount, "amount", "", "Amount, e.g. 12.50.")
	f.StringVar(&p.category, "category", categoryDefault, "One of Food, Transport, Entertainment, Bills, Shopping, Health, Other.")
	f.StringVar(&p.description, "description", "", "What the money was spent on.")
	f.StringVar(&p.date, "date", "", "Date as YYYY-MM-DD (defaults to today when adding).")
}

// apply overwrites the form fields that were given on the command line.
func (p *formFlags) apply(form client.Form) client.Form {
	if p.amount != "" {
		form.Amount = p.amount
	}
	if p.category != "" {
		form.Category = p.category
	}
	if p.description != "" {
		form.Description = p.description
	}
	if p.date != "" {
		form.Date = p.date
	}
	return form
}

type listCmd struct {
	category string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list expenses, newest first" }
func (*listCmd) Usage() string {
	return `expensectl list [-category <category>]

  Lists expenses by date, newest first, optionally limited to one category.
`
}

func (p *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.category, "category", report.FilterAll, "Category to show, or 'all'.")
}

func (p *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tr, err := loadTracker(ctx)
	if err != nil {
		return fail(err)
	}
	if err := tr.SetFilter(p.category); err != nil {
		return fail(err)
	}
	return show(cli.ExpensesMarkdown("Expenses", tr.Filtered()))
}

type addCmd struct {
	formFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a new expense" }
func (*addCmd) Usage() string {
	return `expensectl add -amount <amount> -description <text> [-category <category>] [-date <YYYY-MM-DD>]
`
}

func (p *addCmd) SetFlags(f *flag.FlagSet) { p.set(f, "") }

func (p *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	api, err := newClient()
	if err != nil {
		return fail(err)
	}
	tr := client.NewTracker(api, now)
	tr.SetForm(p.apply(client.NewForm(now())))
	created, err := tr.Submit(ctx)
	if err != nil {
		return fail(err)
	}
	return show(cli.ExpenseMarkdown("added", created))
}

type editCmd struct {
	formFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change an existing expense" }
func (*editCmd) Usage() string {
	return `expensectl edit [-amount <amount>] [-category <category>] [-description <text>] [-date <YYYY-MM-DD>] <id>

  Fields not given keep their current value.
`
}

func (p *editCmd) SetFlags(f *flag.FlagSet) { p.set(f, "") }

func (p *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(stderr, p.Usage())
		return subcommands.ExitUsageError
	}
	tr, err := loadTracker(ctx)
	if err != nil {
		return fail(err)
	}
	if err := tr.StartEdit(f.Arg(0)); err != nil {
		return fail(err)
	}
	tr.SetForm(p.apply(tr.Form()))
	updated, err := tr.Submit(ctx)
	if err != nil {
		return fail(err)
	}
	return show(cli.ExpenseMarkdown("updated", updated))
}

type deleteCmd struct{}

func (*deleteCmd) Name() string             { return "delete" }
func (*deleteCmd) Synopsis() string         { return "delete an expense" }
func (*deleteCmd) Usage() string            { return "expensectl delete <id>\n" }
func (*deleteCmd) SetFlags(_ *flag.FlagSet) {}

func (p *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(stderr, p.Usage())
		return subcommands.ExitUsageError
	}
	api, err := newClient()
	if err != nil {
		return fail(err)
	}
	if err := api.Delete(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	return show("Expense deleted\n")
}

type statsCmd struct{}

func (*statsCmd) Name() string             { return "stats" }
func (*statsCmd) Synopsis() string         { return "show total, this month and last month" }
func (*statsCmd) Usage() string            { return "expensectl stats\n" }
func (*statsCmd) SetFlags(_ *flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tr, err := loadTracker(ctx)
	if err != nil {
		return fail(err)
	}
	return show(cli.StatsMarkdown(tr.Stats(), len(tr.Expenses())))
}

type breakdownCmd struct{}

func (*breakdownCmd) Name() string             { return "breakdown" }
func (*breakdownCmd) Synopsis() string         { return "show spending per category" }
func (*breakdownCmd) Usage() string            { return "expensectl breakdown\n" }
func (*breakdownCmd) SetFlags(_ *flag.FlagSet) {}

func (*breakdownCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tr, err := loadTracker(ctx)
	if err != nil {
		return fail(err)
	}
	return show(cli.BreakdownMarkdown(tr.Breakdown()))
}

type exportCmd struct {
	category   string
	output     string
	dateLayout string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write expenses to a CSV file" }
func (*exportCmd) Usage() string {
	return `expensectl export [-category <category>] [-o <file>|-]

  Writes Date,Category,Description,Amount rows. Without -o the file is named
  expenses_<today>.csv in the current directory; '-o -' writes to stdout.
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.category, "category", report.FilterAll, "Category to export, or 'all'.")
	f.StringVar(&p.output, "o", "", "Output file, or '-' for stdout.")
	f.StringVar(&p.dateLayout, "date-layout", report.DefaultCSVDateLayout, "Go time layout of the Date column.")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tr, err := loadTracker(ctx)
	if err != nil {
		return fail(err)
	}
	if err := tr.SetFilter(p.category); err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	name, err := tr.ExportCSV(&buf, report.CSVOptions{DateLayout: p.dateLayout})
	if err != nil {
		return fail(err)
	}

	if p.output == "-" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}
	if p.output != "" {
		name = p.output
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return fail(fmt.Errorf("write export: %w", err))
	}
	fmt.Fprintf(stdout, "Exported %d expenses to %s\n", len(tr.Filtered()), name)
	return subcommands.ExitSuccess
}

type categoriesCmd struct{}

func (*categoriesCmd) Name() string             { return "categories" }
func (*categoriesCmd) Synopsis() string         { return "list the accepted categories" }
func (*categoriesCmd) Usage() string            { return "expensectl categories\n" }
func (*categoriesCmd) SetFlags(_ *flag.FlagSet) {}

func (*categoriesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return show(cli.CategoriesMarkdown())
}
