package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// PrintMarkdown renders md for the terminal. Output that is not a terminal
// gets the raw markdown.
func PrintMarkdown(w io.Writer, md string) error {
	if f, ok := w.(*os.File); !ok || !isTerminal(f) {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// ExpensesMarkdown renders expenses as a table, or the empty-state line.
func ExpensesMarkdown(title string, expenses []core.Expense) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(expenses) == 0 {
		b.WriteString("No expenses found. Add your first expense above!\n")
		return b.String()
	}
	b.WriteString("| Date | Category | Description | Amount | ID |\n")
	b.WriteString("|---|---|---|---:|---|\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | `%s` |\n",
			e.Date, e.Category, cell(e.Description), report.FormatAmount(e.Amount), e.ID)
	}
	return b.String()
}

// ExpenseMarkdown renders a single saved expense.
func ExpenseMarkdown(verb string, e core.Expense) string {
	return fmt.Sprintf("Expense %s: **%s** %s on %s (%s) `%s`\n",
		verb, report.FormatAmount(e.Amount), cell(e.Description), e.Date, e.Category, e.ID)
}

// StatsMarkdown renders the headline figures.
func StatsMarkdown(s report.Stats, count int) string {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	b.WriteString("| | Amount |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total Expenses | %s |\n", report.FormatAmount(s.Total))
	fmt.Fprintf(&b, "| This Month | %s |\n", report.FormatAmount(s.ThisMonth))
	fmt.Fprintf(&b, "| Last Month | %s |\n", report.FormatAmount(s.LastMonth))
	fmt.Fprintf(&b, "\n%s vs last month across %d expenses.\n", report.FormatPercent(s.MonthChange), count)
	return b.String()
}

// BreakdownMarkdown renders per-category totals.
func BreakdownMarkdown(rows []report.CategoryTotal) string {
	var b strings.Builder
	b.WriteString("# Spending by Category\n\n")
	if len(rows) == 0 {
		b.WriteString("Nothing spent yet.\n")
		return b.String()
	}
	b.WriteString("| Category | Total | Share |\n|---|---:|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Category, report.FormatAmount(r.Total), report.FormatPercent(r.Percentage))
	}
	return b.String()
}

// CategoriesMarkdown lists the accepted categories.
func CategoriesMarkdown() string {
	var b strings.Builder
	b.WriteString("# Categories\n\n")
	for _, c := range core.Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

// cell keeps user text from breaking a markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
