package main

import (
	"bytes"
	"context"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"

	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/services"
	"expensetracker/internal/store/memory"
)

var fixedNow = time.Date(2024, time.February, 15, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, seed ...core.Expense) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	svc := services.NewExpenseService(memory.NewWithExpenses(seed), nil, nil)
	srv := apphttp.NewServer(apphttp.Options{Now: func() time.Time { return fixedNow }}, svc)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	var out, errOut bytes.Buffer
	prevURL, prevOut, prevErr, prevNow := apiURL, stdout, stderr, now
	apiURL, stdout, stderr, now = ts.URL, &out, &errOut, func() time.Time { return fixedNow }
	t.Cleanup(func() { apiURL, stdout, stderr, now = prevURL, prevOut, prevErr, prevNow })
	return &out, &errOut
}

func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c.Execute(context.Background(), f)
}

func seedExpense(id, amount string, cat core.Category, desc string, y, m, d int) core.Expense {
	return core.Expense{ID: id, Amount: core.MustParseMoney(amount), Category: cat, Description: desc, Date: core.NewDate(y, m, d)}
}

func TestAddAndList(t *testing.T) {
	out, errOut := setup(t)

	if st := run(t, &addCmd{}, "-amount", "12.5", "-description", "Lunch"); st != subcommands.ExitSuccess {
		t.Fatalf("add exit = %v, stderr %s", st, errOut)
	}
	if !strings.Contains(out.String(), "Expense added: **$12.50** Lunch on 2024-02-15 (Food)") {
		t.Errorf("add output = %q", out.String())
	}

	out.Reset()
	if st := run(t, &listCmd{}); st != subcommands.ExitSuccess {
		t.Fatalf("list exit = %v", st)
	}
	if !strings.Contains(out.String(), "| 2024-02-15 | Food | Lunch | $12.50 |") {
		t.Errorf("list output = %q", out.String())
	}
}

func TestAddIncomplete(t *testing.T) {
	_, errOut := setup(t)
	if st := run(t, &addCmd{}, "-amount", "3"); st != subcommands.ExitFailure {
		t.Fatalf("exit = %v, want failure", st)
	}
	if !strings.Contains(errOut.String(), "Please fill in all fields") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestEditKeepsUnsetFields(t *testing.T) {
	out, errOut := setup(t, seedExpense("e1", "10", core.Food, "Lunch", 2024, 2, 10))

	if st := run(t, &editCmd{}, "-amount", "11", "e1"); st != subcommands.ExitSuccess {
		t.Fatalf("edit exit = %v, stderr %s", st, errOut)
	}
	if !strings.Contains(out.String(), "Expense updated: **$11.00** Lunch on 2024-02-10 (Food) `e1`") {
		t.Errorf("edit output = %q", out.String())
	}

	if st := run(t, &editCmd{}, "-amount", "11", "missing"); st != subcommands.ExitFailure {
		t.Errorf("edit unknown id exit = %v", st)
	}
	if st := run(t, &editCmd{}); st != subcommands.ExitUsageError {
		t.Errorf("edit without id exit = %v", st)
	}
}

func TestDelete(t *testing.T) {
	out, _ := setup(t, seedExpense("e1", "10", core.Food, "Lunch", 2024, 2, 10))
	if st := run(t, &deleteCmd{}, "e1"); st != subcommands.ExitSuccess {
		t.Fatalf("exit = %v", st)
	}
	out.Reset()
	run(t, &listCmd{})
	if !strings.Contains(out.String(), "No expenses found.") {
		t.Errorf("list after delete = %q", out.String())
	}
}

func TestStatsAndBreakdown(t *testing.T) {
	out, _ := setup(t,
		seedExpense("a", "60", core.Food, "Pizza", 2024, 2, 3),
		seedExpense("b", "100", core.Bills, "Rent", 2024, 1, 20),
	)

	run(t, &statsCmd{})
	for _, w := range []string{"| Total Expenses | $160.00 |", "| This Month | $60.00 |", "-40.0% vs last month across 2 expenses."} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("stats missing %q", w)
		}
	}

	out.Reset()
	run(t, &breakdownCmd{})
	if !strings.Contains(out.String(), "| Food | $60.00 | 37.5% |") || !strings.Contains(out.String(), "| Bills | $100.00 | 62.5% |") {
		t.Errorf("breakdown = %q", out.String())
	}
}

func TestExport(t *testing.T) {
	out, _ := setup(t,
		seedExpense("a", "5", core.Food, "Coffee, large", 2024, 1, 5),
		seedExpense("b", "20", core.Transport, "Taxi", 2024, 1, 4),
	)

	if st := run(t, &exportCmd{}, "-category", "Food", "-o", "-"); st != subcommands.ExitSuccess {
		t.Fatalf("exit = %v", st)
	}
	want := "Date,Category,Description,Amount\n1/5/2024,Food,\"Coffee, large\",5.00\n"
	if out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if st := run(t, &exportCmd{}, "-o", path); st != subcommands.ExitSuccess {
		t.Fatalf("exit = %v", st)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "\n") != 3 {
		t.Errorf("file = %q", data)
	}

	if st := run(t, &exportCmd{}, "-category", "Gadgets", "-o", "-"); st != subcommands.ExitFailure {
		t.Errorf("unknown category exit = %v", st)
	}
}

func TestCategories(t *testing.T) {
	out, _ := setup(t)
	run(t, &categoriesCmd{})
	if !strings.Contains(out.String(), "- Entertainment\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompletionCoversCommands(t *testing.T) {
	c := completion()
	for _, cmd := range commands {
		if _, ok := c.Sub[cmd.Name()]; !ok {
			t.Errorf("no completion for %q", cmd.Name())
		}
	}
}
