package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestWriteCSV(t *testing.T) {
	expenses := []core.Expense{
		{Amount: core.MustParseMoney("12.5"), Category: core.Food, Description: "Lunch", Date: core.NewDate(2024, 3, 7)},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, expenses, CSVOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Date,Category,Description,Amount\n3/7/2024,Food,Lunch,12.50\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteCSVEmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Filter(nil, "Transport"), CSVOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "Date,Category,Description,Amount\n" {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestWriteCSVQuotesDescriptions(t *testing.T) {
	descs := []string{`Dinner, drinks`, `The "good" one`, "two\nlines"}
	var expenses []core.Expense
	for _, d := range descs {
		expenses = append(expenses, core.Expense{
			Amount: core.MustParseMoney("1"), Category: core.Other, Description: d, Date: core.NewDate(2024, 1, 1),
		})
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, expenses, CSVOptions{DateLayout: core.DateLayout}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"Dinner, drinks"`) {
		t.Fatalf("expected quoted comma field, got %q", buf.String())
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != len(descs)+1 {
		t.Fatalf("expected %d records, got %d", len(descs)+1, len(records))
	}
	for i, d := range descs {
		rec := records[i+1]
		if len(rec) != 4 || rec[2] != d || rec[0] != "2024-01-01" {
			t.Fatalf("record %d mangled: %q", i, rec)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2024, 2, 9, 23, 0, 0, 0, time.UTC))
	if got != "expenses_2024-02-09.csv" {
		t.Fatalf("unexpected filename %s", got)
	}
}
