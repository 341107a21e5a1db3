package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"expensetracker/internal/core"
)

// DefaultCSVDateLayout is the short US date used in exported files.
const DefaultCSVDateLayout = "1/2/2006"

// CSVHeader is the first record of every export.
var CSVHeader = []string{"Date", "Category", "Description", "Amount"}

type CSVOptions struct {
	// DateLayout is a time layout for the Date column. Empty means DefaultCSVDateLayout.
	DateLayout string
}

// WriteCSV writes the header followed by one record per expense, in order.
// Fields containing commas, quotes or newlines are quoted per RFC 4180.
func WriteCSV(w io.Writer, expenses []core.Expense, opts CSVOptions) error {
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultCSVDateLayout
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			e.Date.Format(layout),
			string(e.Category),
			e.Description,
			e.Amount.Fixed(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFilename names a download produced at now.
func ExportFilename(now time.Time) string {
	return "expenses_" + now.Format(core.DateLayout) + ".csv"
}
