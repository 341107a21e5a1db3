package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// Mirror keeps a spreadsheet copy of the expense collection, one row per
	// expense keyed by id.
	Mirror interface {
		// Upsert writes e to its row, appending a row when the id is new.
		Upsert(ctx context.Context, e core.Expense) error
		// Remove deletes the row for id. Unknown ids are ignored.
		Remove(ctx context.Context, id string) error
	}
)
