// Package store declares the persistence ports of the expense service.
package store

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for persistence adapters.
type (
	// Lister returns every expense ordered by date descending; ties are
	// broken by creation order, newest first.
	Lister interface {
		List(ctx context.Context) ([]core.Expense, error)
	}

	// Creator persists a new expense and returns it with its assigned id.
	Creator interface {
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	// Updater replaces the expense stored under id. It returns
	// core.ErrNotFound when no such expense exists.
	Updater interface {
		Update(ctx context.Context, id string, e core.Expense) (core.Expense, error)
	}

	// Deleter removes the expense stored under id. Unknown or malformed ids
	// are not an error.
	Deleter interface {
		Delete(ctx context.Context, id string) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	Store interface {
		Lister
		Creator
		Updater
		Deleter
		Pinger
		Close() error
	}
)
