// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// Expense builds a valid expense for tests.
func Expense(amount string, cat core.Category, desc string, y, m, d int) core.Expense {
	return core.Expense{
		Amount:      core.MustParseMoney(amount),
		Category:    cat,
		Description: desc,
		Date:        core.NewDate(y, m, d),
	}
}

// Run exercises the store contract against a fresh, empty store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty list, got %d", len(got))
		}
	})

	t.Run("CreateAssignsIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, err := s.Create(ctx, Expense("12.50", core.Food, "Lunch", 2024, 3, 7))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		b, err := s.Create(ctx, Expense("12.50", core.Food, "Lunch", 2024, 3, 7))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID == "" || b.ID == "" || a.ID == b.ID {
			t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
		}
		if a.Amount.Fixed() != "12.50" || a.Category != core.Food || a.Description != "Lunch" || a.Date.String() != "2024-03-07" {
			t.Fatalf("fields not echoed: %+v", a)
		}
	})

	t.Run("ListOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustCreate(t, s, Expense("1", core.Food, "old", 2024, 1, 1))
		mustCreate(t, s, Expense("2", core.Food, "new", 2024, 3, 1))
		first := mustCreate(t, s, Expense("3", core.Food, "tie-first", 2024, 2, 1))
		second := mustCreate(t, s, Expense("4", core.Food, "tie-second", 2024, 2, 1))

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []string{"new", "tie-second", "tie-first", "old"}
		if len(got) != len(want) {
			t.Fatalf("expected %d, got %d", len(want), len(got))
		}
		for i, d := range want {
			if got[i].Description != d {
				t.Fatalf("position %d: expected %s, got %s", i, d, got[i].Description)
			}
		}
		if got[1].ID != second.ID || got[2].ID != first.ID {
			t.Fatalf("tie broken by creation order expected")
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created := mustCreate(t, s, Expense("10", core.Food, "Lunch", 2024, 1, 10))

		upd, err := s.Update(ctx, created.ID, Expense("11.25", core.Bills, "Power", 2024, 1, 11))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if upd.ID != created.ID || upd.Amount.Fixed() != "11.25" || upd.Category != core.Bills {
			t.Fatalf("unexpected update result: %+v", upd)
		}
		got, _ := s.List(ctx)
		if len(got) != 1 || got[0].Description != "Power" || got[0].Date.String() != "2024-01-11" {
			t.Fatalf("update not persisted: %+v", got)
		}
	})

	t.Run("UpdateUnknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(context.Background(), UnknownID, Expense("1", core.Food, "x", 2024, 1, 1))
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created := mustCreate(t, s, Expense("1", core.Food, "x", 2024, 1, 1))
		for i := 0; i < 2; i++ {
			if err := s.Delete(ctx, created.ID); err != nil {
				t.Fatalf("delete #%d: %v", i+1, err)
			}
		}
		for _, id := range []string{UnknownID, "not-an-id", ""} {
			if err := s.Delete(ctx, id); err != nil {
				t.Fatalf("delete %q: %v", id, err)
			}
		}
		got, _ := s.List(ctx)
		if len(got) != 0 {
			t.Fatalf("expected empty store, got %+v", got)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

// UnknownID is well-formed for every backend yet never assigned.
const UnknownID = "0123456789abcdef01234567"

func mustCreate(t *testing.T, s store.Store, e core.Expense) core.Expense {
	t.Helper()
	created, err := s.Create(context.Background(), e)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}
