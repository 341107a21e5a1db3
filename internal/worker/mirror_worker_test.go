package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets/memory"
	memstore "expensetracker/internal/store/memory"
)

func expense(id, desc string) core.Expense {
	return core.Expense{ID: id, Amount: core.MustParseMoney("5"), Category: core.Food, Description: desc, Date: core.NewDate(2024, 1, 1)}
}

func TestHandleEvent(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	steps := []amqp.ExpenseEvent{
		amqp.NewExpenseEvent(amqp.EventCreated, expense("a", "Lunch")),
		amqp.NewExpenseEvent(amqp.EventCreated, expense("b", "Bus")),
		amqp.NewExpenseEvent(amqp.EventUpdated, expense("a", "Brunch")),
		amqp.NewDeletedEvent("b"),
		amqp.NewDeletedEvent("never-existed"),
	}
	for _, ev := range steps {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("%s %s: %v", ev.Type, ev.ID, err)
		}
	}

	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].ID != "a" || rows[0].Description != "Brunch" {
		t.Fatalf("unexpected mirror rows: %+v", rows)
	}
}

func TestHandleEventLogsEventType(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	w := NewMirrorWorker(memory.New())
	if err := w.HandleEvent(context.Background(), amqp.NewDeletedEvent("gone")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"event_type=deleted", "operation=mirror", "expense_id=gone"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestHandleEventRejectsMalformed(t *testing.T) {
	w := NewMirrorWorker(memory.New())
	bad := []amqp.ExpenseEvent{
		{Type: amqp.EventCreated, ID: "a"},
		{Type: "renamed", ID: "a"},
	}
	for _, ev := range bad {
		if err := w.HandleEvent(context.Background(), ev); err == nil {
			t.Errorf("expected error for %+v", ev)
		}
	}
}

type failingMirror struct{ memory.Mirror }

func (failingMirror) Upsert(context.Context, core.Expense) error { return errors.New("quota exceeded") }

func TestHandleEventPropagatesMirrorFailure(t *testing.T) {
	w := NewMirrorWorker(&failingMirror{})
	err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventCreated, expense("a", "x")))
	if err == nil {
		t.Fatal("mirror failure must surface so the message is requeued")
	}
}

func TestResync(t *testing.T) {
	src := memstore.NewWithExpenses([]core.Expense{expense("a", "Lunch"), expense("b", "Bus")})
	mirror := memory.New()

	if err := NewMirrorWorker(mirror).Resync(context.Background(), src); err != nil {
		t.Fatalf("resync: %v", err)
	}
	if len(mirror.Rows()) != 2 {
		t.Fatalf("expected 2 mirrored rows, got %+v", mirror.Rows())
	}

	if err := NewMirrorWorker(&failingMirror{}).Resync(context.Background(), src); err == nil {
		t.Fatal("expected resync error when rows fail")
	}
}
