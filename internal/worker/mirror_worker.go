package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/store"
)

// MirrorWorker applies expense events to a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.Mirror
}

func NewMirrorWorker(mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleEvent upserts created and updated expenses and removes deleted ones.
// A returned error asks the broker to redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev amqp.ExpenseEvent) error {
	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if ev.Expense == nil {
			return fmt.Errorf("%s event %s without expense", ev.Type, ev.ID)
		}
		e := *ev.Expense
		if e.ID == "" {
			e.ID = ev.ID
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return fmt.Errorf("mirror %s expense %s: %w", ev.Type, ev.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("remove expense %s: %w", ev.ID, err)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	fields := log.NewFields().
		WithOperation(log.OpMirror).
		WithEventType(string(ev.Type)).
		With(log.FieldExpenseID, ev.ID)
	slog.InfoContext(ctx, "Mirrored expense event", fields.ToSlice()...)
	return nil
}

// Resync upserts every expense from src. It recovers from events missed
// while the worker was down; rows of expenses deleted meanwhile are left alone.
func (w *MirrorWorker) Resync(ctx context.Context, src store.Lister) error {
	expenses, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list expenses for resync: %w", err)
	}

	synced, failed := 0, 0
	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense during resync",
				log.FieldOperation, log.OpResync,
				log.FieldExpenseID, e.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Resync completed",
		log.FieldOperation, log.OpResync,
		"total", len(expenses),
		"synced", synced,
		"errors", failed)

	if failed > 0 {
		return fmt.Errorf("resync: %d of %d expenses failed", failed, len(expenses))
	}
	return nil
}
