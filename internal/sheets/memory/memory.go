// Package memory is a spreadsheet mirror kept in process memory. The sheets
// worker falls back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"errors"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

var _ ports.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows []core.Expense
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	if e.ID == "" {
		return errors.New("expense without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == e.ID {
			m.rows[i] = e
			return nil
		}
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows in sheet order.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Expense(nil), m.rows...)
}
