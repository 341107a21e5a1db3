// Package memory is an in-process expense store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

type record struct {
	expense core.Expense
	seq     uint64
}

type Store struct {
	mu    sync.Mutex
	seq   uint64
	items map[string]record
}

func New() *Store {
	return &Store{items: make(map[string]record)}
}

// NewWithExpenses seeds the store in the given creation order.
func NewWithExpenses(seed []core.Expense) *Store {
	s := New()
	for _, e := range seed {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.seq++
		s.items[e.ID] = record{expense: e, seq: s.seq}
	}
	return s
}

// List returns expenses by date descending, newest-created first on ties.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	recs := make([]record, 0, len(s.items))
	for _, r := range s.items {
		recs = append(recs, r)
	}
	s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.expense.Date.Equal(b.expense.Date.Time) {
			return a.expense.Date.After(b.expense.Date.Time)
		}
		return a.seq > b.seq
	})
	out := make([]core.Expense, len(recs))
	for i, r := range recs {
		out[i] = r.expense
	}
	return out, nil
}

// Create stores the expense under a fresh id.
func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.items[e.ID] = record{expense: e, seq: s.seq}
	return e, nil
}

// Update replaces the expense stored under id, keeping its creation order.
func (s *Store) Update(_ context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	e.ID = id
	r.expense = e
	s.items[id] = r
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len reports the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
