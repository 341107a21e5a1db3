package client

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// API is the subset of Client the tracker needs.
type API interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, d core.Draft) (core.Expense, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Expense, error)
	Delete(ctx context.Context, id string) error
}

// Tracker holds the client-side view of the expense list: the records as
// last seen from the API, the active category filter and the form.
//
// Mutations go to the API first; on success the returned record is applied
// locally so no full reload is needed. Load and Refresh do full reloads.
type Tracker struct {
	api API
	now func() time.Time

	mu       sync.Mutex
	expenses []core.Expense
	filter   string
	form     Form
}

// NewTracker returns an empty tracker. now defaults to time.Now.
func NewTracker(api API, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		api:    api,
		now:    now,
		filter: report.FilterAll,
		form:   NewForm(now()),
	}
}

// Load fetches the full list and resets filter and form.
func (t *Tracker) Load(ctx context.Context) error {
	expenses, err := t.api.List(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expenses = expenses
	t.filter = report.FilterAll
	t.form = NewForm(t.now())
	return nil
}

// Refresh replaces the local list with the server's, keeping filter and form.
func (t *Tracker) Refresh(ctx context.Context) error {
	expenses, err := t.api.List(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.expenses = expenses
	t.mu.Unlock()
	return nil
}

// Add creates an expense and inserts the stored record.
func (t *Tracker) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	created, err := t.api.Create(ctx, d)
	if err != nil {
		return core.Expense{}, err
	}
	t.mu.Lock()
	t.expenses = insertByDate(t.expenses, created)
	t.mu.Unlock()
	return created, nil
}

// Edit updates an expense and replaces the local copy.
func (t *Tracker) Edit(ctx context.Context, id string, d core.Draft) (core.Expense, error) {
	updated, err := t.api.Update(ctx, id, d)
	if err != nil {
		return core.Expense{}, err
	}
	t.mu.Lock()
	t.expenses = insertByDate(without(t.expenses, id), updated)
	t.mu.Unlock()
	return updated, nil
}

// Remove deletes an expense and drops it locally.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	if err := t.api.Delete(ctx, id); err != nil {
		return err
	}
	t.mu.Lock()
	t.expenses = without(t.expenses, id)
	t.mu.Unlock()
	return nil
}

// Submit sends the current form as a create or an update, then resets it.
// An incomplete form returns ErrIncompleteForm without calling the API.
func (t *Tracker) Submit(ctx context.Context) (core.Expense, error) {
	form := t.Form()
	d, err := form.Draft()
	if err != nil {
		return core.Expense{}, err
	}

	var saved core.Expense
	if form.Editing() {
		saved, err = t.Edit(ctx, form.EditingID, d)
	} else {
		saved, err = t.Add(ctx, d)
	}
	if err != nil {
		return core.Expense{}, err
	}

	t.mu.Lock()
	t.form = NewForm(t.now())
	t.mu.Unlock()
	return saved, nil
}

// StartEdit loads the expense with the given id into the form.
func (t *Tracker) StartEdit(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.expenses {
		if e.ID == id {
			t.form = EditForm(e)
			return nil
		}
	}
	return fmt.Errorf("edit %s: %w", id, core.ErrNotFound)
}

// CancelEdit resets the form.
func (t *Tracker) CancelEdit() {
	t.mu.Lock()
	t.form = NewForm(t.now())
	t.mu.Unlock()
}

func (t *Tracker) Form() Form {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.form
}

// SetForm replaces the form input.
func (t *Tracker) SetForm(f Form) {
	t.mu.Lock()
	t.form = f
	t.mu.Unlock()
}

// SetFilter selects a category, or report.FilterAll.
func (t *Tracker) SetFilter(filter string) error {
	if filter == "" {
		filter = report.FilterAll
	}
	if filter != report.FilterAll && !core.Category(filter).Valid() {
		return core.NewValidationError(core.ErrInvalidCategory)
	}
	t.mu.Lock()
	t.filter = filter
	t.mu.Unlock()
	return nil
}

func (t *Tracker) Filter() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// Expenses returns every expense, newest first.
func (t *Tracker) Expenses() []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.expenses)
}

// Filtered returns the expenses matching the active filter.
func (t *Tracker) Filtered() []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(report.Filter(t.expenses, t.filter))
}

// Stats summarises every expense, ignoring the filter.
func (t *Tracker) Stats() report.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return report.Summarize(t.expenses, t.now())
}

// Breakdown totals every expense per category, ignoring the filter.
func (t *Tracker) Breakdown() []report.CategoryTotal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return report.Breakdown(t.expenses)
}

// ExportCSV writes the filtered expenses as CSV and returns the suggested
// file name.
func (t *Tracker) ExportCSV(w io.Writer, opts report.CSVOptions) (string, error) {
	rows := t.Filtered()
	if err := report.WriteCSV(w, rows, opts); err != nil {
		return "", err
	}
	return report.ExportFilename(t.now()), nil
}

// insertByDate places e before the first expense that is not newer.
func insertByDate(list []core.Expense, e core.Expense) []core.Expense {
	i := slices.IndexFunc(list, func(x core.Expense) bool {
		return !x.Date.After(e.Date.Time)
	})
	if i < 0 {
		return append(list, e)
	}
	return slices.Insert(list, i, e)
}

func without(list []core.Expense, id string) []core.Expense {
	return slices.DeleteFunc(slices.Clone(list), func(x core.Expense) bool { return x.ID == id })
}
