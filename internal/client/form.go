package client

import (
	"errors"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// ErrIncompleteForm is returned when a submit lacks amount or description.
var ErrIncompleteForm = errors.New("Please fill in all fields")

// Form is the add/edit form state. Fields hold raw user input.
type Form struct {
	// EditingID is the id of the expense being edited, empty when adding.
	EditingID   string
	Amount      string
	Category    string
	Description string
	Date        string
}

// NewForm returns a blank form: category Food, date today.
func NewForm(now time.Time) Form {
	return Form{
		Category: core.Food.String(),
		Date:     core.DateOf(now).String(),
	}
}

// EditForm returns a form populated from e.
func EditForm(e core.Expense) Form {
	return Form{
		EditingID:   e.ID,
		Amount:      e.Amount.String(),
		Category:    e.Category.String(),
		Description: e.Description,
		Date:        e.Date.String(),
	}
}

// Editing reports whether the form targets an existing expense.
func (f Form) Editing() bool { return f.EditingID != "" }

// Draft converts the form into an API payload. Amount and description must
// be present; everything else is left to the server to validate.
func (f Form) Draft() (core.Draft, error) {
	raw := strings.TrimSpace(f.Amount)
	if raw == "" || strings.TrimSpace(f.Description) == "" {
		return core.Draft{}, ErrIncompleteForm
	}
	amount, err := core.ParseMoney(raw)
	if err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Amount:      &amount,
		Category:    strings.TrimSpace(f.Category),
		Description: strings.TrimSpace(f.Description),
		Date:        strings.TrimSpace(f.Date),
	}, nil
}
