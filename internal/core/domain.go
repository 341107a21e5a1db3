// Package core holds the expense domain: categories, calendar dates, money
// amounts, drafts and their validation rules.
package core

import (
	"errors"
	"strings"
	"time"
)

// Fixed spending categories, in display order.
const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Shopping      Category = "Shopping"
	Health        Category = "Health"
	Other         Category = "Other"
)

// DateLayout is the wire and storage format of an expense date.
const DateLayout = "2006-01-02"

type (
	Category string

	// Date is a calendar date pinned to midnight UTC.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          string   `json:"id"`
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Description string   `json:"description"`
		Date        Date     `json:"date"`
	}

	// Draft is the create/update payload. Amount is a pointer so that a
	// missing amount can be told apart from an explicit zero.
	Draft struct {
		Amount      *Money `json:"amount"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}
)

// Categories lists every accepted category in display order.
var Categories = []Category{Food, Transport, Entertainment, Bills, Shopping, Health, Other}

var (
	ErrMissingAmount    = errors.New("amount is required")
	ErrInvalidCategory  = errors.New("category must be one of Food, Transport, Entertainment, Bills, Shopping, Health, Other")
	ErrEmptyDescription = errors.New("description is required")
	ErrMissingDate      = errors.New("date is required")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidAmount    = errors.New("amount must be a number")

	// ErrNotFound is returned when an update targets an unknown id.
	ErrNotFound = errors.New("expense not found")

	// ErrStoreUnavailable marks infrastructure failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports input the service refuses to persist.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err so that callers can map it to a client error.
func NewValidationError(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ParseCategory returns the category named s, matched exactly.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Valid reports whether c belongs to the fixed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD, or a full RFC 3339 timestamp whose date part is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrMissingDate
	}
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// InMonth reports whether d falls in the given calendar year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Expense validates the draft and converts it to an expense without an id.
func (d Draft) Expense() (Expense, error) {
	if d.Amount == nil {
		return Expense{}, NewValidationError(ErrMissingAmount)
	}
	cat, err := ParseCategory(d.Category)
	if err != nil {
		return Expense{}, NewValidationError(err)
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return Expense{}, NewValidationError(ErrEmptyDescription)
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Expense{}, NewValidationError(err)
	}
	return Expense{
		Amount:      *d.Amount,
		Category:    cat,
		Description: desc,
		Date:        date,
	}, nil
}

// Validate checks a fully built expense, as stores receive it.
func (e Expense) Validate() error {
	if !e.Category.Valid() {
		return NewValidationError(ErrInvalidCategory)
	}
	if strings.TrimSpace(e.Description) == "" {
		return NewValidationError(ErrEmptyDescription)
	}
	if e.Date.IsZero() {
		return NewValidationError(ErrMissingDate)
	}
	return nil
}

// DraftOf returns the draft that would recreate e.
func DraftOf(e Expense) Draft {
	amount := e.Amount
	return Draft{
		Amount:      &amount,
		Category:    string(e.Category),
		Description: e.Description,
		Date:        e.Date.String(),
	}
}
