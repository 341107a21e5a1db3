// Package report derives dashboard figures from a list of expenses:
// monthly totals and trend, the per-category breakdown, filtering and CSV export.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// FilterAll is the filter value that keeps every expense.
const FilterAll = "all"

var hundred = decimal.NewFromInt(100)

// Percent is a percentage rounded to one decimal place.
type Percent struct {
	d decimal.Decimal
}

// NewPercent rounds d half away from zero to one decimal.
func NewPercent(d decimal.Decimal) Percent {
	return Percent{d: d.Round(1)}
}

// Decimal returns the rounded value.
func (p Percent) Decimal() decimal.Decimal { return p.d }

// Float64 returns the value as a float for charts and templates.
func (p Percent) Float64() float64 { return p.d.InexactFloat64() }

// IsZero reports whether the value is 0.0.
func (p Percent) IsZero() bool { return p.d.IsZero() }

// Sign returns -1, 0 or +1.
func (p Percent) Sign() int { return p.d.Sign() }

// String renders the value with exactly one decimal, e.g. "-40.0".
func (p Percent) String() string { return p.d.StringFixed(1) }

// MarshalJSON emits a bare number with one decimal.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.d.StringFixed(1)), nil
}

// UnmarshalJSON accepts a JSON number and rounds it to one decimal.
func (p *Percent) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	*p = NewPercent(d)
	return nil
}

// Stats holds the headline figures of the dashboard.
type Stats struct {
	Total       core.Money `json:"total"`
	ThisMonth   core.Money `json:"thisMonth"`
	LastMonth   core.Money `json:"lastMonth"`
	MonthChange Percent    `json:"monthChange"`
}

// Summarize computes totals relative to the calendar month containing now.
// Months are matched on year and month; the month before January is December
// of the previous year.
func Summarize(expenses []core.Expense, now time.Time) Stats {
	year, month, _ := now.Date()
	prev := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	prevYear, prevMonth := prev.Year(), prev.Month()

	var s Stats
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		switch {
		case e.Date.InMonth(year, month):
			s.ThisMonth = s.ThisMonth.Add(e.Amount)
		case e.Date.InMonth(prevYear, prevMonth):
			s.LastMonth = s.LastMonth.Add(e.Amount)
		}
	}
	s.MonthChange = MonthChange(s.ThisMonth, s.LastMonth)
	return s
}

// MonthChange returns (this-last)/last*100 rounded to one decimal, or zero
// when last is not positive.
func MonthChange(this, last core.Money) Percent {
	if !last.IsPositive() {
		return Percent{}
	}
	delta := this.Sub(last).Decimal()
	return NewPercent(delta.Mul(hundred).Div(last.Decimal()))
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category   core.Category `json:"category"`
	Total      core.Money    `json:"total"`
	Percentage Percent       `json:"percentage"`
}

// Breakdown groups expenses by category in the fixed category order.
// Categories whose total is zero are left out. Expenses carrying a category
// outside the fixed set are counted under Other.
func Breakdown(expenses []core.Expense) []CategoryTotal {
	sums := make(map[core.Category]core.Money, len(core.Categories))
	var total core.Money
	for _, e := range expenses {
		cat := e.Category
		if !cat.Valid() {
			cat = core.Other
		}
		sums[cat] = sums[cat].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	rows := make([]CategoryTotal, 0, len(sums))
	for _, cat := range core.Categories {
		sum, ok := sums[cat]
		if !ok || sum.IsZero() {
			continue
		}
		rows = append(rows, CategoryTotal{
			Category:   cat,
			Total:      sum,
			Percentage: Share(sum, total),
		})
	}
	return rows
}

// Share returns part as a percentage of total, zero when total is zero.
func Share(part, total core.Money) Percent {
	if total.IsZero() {
		return Percent{}
	}
	return NewPercent(part.Decimal().Mul(hundred).Div(total.Decimal()))
}

// Filter returns the expenses in the given category, preserving order.
// An empty filter or FilterAll returns every expense.
func Filter(expenses []core.Expense, category string) []core.Expense {
	if category == "" || category == FilterAll {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if string(e.Category) == category {
			out = append(out, e)
		}
	}
	return out
}
