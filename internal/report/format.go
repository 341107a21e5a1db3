package report

import (
	"github.com/Rhymond/go-money"

	"expensetracker/internal/core"
)

// DisplayCurrency is the currency amounts are shown in.
const DisplayCurrency = "USD"

// FormatAmount renders m for people, e.g. "$1,234.50". Amounts are rounded
// to cents; sums stay exact until this point.
func FormatAmount(m core.Money) string {
	return money.New(m.Cents(), DisplayCurrency).Display()
}

// FormatPercent renders a share or change with one decimal, e.g. "12.5%".
func FormatPercent(p Percent) string {
	return p.String() + "%"
}
