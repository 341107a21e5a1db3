// Money is decimal backed. Sums are exact; floats only appear at the edges
// (document stores, display).

package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed decimal amount without currency.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{}

// NewMoney builds an amount from a float, as document stores hand them back.
func NewMoney(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from an integer count of hundredths.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. No range is enforced.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-3")    -> -3, nil
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrMissingAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney for literals; it panics on bad input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

func (m Money) Add(n Money) Money { return Money{d: m.d.Add(n.d)} }
func (m Money) Sub(n Money) Money { return Money{d: m.d.Sub(n.d)} }
func (m Money) Equal(n Money) bool { return m.d.Equal(n.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) Sign() int { return m.d.Sign() }
func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 returns the nearest float, for stores that persist numbers as doubles.
func (m Money) Float64() float64 { return m.d.InexactFloat64() }

// Cents rounds to hundredths, half away from zero.
func (m Money) Cents() int64 { return m.d.Shift(2).Round(0).IntPart() }

// Fixed renders the amount with exactly two decimals.
func (m Money) Fixed() string { return m.d.StringFixed(2) }

func (m Money) String() string { return m.d.String() }

// MarshalJSON emits a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
