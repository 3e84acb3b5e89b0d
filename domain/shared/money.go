package shared

import (
	"github.com/shopspring/decimal"
)

// moneyScale is the number of decimal places every amount is kept at.
const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// Money is a fixed-point amount rounded to two decimals, half-up.
// The restaurant trades in a single currency, so no currency code is carried.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{amount: decimal.Zero}

// NewMoney parses a decimal string such as "12.50".
func NewMoney(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, NewValidationError("money", "amount", "invalid amount: "+value)
	}
	return MoneyFromDecimal(d), nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(value string) Money {
	m, err := NewMoney(value)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal rounds d to two places.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(moneyScale)}
}

func (m Money) Decimal() decimal.Decimal { return m.amount }
func (m Money) String() string           { return m.amount.StringFixed(moneyScale) }

func (m Money) Add(other Money) Money { return MoneyFromDecimal(m.amount.Add(other.amount)) }
func (m Money) Sub(other Money) Money { return MoneyFromDecimal(m.amount.Sub(other.amount)) }

// MulInt multiplies by a quantity.
func (m Money) MulInt(n int) Money {
	return MoneyFromDecimal(m.amount.Mul(decimal.NewFromInt(int64(n))))
}

// MulRate multiplies by a rate such as a tax rate of 0.10.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return MoneyFromDecimal(m.amount.Mul(rate))
}

// Percent returns pct percent of m.
func (m Money) Percent(pct decimal.Decimal) Money {
	return MoneyFromDecimal(m.amount.Mul(pct).Div(hundred))
}

func (m Money) IsZero() bool                 { return m.amount.IsZero() }
func (m Money) IsPositive() bool             { return m.amount.IsPositive() }
func (m Money) IsNegative() bool             { return m.amount.IsNegative() }
func (m Money) Equals(other Money) bool      { return m.amount.Equal(other.amount) }
func (m Money) GreaterThan(other Money) bool { return m.amount.GreaterThan(other.amount) }
func (m Money) LessThan(other Money) bool    { return m.amount.LessThan(other.amount) }
