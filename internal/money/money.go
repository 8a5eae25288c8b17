package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes two currency codes
// without an explicit exchange rate.
var ErrCurrencyMismatch = errors.New("currency mismatch")

var hundred = decimal.NewFromInt(100)

// Money is a monetary value stored as an integer amount of minor units
// (cents) tagged with its ISO 4217 currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New builds a Money value from an amount of minor units.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns the zero amount for the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// FromDecimal rounds an amount of minor units half away from zero to a whole
// number of units. This is the single rounding step applied to each totals
// component; all intermediate arithmetic stays in decimal.
func FromDecimal(d decimal.Decimal, currency string) Money {
	return Money{Amount: d.Round(0).IntPart(), Currency: currency}
}

// Decimal returns the amount of minor units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// SameCurrency reports whether both values share one currency code.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// Add sums two values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("add %s to %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts a value of the same currency.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("subtract %s from %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Convert applies a caller-supplied exchange rate, producing a value in the
// target currency. Cross-currency arithmetic is only ever valid through this
// explicit step.
func (m Money) Convert(rate decimal.Decimal, currency string) Money {
	return FromDecimal(m.Decimal().Mul(rate), currency)
}

// String renders the value as "<code> <units>.<cents>" without locale rules.
// Use Format for user-facing display.
func (m Money) String() string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s%d.%02d", m.Currency, sign, amount/100, amount%100)
}
