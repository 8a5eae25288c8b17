package document

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-api/internal/money"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one row of a document. Quantity and TaxRate are decimals so
// fractional quantities (hours, weights) and fractional rates survive intact
// until the final rounding step.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   money.Money
	TaxRate     decimal.Decimal // percentage, zero when the item is untaxed
}

// LineAmounts holds the derived amounts for a single line. They are always
// recomputed from the inputs, never stored as independently mutable fields.
type LineAmounts struct {
	Subtotal money.Money
	Tax      money.Money
	Total    money.Money
}

// Compute derives the line amounts. Incomplete rows coerce rather than fail:
// negative or missing quantity and price count as zero, and the tax rate is
// clamped into [0, 100], so a document mid-edit still produces a consistent
// summary.
func (it LineItem) Compute() LineAmounts {
	sub, tax := it.amounts()
	currency := it.UnitPrice.Currency
	subM := money.FromDecimal(sub, currency)
	taxM := money.FromDecimal(tax, currency)
	return LineAmounts{
		Subtotal: subM,
		Tax:      taxM,
		Total:    money.New(subM.Amount+taxM.Amount, currency),
	}
}

// amounts returns the unrounded subtotal and tax in minor units. The totals
// calculator accumulates these directly so per-line rounding never leaks
// into the document summary.
func (it LineItem) amounts() (sub, tax decimal.Decimal) {
	qty := it.Quantity
	if qty.Sign() < 0 {
		qty = decimal.Zero
	}
	price := it.UnitPrice.Decimal()
	if price.Sign() < 0 {
		price = decimal.Zero
	}
	sub = qty.Mul(price)
	tax = sub.Mul(clampRate(it.TaxRate)).Div(hundred)
	return sub, tax
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() < 0 {
		return decimal.Zero
	}
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}
