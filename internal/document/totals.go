package document

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-api/internal/discount"
	"github.com/noah-isme/billing-api/internal/money"
	"github.com/noah-isme/billing-api/internal/tax"
)

// TaxTiming selects the base used for document-level tax.
type TaxTiming string

const (
	// TaxBeforeDiscount computes document-level tax on the raw subtotal.
	// This is the arithmetic every legacy screen actually exhibited,
	// whatever the stored per-document preference said, and is the default
	// when the caller supplies nothing.
	TaxBeforeDiscount TaxTiming = "before_discount"
	// TaxAfterDiscount computes document-level tax on the discounted
	// subtotal, floored at zero.
	TaxAfterDiscount TaxTiming = "after_discount"
)

// ErrUnknownTaxTiming flags a timing value outside the two supported modes.
var ErrUnknownTaxTiming = errors.New("unknown tax timing")

// Totals is the complete monetary summary of a document. GrandTotal always
// equals Subtotal + ItemTaxTotal + DocumentTaxTotal - DiscountAmount: each
// component is rounded once and the grand total is formed from the rounded
// components, so the decomposition holds exactly.
type Totals struct {
	Subtotal         money.Money `json:"subtotal"`
	ItemTaxTotal     money.Money `json:"item_tax_total"`
	DocumentTaxTotal money.Money `json:"document_tax_total"`
	DiscountAmount   money.Money `json:"discount_amount"`
	GrandTotal       money.Money `json:"grand_total"`
}

// Input is an immutable snapshot of everything the calculator needs. The
// caller assembles it from the latest form state; the calculator itself
// never reaches into shared mutable state, so recomputation is free of
// render-cycle timing concerns.
type Input struct {
	Currency string
	Items    []LineItem
	Discount discount.Spec
	TaxA     tax.Selection
	TaxB     tax.Selection
	Timing   TaxTiming
}

// ComputeTotals turns a snapshot of line items and document-level modifiers
// into a consistent set of totals:
//
//  1. subtotal and item tax accumulate in decimal across all lines;
//  2. the discount applies to the rounded subtotal;
//  3. document-level tax (both selections summed) applies to the subtotal,
//     or to the discounted subtotal under TaxAfterDiscount;
//  4. the grand total is the exact sum of the rounded components.
//
// The function is pure and idempotent. Mixed currencies across line items
// are a caller error and are rejected rather than coerced.
func ComputeTotals(in Input) (Totals, error) {
	currency, err := documentCurrency(in)
	if err != nil {
		return Totals{}, err
	}
	timing := in.Timing
	if timing == "" {
		timing = TaxBeforeDiscount
	}
	if timing != TaxBeforeDiscount && timing != TaxAfterDiscount {
		return Totals{}, fmt.Errorf("%q: %w", in.Timing, ErrUnknownTaxTiming)
	}

	var sub, itemTax decimal.Decimal
	for _, it := range in.Items {
		s, t := it.amounts()
		sub = sub.Add(s)
		itemTax = itemTax.Add(t)
	}
	subM := money.FromDecimal(sub, currency)
	itemTaxM := money.FromDecimal(itemTax, currency)

	discM, err := discount.Apply(subM, in.Discount)
	if err != nil {
		return Totals{}, err
	}

	docRate := clampRate(in.TaxA.Rate).Add(clampRate(in.TaxB.Rate))
	base := subM.Amount
	if timing == TaxAfterDiscount {
		base -= discM.Amount
		if base < 0 {
			base = 0
		}
	}
	docTaxM := money.FromDecimal(decimal.NewFromInt(base).Mul(docRate).Div(hundred), currency)

	return Totals{
		Subtotal:         subM,
		ItemTaxTotal:     itemTaxM,
		DocumentTaxTotal: docTaxM,
		DiscountAmount:   discM,
		GrandTotal:       money.New(subM.Amount+itemTaxM.Amount+docTaxM.Amount-discM.Amount, currency),
	}, nil
}

// documentCurrency settles the currency for the whole computation. Lines
// with no currency (blank rows mid-edit) are tolerated; two lines carrying
// different codes are not.
func documentCurrency(in Input) (string, error) {
	currency := in.Currency
	for _, it := range in.Items {
		c := it.UnitPrice.Currency
		if c == "" {
			continue
		}
		if currency == "" {
			currency = c
			continue
		}
		if c != currency {
			return "", fmt.Errorf("line item in %s, document in %s: %w", c, currency, money.ErrCurrencyMismatch)
		}
	}
	return currency, nil
}
