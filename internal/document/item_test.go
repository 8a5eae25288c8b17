package document

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-api/internal/money"
)

func TestLineCompute(t *testing.T) {
	it := LineItem{
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: money.New(5_000, "USD"), // $50.00
		TaxRate:   decimal.NewFromInt(10),
	}
	got := it.Compute()
	if got.Subtotal.Amount != 10_000 {
		t.Fatalf("subtotal %d", got.Subtotal.Amount)
	}
	if got.Tax.Amount != 1_000 {
		t.Fatalf("tax %d", got.Tax.Amount)
	}
	if got.Total.Amount != 11_000 {
		t.Fatalf("total %d", got.Total.Amount)
	}
}

func TestLineComputeFractionalQuantity(t *testing.T) {
	it := LineItem{
		Quantity:  decimal.RequireFromString("1.5"),
		UnitPrice: money.New(1_000, "USD"),
	}
	got := it.Compute()
	if got.Subtotal.Amount != 1_500 {
		t.Fatalf("subtotal %d", got.Subtotal.Amount)
	}
	if !got.Tax.IsZero() {
		t.Fatalf("tax %d", got.Tax.Amount)
	}
}

func TestLineComputeCoercesInvalidInputs(t *testing.T) {
	// a half-filled row never errors, it just contributes zero
	it := LineItem{
		Quantity:  decimal.NewFromInt(-3),
		UnitPrice: money.New(1_000, "USD"),
	}
	if got := it.Compute(); !got.Total.IsZero() {
		t.Fatalf("negative quantity should contribute nothing, got %d", got.Total.Amount)
	}

	it = LineItem{
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: money.New(-500, "USD"),
	}
	if got := it.Compute(); !got.Total.IsZero() {
		t.Fatalf("negative price should contribute nothing, got %d", got.Total.Amount)
	}

	// zero value row
	if got := (LineItem{}).Compute(); !got.Total.IsZero() {
		t.Fatalf("empty row should contribute nothing, got %d", got.Total.Amount)
	}
}

func TestLineComputeClampsTaxRate(t *testing.T) {
	it := LineItem{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: money.New(1_000, "USD"),
		TaxRate:   decimal.NewFromInt(250),
	}
	got := it.Compute()
	if got.Tax.Amount != 1_000 { // clamped to 100%
		t.Fatalf("tax %d", got.Tax.Amount)
	}

	it.TaxRate = decimal.NewFromInt(-10)
	got = it.Compute()
	if !got.Tax.IsZero() {
		t.Fatalf("negative rate should mean no tax, got %d", got.Tax.Amount)
	}
}
