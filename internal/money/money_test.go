package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddSameCurrency(t *testing.T) {
	a := New(10_000, "USD")
	b := New(2_500, "USD")
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Amount != 12_500 || sum.Currency != "USD" {
		t.Fatalf("unexpected sum %+v", sum)
	}
}

func TestAddMixedCurrencies(t *testing.T) {
	a := New(10_000, "USD")
	b := New(2_500, "EUR")
	if _, err := a.Add(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Sub(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch on sub, got %v", err)
	}
}

func TestFromDecimalRoundsOnce(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100.4", 100},
		{"100.5", 101},
		{"-100.5", -101},
		{"0.004", 0},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.in, err)
		}
		got := FromDecimal(d, "USD")
		if got.Amount != tc.want {
			t.Fatalf("FromDecimal(%s) = %d, want %d", tc.in, got.Amount, tc.want)
		}
	}
}

func TestConvertUsesExplicitRate(t *testing.T) {
	usd := New(10_000, "USD") // $100.00
	rate := decimal.RequireFromString("0.92")
	eur := usd.Convert(rate, "EUR")
	if eur.Currency != "EUR" || eur.Amount != 9_200 {
		t.Fatalf("unexpected conversion %+v", eur)
	}
}

func TestString(t *testing.T) {
	if got := New(19_000, "USD").String(); got != "USD 190.00" {
		t.Fatalf("got %q", got)
	}
	if got := New(-5, "EUR").String(); got != "EUR -0.05" {
		t.Fatalf("got %q", got)
	}
}
