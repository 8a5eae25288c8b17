package payment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-api/internal/money"
)

func record(total, paid int64) Record {
	return Record{Total: money.New(total, "USD"), Paid: money.New(paid, "USD")}
}

func TestResolveBoundaries(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want Status
	}{
		{"nothing paid", record(50_000, 0), StatusUnpaid},
		{"exactly paid", record(50_000, 50_000), StatusFullyPaid},
		{"one cent short", record(50_000, 49_999), StatusPartiallyPaid},
		{"one cent paid", record(50_000, 1), StatusPartiallyPaid},
		{"overpaid", record(50_000, 60_000), StatusFullyPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(KindInvoice, tc.rec)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDraftAlwaysWins(t *testing.T) {
	rec := record(50_000, 50_000)
	rec.Explicit = StatusDraft
	got, err := Resolve(KindInvoice, rec)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got)

	// kind never matters for drafts
	got, err = Resolve(KindEstimate, rec)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got)
}

func TestResolveCreditedInvoiceOnly(t *testing.T) {
	rec := record(50_000, 0)
	rec.Explicit = StatusCredited

	got, err := Resolve(KindInvoice, rec)
	require.NoError(t, err)
	require.Equal(t, StatusCredited, got)

	_, err = Resolve(KindEstimate, rec)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = Resolve(KindOrder, rec)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestResolveRejectsBogusExplicitStatus(t *testing.T) {
	rec := record(50_000, 0)
	rec.Explicit = Status("archived")
	_, err := Resolve(KindInvoice, rec)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestResolveCurrencyMismatch(t *testing.T) {
	rec := Record{Total: money.New(50_000, "USD"), Paid: money.New(10, "EUR")}
	_, err := Resolve(KindInvoice, rec)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestResolveCoercesMissingPaidCurrency(t *testing.T) {
	rec := Record{Total: money.New(50_000, "USD")}
	got, err := Resolve(KindInvoice, rec)
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, got)
}

func TestResolveNegativePaidCountsAsZero(t *testing.T) {
	got, err := Resolve(KindInvoice, record(50_000, -100))
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, got)
}
