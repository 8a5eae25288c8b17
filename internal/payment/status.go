package payment

import (
	"errors"
	"fmt"

	"github.com/noah-isme/billing-api/internal/money"
)

// Status is the display status derived for a document. It is classification,
// not stored state: every render re-derives it from the payment record.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusFullyPaid     Status = "fully_paid"
	StatusCredited      Status = "credited"
)

// DocumentKind distinguishes the document types that share this resolver.
type DocumentKind string

const (
	KindInvoice  DocumentKind = "invoice"
	KindEstimate DocumentKind = "estimate"
	KindOrder    DocumentKind = "order"
)

// ErrInvalidStatus is returned when an explicit status is not valid for the
// document kind, e.g. a credited estimate. That combination indicates an
// upstream bug, so it fails loudly instead of being reinterpreted.
var ErrInvalidStatus = errors.New("explicit status not valid for document kind")

// Record is the read-only payment state of a document. Paid is mutated only
// by recording a payment elsewhere; the resolver never writes it.
type Record struct {
	Total    money.Money
	Paid     money.Money
	Explicit Status // zero value when no explicit override is stored
}

// Resolve classifies a payment record into a display status:
//
//   - an explicit Draft always wins, whatever has been paid;
//   - an explicit Credited wins next, for kinds that support crediting;
//   - otherwise zero paid is Unpaid, paid >= total is FullyPaid (overpayment
//     is a business fact, not an error), and anything in between is
//     PartiallyPaid.
func Resolve(kind DocumentKind, rec Record) (Status, error) {
	switch rec.Explicit {
	case StatusDraft:
		return StatusDraft, nil
	case StatusCredited:
		if kind != KindInvoice {
			return "", fmt.Errorf("%s cannot be credited: %w", kind, ErrInvalidStatus)
		}
		return StatusCredited, nil
	case "":
	default:
		return "", fmt.Errorf("%q: %w", rec.Explicit, ErrInvalidStatus)
	}

	paid := rec.Paid
	if paid.Currency == "" {
		paid.Currency = rec.Total.Currency
	}
	if !paid.SameCurrency(rec.Total) {
		return "", fmt.Errorf("paid in %s, total in %s: %w", paid.Currency, rec.Total.Currency, money.ErrCurrencyMismatch)
	}
	if paid.Amount < 0 {
		paid.Amount = 0
	}

	switch {
	case paid.Amount == 0:
		return StatusUnpaid, nil
	case paid.Amount >= rec.Total.Amount:
		return StatusFullyPaid, nil
	default:
		return StatusPartiallyPaid, nil
	}
}
