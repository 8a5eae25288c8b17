package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/billing-api/internal/discount"
	"github.com/noah-isme/billing-api/internal/document"
	"github.com/noah-isme/billing-api/internal/money"
	"github.com/noah-isme/billing-api/internal/payment"
	"github.com/noah-isme/billing-api/internal/recurrence"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrNotRecurring is returned when occurrence dates are requested for a
	// one-off document.
	ErrNotRecurring = errors.New("document is not recurring")
)

// Document is a persisted commerce document: an estimate, invoice, or order
// together with its line items, modifiers, and the totals computed from
// them. Totals are stored for listing but are always recomputable from the
// items; the engine, not the row, is the source of truth.
type Document struct {
	ID             uuid.UUID
	Kind           payment.DocumentKind
	Number         string
	Currency       string
	IssueDate      time.Time
	Items          []document.LineItem
	Discount       discount.Spec
	TaxLabel       string
	SecondTaxLabel string
	TaxTiming      document.TaxTiming
	Totals         document.Totals
	Paid           money.Money
	ExplicitStatus payment.Status
	Recurring      *RecurringState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecurringState tracks where a recurring document stands in its cycle.
// Remaining counts occurrences not yet materialized, including the one at
// NextDate; -1 means the cycle is unbounded and 0 means it is exhausted.
type RecurringState struct {
	Frequency recurrence.Frequency `json:"frequency"`
	NextDate  time.Time            `json:"next_date"`
	Remaining int                  `json:"remaining"`
}

// Status derives the display status for the document's current payment
// state.
func (d Document) Status() (payment.Status, error) {
	return payment.Resolve(d.Kind, payment.Record{
		Total:    d.Totals.GrandTotal,
		Paid:     d.Paid,
		Explicit: d.ExplicitStatus,
	})
}
