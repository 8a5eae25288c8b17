package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-api/internal/discount"
	"github.com/noah-isme/billing-api/internal/document"
	"github.com/noah-isme/billing-api/internal/money"
	"github.com/noah-isme/billing-api/internal/obs"
	"github.com/noah-isme/billing-api/internal/payment"
	"github.com/noah-isme/billing-api/internal/recurrence"
	"github.com/noah-isme/billing-api/internal/tax"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	ListDocuments(ctx context.Context, limit, offset int32) ([]Document, int64, error)
	AddPayment(ctx context.Context, id uuid.UUID, amount int64) (Document, error)
	ListDueRecurring(ctx context.Context, asOf time.Time, limit int32) ([]Document, error)
	AdvanceRecurring(ctx context.Context, id uuid.UUID, next time.Time, remaining int) error
}

// Service wires the computation engine to persistence. Every totals figure
// that leaves this service came out of document.ComputeTotals on an explicit
// snapshot; nothing is patched up by hand afterwards.
type Service struct {
	Store     Store
	Taxes     *tax.Policy
	Currency  string
	BatchSize int32
	Logger    zerolog.Logger
}

// TotalsRequest is a snapshot of one document's billable state. Tax labels
// are resolved against the policy at computation time, never trusted from a
// stored rate.
type TotalsRequest struct {
	Kind      payment.DocumentKind
	Currency  string
	Items     []document.LineItem
	Discount  discount.Spec
	TaxLabel  string
	SecondTax string
	TaxTiming document.TaxTiming
}

// CreateInput is everything needed to persist a document.
type CreateInput struct {
	TotalsRequest
	Number    string
	IssueDate time.Time
	Draft     bool
	Recurring *RecurringInput
}

// RecurringInput configures a recurring cycle at creation time. TotalCount
// bounds the whole cycle including the document being created; zero or
// negative means unbounded.
type RecurringInput struct {
	Frequency  recurrence.Frequency
	TotalCount int
}

// ComputeTotals resolves the request's tax labels and runs the calculator.
func (s *Service) ComputeTotals(req TotalsRequest) (document.Totals, error) {
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = s.Currency
	}
	totals, err := document.ComputeTotals(document.Input{
		Currency: currency,
		Items:    req.Items,
		Discount: req.Discount,
		TaxA:     s.Taxes.Resolve(req.TaxLabel),
		TaxB:     s.Taxes.Resolve(req.SecondTax),
		Timing:   req.TaxTiming,
	})
	if obs.TotalsComputedTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.TotalsComputedTotal.WithLabelValues(string(req.Kind), result).Inc()
	}
	return totals, err
}

// Create computes totals for the snapshot and persists the document. A
// non-draft document starts its life unpaid.
func (s *Service) Create(ctx context.Context, in CreateInput) (Document, error) {
	totals, err := s.ComputeTotals(in.TotalsRequest)
	if err != nil {
		return Document{}, err
	}
	now := time.Now().UTC()
	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	doc := Document{
		ID:             uuid.New(),
		Kind:           in.Kind,
		Number:         in.Number,
		Currency:       totals.GrandTotal.Currency,
		IssueDate:      issueDate,
		Items:          in.Items,
		Discount:       in.Discount,
		TaxLabel:       in.TaxLabel,
		SecondTaxLabel: in.SecondTax,
		TaxTiming:      in.TaxTiming,
		Totals:         totals,
		Paid:           money.Zero(totals.GrandTotal.Currency),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if doc.TaxTiming == "" {
		doc.TaxTiming = document.TaxBeforeDiscount
	}
	if in.Draft {
		doc.ExplicitStatus = payment.StatusDraft
	}
	if in.Recurring != nil {
		next, err := recurrence.Next(in.Recurring.Frequency, issueDate)
		if err != nil {
			return Document{}, err
		}
		remaining := -1
		if in.Recurring.TotalCount > 0 {
			// the document being created is the first occurrence
			remaining = in.Recurring.TotalCount - 1
		}
		doc.Recurring = &RecurringState{
			Frequency: in.Recurring.Frequency,
			NextDate:  next,
			Remaining: remaining,
		}
	}
	if err := s.Store.CreateDocument(ctx, &doc); err != nil {
		return Document{}, err
	}
	if obs.DocumentsCreatedTotal != nil {
		obs.DocumentsCreatedTotal.WithLabelValues(string(doc.Kind)).Inc()
	}
	return doc, nil
}

// Get loads a document and its derived display status.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Document, payment.Status, error) {
	doc, err := s.Store.GetDocument(ctx, id)
	if err != nil {
		return Document{}, "", err
	}
	status, err := doc.Status()
	if err != nil {
		return Document{}, "", err
	}
	return doc, status, nil
}

// List returns a page of documents with their derived statuses.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]Document, []payment.Status, int64, error) {
	docs, total, err := s.Store.ListDocuments(ctx, limit, offset)
	if err != nil {
		return nil, nil, 0, err
	}
	statuses := make([]payment.Status, len(docs))
	for i, doc := range docs {
		status, err := doc.Status()
		if err != nil {
			return nil, nil, 0, err
		}
		statuses[i] = status
	}
	return docs, statuses, total, nil
}

// RecordPayment applies a payment amount and returns the updated document
// with its new status.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount int64) (Document, payment.Status, error) {
	if amount <= 0 {
		return Document{}, "", fmt.Errorf("payment amount must be positive")
	}
	doc, err := s.Store.AddPayment(ctx, id, amount)
	if err != nil {
		return Document{}, "", err
	}
	status, err := doc.Status()
	if err != nil {
		return Document{}, "", err
	}
	return doc, status, nil
}

// Occurrences previews the next n occurrence dates of a recurring document,
// starting at its pending occurrence.
func (s *Service) Occurrences(ctx context.Context, id uuid.UUID, n int) ([]time.Time, error) {
	doc, err := s.Store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Recurring == nil {
		return nil, ErrNotRecurring
	}
	if doc.Recurring.Remaining == 0 {
		// cycle exhausted; TotalCount 0 would mean unbounded
		return nil, nil
	}
	spec := recurrence.Spec{
		Frequency: doc.Recurring.Frequency,
		StartDate: doc.Recurring.NextDate,
	}
	if doc.Recurring.Remaining >= 0 {
		spec.TotalCount = doc.Recurring.Remaining
	}
	return recurrence.UpcomingN(spec, n)
}

// MaterializeDue generates the next instance of every recurring document
// whose occurrence date has arrived, then advances the schedule. Totals are
// recomputed from the stored snapshot rather than copied, so a tax label
// whose rate changed takes effect on the new instance. Returns the number of
// documents created.
func (s *Service) MaterializeDue(ctx context.Context, asOf time.Time) (int, error) {
	batch := s.BatchSize
	if batch <= 0 {
		batch = 100
	}
	due, err := s.Store.ListDueRecurring(ctx, asOf, batch)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, src := range due {
		if err := s.materializeOne(ctx, src); err != nil {
			s.Logger.Error().Err(err).
				Str("document_id", src.ID.String()).
				Msg("materialize recurring document")
			continue
		}
		created++
		if obs.RecurringMaterializedTotal != nil {
			obs.RecurringMaterializedTotal.Inc()
		}
	}
	return created, nil
}

func (s *Service) materializeOne(ctx context.Context, src Document) error {
	rec := src.Recurring
	occurredAt := rec.NextDate
	_, err := s.Create(ctx, CreateInput{
		TotalsRequest: TotalsRequest{
			Kind:      src.Kind,
			Currency:  src.Currency,
			Items:     src.Items,
			Discount:  src.Discount,
			TaxLabel:  src.TaxLabel,
			SecondTax: src.SecondTaxLabel,
			TaxTiming: src.TaxTiming,
		},
		Number:    occurrenceNumber(src.Number, occurredAt),
		IssueDate: occurredAt,
	})
	if err != nil {
		return err
	}
	next, err := recurrence.Next(rec.Frequency, occurredAt)
	if err != nil {
		return err
	}
	remaining := rec.Remaining
	if remaining > 0 {
		remaining--
	}
	return s.Store.AdvanceRecurring(ctx, src.ID, next, remaining)
}

func occurrenceNumber(base string, occurredAt time.Time) string {
	if base == "" {
		return occurredAt.Format("20060102")
	}
	return base + "-" + occurredAt.Format("20060102")
}
