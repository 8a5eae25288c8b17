package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-api/internal/discount"
	"github.com/noah-isme/billing-api/internal/document"
	"github.com/noah-isme/billing-api/internal/money"
	"github.com/noah-isme/billing-api/internal/payment"
	"github.com/noah-isme/billing-api/internal/recurrence"
)

// DB is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgStore persists documents in Postgres.
//
// Schema:
//
//	documents(id uuid pk, kind text, number text, currency text,
//	  issue_date timestamptz, discount_kind text, discount_value numeric,
//	  tax_label text, second_tax_label text, tax_timing text,
//	  subtotal bigint, item_tax_total bigint, document_tax_total bigint,
//	  discount_amount bigint, grand_total bigint, paid bigint,
//	  explicit_status text, recurring_frequency text, recurring_next
//	  timestamptz, recurring_remaining int, created_at timestamptz,
//	  updated_at timestamptz)
//
//	document_lines(id uuid pk, document_id uuid fk, position int,
//	  description text, quantity numeric, unit_price bigint, tax_rate numeric)
type PgStore struct {
	DB DB
}

const insertDocumentSQL = `
	INSERT INTO documents (
		id, kind, number, currency, issue_date,
		discount_kind, discount_value, tax_label, second_tax_label, tax_timing,
		subtotal, item_tax_total, document_tax_total, discount_amount, grand_total,
		paid, explicit_status, recurring_frequency, recurring_next, recurring_remaining,
		created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

const insertLineSQL = `
	INSERT INTO document_lines (id, document_id, position, description, quantity, unit_price, tax_rate)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

const selectDocumentSQL = `
	SELECT id, kind, number, currency, issue_date,
		discount_kind, discount_value, tax_label, second_tax_label, tax_timing,
		subtotal, item_tax_total, document_tax_total, discount_amount, grand_total,
		paid, explicit_status, recurring_frequency, recurring_next, recurring_remaining,
		created_at, updated_at
	FROM documents`

// CreateDocument inserts the document header and its lines atomically.
func (s *PgStore) CreateDocument(ctx context.Context, doc *Document) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var recFreq, recNext, recRemaining any
	if doc.Recurring != nil {
		recFreq = string(doc.Recurring.Frequency)
		recNext = doc.Recurring.NextDate
		recRemaining = doc.Recurring.Remaining
	}
	if _, err := tx.Exec(ctx, insertDocumentSQL,
		doc.ID, string(doc.Kind), doc.Number, doc.Currency, doc.IssueDate,
		nullIfEmpty(string(doc.Discount.Kind)), doc.Discount.Value,
		nullIfEmpty(doc.TaxLabel), nullIfEmpty(doc.SecondTaxLabel), string(doc.TaxTiming),
		doc.Totals.Subtotal.Amount, doc.Totals.ItemTaxTotal.Amount,
		doc.Totals.DocumentTaxTotal.Amount, doc.Totals.DiscountAmount.Amount,
		doc.Totals.GrandTotal.Amount,
		doc.Paid.Amount, nullIfEmpty(string(doc.ExplicitStatus)),
		recFreq, recNext, recRemaining,
		doc.CreatedAt, doc.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	for i, it := range doc.Items {
		if _, err := tx.Exec(ctx, insertLineSQL,
			uuid.New(), doc.ID, i, it.Description, it.Quantity, it.UnitPrice.Amount, it.TaxRate,
		); err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

// GetDocument loads one document with its lines.
func (s *PgStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	row := s.DB.QueryRow(ctx, selectDocumentSQL+" WHERE id = $1", id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("select document: %w", err)
	}
	rows, err := s.DB.Query(ctx,
		`SELECT description, quantity, unit_price, tax_rate
		 FROM document_lines WHERE document_id = $1 ORDER BY position`, id)
	if err != nil {
		return Document{}, fmt.Errorf("select lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it        document.LineItem
			unitPrice int64
		)
		if err := rows.Scan(&it.Description, &it.Quantity, &unitPrice, &it.TaxRate); err != nil {
			return Document{}, fmt.Errorf("scan line: %w", err)
		}
		it.UnitPrice = money.New(unitPrice, doc.Currency)
		doc.Items = append(doc.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("iterate lines: %w", err)
	}
	return doc, nil
}

// ListDocuments returns a page of document headers, newest first, plus the
// total count. Lines are not loaded for listings.
func (s *PgStore) ListDocuments(ctx context.Context, limit, offset int32) ([]Document, int64, error) {
	var total int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	rows, err := s.DB.Query(ctx, selectDocumentSQL+" ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, total, nil
}

// AddPayment records an amount against the document and returns the updated
// header. The engine never mutates paid itself; this is the external
// collaborator action it reads back.
func (s *PgStore) AddPayment(ctx context.Context, id uuid.UUID, amount int64) (Document, error) {
	row := s.DB.QueryRow(ctx,
		`UPDATE documents SET paid = paid + $2, updated_at = now() WHERE id = $1
		 RETURNING `+selectColumns(), id, amount)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("add payment: %w", err)
	}
	return doc, nil
}

// ListDueRecurring returns recurring documents whose next occurrence is due
// at asOf and whose cycle is not exhausted.
func (s *PgStore) ListDueRecurring(ctx context.Context, asOf time.Time, limit int32) ([]Document, error) {
	rows, err := s.DB.Query(ctx,
		selectDocumentSQL+` WHERE recurring_next IS NOT NULL
			AND recurring_next <= $1 AND recurring_remaining <> 0
			ORDER BY recurring_next LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("select due recurring: %w", err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due recurring: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due recurring: %w", err)
	}
	return docs, nil
}

// AdvanceRecurring moves a recurring document to its next occurrence date
// and decremented remaining count.
func (s *PgStore) AdvanceRecurring(ctx context.Context, id uuid.UUID, next time.Time, remaining int) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE documents SET recurring_next = $2, recurring_remaining = $3, updated_at = now()
		 WHERE id = $1`, id, next, remaining)
	if err != nil {
		return fmt.Errorf("advance recurring: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// selectColumns returns the column list shared by selectDocumentSQL and the
// RETURNING clauses, keeping scanDocument valid for both.
func selectColumns() string {
	return `id, kind, number, currency, issue_date,
		discount_kind, discount_value, tax_label, second_tax_label, tax_timing,
		subtotal, item_tax_total, document_tax_total, discount_amount, grand_total,
		paid, explicit_status, recurring_frequency, recurring_next, recurring_remaining,
		created_at, updated_at`
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc            Document
		kind           string
		discountKind   *string
		discountValue  decimal.Decimal
		taxLabel       *string
		secondTaxLabel *string
		taxTiming      string
		subtotal       int64
		itemTax        int64
		docTax         int64
		discountAmt    int64
		grandTotal     int64
		paid           int64
		explicitStatus *string
		recFreq        *string
		recNext        *time.Time
		recRemaining   *int
	)
	if err := row.Scan(
		&doc.ID, &kind, &doc.Number, &doc.Currency, &doc.IssueDate,
		&discountKind, &discountValue, &taxLabel, &secondTaxLabel, &taxTiming,
		&subtotal, &itemTax, &docTax, &discountAmt, &grandTotal,
		&paid, &explicitStatus, &recFreq, &recNext, &recRemaining,
		&doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Kind = payment.DocumentKind(kind)
	if discountKind != nil {
		doc.Discount = discount.Spec{Kind: discount.Kind(*discountKind), Value: discountValue}
	}
	if taxLabel != nil {
		doc.TaxLabel = *taxLabel
	}
	if secondTaxLabel != nil {
		doc.SecondTaxLabel = *secondTaxLabel
	}
	doc.TaxTiming = document.TaxTiming(taxTiming)
	doc.Totals = document.Totals{
		Subtotal:         money.New(subtotal, doc.Currency),
		ItemTaxTotal:     money.New(itemTax, doc.Currency),
		DocumentTaxTotal: money.New(docTax, doc.Currency),
		DiscountAmount:   money.New(discountAmt, doc.Currency),
		GrandTotal:       money.New(grandTotal, doc.Currency),
	}
	doc.Paid = money.New(paid, doc.Currency)
	if explicitStatus != nil {
		doc.ExplicitStatus = payment.Status(*explicitStatus)
	}
	if recFreq != nil && recNext != nil {
		remaining := -1
		if recRemaining != nil {
			remaining = *recRemaining
		}
		doc.Recurring = &RecurringState{
			Frequency: recurrence.Frequency(*recFreq),
			NextDate:  *recNext,
			Remaining: remaining,
		}
	}
	return doc, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
