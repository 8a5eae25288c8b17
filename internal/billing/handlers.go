package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/noah-isme/billing-api/internal/common"
	"github.com/noah-isme/billing-api/internal/discount"
	"github.com/noah-isme/billing-api/internal/document"
	"github.com/noah-isme/billing-api/internal/money"
	"github.com/noah-isme/billing-api/internal/payment"
	"github.com/noah-isme/billing-api/internal/recurrence"
)

// Handler exposes document computation and persistence over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler builds a Handler with a fresh validator.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// RegisterRoutes mounts the billing endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/documents/preview", h.Preview)
	r.Post("/v1/documents", h.Create)
	r.Get("/v1/documents", h.List)
	r.Get("/v1/documents/{id}", h.Get)
	r.Post("/v1/documents/{id}/payments", h.RecordPayment)
	r.Get("/v1/documents/{id}/occurrences", h.Occurrences)
}

type lineItemPayload struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
}

type discountPayload struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type totalsPayload struct {
	Kind      string            `json:"kind" validate:"omitempty,oneof=invoice estimate order"`
	Currency  string            `json:"currency" validate:"omitempty,len=3"`
	Items     []lineItemPayload `json:"items" validate:"required,min=1,dive"`
	Discount  *discountPayload  `json:"discount"`
	Tax       string            `json:"tax"`
	SecondTax string            `json:"second_tax"`
	TaxTiming string            `json:"tax_timing" validate:"omitempty,oneof=before_discount after_discount"`
}

type createPayload struct {
	totalsPayload
	Number    string            `json:"number" validate:"required,max=64"`
	IssueDate string            `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	Draft     bool              `json:"draft"`
	Recurring *recurringPayload `json:"recurring"`
}

type recurringPayload struct {
	Frequency  string `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	TotalCount int    `json:"total_count" validate:"min=0"`
}

type paymentPayload struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type lineItemResponse struct {
	Description string      `json:"description"`
	Quantity    string      `json:"quantity"`
	UnitPrice   money.Money `json:"unit_price"`
	TaxRate     string      `json:"tax_rate"`
	Subtotal    money.Money `json:"subtotal"`
	Tax         money.Money `json:"tax"`
	Total       money.Money `json:"total"`
}

type totalsResponse struct {
	Totals document.Totals    `json:"totals"`
	Items  []lineItemResponse `json:"items"`

	// Display carries the grand total formatted for the locale requested
	// via ?locale=; omitted when none was asked for.
	Display string `json:"display,omitempty"`
}

type documentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Number    string          `json:"number"`
	Currency  string          `json:"currency"`
	IssueDate string          `json:"issue_date"`
	Status    payment.Status  `json:"status"`
	Totals    document.Totals `json:"totals"`
	Paid      money.Money     `json:"paid"`
	Balance   money.Money     `json:"balance"`
	TaxTiming string          `json:"tax_timing"`
	Recurring *RecurringState `json:"recurring,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Preview runs the calculator on a request body without persisting anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var payload totalsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", validationDetails(err))
		return
	}
	req := totalsRequestFromPayload(payload)
	totals, err := h.Svc.ComputeTotals(req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	resp := totalsResponse{Totals: totals, Items: itemResponses(req.Items)}
	if locale := r.URL.Query().Get("locale"); locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			resp.Display = totals.GrandTotal.Format(tag)
		}
	}
	common.JSON(w, http.StatusOK, resp)
}

// Create persists a new document with freshly computed totals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", validationDetails(err))
		return
	}
	in := CreateInput{
		TotalsRequest: totalsRequestFromPayload(payload.totalsPayload),
		Number:        payload.Number,
		Draft:         payload.Draft,
	}
	if payload.IssueDate != "" {
		issued, err := time.Parse("2006-01-02", payload.IssueDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "issue_date must be YYYY-MM-DD", nil)
			return
		}
		in.IssueDate = issued
	}
	if payload.Recurring != nil {
		in.Recurring = &RecurringInput{
			Frequency:  recurrence.Frequency(payload.Recurring.Frequency),
			TotalCount: payload.Recurring.TotalCount,
		}
	}
	doc, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	status, err := doc.Status()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, docResponse(doc, status))
}

// List returns a page of documents, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	docs, statuses, total, err := h.Svc.List(r.Context(), int32(perPage), int32(offset))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	items := make([]documentResponse, len(docs))
	for i, doc := range docs {
		items[i] = docResponse(doc, statuses[i])
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns a single document with its derived status.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	doc, status, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, docResponse(doc, status))
}

// RecordPayment applies a payment and returns the updated document.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", validationDetails(err))
		return
	}
	doc, status, err := h.Svc.RecordPayment(r.Context(), id, payload.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, docResponse(doc, status))
}

// Occurrences previews the next occurrence dates of a recurring document.
func (h *Handler) Occurrences(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "n must be between 1 and 100", nil)
			return
		}
		n = parsed
	}
	dates, err := h.Svc.Occurrences(r.Context(), id, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	common.JSON(w, http.StatusOK, map[string]any{"occurrences": out})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid document id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func totalsRequestFromPayload(p totalsPayload) TotalsRequest {
	items := make([]document.LineItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = document.LineItem{
			Description: it.Description,
			Quantity:    parseDecimal(it.Quantity),
			UnitPrice:   money.Money{Amount: it.UnitPrice, Currency: p.Currency},
			TaxRate:     parseDecimal(it.TaxRate),
		}
	}
	req := TotalsRequest{
		Kind:      payment.DocumentKind(p.Kind),
		Currency:  p.Currency,
		Items:     items,
		TaxLabel:  p.Tax,
		SecondTax: p.SecondTax,
		TaxTiming: document.TaxTiming(p.TaxTiming),
	}
	if req.Kind == "" {
		req.Kind = payment.KindInvoice
	}
	if p.Discount != nil {
		req.Discount = discount.Spec{
			Kind:  discount.Kind(p.Discount.Kind),
			Value: parseDecimal(p.Discount.Value),
		}
	}
	return req
}

// parseDecimal is lenient the way the calculator is: anything unparsable is
// treated as zero rather than rejected.
func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func itemResponses(items []document.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, it := range items {
		amounts := it.Compute()
		out[i] = lineItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate.String(),
			Subtotal:    amounts.Subtotal,
			Tax:         amounts.Tax,
			Total:       amounts.Total,
		}
	}
	return out
}

func docResponse(doc Document, status payment.Status) documentResponse {
	balance := doc.Totals.GrandTotal
	if doc.Paid.Currency == balance.Currency {
		balance = money.Money{Amount: balance.Amount - doc.Paid.Amount, Currency: balance.Currency}
		if balance.Amount < 0 {
			balance.Amount = 0
		}
	}
	return documentResponse{
		ID:        doc.ID,
		Kind:      string(doc.Kind),
		Number:    doc.Number,
		Currency:  doc.Currency,
		IssueDate: doc.IssueDate.Format("2006-01-02"),
		Status:    status,
		Totals:    doc.Totals,
		Paid:      doc.Paid,
		Balance:   balance,
		TaxTiming: string(doc.TaxTiming),
		Recurring: doc.Recurring,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// writeEngineError maps calculator and store errors to reason codes. Paths
// that reject client input answer 422 so the caller can attach the code to
// the offending field.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "document not found", nil)
	case errors.Is(err, money.ErrCurrencyMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeCurrencyMismatch, "line items and payments must share the document currency", nil)
	case errors.Is(err, discount.ErrUnknownKind):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeUnknownDiscountKind, "discount kind must be percentage or flat", nil)
	case errors.Is(err, document.ErrUnknownTaxTiming):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeUnknownTaxTiming, "tax timing must be before_discount or after_discount", nil)
	case errors.Is(err, recurrence.ErrUnknownFrequency):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeUnknownFrequency, "frequency must be daily, weekly, monthly or yearly", nil)
	case errors.Is(err, payment.ErrInvalidStatus):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidStatus, "explicit status is not valid for this document kind", nil)
	case errors.Is(err, ErrNotRecurring):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "document has no recurring schedule", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
