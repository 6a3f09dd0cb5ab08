package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/api/middleware"
	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/ingest"
	"github.com/dvloznov/spending-patterns/internal/transactions"
)

// maxUploadBytes bounds the size of an uploaded workbook.
const maxUploadBytes = 32 << 20

// TransactionService lists and edits transactions.
type TransactionService interface {
	List(ctx context.Context, q transactions.Query) (transactions.Page, error)
	Modify(ctx context.Context, id int64, u transactions.Update) (domain.Transaction, error)
}

// IngestService converts uploaded workbooks.
type IngestService interface {
	Upload(ctx context.Context, filename string, content []byte) (ingest.Result, error)
}

// TransactionsHandler handles the /transaction and /upload endpoints.
type TransactionsHandler struct {
	svc    TransactionService
	ingest IngestService
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc TransactionService, ingest IngestService, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, ingest: ingest, log: log}
}

// List handles GET /transaction
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := intParam(query, "limit", transactions.DefaultLimit)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	offset, err := intParam(query, "offset", 0)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	isWeekend, err := boolParam(query, "is_weekend")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	earlyMonth, err := boolParam(query, "early_month")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	page, err := h.svc.List(r.Context(), transactions.Query{
		Limit:         limit,
		Offset:        offset,
		Category:      query.Get("category"),
		StartDate:     query.Get("start_date"),
		EndDate:       query.Get("end_date"),
		Merchant:      query.Get("merchant"),
		PaymentMethod: query.Get("payment_method"),
		TimeRange:     query.Get("time_range"),
		IsWeekend:     isWeekend,
		EarlyMonth:    earlyMonth,
	})
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

// Update handles PUT /transaction/{id}
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	var u transactions.Update
	if err := decodeBody(r, &u); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	tx, err := h.svc.Modify(r.Context(), id, u)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Transaction updated",
		"transaction": tx,
	})
}

// Upload handles POST /upload/excel
func (h *TransactionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteDomainError(w, r, h.log, &domain.ValidationError{Field: "file", Message: "expected a multipart form with a file", Err: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, &domain.ValidationError{Field: "file", Message: "is required", Err: err})
		return
	}
	defer file.Close()

	if err := ingest.ValidateFilename(header.Filename); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, &domain.ValidationError{Field: "file", Message: "could not be read", Err: err})
		return
	}

	res, err := h.ingest.Upload(r.Context(), strings.TrimSpace(header.Filename), content)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Workbook uploaded and converted",
		"row_count": res.RowCount,
	})
}
