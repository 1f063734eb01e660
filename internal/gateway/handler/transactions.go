package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiribu/money-tracker/internal/domain"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/money"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	CategoryID *int64          `json:"category_id" validate:"omitempty,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	Note       string          `json:"note" validate:"max=1000"`
	Date       string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (req transactionRequest) input() (ledgerservice.TransactionInput, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return ledgerservice.TransactionInput{}, err
	}
	return ledgerservice.TransactionInput{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Note:       req.Note,
		Date:       date,
	}, nil
}

// transactionRoutes mounts the same CRUD surface for either ledger.
func (h *Handler) transactionRoutes(kind domain.Kind) func(chi.Router) {
	noun := strings.ToLower(string(kind))
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { h.listTransactions(w, r, kind, noun) })
		r.Post("/", func(w http.ResponseWriter, r *http.Request) { h.createTransaction(w, r, kind, noun) })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { h.getTransaction(w, r, kind, noun) })
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) { h.updateTransaction(w, r, kind, noun) })
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) { h.deleteTransaction(w, r, kind, noun) })
	}
}

func transactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	var filter domain.TransactionFilter
	q := r.URL.Query()

	period, err := queryPeriod(r, "start_date", "end_date")
	if err != nil {
		return filter, err
	}
	filter.Period = period

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, apperr.Validation("invalid category_id")
		}
		filter.CategoryID = &id
	}
	for key, dst := range map[string]**decimal.Decimal{
		"min_amount": &filter.MinAmount,
		"max_amount": &filter.MaxAmount,
	} {
		if v := q.Get(key); v != "" {
			d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
			if err != nil || d.IsNegative() {
				return filter, apperr.Validation("invalid %s", key)
			}
			*dst = &d
		}
	}
	filter.Search = strings.TrimSpace(q.Get("search"))
	return filter, nil
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request, kind domain.Kind, noun string) {
	filter, err := transactionFilter(r)
	if err != nil {
		h.fail(w, r, "list "+noun+"s", err)
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), principalFrom(r.Context()).UserID, kind, filter)
	if err != nil {
		h.fail(w, r, "list "+noun+"s", err)
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        money.Sum(amounts(txs)...),
	})
}

func amounts(txs []*domain.Transaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		out[i] = tx.Amount
	}
	return out
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request, kind domain.Kind, noun string) {
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "create "+noun, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, "create "+noun, err)
		return
	}

	tx, err := h.ledger.CreateTransaction(r.Context(), principalFrom(r.Context()).UserID, kind, in)
	if err != nil {
		h.fail(w, r, "create "+noun, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request, kind domain.Kind, noun string) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "get "+noun, err)
		return
	}

	tx, err := h.ledger.GetTransaction(r.Context(), principalFrom(r.Context()).UserID, kind, id)
	if err != nil {
		h.fail(w, r, "get "+noun, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tx)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request, kind domain.Kind, noun string) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "update "+noun, err)
		return
	}
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "update "+noun, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, "update "+noun, err)
		return
	}

	tx, err := h.ledger.UpdateTransaction(r.Context(), principalFrom(r.Context()).UserID, kind, id, in)
	if err != nil {
		h.fail(w, r, "update "+noun, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tx)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request, kind domain.Kind, noun string) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "delete "+noun, err)
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), principalFrom(r.Context()).UserID, kind, id); err != nil {
		h.fail(w, r, "delete "+noun, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
