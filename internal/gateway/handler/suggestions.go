package handler

import (
	"net/http"

	"github.com/kiribu/money-tracker/internal/domain"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
)

func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.fail(w, r, "list suggestions", err)
		return
	}

	suggestions, err := h.ledger.Suggestions(r.Context(), principalFrom(r.Context()).UserID, limit)
	if err != nil {
		h.fail(w, r, "list suggestions", err)
		return
	}
	if suggestions == nil {
		suggestions = []*domain.Suggestion{}
	}
	h.respondJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) SavingTips(w http.ResponseWriter, r *http.Request) {
	tips, err := h.ledger.SavingTips(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "build saving tips", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string][]string{"tips": tips})
}

func (h *Handler) ClassifyNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note" validate:"required,max=1000"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "classify note", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"category": string(ledgerservice.ClassifyNote(req.Note))})
}
