package handler

import (
	"net/http"

	"github.com/kiribu/money-tracker/internal/domain"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
)

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

func (req categoryRequest) input() ledgerservice.CategoryInput {
	return ledgerservice.CategoryInput{
		Name:        req.Name,
		Type:        domain.NormalizeKind(req.Type),
		Description: req.Description,
	}
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var kind domain.Kind
	if t := r.URL.Query().Get("type"); t != "" {
		kind = domain.NormalizeKind(t)
	}

	categories, err := h.ledger.VisibleCategories(r.Context(), principalFrom(r.Context()).UserID, kind)
	if err != nil {
		h.fail(w, r, "list categories", err)
		return
	}
	h.respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) ListGlobalCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.ledger.GlobalCategories(r.Context())
	if err != nil {
		h.fail(w, r, "list global categories", err)
		return
	}
	h.respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "get category", err)
		return
	}

	category, err := h.ledger.GetCategory(r.Context(), principalFrom(r.Context()).UserID, id)
	if err != nil {
		h.fail(w, r, "get category", err)
		return
	}
	h.respondJSON(w, http.StatusOK, category)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "create category", err)
		return
	}

	category, err := h.ledger.CreateCategory(r.Context(), principalFrom(r.Context()).UserID, req.input())
	if err != nil {
		h.fail(w, r, "create category", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "update category", err)
		return
	}
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "update category", err)
		return
	}

	category, err := h.ledger.UpdateCategory(r.Context(), principalFrom(r.Context()).UserID, id, req.input())
	if err != nil {
		h.fail(w, r, "update category", err)
		return
	}
	h.respondJSON(w, http.StatusOK, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "delete category", err)
		return
	}

	if err := h.ledger.DeleteCategory(r.Context(), principalFrom(r.Context()).UserID, id); err != nil {
		h.fail(w, r, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckSetup(w http.ResponseWriter, r *http.Request) {
	status, err := h.ledger.SetupStatus(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "check setup", err)
		return
	}
	h.respondJSON(w, http.StatusOK, status)
}

func (h *Handler) SetupDefaultCategories(w http.ResponseWriter, r *http.Request) {
	created, err := h.ledger.SetupDefaultCategories(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "set up default categories", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *Handler) DefaultCategories(w http.ResponseWriter, r *http.Request) {
	defaults := ledgerservice.DefaultCategories()
	out := make([]map[string]string, len(defaults))
	for i, c := range defaults {
		out[i] = map[string]string{
			"name":        c.Name,
			"type":        string(c.Type),
			"description": c.Description,
		}
	}
	h.respondJSON(w, http.StatusOK, out)
}
