package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.UserFilter{
		Search: q.Get("search"),
		Role:   domain.Role(q.Get("role")),
	}
	if v := q.Get("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, "list users", apperr.Validation("enabled must be true or false"))
			return
		}
		filter.Enabled = &enabled
	}
	period, err := queryPeriod(r, "created_from", "created_to")
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	filter.CreatedFrom = period.From
	if !period.To.IsZero() {
		filter.CreatedTo = period.To.AddDate(0, 0, 1).Add(-1)
	}

	users, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	h.respondJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	var req struct {
		Username   *string `json:"username" validate:"omitempty,max=100"`
		FullName   *string `json:"full_name" validate:"omitempty,max=200"`
		PictureURL *string `json:"picture_url" validate:"omitempty,max=2048"`
		Role       *string `json:"role"`
		Enabled    *bool   `json:"enabled"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "update user", err)
		return
	}

	update := userservice.AdminUpdate{
		Username:   req.Username,
		FullName:   req.FullName,
		PictureURL: req.PictureURL,
		Enabled:    req.Enabled,
	}
	if req.Role != nil {
		role := domain.Role(strings.ToUpper(strings.TrimSpace(*req.Role)))
		update.Role = &role
	}

	user, err := h.users.UpdateUser(r.Context(), principalFrom(r.Context()).UserID, id, update)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	h.forget(r.Context(), id)
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "delete user", err)
		return
	}

	if err := h.users.DeleteUser(r.Context(), principalFrom(r.Context()).UserID, id); err != nil {
		h.fail(w, r, "delete user", err)
		return
	}
	h.forget(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminCreateGlobalCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "create global category", err)
		return
	}

	category, err := h.ledger.CreateGlobalCategory(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, "create global category", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, category)
}

func (h *Handler) AdminUpdateGlobalCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "update global category", err)
		return
	}
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "update global category", err)
		return
	}

	category, err := h.ledger.UpdateGlobalCategory(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, "update global category", err)
		return
	}
	h.respondJSON(w, http.StatusOK, category)
}

func (h *Handler) AdminDeleteGlobalCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, "delete global category", err)
		return
	}

	if err := h.ledger.DeleteGlobalCategory(r.Context(), id); err != nil {
		h.fail(w, r, "delete global category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminListSuggestions(w http.ResponseWriter, r *http.Request) {
	var filter domain.SuggestionFilter
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || userID <= 0 {
			h.fail(w, r, "list suggestions", apperr.Validation("invalid user_id"))
			return
		}
		filter.UserID = &userID
	}
	period, err := queryPeriod(r, "from", "to")
	if err != nil {
		h.fail(w, r, "list suggestions", err)
		return
	}
	filter.CreatedFrom = period.From
	if !period.To.IsZero() {
		filter.CreatedTo = period.To.AddDate(0, 0, 1).Add(-1)
	}
	if filter.Limit, err = queryInt(r, "limit", 100); err != nil {
		h.fail(w, r, "list suggestions", err)
		return
	}

	suggestions, err := h.admin.ListSuggestions(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list suggestions", err)
		return
	}
	if suggestions == nil {
		suggestions = []*domain.Suggestion{}
	}
	h.respondJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) AdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Statistics(r.Context())
	if err != nil {
		h.fail(w, r, "load statistics", err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}
