package handler

import (
	"net/http"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
	"go.uber.org/zap"
)

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential" validate:"required"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "log in", err)
		return
	}

	identity, err := h.verifier.Verify(r.Context(), req.Credential)
	if err != nil {
		h.fail(w, r, "verify credential", err)
		return
	}

	user, err := h.users.Login(r.Context(), *identity)
	if err != nil {
		h.fail(w, r, "log in", err)
		return
	}

	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		h.fail(w, r, "issue token", err)
		return
	}
	h.forget(r.Context(), user.ID)

	h.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	h.respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "get profile", err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username *string `json:"username" validate:"omitempty,max=100"`
		FullName *string `json:"full_name" validate:"omitempty,max=200"`
		Locale   *string `json:"locale" validate:"omitempty,max=20"`
		Currency *string `json:"currency" validate:"omitempty,len=3"`
		Theme    *string `json:"theme" validate:"omitempty,max=20"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "update profile", err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), principalFrom(r.Context()).UserID, userservice.ProfileInput{
		Username: req.Username,
		FullName: req.FullName,
		Locale:   req.Locale,
		Currency: req.Currency,
		Theme:    req.Theme,
	})
	if err != nil {
		h.fail(w, r, "update profile", err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "set password", err)
		return
	}

	if err := h.users.SetPassword(r.Context(), principalFrom(r.Context()).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, "set password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
