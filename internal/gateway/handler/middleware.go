package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/gateway/cache"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"go.uber.org/zap"
)

type principalKey struct{}

// principal is the authenticated caller.
type principal struct {
	UserID int64
	Role   domain.Role
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticate resolves the bearer token to a principal. Role and enabled
// state come from the user record, so admin changes apply before the token expires.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.tokens.Parse(bearerToken(r))
		if err != nil {
			h.fail(w, r, "authenticate", err)
			return
		}

		identity, err := h.identity(r.Context(), claims.UserID)
		if err != nil {
			h.fail(w, r, "authenticate", err)
			return
		}
		if !identity.Enabled {
			h.fail(w, r, "authenticate", apperr.Forbidden("account is disabled"))
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal{UserID: claims.UserID, Role: identity.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) identity(ctx context.Context, userID int64) (*cache.Identity, error) {
	if h.cache != nil {
		identity, found, err := h.cache.GetIdentity(ctx, userID)
		if err == nil && found {
			return identity, nil
		}
		if err != nil {
			h.logger.Warn("identity cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthenticated("unknown user")
		}
		return nil, err
	}

	identity := cache.Identity{Role: user.Role, Enabled: user.Enabled}
	if h.cache != nil {
		if err := h.cache.SetIdentity(ctx, userID, identity); err != nil {
			h.logger.Warn("identity cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return &identity, nil
}

func (h *Handler) forget(ctx context.Context, userID int64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("identity cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principalFrom(r.Context()).Role != domain.RoleAdmin {
			h.fail(w, r, "authorize", apperr.Forbidden("administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
