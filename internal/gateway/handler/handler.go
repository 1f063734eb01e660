package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/kiribu/money-tracker/internal/admin/service"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/gateway/auth"
	"github.com/kiribu/money-tracker/internal/gateway/cache"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/report"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// IdentityCache keeps role and enabled state between requests. It is optional.
type IdentityCache interface {
	GetIdentity(ctx context.Context, userID int64) (*cache.Identity, bool, error)
	SetIdentity(ctx context.Context, userID int64, identity cache.Identity) error
	Invalidate(ctx context.Context, userID int64) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Ledger   *ledgerservice.Service
	Users    *userservice.Service
	Admin    *service.Service
	Reports  *report.Service
	Tokens   *auth.TokenManager
	Verifier auth.Verifier
	Cache    IdentityCache
	Pinger   Pinger
	Logger   *zap.Logger
}

type Handler struct {
	ledger   *ledgerservice.Service
	users    *userservice.Service
	admin    *service.Service
	reports  *report.Service
	tokens   *auth.TokenManager
	verifier auth.Verifier
	cache    IdentityCache
	pinger   Pinger
	validate *validator.Validate
	logger   *zap.Logger
}

func NewHandler(d Deps) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		ledger:   d.Ledger,
		users:    d.Users,
		admin:    d.Admin,
		reports:  d.Reports,
		tokens:   d.Tokens,
		verifier: d.Verifier,
		cache:    d.Cache,
		pinger:   d.Pinger,
		validate: validate,
		logger:   d.Logger,
	}
}

// Router returns the full HTTP surface with its middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/google", h.GoogleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Post("/profile/password", h.SetPassword)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Get("/global", h.ListGlobalCategories)
				r.Get("/{id}", h.GetCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})

			r.Route("/onboarding", func(r chi.Router) {
				r.Get("/check-setup", h.CheckSetup)
				r.Post("/setup-default-categories", h.SetupDefaultCategories)
				r.Get("/default-categories", h.DefaultCategories)
			})

			r.Route("/expenses", h.transactionRoutes(domain.KindExpense))
			r.Route("/incomes", h.transactionRoutes(domain.KindIncome))

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", h.Dashboard)
				r.Get("/monthly-report", h.MonthlyReport)
				r.Get("/budget-analysis", h.BudgetAnalysis)
				r.Get("/spending-trends", h.SpendingTrends)
				r.Post("/generate-ai-suggestion", h.GenerateSuggestion)
			})

			r.Route("/suggestions", func(r chi.Router) {
				r.Get("/", h.ListSuggestions)
				r.Get("/tips", h.SavingTips)
				r.Post("/classify", h.ClassifyNote)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", h.PeriodReport)
				r.Get("/export", h.ExportPeriodReport)
				r.Post("/email", h.SendReportEmail)
				r.Get("/emails", h.ListReportEmails)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.requireAdmin)

				r.Get("/users", h.AdminListUsers)
				r.Get("/users/{id}", h.AdminGetUser)
				r.Put("/users/{id}", h.AdminUpdateUser)
				r.Delete("/users/{id}", h.AdminDeleteUser)
				r.Get("/global-categories", h.ListGlobalCategories)
				r.Post("/global-categories", h.AdminCreateGlobalCategory)
				r.Put("/global-categories/{id}", h.AdminUpdateGlobalCategory)
				r.Delete("/global-categories/{id}", h.AdminDeleteGlobalCategory)
				r.Get("/ai-suggestions", h.AdminListSuggestions)
				r.Get("/statistics", h.AdminStatistics)
			})
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// fail maps err onto a status code. Unclassified errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("failed to "+action,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	} else {
		h.logger.Debug("request rejected",
			zap.String("action", action),
			zap.Int("status", status),
			zap.Error(err))
	}
	h.respondError(w, status, apperr.Message(err))
}

// decode reads a JSON body into dst and runs its validate tags. An empty body
// decodes as the zero value.
func (h *Handler) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation("%s", describe(verrs[0]))
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s", field, fe.Param(), unit)
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	default:
		return field + " is invalid"
	}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be a date in YYYY-MM-DD format", name)
	}
	return t, nil
}

func queryPeriod(r *http.Request, fromKey, toKey string) (domain.Period, error) {
	q := r.URL.Query()
	from, err := parseDate(fromKey, q.Get(fromKey))
	if err != nil {
		return domain.Period{}, err
	}
	to, err := parseDate(toKey, q.Get(toKey))
	if err != nil {
		return domain.Period{}, err
	}
	return domain.Period{From: from, To: to}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return n, nil
}
