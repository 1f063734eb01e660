package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
)

func (h *Handler) PeriodReport(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "from", "to")
	if err != nil {
		h.fail(w, r, "build report", err)
		return
	}

	report, err := h.ledger.PeriodReport(r.Context(), principalFrom(r.Context()).UserID, period, domain.Bucket(r.URL.Query().Get("group")))
	if err != nil {
		h.fail(w, r, "build report", err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ExportPeriodReport(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "from", "to")
	if err != nil {
		h.fail(w, r, "export report", err)
		return
	}

	data, report, err := h.reports.ExportPeriodReport(r.Context(), principalFrom(r.Context()).UserID, period, domain.Bucket(r.URL.Query().Get("group")))
	if err != nil {
		h.fail(w, r, "export report", err)
		return
	}

	filename := fmt.Sprintf("report_%s_%s.xlsx", report.From.Format("20060102"), report.To.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) SendReportEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  int `json:"year" validate:"omitempty,min=1970,max=9999"`
		Month int `json:"month" validate:"omitempty,min=1,max=12"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "send report email", err)
		return
	}

	email, err := h.reports.SendMonthlyReport(r.Context(), principalFrom(r.Context()).UserID, req.Year, time.Month(req.Month))
	if err != nil {
		h.fail(w, r, "send report email", err)
		return
	}

	status := http.StatusAccepted
	if email.Status == domain.EmailFailed {
		status = http.StatusBadGateway
	}
	h.respondJSON(w, status, email)
}

func (h *Handler) ListReportEmails(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.fail(w, r, "list report emails", err)
		return
	}

	emails, err := h.reports.Emails(r.Context(), principalFrom(r.Context()).UserID, limit)
	if err != nil {
		h.fail(w, r, "list report emails", err)
		return
	}
	if emails == nil {
		emails = []*domain.Email{}
	}
	h.respondJSON(w, http.StatusOK, emails)
}
