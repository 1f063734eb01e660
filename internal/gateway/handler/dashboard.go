package handler

import (
	"net/http"
	"time"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.ledger.Dashboard(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "load dashboard", err)
		return
	}
	h.respondJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 0)
	if err != nil {
		h.fail(w, r, "build monthly report", err)
		return
	}
	month, err := queryInt(r, "month", 0)
	if err != nil {
		h.fail(w, r, "build monthly report", err)
		return
	}

	report, err := h.ledger.MonthlyReport(r.Context(), principalFrom(r.Context()).UserID, year, time.Month(month))
	if err != nil {
		h.fail(w, r, "build monthly report", err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) BudgetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.ledger.BudgetAnalysis(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "analyze budget", err)
		return
	}
	h.respondJSON(w, http.StatusOK, analysis)
}

func (h *Handler) SpendingTrends(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 6)
	if err != nil {
		h.fail(w, r, "load spending trends", err)
		return
	}

	trends, err := h.ledger.SpendingTrends(r.Context(), principalFrom(r.Context()).UserID, months)
	if err != nil {
		h.fail(w, r, "load spending trends", err)
		return
	}
	h.respondJSON(w, http.StatusOK, trends)
}

func (h *Handler) GenerateSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, err := h.ledger.GenerateSuggestion(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, "generate suggestion", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, suggestion)
}
