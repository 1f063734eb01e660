package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

const (
	maxSpendingTrendMonths = 60
	spendingTopCategories  = 5
)

type MonthlyReport struct {
	Year                int                        `json:"year"`
	Month               time.Month                 `json:"month"`
	TotalIncome         decimal.Decimal            `json:"total_income"`
	TotalExpenses       decimal.Decimal            `json:"total_expenses"`
	NetSavings          decimal.Decimal            `json:"net_savings"`
	IncomeByCategory    map[string]decimal.Decimal `json:"income_by_category"`
	ExpensesByCategory  map[string]decimal.Decimal `json:"expenses_by_category"`
	IncomeTransactions  int64                      `json:"income_transactions"`
	ExpenseTransactions int64                      `json:"expense_transactions"`
}

// MonthlyReport summarises one calendar month. Zero year or month default to
// the current one.
func (s *Service) MonthlyReport(ctx context.Context, userID int64, year int, month time.Month) (*MonthlyReport, error) {
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return nil, apperr.Validation("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, apperr.Validation("invalid year %d", year)
	}

	period := domain.MonthPeriod(year, month)
	report := &MonthlyReport{Year: year, Month: month}

	var err error
	if report.TotalIncome, err = s.Totals(ctx, userID, domain.KindIncome, period); err != nil {
		return nil, err
	}
	if report.TotalExpenses, err = s.Totals(ctx, userID, domain.KindExpense, period); err != nil {
		return nil, err
	}
	if report.IncomeByCategory, err = s.BreakdownByCategory(ctx, userID, domain.KindIncome, period); err != nil {
		return nil, err
	}
	if report.ExpensesByCategory, err = s.BreakdownByCategory(ctx, userID, domain.KindExpense, period); err != nil {
		return nil, err
	}
	if report.IncomeTransactions, err = s.store.CountTransactions(ctx, domain.KindIncome, userID, period); err != nil {
		return nil, fmt.Errorf("failed to count incomes: %w", err)
	}
	if report.ExpenseTransactions, err = s.store.CountTransactions(ctx, domain.KindExpense, userID, period); err != nil {
		return nil, fmt.Errorf("failed to count expenses: %w", err)
	}

	report.NetSavings = report.TotalIncome.Sub(report.TotalExpenses)
	return report, nil
}

type SpendingTrend struct {
	Month            string                  `json:"month"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	TransactionCount int64                   `json:"transaction_count"`
	Categories       []domain.CategoryAmount `json:"categories"`
}

// SpendingTrends groups expenses from the same day months ago until today by
// year-month, with the top categories of each month. Months without expenses are omitted.
func (s *Service) SpendingTrends(ctx context.Context, userID int64, months int) ([]SpendingTrend, error) {
	if months < 1 || months > maxSpendingTrendMonths {
		return nil, apperr.Validation("months must be between 1 and %d", maxSpendingTrendMonths)
	}

	today := s.today()
	window := domain.Period{From: today.AddDate(0, -months, 0), To: today}

	buckets, err := s.store.SumByBucket(ctx, domain.KindExpense, userID, window, domain.BucketMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses by month: %w", err)
	}

	trends := make([]SpendingTrend, 0, len(buckets))
	for _, b := range buckets {
		monthPeriod := domain.MonthOf(b.Start)
		if monthPeriod.From.Before(window.From) {
			monthPeriod.From = window.From
		}
		if monthPeriod.To.After(window.To) {
			monthPeriod.To = window.To
		}

		categories, err := s.categoryAmounts(ctx, userID, domain.KindExpense, monthPeriod)
		if err != nil {
			return nil, err
		}
		if len(categories) > spendingTopCategories {
			categories = categories[:spendingTopCategories]
		}

		trends = append(trends, SpendingTrend{
			Month:            b.Start.Format("2006-01"),
			TotalAmount:      b.Amount,
			TransactionCount: b.Count,
			Categories:       categories,
		})
	}
	return trends, nil
}

type PeriodRow struct {
	Label   string          `json:"label"`
	Start   time.Time       `json:"start"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type PeriodReport struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Group        domain.Bucket   `json:"group"`
	Rows         []PeriodRow     `json:"rows"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// bucketLabel formats a bucket start so labels sort chronologically.
func bucketLabel(bucket domain.Bucket, start time.Time) string {
	switch bucket {
	case domain.BucketYear:
		return start.Format("2006")
	case domain.BucketMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// PeriodReport buckets incomes and expenses by day, month or year. Missing
// bounds default to one month ago through today and an empty group means daily.
func (s *Service) PeriodReport(ctx context.Context, userID int64, period domain.Period, group domain.Bucket) (*PeriodReport, error) {
	if group == "" {
		group = domain.BucketDay
	}
	if !group.Valid() {
		return nil, apperr.Validation("group must be day, month or year")
	}

	today := s.today()
	if period.From.IsZero() {
		period.From = today.AddDate(0, -1, 0)
	}
	if period.To.IsZero() {
		period.To = today
	}
	period.From, period.To = domain.DateOf(period.From), domain.DateOf(period.To)
	if !period.Valid() {
		return nil, apperr.Validation("start date must not be after end date")
	}

	incomes, err := s.store.SumByBucket(ctx, domain.KindIncome, userID, period, group)
	if err != nil {
		return nil, fmt.Errorf("failed to sum incomes by %s: %w", group, err)
	}
	expenses, err := s.store.SumByBucket(ctx, domain.KindExpense, userID, period, group)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses by %s: %w", group, err)
	}

	report := &PeriodReport{
		From:         period.From,
		To:           period.To,
		Group:        group,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	rows := make(map[string]*PeriodRow)
	row := func(start time.Time) *PeriodRow {
		label := bucketLabel(group, start)
		r, ok := rows[label]
		if !ok {
			r = &PeriodRow{Label: label, Start: group.Truncate(start), Income: decimal.Zero, Expense: decimal.Zero}
			rows[label] = r
		}
		return r
	}
	for _, b := range incomes {
		r := row(b.Start)
		r.Income = r.Income.Add(b.Amount)
		report.TotalIncome = report.TotalIncome.Add(b.Amount)
	}
	for _, b := range expenses {
		r := row(b.Start)
		r.Expense = r.Expense.Add(b.Amount)
		report.TotalExpense = report.TotalExpense.Add(b.Amount)
	}

	report.Rows = make([]PeriodRow, 0, len(rows))
	for _, r := range rows {
		report.Rows = append(report.Rows, *r)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].Label < report.Rows[j].Label })

	report.Balance = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}
