package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	maxTrendMonths       = 120
	maxRecentLimit       = 100
	dashboardTrendMonths = 6
	dashboardRecent      = 10
	dashboardSuggestions = 5
)

// Totals sums the user's ledger over the period. No rows sum to zero.
func (s *Service) Totals(ctx context.Context, userID int64, kind domain.Kind, period domain.Period) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, apperr.Validation("invalid transaction type %q", kind)
	}
	if !period.Valid() {
		return decimal.Zero, apperr.Validation("start date must not be after end date")
	}

	total, err := s.store.SumAmount(ctx, kind, userID, period)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", kind, err)
	}
	return total, nil
}

// BreakdownByCategory maps category labels to their sums over the period.
// Rows without a category are grouped under the Uncategorized label.
func (s *Service) BreakdownByCategory(ctx context.Context, userID int64, kind domain.Kind, period domain.Period) (map[string]decimal.Decimal, error) {
	items, err := s.categoryAmounts(ctx, userID, kind, period)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		breakdown[item.Name] = item.Amount
	}
	return breakdown, nil
}

// categoryAmounts returns the breakdown ordered by amount descending, then name.
func (s *Service) categoryAmounts(ctx context.Context, userID int64, kind domain.Kind, period domain.Period) ([]domain.CategoryAmount, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("invalid transaction type %q", kind)
	}
	if !period.Valid() {
		return nil, apperr.Validation("start date must not be after end date")
	}

	items, err := s.store.SumByCategory(ctx, kind, userID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum %s by category: %w", kind, err)
	}
	return items, nil
}

type TrendPoint struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
}

// MonthlyTrend returns one point per calendar month for the last monthsBack
// months including the current one, oldest first.
func (s *Service) MonthlyTrend(ctx context.Context, userID int64, monthsBack int) ([]TrendPoint, error) {
	if monthsBack < 1 || monthsBack > maxTrendMonths {
		return nil, apperr.Validation("months must be between 1 and %d", maxTrendMonths)
	}

	current := s.currentMonth()
	first := current.From.AddDate(0, -(monthsBack - 1), 0)
	period := domain.Period{From: first, To: current.To}

	income, err := s.monthSums(ctx, domain.KindIncome, userID, period)
	if err != nil {
		return nil, err
	}
	expenses, err := s.monthSums(ctx, domain.KindExpense, userID, period)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, monthsBack)
	for i := 0; i < monthsBack; i++ {
		start := first.AddDate(0, i, 0)
		in, out := income[start], expenses[start]
		points = append(points, TrendPoint{
			Year:     start.Year(),
			Month:    start.Month(),
			Income:   in,
			Expenses: out,
			Savings:  in.Sub(out),
		})
	}
	return points, nil
}

func (s *Service) monthSums(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (map[time.Time]decimal.Decimal, error) {
	buckets, err := s.store.SumByBucket(ctx, kind, userID, period, domain.BucketMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to sum %s by month: %w", kind, err)
	}

	sums := make(map[time.Time]decimal.Decimal, len(buckets))
	for _, b := range buckets {
		sums[domain.BucketMonth.Truncate(b.Start)] = b.Amount
	}
	return sums, nil
}

// RecentTransactions merges the newest expenses and incomes by creation time.
func (s *Service) RecentTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit < 1 || limit > maxRecentLimit {
		return nil, apperr.Validation("limit must be between 1 and %d", maxRecentLimit)
	}

	expenses, err := s.store.RecentTransactions(ctx, domain.KindExpense, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent expenses: %w", err)
	}
	incomes, err := s.store.RecentTransactions(ctx, domain.KindIncome, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent incomes: %w", err)
	}

	merged := make([]*domain.Transaction, 0, len(expenses)+len(incomes))
	merged = append(merged, expenses...)
	merged = append(merged, incomes...)
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID > merged[j].ID
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

const (
	BudgetCritical = "Critical"
	BudgetWarning  = "Warning"
	BudgetCaution  = "Caution"
	BudgetGood     = "Good"
)

var (
	ninety  = decimal.NewFromInt(90)
	eighty  = decimal.NewFromInt(80)
	seventy = decimal.NewFromInt(70)
	twenty  = decimal.NewFromInt(20)
	ten     = decimal.NewFromInt(10)
)

type BudgetAnalysis struct {
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	ExpenseRatio    float64         `json:"expense_ratio"`
	SavingsRate     float64         `json:"savings_rate"`
	Status          string          `json:"budget_status"`
	Recommendations []string        `json:"recommendations"`
}

// BudgetAnalysis rates the current month. Both ratios are zero when there is no income.
func (s *Service) BudgetAnalysis(ctx context.Context, userID int64) (*BudgetAnalysis, error) {
	month := s.currentMonth()

	income, err := s.Totals(ctx, userID, domain.KindIncome, month)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Totals(ctx, userID, domain.KindExpense, month)
	if err != nil {
		return nil, err
	}

	expenseRatio := money.Percent(expenses, income)
	savingsRate := money.Percent(income.Sub(expenses), income)

	return &BudgetAnalysis{
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
		ExpenseRatio:    money.Round(expenseRatio, 2),
		SavingsRate:     money.Round(savingsRate, 2),
		Status:          budgetStatus(expenseRatio),
		Recommendations: budgetRecommendations(expenseRatio, savingsRate),
	}, nil
}

// budgetStatus tiers the unrounded expense ratio.
func budgetStatus(expenseRatio decimal.Decimal) string {
	switch {
	case expenseRatio.GreaterThan(ninety):
		return BudgetCritical
	case expenseRatio.GreaterThan(eighty):
		return BudgetWarning
	case expenseRatio.GreaterThan(seventy):
		return BudgetCaution
	default:
		return BudgetGood
	}
}

func budgetRecommendations(expenseRatio, savingsRate decimal.Decimal) []string {
	switch budgetStatus(expenseRatio) {
	case BudgetCritical:
		return []string{
			"Warning: spending has exceeded 90% of income. Cut expenses immediately.",
			"Review unnecessary expenses and pause large purchases.",
		}
	case BudgetWarning:
		return []string{
			"Warning: spending has exceeded 80% of income. Keep a closer eye on expenses.",
			"Make a priority list for spending and cut what is not important.",
		}
	case BudgetCaution:
		return []string{
			"Note: spending has exceeded 70% of income. Track expenses more carefully.",
			"Aim to save at least 20% of your income every month.",
		}
	}

	recommendations := []string{"Great! You are managing your spending well."}
	switch {
	case savingsRate.GreaterThan(twenty):
		recommendations = append(recommendations, "Your savings rate is excellent. Consider investing your savings.")
	case savingsRate.GreaterThan(ten):
		recommendations = append(recommendations, "Your savings rate is good. Try to raise it to 20% for a solid financial future.")
	default:
		recommendations = append(recommendations, "Try to raise your savings rate to at least 10-20% of income.")
	}
	return recommendations
}

type Dashboard struct {
	TotalIncome        decimal.Decimal            `json:"total_income"`
	TotalExpenses      decimal.Decimal            `json:"total_expenses"`
	NetWorth           decimal.Decimal            `json:"net_worth"`
	MonthlyIncome      decimal.Decimal            `json:"monthly_income"`
	MonthlyExpenses    decimal.Decimal            `json:"monthly_expenses"`
	MonthlySavings     decimal.Decimal            `json:"monthly_savings"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expenses_by_category"`
	IncomeByCategory   map[string]decimal.Decimal `json:"income_by_category"`
	MonthlyTrends      []TrendPoint               `json:"monthly_trends"`
	RecentTransactions []*domain.Transaction      `json:"recent_transactions"`
	Suggestions        []*domain.Suggestion       `json:"ai_suggestions"`
}

// Dashboard gathers the overview page. The reads are independent and run concurrently.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	var (
		d     Dashboard
		month = s.currentMonth()
		all   domain.Period
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalIncome, err = s.Totals(gctx, userID, domain.KindIncome, all)
		return err
	})
	g.Go(func() (err error) {
		d.TotalExpenses, err = s.Totals(gctx, userID, domain.KindExpense, all)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyIncome, err = s.Totals(gctx, userID, domain.KindIncome, month)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyExpenses, err = s.Totals(gctx, userID, domain.KindExpense, month)
		return err
	})
	g.Go(func() (err error) {
		d.ExpensesByCategory, err = s.BreakdownByCategory(gctx, userID, domain.KindExpense, all)
		return err
	})
	g.Go(func() (err error) {
		d.IncomeByCategory, err = s.BreakdownByCategory(gctx, userID, domain.KindIncome, all)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyTrends, err = s.MonthlyTrend(gctx, userID, dashboardTrendMonths)
		return err
	})
	g.Go(func() (err error) {
		d.RecentTransactions, err = s.RecentTransactions(gctx, userID, dashboardRecent)
		return err
	})
	g.Go(func() (err error) {
		d.Suggestions, err = s.Suggestions(gctx, userID, dashboardSuggestions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.NetWorth = d.TotalIncome.Sub(d.TotalExpenses)
	d.MonthlySavings = d.MonthlyIncome.Sub(d.MonthlyExpenses)
	return &d, nil
}
