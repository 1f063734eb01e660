package service

import (
	"testing"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReport(t *testing.T) {
	f := newFixture(t)
	food := f.category(t, "Food", domain.KindExpense)
	f.add(t, domain.KindIncome, "2000", day(2024, 2, 1), nil)
	f.add(t, domain.KindExpense, "300.25", day(2024, 2, 14), food)
	f.add(t, domain.KindExpense, "99.75", day(2024, 2, 29), nil)
	f.add(t, domain.KindExpense, "1", day(2024, 3, 1), food)

	report, err := f.svc.MonthlyReport(f.ctx, f.user.ID, 2024, time.February)
	require.NoError(t, err)
	assert.True(t, report.TotalIncome.Equal(amount("2000")))
	assert.True(t, report.TotalExpenses.Equal(amount("400")))
	assert.True(t, report.NetSavings.Equal(amount("1600")))
	assert.True(t, report.ExpensesByCategory["Food"].Equal(amount("300.25")))
	assert.True(t, report.ExpensesByCategory[domain.UncategorizedLabel].Equal(amount("99.75")))
	assert.Equal(t, int64(1), report.IncomeTransactions)
	assert.Equal(t, int64(2), report.ExpenseTransactions)

	current, err := f.svc.MonthlyReport(f.ctx, f.user.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2024, current.Year)
	assert.Equal(t, time.March, current.Month)
	assert.Equal(t, int64(1), current.ExpenseTransactions)

	_, err = f.svc.MonthlyReport(f.ctx, f.user.ID, 2024, 13)
	assert.True(t, apperr.IsValidation(err))
}

func TestSpendingTrends(t *testing.T) {
	f := newFixture(t)
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, name := range names {
		c := f.category(t, name, domain.KindExpense)
		f.add(t, domain.KindExpense, "10", day(2024, 3, i+1), c)
		if i == 0 {
			f.add(t, domain.KindExpense, "100", day(2024, 3, 1), c)
		}
	}
	f.add(t, domain.KindExpense, "7", day(2024, 1, 20), nil)
	f.add(t, domain.KindExpense, "1000", day(2023, 9, 1), nil)

	trends, err := f.svc.SpendingTrends(f.ctx, f.user.ID, 6)
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "2024-01", trends[0].Month)
	assert.True(t, trends[0].TotalAmount.Equal(amount("7")))

	march := trends[1]
	assert.Equal(t, "2024-03", march.Month)
	assert.Equal(t, int64(7), march.TransactionCount)
	assert.True(t, march.TotalAmount.Equal(amount("160")))
	require.Len(t, march.Categories, 5)
	assert.Equal(t, "A", march.Categories[0].Name)
	assert.True(t, march.Categories[0].Amount.Equal(amount("110")))
}

func TestPeriodReport(t *testing.T) {
	f := newFixture(t)
	f.add(t, domain.KindIncome, "100", day(2024, 2, 20), nil)
	f.add(t, domain.KindExpense, "30", day(2024, 2, 20), nil)
	f.add(t, domain.KindExpense, "20", day(2024, 3, 15), nil)
	f.add(t, domain.KindExpense, "5", day(2024, 2, 14), nil)

	daily, err := f.svc.PeriodReport(f.ctx, f.user.ID, domain.Period{}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketDay, daily.Group)
	assert.Equal(t, day(2024, 2, 15), daily.From)
	assert.Equal(t, day(2024, 3, 15), daily.To)
	require.Len(t, daily.Rows, 2)
	assert.Equal(t, "2024-02-20", daily.Rows[0].Label)
	assert.True(t, daily.Rows[0].Income.Equal(amount("100")))
	assert.True(t, daily.Rows[0].Expense.Equal(amount("30")))
	assert.True(t, daily.Balance.Equal(amount("50")))

	monthly, err := f.svc.PeriodReport(f.ctx, f.user.ID, domain.Period{From: day(2024, 1, 1), To: day(2024, 12, 31)}, domain.BucketMonth)
	require.NoError(t, err)
	require.Len(t, monthly.Rows, 2)
	assert.Equal(t, "2024-02", monthly.Rows[0].Label)
	assert.True(t, monthly.Rows[0].Expense.Equal(amount("35")))
	assert.True(t, monthly.TotalExpense.Equal(amount("55")))

	_, err = f.svc.PeriodReport(f.ctx, f.user.ID, domain.Period{}, "week")
	assert.True(t, apperr.IsValidation(err))
}
