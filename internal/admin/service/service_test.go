package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/kiribu/money-tracker/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newUser(t *testing.T, store *memory.Store, n int, created time.Time, enabled bool) *domain.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), &domain.User{
		Email:     fmt.Sprintf("user%d@example.com", n),
		Username:  fmt.Sprintf("user%d", n),
		Role:      domain.RoleUser,
		Enabled:   enabled,
		Currency:  domain.DefaultCurrency,
		CreatedAt: created,
		UpdatedAt: created,
	})
	require.NoError(t, err)
	return u
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, store, clock.NewManual(now), zap.NewNop())

	u1 := newUser(t, store, 1, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), true)
	newUser(t, store, 2, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), true)
	newUser(t, store, 3, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), false)
	newUser(t, store, 4, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true)
	newUser(t, store, 5, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), true)

	_, err := store.CreateCategory(ctx, &domain.Category{Name: "Bills", Type: domain.KindExpense, CreatedAt: now})
	require.NoError(t, err)
	for _, kind := range []domain.Kind{domain.KindExpense, domain.KindExpense, domain.KindIncome} {
		_, err := store.CreateTransaction(ctx, &domain.Transaction{
			UserID: u1.ID, Kind: kind, Amount: decimal.NewFromInt(5),
			Currency: domain.DefaultCurrency, Date: now, CreatedAt: now,
		})
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.ActiveUsers)
	assert.Equal(t, int64(2), stats.NewUsers)
	assert.Equal(t, int64(2), stats.TotalExpenses)
	assert.Equal(t, int64(1), stats.TotalIncomes)
	assert.Equal(t, int64(3), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.GlobalCategories)

	assert.Equal(t, []MonthBucket{
		{Month: "2023-10", Count: 1},
		{Month: "2023-11", Count: 0},
		{Month: "2023-12", Count: 0},
		{Month: "2024-01", Count: 1},
		{Month: "2024-02", Count: 0},
		{Month: "2024-03", Count: 2},
	}, stats.Registrations)
}

func TestStatisticsOnEmptySystem(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, clock.NewManual(now), zap.NewNop())

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalUsers)
	require.Len(t, stats.Registrations, HistogramMonths)
	for _, b := range stats.Registrations {
		assert.Zero(t, b.Count)
	}
}

func TestStatisticsUseUTCMonths(t *testing.T) {
	store := memory.New()
	// 01:00 on April 1st in UTC+3 is still March 31st in UTC.
	local := time.Date(2024, 4, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	newUser(t, store, 1, local, true)
	svc := NewService(store, store, clock.NewManual(local), zap.NewNop())

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.NewUsers)
	last := stats.Registrations[HistogramMonths-1]
	assert.Equal(t, MonthBucket{Month: "2024-03", Count: 1}, last)
	assert.Equal(t, domain.MonthOf(local).From.Format("2006-01"), last.Month)
}

func TestFillMonthsAcrossYearBoundary(t *testing.T) {
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	buckets := fillMonths(start, 3, []domain.MonthCount{{Year: 2024, Month: time.January, Count: 7}})

	assert.Equal(t, []MonthBucket{
		{Month: "2023-11"},
		{Month: "2023-12"},
		{Month: "2024-01", Count: 7},
	}, buckets)
}

func TestListSuggestions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, store, clock.NewManual(now), zap.NewNop())
	a := newUser(t, store, 1, now, true)
	b := newUser(t, store, 2, now, true)

	for i, owner := range []*domain.User{a, b, a} {
		_, err := store.CreateSuggestion(ctx, &domain.Suggestion{
			UserID: owner.ID, Text: fmt.Sprintf("tip %d", i), CreatedAt: now.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	all, err := svc.ListSuggestions(ctx, domain.SuggestionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "tip 2", all[0].Text)

	mine, err := svc.ListSuggestions(ctx, domain.SuggestionFilter{UserID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	ranged, err := svc.ListSuggestions(ctx, domain.SuggestionFilter{CreatedFrom: now.Add(30 * time.Minute), CreatedTo: now.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "tip 1", ranged[0].Text)

	_, err = svc.ListSuggestions(ctx, domain.SuggestionFilter{CreatedFrom: now, CreatedTo: now.Add(-time.Hour)})
	assert.True(t, apperr.IsValidation(err))
}
