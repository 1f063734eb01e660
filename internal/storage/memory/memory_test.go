package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &domain.User{
		Email:     email,
		Username:  email,
		Role:      domain.RoleUser,
		Enabled:   true,
		Currency:  domain.DefaultCurrency,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	})
	require.NoError(t, err)
	return u
}

func TestCategoryUniquenessIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")

	_, err := s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)

	_, err = s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "FOOD", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	// Other type and global scope are separate namespaces.
	_, err = s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "food", Type: domain.KindIncome})
	assert.NoError(t, err)
	_, err = s.CreateCategory(ctx, &domain.Category{Name: "food", Type: domain.KindExpense})
	assert.NoError(t, err)
}

func TestListCategoriesPutsGlobalFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")
	other := newUser(t, s, "b@example.com")

	for _, c := range []*domain.Category{
		{UserID: &u.ID, Name: "apples", Type: domain.KindExpense},
		{Name: "Zoo", Type: domain.KindExpense},
		{Name: "Bills", Type: domain.KindExpense},
		{UserID: &other.ID, Name: "Hidden", Type: domain.KindExpense},
		{Name: "Salary", Type: domain.KindIncome},
	} {
		_, err := s.CreateCategory(ctx, c)
		require.NoError(t, err)
	}

	categories, err := s.ListCategories(ctx, u.ID, domain.KindExpense)
	require.NoError(t, err)

	var names []string
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Bills", "Zoo", "apples"}, names)
}

func TestDeleteReferencedCategoryConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")

	c, err := s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, &domain.Transaction{
		UserID: u.ID, Kind: domain.KindExpense, CategoryID: &c.ID,
		Amount: decimal.NewFromInt(10), Date: epoch, CreatedAt: epoch,
	})
	require.NoError(t, err)

	assert.True(t, apperr.IsConflict(s.DeleteCategory(ctx, c.ID)))
	got, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestTransactionsResolveCategoryLabel(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")
	c, err := s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)

	withCategory, err := s.CreateTransaction(ctx, &domain.Transaction{
		UserID: u.ID, Kind: domain.KindExpense, CategoryID: &c.ID,
		Amount: decimal.RequireFromString("12.50"), Date: epoch, CreatedAt: epoch,
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", withCategory.CategoryName)

	without, err := s.CreateTransaction(ctx, &domain.Transaction{
		UserID: u.ID, Kind: domain.KindExpense,
		Amount: decimal.NewFromInt(5), Date: epoch, CreatedAt: epoch,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UncategorizedLabel, without.CategoryName)

	groups, err := s.SumByCategory(ctx, domain.KindExpense, u.ID, domain.Period{})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Food", groups[0].Name)
	assert.True(t, groups[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, domain.UncategorizedLabel, groups[1].Name)
}

func TestGetTransactionHidesOtherUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := newUser(t, s, "a@example.com")
	other := newUser(t, s, "b@example.com")

	tx, err := s.CreateTransaction(ctx, &domain.Transaction{
		UserID: owner.ID, Kind: domain.KindIncome,
		Amount: decimal.NewFromInt(1), Date: epoch, CreatedAt: epoch,
	})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, domain.KindIncome, tx.ID, other.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetTransaction(ctx, domain.KindExpense, tx.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteUserCascadesButRespectsLedger(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")

	_, err := s.CreateCategory(ctx, &domain.Category{UserID: &u.ID, Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)
	_, err = s.CreateSuggestion(ctx, &domain.Suggestion{UserID: u.ID, Text: "hi", CreatedAt: epoch})
	require.NoError(t, err)
	tx, err := s.CreateTransaction(ctx, &domain.Transaction{
		UserID: u.ID, Kind: domain.KindExpense, Amount: decimal.NewFromInt(1), Date: epoch, CreatedAt: epoch,
	})
	require.NoError(t, err)

	assert.True(t, apperr.IsConflict(s.DeleteUser(ctx, u.ID)))

	require.NoError(t, s.DeleteTransaction(ctx, domain.KindExpense, tx.ID, u.ID))
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	n, err := s.CountUserCategories(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	suggestions, err := s.ListSuggestions(ctx, domain.SuggestionFilter{UserID: &u.ID})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSumByBucketOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a@example.com")

	for _, d := range []time.Time{
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC),
	} {
		_, err := s.CreateTransaction(ctx, &domain.Transaction{
			UserID: u.ID, Kind: domain.KindExpense, Amount: decimal.NewFromInt(100), Date: d, CreatedAt: epoch,
		})
		require.NoError(t, err)
	}

	buckets, err := s.SumByBucket(ctx, domain.KindExpense, u.ID, domain.Period{}, domain.BucketMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, time.January, buckets[0].Start.Month())
	assert.Equal(t, int64(2), buckets[1].Count)
	assert.True(t, buckets[1].Amount.Equal(decimal.NewFromInt(200)))
}

func TestRegistrationsByMonth(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, created := range []time.Time{
		time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
	} {
		_, err := s.CreateUser(ctx, &domain.User{
			Email: string(rune('a'+i)) + "@example.com", Enabled: i != 0, CreatedAt: created,
		})
		require.NoError(t, err)
	}

	months, err := s.RegistrationsByMonth(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []domain.MonthCount{{Year: 2024, Month: time.February, Count: 2}}, months)

	counts, err := s.SystemCounts(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.TotalUsers)
	assert.Equal(t, int64(2), counts.ActiveUsers)
	assert.Equal(t, int64(2), counts.NewUsers)
}
