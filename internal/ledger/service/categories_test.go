package service

import (
	"testing"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleCategories(t *testing.T) {
	f := newFixture(t)
	other := f.newUser(t, "other@example.com")

	_, err := f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "Rent", Type: domain.KindExpense})
	require.NoError(t, err)
	_, err = f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "Salary", Type: domain.KindIncome})
	require.NoError(t, err)
	f.category(t, "Books", domain.KindExpense)
	_, err = f.svc.CreateCategory(f.ctx, other.ID, CategoryInput{Name: "Secret", Type: domain.KindExpense})
	require.NoError(t, err)

	categories, err := f.svc.VisibleCategories(f.ctx, f.user.ID, domain.KindExpense)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Rent", categories[0].Name)
	assert.True(t, categories[0].IsGlobal())
	assert.Equal(t, "Books", categories[1].Name)

	all, err := f.svc.VisibleCategories(f.ctx, f.user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.VisibleCategories(f.ctx, f.user.ID, "TRANSFER")
	assert.True(t, apperr.IsValidation(err))
}

func TestIsAssignable(t *testing.T) {
	f := newFixture(t)
	other := f.newUser(t, "other@example.com")

	own := f.category(t, "Food", domain.KindExpense)
	global, err := f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "Bills", Type: domain.KindExpense})
	require.NoError(t, err)
	foreign, err := f.svc.CreateCategory(f.ctx, other.ID, CategoryInput{Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)

	cases := []struct {
		name       string
		categoryID int64
		kind       domain.Kind
		want       bool
	}{
		{"own category", own.ID, domain.KindExpense, true},
		{"global category", global.ID, domain.KindExpense, true},
		{"type mismatch", own.ID, domain.KindIncome, false},
		{"another user's category", foreign.ID, domain.KindExpense, false},
		{"missing category", 9999, domain.KindExpense, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := f.svc.IsAssignable(f.ctx, tc.categoryID, f.user.ID, tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestTransactionRejectsUnassignableCategory(t *testing.T) {
	f := newFixture(t)
	other := f.newUser(t, "other@example.com")
	income := f.category(t, "Salary", domain.KindIncome)
	foreign, err := f.svc.CreateCategory(f.ctx, other.ID, CategoryInput{Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)

	for _, categoryID := range []int64{income.ID, foreign.ID} {
		id := categoryID
		_, err := f.svc.CreateTransaction(f.ctx, f.user.ID, domain.KindExpense, TransactionInput{
			CategoryID: &id,
			Amount:     amount("10"),
		})
		assert.True(t, apperr.IsValidation(err))
	}

	tx := f.add(t, domain.KindExpense, "10", day(2024, 3, 1), nil)
	id := income.ID
	_, err = f.svc.UpdateTransaction(f.ctx, f.user.ID, domain.KindExpense, tx.ID, TransactionInput{
		CategoryID: &id,
		Amount:     amount("10"),
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestCategoryNamesAreUniquePerScope(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", domain.KindExpense)

	_, err := f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: "  fOOD ", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: "Food", Type: domain.KindIncome})
	assert.NoError(t, err)

	travel := f.category(t, "Travel", domain.KindExpense)
	_, err = f.svc.UpdateCategory(f.ctx, f.user.ID, travel.ID, CategoryInput{Name: "food", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	renamed, err := f.svc.UpdateCategory(f.ctx, f.user.ID, travel.ID, CategoryInput{Name: "TRAVEL", Type: "expense"})
	require.NoError(t, err)
	assert.Equal(t, "TRAVEL", renamed.Name)
	assert.Equal(t, domain.KindExpense, renamed.Type)
}

func TestUsersCannotEditGlobalOrForeignCategories(t *testing.T) {
	f := newFixture(t)
	other := f.newUser(t, "other@example.com")
	global, err := f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "Bills", Type: domain.KindExpense})
	require.NoError(t, err)
	foreign, err := f.svc.CreateCategory(f.ctx, other.ID, CategoryInput{Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)

	_, err = f.svc.UpdateCategory(f.ctx, f.user.ID, global.ID, CategoryInput{Name: "Mine", Type: domain.KindExpense})
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(f.svc.DeleteCategory(f.ctx, f.user.ID, global.ID)))

	_, err = f.svc.GetCategory(f.ctx, f.user.ID, foreign.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(f.svc.DeleteCategory(f.ctx, f.user.ID, foreign.ID)))

	got, err := f.svc.GetCategory(f.ctx, f.user.ID, global.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bills", got.Name)

	_, err = f.svc.UpdateGlobalCategory(f.ctx, foreign.ID, CategoryInput{Name: "X", Type: domain.KindExpense})
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteReferencedCategoryIsBlocked(t *testing.T) {
	f := newFixture(t)
	food := f.category(t, "Food", domain.KindExpense)
	tx := f.add(t, domain.KindExpense, "42.10", day(2024, 3, 3), food)

	for i := 0; i < 2; i++ {
		err := f.svc.DeleteCategory(f.ctx, f.user.ID, food.ID)
		assert.True(t, apperr.IsConflict(err))
	}

	still, err := f.svc.GetCategory(f.ctx, f.user.ID, food.ID)
	require.NoError(t, err)
	assert.Equal(t, food.Name, still.Name)

	got, err := f.svc.GetTransaction(f.ctx, f.user.ID, domain.KindExpense, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, food.ID, *got.CategoryID)
	assert.True(t, got.Amount.Equal(amount("42.10")))

	require.NoError(t, f.svc.DeleteTransaction(f.ctx, f.user.ID, domain.KindExpense, tx.ID))
	require.NoError(t, f.svc.DeleteCategory(f.ctx, f.user.ID, food.ID))
}

func TestReferencedCategoryCannotChangeType(t *testing.T) {
	f := newFixture(t)
	food := f.category(t, "Food", domain.KindExpense)
	f.add(t, domain.KindExpense, "1", day(2024, 3, 3), food)

	_, err := f.svc.UpdateCategory(f.ctx, f.user.ID, food.ID, CategoryInput{Name: "Food", Type: domain.KindIncome})
	assert.True(t, apperr.IsConflict(err))
}

func TestGlobalCategoryAdministration(t *testing.T) {
	f := newFixture(t)
	global, err := f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "Bills", Type: domain.KindExpense})
	require.NoError(t, err)

	_, err = f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: "bills", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	// A personal category may reuse a global name.
	f.category(t, "Bills", domain.KindExpense)

	updated, err := f.svc.UpdateGlobalCategory(f.ctx, global.ID, CategoryInput{Name: "Utilities", Type: domain.KindExpense})
	require.NoError(t, err)
	assert.Equal(t, "Utilities", updated.Name)

	f.add(t, domain.KindExpense, "5", day(2024, 3, 3), updated)
	assert.True(t, apperr.IsConflict(f.svc.DeleteGlobalCategory(f.ctx, global.ID)))

	globals, err := f.svc.GlobalCategories(f.ctx)
	require.NoError(t, err)
	assert.Len(t, globals, 1)
}

func TestSetupDefaultCategories(t *testing.T) {
	f := newFixture(t)

	status, err := f.svc.SetupStatus(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, status.HasCategories)

	created, err := f.svc.SetupDefaultCategories(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCategories()), created)

	again, err := f.svc.SetupDefaultCategories(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, again)

	status, err = f.svc.SetupStatus(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, status.HasCategories)
	assert.Equal(t, int64(created), status.CategoryCount)

	incomes, err := f.svc.VisibleCategories(f.ctx, f.user.ID, domain.KindIncome)
	require.NoError(t, err)
	assert.Len(t, incomes, 8)
}

func TestCategoryInputValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: "  ", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: "Food", Type: "SAVINGS"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUncategorizedLabelIsReserved(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: " uncategorized ", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.CreateGlobalCategory(f.ctx, CategoryInput{Name: domain.UncategorizedLabel, Type: domain.KindIncome})
	assert.True(t, apperr.IsValidation(err))

	food, err := f.svc.CreateCategory(f.ctx, f.user.ID, CategoryInput{Name: "Food", Type: domain.KindExpense})
	require.NoError(t, err)
	_, err = f.svc.UpdateCategory(f.ctx, f.user.ID, food.ID, CategoryInput{Name: "UNCATEGORIZED", Type: domain.KindExpense})
	assert.True(t, apperr.IsValidation(err))
}
