package service

import (
	"testing"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransactionDefaults(t *testing.T) {
	f := newFixture(t)

	tx, err := f.svc.CreateTransaction(f.ctx, f.user.ID, domain.KindIncome, TransactionInput{
		Amount: amount("1500000"),
		Note:   "  march salary ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, tx.Currency)
	assert.Equal(t, day(2024, 3, 15), tx.Date)
	assert.Equal(t, "march salary", tx.Note)
	assert.Equal(t, domain.UncategorizedLabel, tx.Label())
	assert.Equal(t, now, tx.CreatedAt)
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		kind domain.Kind
		in   TransactionInput
	}{
		{"zero amount", domain.KindExpense, TransactionInput{Amount: decimal.Zero}},
		{"negative amount", domain.KindExpense, TransactionInput{Amount: amount("-1")}},
		{"too many decimals", domain.KindExpense, TransactionInput{Amount: amount("1.005")}},
		{"bad currency", domain.KindExpense, TransactionInput{Amount: amount("1"), Currency: "DONG"}},
		{"bad type", "TRANSFER", TransactionInput{Amount: amount("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateTransaction(f.ctx, f.user.ID, tc.kind, tc.in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestTransactionsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	other := f.newUser(t, "other@example.com")
	tx := f.add(t, domain.KindExpense, "10", day(2024, 3, 1), nil)

	_, err := f.svc.GetTransaction(f.ctx, other.ID, domain.KindExpense, tx.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.UpdateTransaction(f.ctx, other.ID, domain.KindExpense, tx.ID, TransactionInput{Amount: amount("1")})
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(f.svc.DeleteTransaction(f.ctx, other.ID, domain.KindExpense, tx.ID)))

	// The id exists only in the expense ledger.
	_, err = f.svc.GetTransaction(f.ctx, f.user.ID, domain.KindIncome, tx.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateTransaction(t *testing.T) {
	f := newFixture(t)
	food := f.category(t, "Food", domain.KindExpense)
	tx := f.add(t, domain.KindExpense, "10", day(2024, 3, 1), nil)

	updated, err := f.svc.UpdateTransaction(f.ctx, f.user.ID, domain.KindExpense, tx.ID, TransactionInput{
		CategoryID: &food.ID,
		Amount:     amount("12.34"),
		Currency:   "usd",
		Date:       day(2024, 3, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", updated.CategoryName)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, day(2024, 3, 2), updated.Date)
	assert.True(t, updated.Amount.Equal(amount("12.34")))
	assert.Equal(t, tx.CreatedAt, updated.CreatedAt)
}

func TestListTransactionsFilters(t *testing.T) {
	f := newFixture(t)
	food := f.category(t, "Food", domain.KindExpense)
	f.add(t, domain.KindExpense, "5", day(2024, 3, 1), food)
	big := f.add(t, domain.KindExpense, "500", day(2024, 3, 2), nil)
	f.clock.Advance(1)
	_, err := f.svc.CreateTransaction(f.ctx, f.user.ID, domain.KindExpense, TransactionInput{
		Amount: amount("50"), Note: "Coffee beans", Date: day(2024, 2, 1),
	})
	require.NoError(t, err)

	all, err := f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, big.ID, all[0].ID)

	march, err := f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{
		Period: domain.MonthPeriod(2024, 3),
	})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	byCategory, err := f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{CategoryID: &food.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Food", byCategory[0].CategoryName)

	min, max := amount("10"), amount("100")
	ranged, err := f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{MinAmount: &min, MaxAmount: &max})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "Coffee beans", ranged[0].Note)

	searched, err := f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{Search: "food"})
	require.NoError(t, err)
	assert.Len(t, searched, 1)

	_, err = f.svc.ListTransactions(f.ctx, f.user.ID, domain.KindExpense, domain.TransactionFilter{MinAmount: &max, MaxAmount: &min})
	assert.True(t, apperr.IsValidation(err))
}
