package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerTable(t *testing.T) {
	table, column, err := ledgerTable(domain.KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "expenses", table)
	assert.Equal(t, "expense_date", column)

	table, column, err = ledgerTable(domain.KindIncome)
	require.NoError(t, err)
	assert.Equal(t, "incomes", table)
	assert.Equal(t, "income_date", column)

	_, _, err = ledgerTable("TRANSFER")
	assert.True(t, apperr.IsValidation(err))
}

func TestWhereBuilder(t *testing.T) {
	w := &whereBuilder{}
	assert.Empty(t, w.sql())

	w.add("t.user_id = ?", int64(7))
	w.period("t.expense_date", domain.Period{
		From: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
	})
	w.add("(t.note ILIKE ? OR c.name ILIKE ?)", "%a%", "%a%")
	limit := w.next(10)

	assert.Equal(t, " WHERE t.user_id = $1 AND t.expense_date >= $2 AND (t.note ILIKE $3 OR c.name ILIKE $4)", w.sql())
	assert.Equal(t, "$5", limit)
	require.Len(t, w.args, 5)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.args[1])
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\`, escapeLike(`50% off_now \`))
}

func TestMapConstraintError(t *testing.T) {
	assert.True(t, apperr.IsConflict(mapConstraintError(&pgconn.PgError{Code: "23503"})))
	assert.True(t, apperr.IsValidation(mapConstraintError(&pgconn.PgError{Code: "23505"})))

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), mapConstraintError(other))
}
