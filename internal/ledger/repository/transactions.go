package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// transactionSelect projects a ledger row aliased as t, joined with its category as c.
// The category label is resolved here so callers never see a NULL name.
func transactionSelect(dateColumn string) string {
	return fmt.Sprintf(`
		SELECT t.id, t.user_id, t.category_id, COALESCE(c.name, '%s'), t.amount::text,
		       t.currency, t.note, t.%s, t.created_at`, domain.UncategorizedLabel, dateColumn)
}

func scanTransaction(row scanner, kind domain.Kind) (*domain.Transaction, error) {
	var (
		tx         domain.Transaction
		categoryID sql.NullInt64
		note       sql.NullString
		amount     string
	)
	if err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&categoryID,
		&tx.CategoryName,
		&amount,
		&tx.Currency,
		&note,
		&tx.Date,
		&tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	tx.Amount = parsed
	tx.Kind = kind
	tx.Note = note.String
	tx.Date = domain.DateOf(tx.Date)
	if categoryID.Valid {
		id := categoryID.Int64
		tx.CategoryID = &id
	}
	return &tx, nil
}

func (r *Repository) queryTransactions(ctx context.Context, kind domain.Kind, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query transactions", zap.String("type", string(kind)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows, kind)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	table, dateColumn, err := ledgerTable(tx.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH t AS (
			INSERT INTO %[1]s (user_id, category_id, amount, currency, note, %[2]s, created_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
			RETURNING *
		)`, table, dateColumn) +
		transactionSelect(dateColumn) + `
		FROM t LEFT JOIN categories c ON c.id = t.category_id`

	created, err := scanTransaction(r.db.QueryRow(ctx, query,
		tx.UserID,
		tx.CategoryID,
		tx.Amount.String(),
		tx.Currency,
		nullString(tx.Note),
		domain.DateOf(tx.Date),
		tx.CreatedAt,
	), tx.Kind)
	if err != nil {
		r.logger.Error("failed to create transaction",
			zap.String("type", string(tx.Kind)),
			zap.Int64("user_id", tx.UserID),
			zap.Error(err))
		return nil, mapConstraintError(err)
	}
	return created, nil
}

// GetTransaction returns nil when the row is missing or owned by another user.
func (r *Repository) GetTransaction(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Transaction, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	query := transactionSelect(dateColumn) + `
		FROM ` + table + ` t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1 AND t.user_id = $2`

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id, userID), kind)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("failed to get transaction", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns the user's rows matching filter, newest date first.
func (r *Repository) ListTransactions(ctx context.Context, kind domain.Kind, userID int64, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	w := &whereBuilder{}
	w.add("t.user_id = ?", userID)
	w.period("t."+dateColumn, filter.Period)
	if filter.CategoryID != nil {
		w.add("t.category_id = ?", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		w.add("t.amount >= ?::numeric", filter.MinAmount.String())
	}
	if filter.MaxAmount != nil {
		w.add("t.amount <= ?::numeric", filter.MaxAmount.String())
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		w.add("(t.note ILIKE ? OR c.name ILIKE ?)", pattern, pattern)
	}

	query := transactionSelect(dateColumn) + `
		FROM ` + table + ` t LEFT JOIN categories c ON c.id = t.category_id` +
		w.sql() + `
		ORDER BY t.` + dateColumn + ` DESC, t.id DESC`

	return r.queryTransactions(ctx, kind, query, w.args...)
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	table, dateColumn, err := ledgerTable(tx.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET category_id = $1, amount = $2::numeric, currency = $3, note = $4, %s = $5
		WHERE id = $6 AND user_id = $7
	`, table, dateColumn)

	_, err = r.db.Exec(ctx, query,
		tx.CategoryID,
		tx.Amount.String(),
		tx.Currency,
		nullString(tx.Note),
		domain.DateOf(tx.Date),
		tx.ID,
		tx.UserID,
	)
	if err != nil {
		r.logger.Error("failed to update transaction", zap.Int64("id", tx.ID), zap.Error(err))
		return mapConstraintError(err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, kind domain.Kind, id, userID int64) error {
	table, _, err := ledgerTable(kind)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("failed to delete transaction", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// RecentTransactions returns the user's latest rows by creation time.
func (r *Repository) RecentTransactions(ctx context.Context, kind domain.Kind, userID int64, limit int) ([]*domain.Transaction, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	query := transactionSelect(dateColumn) + `
		FROM ` + table + ` t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`

	return r.queryTransactions(ctx, kind, query, userID, limit)
}
