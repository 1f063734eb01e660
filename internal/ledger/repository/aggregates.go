package repository

import (
	"context"
	"fmt"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SumAmount totals the user's ledger over the period. An empty set sums to zero.
func (r *Repository) SumAmount(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (decimal.Decimal, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return decimal.Zero, err
	}

	w := &whereBuilder{}
	w.add("t.user_id = ?", userID)
	w.period("t."+dateColumn, period)

	var total string
	query := `SELECT COALESCE(SUM(t.amount), 0)::text FROM ` + table + ` t` + w.sql()
	if err := r.db.QueryRow(ctx, query, w.args...).Scan(&total); err != nil {
		r.logger.Error("failed to sum amount", zap.String("type", string(kind)), zap.Int64("user_id", userID), zap.Error(err))
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

// SumByCategory groups the period's rows by category label, largest first.
func (r *Repository) SumByCategory(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) ([]domain.CategoryAmount, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	w := &whereBuilder{}
	w.add("t.user_id = ?", userID)
	w.period("t."+dateColumn, period)

	query := fmt.Sprintf(`
		SELECT COALESCE(c.name, '%s') AS label, SUM(t.amount)::text, COUNT(*)
		FROM %s t LEFT JOIN categories c ON c.id = t.category_id`, domain.UncategorizedLabel, table) +
		w.sql() + `
		GROUP BY label
		ORDER BY SUM(t.amount) DESC, label`

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("failed to sum by category", zap.String("type", string(kind)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryAmount
	for rows.Next() {
		var (
			item   domain.CategoryAmount
			amount string
		)
		if err := rows.Scan(&item.Name, &amount, &item.Count); err != nil {
			return nil, err
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// SumByBucket totals the period's rows per day, month or year, oldest bucket first.
// Empty buckets are omitted.
func (r *Repository) SumByBucket(ctx context.Context, kind domain.Kind, userID int64, period domain.Period, bucket domain.Bucket) ([]domain.BucketAmount, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	w := &whereBuilder{}
	w.add("t.user_id = ?", userID)
	w.period("t."+dateColumn, period)
	unit := w.next(string(bucket))

	query := fmt.Sprintf(`
		SELECT date_trunc(%[1]s::text, t.%[2]s)::date AS bucket, SUM(t.amount)::text, COUNT(*)
		FROM %[3]s t`, unit, dateColumn, table) +
		w.sql() + `
		GROUP BY bucket
		ORDER BY bucket`

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("failed to sum by bucket", zap.String("type", string(kind)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.BucketAmount
	for rows.Next() {
		var (
			item   domain.BucketAmount
			amount string
		)
		if err := rows.Scan(&item.Start, &amount, &item.Count); err != nil {
			return nil, err
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		item.Start = domain.DateOf(item.Start)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *Repository) CountTransactions(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (int64, error) {
	table, dateColumn, err := ledgerTable(kind)
	if err != nil {
		return 0, err
	}

	w := &whereBuilder{}
	w.add("t.user_id = ?", userID)
	w.period("t."+dateColumn, period)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` t`+w.sql(), w.args...).Scan(&count); err != nil {
		r.logger.Error("failed to count transactions", zap.String("type", string(kind)), zap.Error(err))
		return 0, err
	}
	return count, nil
}
