package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiribu/money-tracker/internal/domain"
	"go.uber.org/zap"
)

type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRepository(db *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SystemCounts counts users created at or after since as new.
func (r *Repository) SystemCounts(ctx context.Context, since time.Time) (*domain.SystemCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE enabled),
			(SELECT COUNT(*) FROM users WHERE created_at >= $1),
			(SELECT COUNT(*) FROM expenses),
			(SELECT COUNT(*) FROM incomes),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM categories WHERE user_id IS NULL),
			(SELECT COUNT(*) FROM ai_suggestions)
	`

	var c domain.SystemCounts
	err := r.db.QueryRow(ctx, query, since).Scan(
		&c.TotalUsers,
		&c.ActiveUsers,
		&c.NewUsers,
		&c.TotalExpenses,
		&c.TotalIncomes,
		&c.TotalCategories,
		&c.GlobalCategories,
		&c.TotalSuggestions,
	)
	if err != nil {
		r.logger.Error("failed to count system records", zap.Error(err))
		return nil, err
	}
	return &c, nil
}

// RegistrationsByMonth groups users created at or after since by UTC year-month.
// Months without registrations are omitted.
func (r *Repository) RegistrationsByMonth(ctx context.Context, since time.Time) ([]domain.MonthCount, error) {
	query := `
		SELECT EXTRACT(YEAR FROM m)::int, EXTRACT(MONTH FROM m)::int, n
		FROM (
			SELECT date_trunc('month', created_at AT TIME ZONE 'UTC') AS m, COUNT(*) AS n
			FROM users
			WHERE created_at >= $1
			GROUP BY 1
		) g
		ORDER BY m
	`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		r.logger.Error("failed to count registrations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []domain.MonthCount
	for rows.Next() {
		var (
			year, month int
			count       int64
		)
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, err
		}
		out = append(out, domain.MonthCount{Year: year, Month: time.Month(month), Count: count})
	}
	return out, rows.Err()
}
