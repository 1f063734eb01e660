package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kiribu/money-tracker/internal/domain"
	"go.uber.org/zap"
)

const categoryColumns = `id, user_id, name, type, description, created_at`

func scanCategory(row scanner) (*domain.Category, error) {
	var (
		category    domain.Category
		userID      sql.NullInt64
		description sql.NullString
		kind        string
	)
	if err := row.Scan(
		&category.ID,
		&userID,
		&category.Name,
		&kind,
		&description,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		owner := userID.Int64
		category.UserID = &owner
	}
	category.Type = domain.Kind(kind)
	category.Description = description.String
	return &category, nil
}

func (r *Repository) queryCategories(ctx context.Context, query string, args ...any) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ListCategories returns the categories visible to userID: global ones first,
// then by name. An empty kind lists both types.
func (r *Repository) ListCategories(ctx context.Context, userID int64, kind domain.Kind) ([]*domain.Category, error) {
	w := &whereBuilder{}
	w.add("(user_id = ? OR user_id IS NULL)", userID)
	if kind != "" {
		w.add("type = ?", string(kind))
	}

	query := `SELECT ` + categoryColumns + ` FROM categories` + w.sql() + `
		ORDER BY user_id IS NOT NULL, LOWER(name), id`
	return r.queryCategories(ctx, query, w.args...)
}

func (r *Repository) ListGlobalCategories(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id IS NULL
		ORDER BY type, LOWER(name), id
	`
	return r.queryCategories(ctx, query)
}

func (r *Repository) GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	category, err := scanCategory(r.db.QueryRow(ctx, query, categoryID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("failed to get category", zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, err
	}
	return category, nil
}

// FindCategoryByName matches case-insensitively within one owner scope and type.
// A nil owner means the global scope.
func (r *Repository) FindCategoryByName(ctx context.Context, ownerID *int64, kind domain.Kind, name string) (*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id IS NOT DISTINCT FROM $1::bigint AND type = $2 AND LOWER(name) = LOWER($3)
		LIMIT 1
	`

	category, err := scanCategory(r.db.QueryRow(ctx, query, ownerID, string(kind), name))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("failed to find category by name", zap.Error(err))
		return nil, err
	}
	return category, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.db.QueryRow(ctx, query,
		category.UserID,
		category.Name,
		string(category.Type),
		nullString(category.Description),
		category.CreatedAt,
	))
	if err != nil {
		r.logger.Error("failed to create category", zap.Error(err))
		return nil, mapConstraintError(err)
	}
	return created, nil
}

// CreateCategories inserts all categories in one transaction.
func (r *Repository) CreateCategories(ctx context.Context, categories []*domain.Category) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, category := range categories {
			batch.Queue(`
				INSERT INTO categories (user_id, name, type, description, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, category.UserID, category.Name, string(category.Type), nullString(category.Description), category.CreatedAt)
		}

		results := tx.SendBatch(ctx, batch)
		for range categories {
			if _, err := results.Exec(); err != nil {
				results.Close()
				r.logger.Error("failed to create categories", zap.Error(err))
				return mapConstraintError(err)
			}
		}
		return results.Close()
	})
}

func (r *Repository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $1, type = $2, description = $3
		WHERE id = $4
	`

	_, err := r.db.Exec(ctx, query,
		category.Name,
		string(category.Type),
		nullString(category.Description),
		category.ID,
	)
	if err != nil {
		r.logger.Error("failed to update category", zap.Int64("category_id", category.ID), zap.Error(err))
		return mapConstraintError(err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, categoryID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		r.logger.Error("failed to delete category", zap.Int64("category_id", categoryID), zap.Error(err))
		return mapConstraintError(err)
	}
	return nil
}

// CountCategoryReferences counts expenses and incomes pointing at the category.
func (r *Repository) CountCategoryReferences(ctx context.Context, categoryID int64) (int64, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM expenses WHERE category_id = $1)
		     + (SELECT COUNT(*) FROM incomes WHERE category_id = $1)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, categoryID).Scan(&count); err != nil {
		r.logger.Error("failed to count category references", zap.Int64("category_id", categoryID), zap.Error(err))
		return 0, fmt.Errorf("failed to count category references: %w", err)
	}
	return count, nil
}

func (r *Repository) CountUserCategories(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&count); err != nil {
		r.logger.Error("failed to count user categories", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return count, nil
}
