package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
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

const userColumns = `id, google_id, email, username, full_name, picture_url, locale, currency,
	theme, role, enabled, password_hash, last_login, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user                                                domain.User
		googleID, fullName, picture, locale, theme, passwdH sql.NullString
		role                                                string
	)
	if err := row.Scan(
		&user.ID,
		&googleID,
		&user.Email,
		&user.Username,
		&fullName,
		&picture,
		&locale,
		&user.Currency,
		&theme,
		&role,
		&user.Enabled,
		&passwdH,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.GoogleID = googleID.String
	user.FullName = fullName.String
	user.PictureURL = picture.String
	user.Locale = locale.String
	user.Theme = theme.String
	user.PasswordHash = passwdH.String
	user.Role = domain.Role(role)
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get user", zap.String("by", where), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return r.getUser(ctx, "id = $1", userID)
}

func (r *Repository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, nil
	}
	return r.getUser(ctx, "google_id = $1", googleID)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "LOWER(email) = LOWER($1)", email)
}

func mapUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Validation("a user with the same email or Google account already exists")
		case "23503":
			return apperr.Conflict("user still owns transactions")
		}
	}
	return err
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (google_id, email, username, full_name, picture_url, locale, currency,
		                   theme, role, enabled, password_hash, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		nullString(user.GoogleID),
		user.Email,
		user.Username,
		nullString(user.FullName),
		nullString(user.PictureURL),
		nullString(user.Locale),
		user.Currency,
		nullString(user.Theme),
		string(user.Role),
		user.Enabled,
		nullString(user.PasswordHash),
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	))
	if err != nil {
		r.logger.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, mapUserError(err)
	}
	return created, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET google_id = $1, email = $2, username = $3, full_name = $4, picture_url = $5,
		    locale = $6, currency = $7, theme = $8, role = $9, enabled = $10,
		    password_hash = $11, last_login = $12, updated_at = $13
		WHERE id = $14
	`

	_, err := r.db.Exec(ctx, query,
		nullString(user.GoogleID),
		user.Email,
		user.Username,
		nullString(user.FullName),
		nullString(user.PictureURL),
		nullString(user.Locale),
		user.Currency,
		nullString(user.Theme),
		string(user.Role),
		user.Enabled,
		nullString(user.PasswordHash),
		user.LastLogin,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		r.logger.Error("failed to update user", zap.Int64("user_id", user.ID), zap.Error(err))
		return mapUserError(err)
	}
	return nil
}

// DeleteUser relies on ON DELETE RESTRICT from the ledgers and CASCADE for the rest.
func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		r.logger.Error("failed to delete user", zap.Int64("user_id", userID), zap.Error(err))
		return mapUserError(err)
	}
	return nil
}

func (r *Repository) CountUserTransactions(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM expenses WHERE user_id = $1)
		     + (SELECT COUNT(*) FROM incomes WHERE user_id = $1)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("failed to count user transactions", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// ListUsers returns matching users, newest first.
func (r *Repository) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(args))))
	}

	if filter.Search != "" {
		add("(username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?)", "%"+escapeLike(filter.Search)+"%")
	}
	if filter.Role != "" {
		add("role = ?", string(filter.Role))
	}
	if filter.Enabled != nil {
		add("enabled = ?", *filter.Enabled)
	}
	if !filter.CreatedFrom.IsZero() {
		add("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		add("created_at <= ?", filter.CreatedTo)
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) ListEnabledUsers(ctx context.Context) ([]*domain.User, error) {
	enabled := true
	return r.ListUsers(ctx, domain.UserFilter{Enabled: &enabled})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

