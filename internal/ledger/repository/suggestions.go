package repository

import (
	"context"

	"github.com/kiribu/money-tracker/internal/domain"
	"go.uber.org/zap"
)

func (r *Repository) CreateSuggestion(ctx context.Context, s *domain.Suggestion) (*domain.Suggestion, error) {
	query := `
		INSERT INTO ai_suggestions (user_id, suggestion, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, suggestion, created_at
	`

	var created domain.Suggestion
	err := r.db.QueryRow(ctx, query, s.UserID, s.Text, s.CreatedAt).Scan(
		&created.ID,
		&created.UserID,
		&created.Text,
		&created.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create suggestion", zap.Int64("user_id", s.UserID), zap.Error(err))
		return nil, mapConstraintError(err)
	}
	return &created, nil
}

// ListSuggestions returns suggestions newest first.
func (r *Repository) ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]*domain.Suggestion, error) {
	w := &whereBuilder{}
	if filter.UserID != nil {
		w.add("user_id = ?", *filter.UserID)
	}
	if !filter.CreatedFrom.IsZero() {
		w.add("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		w.add("created_at <= ?", filter.CreatedTo)
	}

	query := `SELECT id, user_id, suggestion, created_at FROM ai_suggestions` + w.sql() +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + w.next(filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("failed to list suggestions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var suggestions []*domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		if err := rows.Scan(&s.ID, &s.UserID, &s.Text, &s.CreatedAt); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

func (r *Repository) CreateEmail(ctx context.Context, e *domain.Email) (*domain.Email, error) {
	query := `
		INSERT INTO emails (user_id, subject, body, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	created := *e
	if err := r.db.QueryRow(ctx, query, e.UserID, e.Subject, e.Body, string(e.Status), e.SentAt, e.CreatedAt).Scan(&created.ID); err != nil {
		r.logger.Error("failed to create email", zap.Int64("user_id", e.UserID), zap.Error(err))
		return nil, mapConstraintError(err)
	}
	return &created, nil
}

// ListEmails returns the user's delivery history, newest first.
func (r *Repository) ListEmails(ctx context.Context, userID int64, limit int) ([]*domain.Email, error) {
	query := `
		SELECT id, user_id, subject, body, status, sent_at, created_at
		FROM emails
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("failed to list emails", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var emails []*domain.Email
	for rows.Next() {
		var (
			e      domain.Email
			status string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Subject, &e.Body, &status, &e.SentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = domain.EmailStatus(status)
		emails = append(emails, &e)
	}
	return emails, rows.Err()
}
