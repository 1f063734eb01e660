package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/money"
	"github.com/shopspring/decimal"
)

const maxNoteLength = 1000

// TransactionInput is the editable part of an expense or income. A zero Date
// means today and an empty Currency means the default currency.
type TransactionInput struct {
	CategoryID *int64
	Amount     decimal.Decimal
	Currency   string
	Note       string
	Date       time.Time
}

func (s *Service) validateTransaction(ctx context.Context, userID int64, kind domain.Kind, in *TransactionInput) error {
	if !kind.Valid() {
		return apperr.Validation("invalid transaction type %q", kind)
	}
	if err := money.ValidateAmount(in.Amount); err != nil {
		return err
	}

	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	if len(in.Currency) != 3 {
		return apperr.Validation("currency must be a 3-letter code")
	}

	in.Note = strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(in.Note) > maxNoteLength {
		return apperr.Validation("note must be at most %d characters", maxNoteLength)
	}

	if in.Date.IsZero() {
		in.Date = s.today()
	}
	in.Date = domain.DateOf(in.Date)

	if in.CategoryID != nil {
		ok, err := s.IsAssignable(ctx, *in.CategoryID, userID, kind)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("category %d cannot be used for %s transactions", *in.CategoryID, strings.ToLower(string(kind)))
		}
	}
	return nil
}

func (s *Service) CreateTransaction(ctx context.Context, userID int64, kind domain.Kind, in TransactionInput) (*domain.Transaction, error) {
	if err := s.validateTransaction(ctx, userID, kind, &in); err != nil {
		return nil, err
	}

	tx, err := s.store.CreateTransaction(ctx, &domain.Transaction{
		UserID:     userID,
		Kind:       kind,
		CategoryID: in.CategoryID,
		Amount:     in.Amount,
		Currency:   in.Currency,
		Note:       in.Note,
		Date:       in.Date,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// GetTransaction reports another user's row as missing.
func (s *Service) GetTransaction(ctx context.Context, userID int64, kind domain.Kind, id int64) (*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("invalid transaction type %q", kind)
	}

	tx, err := s.store.GetTransaction(ctx, kind, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, apperr.NotFound(strings.ToLower(string(kind)))
	}
	return tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID int64, kind domain.Kind, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("invalid transaction type %q", kind)
	}
	if !filter.Period.Valid() {
		return nil, apperr.Validation("start date must not be after end date")
	}
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return nil, apperr.Validation("minimum amount must not exceed maximum amount")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	transactions, err := s.store.ListTransactions(ctx, kind, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, userID int64, kind domain.Kind, id int64, in TransactionInput) (*domain.Transaction, error) {
	current, err := s.GetTransaction(ctx, userID, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTransaction(ctx, userID, kind, &in); err != nil {
		return nil, err
	}

	updated := *current
	updated.CategoryID = in.CategoryID
	updated.Amount = in.Amount
	updated.Currency = in.Currency
	updated.Note = in.Note
	updated.Date = in.Date
	if err := s.store.UpdateTransaction(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	// Re-read so the category label reflects the new category.
	return s.GetTransaction(ctx, userID, kind, id)
}

func (s *Service) DeleteTransaction(ctx context.Context, userID int64, kind domain.Kind, id int64) error {
	if _, err := s.GetTransaction(ctx, userID, kind, id); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, kind, id, userID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}
