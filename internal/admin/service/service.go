package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"go.uber.org/zap"
)

// HistogramMonths is the number of calendar months in the registration histogram,
// the current month included.
const HistogramMonths = 6

type CountStore interface {
	SystemCounts(ctx context.Context, since time.Time) (*domain.SystemCounts, error)
	RegistrationsByMonth(ctx context.Context, since time.Time) ([]domain.MonthCount, error)
}

type SuggestionStore interface {
	ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]*domain.Suggestion, error)
}

type Service struct {
	counts      CountStore
	suggestions SuggestionStore
	clock       clock.Clock
	logger      *zap.Logger
}

func NewService(counts CountStore, suggestions SuggestionStore, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		counts:      counts,
		suggestions: suggestions,
		clock:       clk,
		logger:      logger,
	}
}

type MonthBucket struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type Statistics struct {
	domain.SystemCounts
	TotalTransactions int64         `json:"total_transactions"`
	Registrations     []MonthBucket `json:"user_registrations"`
}

func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	monthStart := domain.MonthOf(s.clock.Now()).From
	histogramStart := monthStart.AddDate(0, -(HistogramMonths - 1), 0)

	counts, err := s.counts.SystemCounts(ctx, monthStart)
	if err != nil {
		s.logger.Error("failed to load system counts", zap.Error(err))
		return nil, fmt.Errorf("failed to load system counts: %w", err)
	}
	registrations, err := s.counts.RegistrationsByMonth(ctx, histogramStart)
	if err != nil {
		s.logger.Error("failed to load registrations", zap.Error(err))
		return nil, fmt.Errorf("failed to load registrations: %w", err)
	}

	return &Statistics{
		SystemCounts:      *counts,
		TotalTransactions: counts.TotalExpenses + counts.TotalIncomes,
		Registrations:     fillMonths(histogramStart, HistogramMonths, registrations),
	}, nil
}

// fillMonths lays counts onto n consecutive months starting at start, zero where absent.
func fillMonths(start time.Time, n int, counts []domain.MonthCount) []MonthBucket {
	index := make(map[string]int64, len(counts))
	for _, c := range counts {
		index[fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))] += c.Count
	}

	buckets := make([]MonthBucket, n)
	for i := range buckets {
		label := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthBucket{Month: label, Count: index[label]}
	}
	return buckets
}

func (s *Service) ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]*domain.Suggestion, error) {
	if !filter.CreatedFrom.IsZero() && !filter.CreatedTo.IsZero() && filter.CreatedFrom.After(filter.CreatedTo) {
		return nil, apperr.Validation("created range is reversed")
	}
	if filter.Limit < 0 || filter.Limit > 1000 {
		return nil, apperr.Validation("limit must be between 1 and 1000")
	}

	suggestions, err := s.suggestions.ListSuggestions(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list suggestions", zap.Error(err))
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}
