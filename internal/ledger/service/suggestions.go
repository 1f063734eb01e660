package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxSuggestionLimit = 100
	tipWindowDays      = 30
	tipTopCategories   = 3
)

var (
	overspendingShare = decimal.RequireFromString("0.9")
	categoryShare     = decimal.NewFromInt(30)
)

const (
	overspendingSentence = "Warning: spending this month has exceeded 90% of your income. Consider cutting unnecessary expenses."
	categorySentence     = "Spending on '%s' makes up %s%% of total expenses. Look for ways to save in this category."
	investSentence       = "Great! You saved %s%% of your income this month. Consider investing this money."
	encourageSentence    = "You saved %s%% of your income. Try to raise your savings rate to 20%% for a better financial future."
	keepTrackingSentence = "Keep tracking your spending and income to get a clear picture of your finances."
)

// GenerateSuggestion applies the advice rules to the current month and stores the
// result as one suggestion. The read and the insert are separate operations.
func (s *Service) GenerateSuggestion(ctx context.Context, userID int64) (*domain.Suggestion, error) {
	month := s.currentMonth()

	income, err := s.Totals(ctx, userID, domain.KindIncome, month)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Totals(ctx, userID, domain.KindExpense, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryAmounts(ctx, userID, domain.KindExpense, month)
	if err != nil {
		return nil, err
	}

	text := strings.Join(adviceSentences(income, expenses, categories), " ")

	suggestion, err := s.store.CreateSuggestion(ctx, &domain.Suggestion{
		UserID:    userID,
		Text:      text,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save suggestion: %w", err)
	}

	s.logger.Info("Generated suggestion", zap.Int64("user_id", userID), zap.Int64("suggestion_id", suggestion.ID))
	return suggestion, nil
}

// adviceSentences evaluates the rules in order; categories must be sorted by
// amount descending.
func adviceSentences(income, expenses decimal.Decimal, categories []domain.CategoryAmount) []string {
	var sentences []string

	if expenses.GreaterThan(income.Mul(overspendingShare)) {
		sentences = append(sentences, overspendingSentence)
	}

	if expenses.IsPositive() {
		for _, c := range categories {
			share := money.Percent(c.Amount, expenses)
			if share.GreaterThan(categoryShare) {
				sentences = append(sentences, fmt.Sprintf(categorySentence, c.Name, share.StringFixed(1)))
			}
		}
	}

	if income.GreaterThan(expenses) {
		rate := money.Percent(income.Sub(expenses), income)
		if rate.GreaterThan(twenty) {
			sentences = append(sentences, fmt.Sprintf(investSentence, rate.StringFixed(1)))
		} else {
			sentences = append(sentences, fmt.Sprintf(encourageSentence, rate.StringFixed(1)))
		}
	}

	if len(sentences) == 0 {
		sentences = append(sentences, keepTrackingSentence)
	}
	return sentences
}

// SavingTips looks at the last 30 days of expenses and points at the largest categories.
func (s *Service) SavingTips(ctx context.Context, userID int64) ([]string, error) {
	window := domain.Period{From: s.today().AddDate(0, 0, -tipWindowDays)}

	categories, err := s.categoryAmounts(ctx, userID, domain.KindExpense, window)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Amount)
	}
	if !total.IsPositive() {
		return []string{"No spending data to analyze yet."}, nil
	}

	if len(categories) > tipTopCategories {
		categories = categories[:tipTopCategories]
	}

	tips := make([]string, 0, len(categories)+2)
	for _, c := range categories {
		share := money.Percent(c.Amount, total)
		tips = append(tips, fmt.Sprintf(
			"Category '%s' accounts for %s%% of your spending over the last 30 days. Consider cutting it by 10-15%%.",
			c.Name, share.StringFixed(1)))
	}
	tips = append(tips,
		"Set a weekly spending limit for your largest category.",
		"Prefer the default categories to keep your statistics easy to follow.",
	)
	return tips, nil
}

type NoteClass string

const (
	NoteFood      NoteClass = "FOOD"
	NoteTransport NoteClass = "TRANSPORT"
	NoteBills     NoteClass = "BILLS"
	NoteOther     NoteClass = "OTHER"
)

var noteKeywords = []struct {
	class    NoteClass
	keywords []string
}{
	{NoteFood, []string{"cà phê", "coffee", "ăn", "food", "lunch", "dinner", "breakfast", "restaurant"}},
	{NoteTransport, []string{"xăng", "grab", "taxi", "bus", "fuel", "parking", "train"}},
	{NoteBills, []string{"điện", "nước", "internet", "wifi", "electricity", "water bill", "phone bill"}},
}

// ClassifyNote guesses a spending class from keywords in a free-text note.
func ClassifyNote(note string) NoteClass {
	n := strings.ToLower(strings.TrimSpace(note))
	if n == "" {
		return NoteOther
	}
	for _, group := range noteKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(n, keyword) {
				return group.class
			}
		}
	}
	return NoteOther
}

// Suggestions lists the user's latest suggestions.
func (s *Service) Suggestions(ctx context.Context, userID int64, limit int) ([]*domain.Suggestion, error) {
	if limit < 1 || limit > maxSuggestionLimit {
		return nil, apperr.Validation("limit must be between 1 and %d", maxSuggestionLimit)
	}

	suggestions, err := s.store.ListSuggestions(ctx, domain.SuggestionFilter{UserID: &userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}
