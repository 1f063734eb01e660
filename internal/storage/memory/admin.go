package memory

import (
	"context"
	"sort"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
)

func (s *Store) CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) (*domain.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[suggestion.UserID]; !ok {
		return nil, apperr.Conflict("user %d does not exist", suggestion.UserID)
	}
	stored := *suggestion
	stored.ID = s.id()
	s.suggestions[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]*domain.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Suggestion
	for _, sg := range s.suggestions {
		if filter.UserID != nil && sg.UserID != *filter.UserID {
			continue
		}
		if !filter.CreatedFrom.IsZero() && sg.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && sg.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		c := *sg
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) CreateEmail(ctx context.Context, email *domain.Email) (*domain.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email.UserID]; !ok {
		return nil, apperr.Conflict("user %d does not exist", email.UserID)
	}
	stored := *email
	stored.ID = s.id()
	s.emails[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) ListEmails(ctx context.Context, userID int64, limit int) ([]*domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Email
	for _, e := range s.emails {
		if e.UserID == userID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SystemCounts counts users created at or after since as new.
func (s *Store) SystemCounts(ctx context.Context, since time.Time) (*domain.SystemCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := &domain.SystemCounts{
		TotalUsers:       int64(len(s.users)),
		TotalExpenses:    int64(len(s.ledgers[domain.KindExpense])),
		TotalIncomes:     int64(len(s.ledgers[domain.KindIncome])),
		TotalCategories:  int64(len(s.categories)),
		TotalSuggestions: int64(len(s.suggestions)),
	}
	for _, u := range s.users {
		if u.Enabled {
			counts.ActiveUsers++
		}
		if !u.CreatedAt.Before(since) {
			counts.NewUsers++
		}
	}
	for _, c := range s.categories {
		if c.IsGlobal() {
			counts.GlobalCategories++
		}
	}
	return counts, nil
}

// RegistrationsByMonth groups users created at or after since by UTC year-month.
// Months without registrations are omitted.
func (s *Store) RegistrationsByMonth(ctx context.Context, since time.Time) ([]domain.MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[time.Time]int64)
	for _, u := range s.users {
		if u.CreatedAt.Before(since) {
			continue
		}
		created := u.CreatedAt.UTC()
		groups[time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}

	out := make([]domain.MonthCount, 0, len(groups))
	for start, n := range groups {
		out = append(out, domain.MonthCount{Year: start.Year(), Month: start.Month(), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
