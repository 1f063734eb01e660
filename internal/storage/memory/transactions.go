package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
)

func (s *Store) ledger(kind domain.Kind) (map[int64]*domain.Transaction, error) {
	ledger, ok := s.ledgers[kind]
	if !ok {
		return nil, apperr.Validation("invalid transaction type %q", kind)
	}
	return ledger, nil
}

// view copies a stored row and resolves its category label like the SQL join does.
func (s *Store) view(tx *domain.Transaction) *domain.Transaction {
	out := *tx
	out.CategoryID = copyInt64(tx.CategoryID)
	out.CategoryName = domain.UncategorizedLabel
	if tx.CategoryID != nil {
		if c, ok := s.categories[*tx.CategoryID]; ok {
			out.CategoryName = c.Name
		}
	}
	return &out
}

func (s *Store) checkTransaction(tx *domain.Transaction) error {
	if _, ok := s.users[tx.UserID]; !ok {
		return apperr.Conflict("user %d does not exist", tx.UserID)
	}
	if tx.CategoryID != nil {
		if _, ok := s.categories[*tx.CategoryID]; !ok {
			return apperr.Conflict("category %d does not exist", *tx.CategoryID)
		}
	}
	if !tx.Amount.IsPositive() {
		return apperr.Validation("value violates constraint amount_check")
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.ledger(tx.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransaction(tx); err != nil {
		return nil, err
	}

	stored := *tx
	stored.ID = s.id()
	stored.CategoryID = copyInt64(tx.CategoryID)
	stored.Date = domain.DateOf(tx.Date)
	stored.CategoryName = ""
	ledger[stored.ID] = &stored
	return s.view(&stored), nil
}

func (s *Store) GetTransaction(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}
	tx, ok := ledger[id]
	if !ok || tx.UserID != userID {
		return nil, nil
	}
	return s.view(tx), nil
}

func (s *Store) matches(tx *domain.Transaction, filter domain.TransactionFilter) bool {
	if !filter.Period.Contains(tx.Date) {
		return false
	}
	if filter.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filter.CategoryID) {
		return false
	}
	if filter.MinAmount != nil && tx.Amount.LessThan(*filter.MinAmount) {
		return false
	}
	if filter.MaxAmount != nil && tx.Amount.GreaterThan(*filter.MaxAmount) {
		return false
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		inNote := strings.Contains(strings.ToLower(tx.Note), term)
		inCategory := false
		if tx.CategoryID != nil {
			if c, ok := s.categories[*tx.CategoryID]; ok {
				inCategory = strings.Contains(strings.ToLower(c.Name), term)
			}
		}
		if !inNote && !inCategory {
			return false
		}
	}
	return true
}

func (s *Store) ListTransactions(ctx context.Context, kind domain.Kind, userID int64, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}

	var out []*domain.Transaction
	for _, tx := range ledger {
		if tx.UserID == userID && s.matches(tx, filter) {
			out = append(out, s.view(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.ledger(tx.Kind)
	if err != nil {
		return err
	}
	current, ok := ledger[tx.ID]
	if !ok || current.UserID != tx.UserID {
		return nil
	}
	if err := s.checkTransaction(tx); err != nil {
		return err
	}

	current.CategoryID = copyInt64(tx.CategoryID)
	current.Amount = tx.Amount
	current.Currency = tx.Currency
	current.Note = tx.Note
	current.Date = domain.DateOf(tx.Date)
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, kind domain.Kind, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.ledger(kind)
	if err != nil {
		return err
	}
	if tx, ok := ledger[id]; ok && tx.UserID == userID {
		delete(ledger, id)
	}
	return nil
}

func (s *Store) RecentTransactions(ctx context.Context, kind domain.Kind, userID int64, limit int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}

	var out []*domain.Transaction
	for _, tx := range ledger {
		if tx.UserID == userID {
			out = append(out, s.view(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
