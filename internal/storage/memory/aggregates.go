package memory

import (
	"context"
	"sort"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// each visits the user's rows dated inside the period.
func (s *Store) each(kind domain.Kind, userID int64, period domain.Period, fn func(*domain.Transaction)) error {
	ledger, err := s.ledger(kind)
	if err != nil {
		return err
	}
	for _, tx := range ledger {
		if tx.UserID == userID && period.Contains(tx.Date) {
			fn(tx)
		}
	}
	return nil
}

func (s *Store) SumAmount(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	err := s.each(kind, userID, period, func(tx *domain.Transaction) {
		total = total.Add(tx.Amount)
	})
	return total, err
}

func (s *Store) SumByCategory(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) ([]domain.CategoryAmount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string]*domain.CategoryAmount)
	err := s.each(kind, userID, period, func(tx *domain.Transaction) {
		label := s.view(tx).Label()
		g, ok := groups[label]
		if !ok {
			g = &domain.CategoryAmount{Name: label, Amount: decimal.Zero}
			groups[label] = g
		}
		g.Amount = g.Amount.Add(tx.Amount)
		g.Count++
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryAmount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) SumByBucket(ctx context.Context, kind domain.Kind, userID int64, period domain.Period, bucket domain.Bucket) ([]domain.BucketAmount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[time.Time]*domain.BucketAmount)
	err := s.each(kind, userID, period, func(tx *domain.Transaction) {
		start := bucket.Truncate(tx.Date)
		g, ok := groups[start]
		if !ok {
			g = &domain.BucketAmount{Start: start, Amount: decimal.Zero}
			groups[start] = g
		}
		g.Amount = g.Amount.Add(tx.Amount)
		g.Count++
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.BucketAmount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.each(kind, userID, period, func(*domain.Transaction) { n++ })
	return n, err
}
