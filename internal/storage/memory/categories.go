package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
)

func sameOwner(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) sortedCategories(keep func(*domain.Category) bool, less func(a, b *domain.Category) bool) []*domain.Category {
	var out []*domain.Category
	for _, c := range s.categories {
		if keep(c) {
			out = append(out, cloneCategory(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byName(a, b *domain.Category) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

func (s *Store) ListCategories(ctx context.Context, userID int64, kind domain.Kind) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCategories(
		func(c *domain.Category) bool {
			return c.VisibleTo(userID) && (kind == "" || c.Type == kind)
		},
		func(a, b *domain.Category) bool {
			if a.IsGlobal() != b.IsGlobal() {
				return a.IsGlobal()
			}
			return byName(a, b)
		},
	), nil
}

func (s *Store) ListGlobalCategories(ctx context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCategories(
		func(c *domain.Category) bool { return c.IsGlobal() },
		func(a, b *domain.Category) bool {
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			return byName(a, b)
		},
	), nil
}

func (s *Store) GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return nil, nil
	}
	return cloneCategory(c), nil
}

func (s *Store) findCategory(ownerID *int64, kind domain.Kind, name string) *domain.Category {
	for _, c := range s.categories {
		if sameOwner(c.UserID, ownerID) && c.Type == kind && strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (s *Store) FindCategoryByName(ctx context.Context, ownerID *int64, kind domain.Kind, name string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c := s.findCategory(ownerID, kind, name); c != nil {
		return cloneCategory(c), nil
	}
	return nil, nil
}

// checkCategory enforces the owner reference and the name uniqueness.
func (s *Store) checkCategory(c *domain.Category) error {
	if c.UserID != nil {
		if _, ok := s.users[*c.UserID]; !ok {
			return apperr.Conflict("user %d does not exist", *c.UserID)
		}
	}
	if existing := s.findCategory(c.UserID, c.Type, c.Name); existing != nil && existing.ID != c.ID {
		return apperr.Validation("a record with the same name already exists")
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneCategory(category)
	c.ID = 0
	if err := s.checkCategory(c); err != nil {
		return nil, err
	}
	c.ID = s.id()
	s.categories[c.ID] = c
	return cloneCategory(c), nil
}

// CreateCategories inserts all or nothing.
func (s *Store) CreateCategories(ctx context.Context, categories []*domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []int64
	for _, category := range categories {
		c := cloneCategory(category)
		c.ID = 0
		if err := s.checkCategory(c); err != nil {
			for _, id := range added {
				delete(s.categories, id)
			}
			return err
		}
		c.ID = s.id()
		s.categories[c.ID] = c
		added = append(added, c.ID)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.categories[category.ID]
	if !ok {
		return nil
	}
	c := cloneCategory(current)
	c.Name = category.Name
	c.Type = category.Type
	c.Description = category.Description
	if err := s.checkCategory(c); err != nil {
		return err
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) categoryReferences(categoryID int64) int64 {
	var n int64
	for _, ledger := range s.ledgers {
		for _, tx := range ledger {
			if tx.CategoryID != nil && *tx.CategoryID == categoryID {
				n++
			}
		}
	}
	return n
}

func (s *Store) DeleteCategory(ctx context.Context, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryReferences(categoryID) > 0 {
		return apperr.Conflict("record is still referenced by other records")
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *Store) CountCategoryReferences(ctx context.Context, categoryID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.categoryReferences(categoryID), nil
}

func (s *Store) CountUserCategories(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.categories {
		if c.OwnedBy(userID) {
			n++
		}
	}
	return n, nil
}
