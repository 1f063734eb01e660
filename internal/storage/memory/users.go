package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
)

func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *Store) findUser(match func(*domain.User) bool) *domain.User {
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if googleID == "" {
		return nil, nil
	}
	return s.findUser(func(u *domain.User) bool { return u.GoogleID == googleID }), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findUser(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (s *Store) checkUser(u *domain.User) error {
	for _, other := range s.users {
		if other.ID == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return apperr.Validation("a record with the same name already exists")
		}
		if u.GoogleID != "" && other.GoogleID == u.GoogleID {
			return apperr.Validation("a record with the same name already exists")
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := cloneUser(user)
	u.ID = 0
	if err := s.checkUser(u); err != nil {
		return nil, err
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return nil
	}
	u := cloneUser(user)
	if err := s.checkUser(u); err != nil {
		return err
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) userTransactions(userID int64) int64 {
	var n int64
	for _, ledger := range s.ledgers {
		for _, tx := range ledger {
			if tx.UserID == userID {
				n++
			}
		}
	}
	return n
}

// DeleteUser removes the user with their categories, suggestions and emails.
// Users that still own transactions are kept.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userTransactions(userID) > 0 {
		return apperr.Conflict("record is still referenced by other records")
	}

	delete(s.users, userID)
	for id, c := range s.categories {
		if c.OwnedBy(userID) {
			delete(s.categories, id)
		}
	}
	for id, sg := range s.suggestions {
		if sg.UserID == userID {
			delete(s.suggestions, id)
		}
	}
	for id, e := range s.emails {
		if e.UserID == userID {
			delete(s.emails, id)
		}
	}
	return nil
}

func (s *Store) CountUserTransactions(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userTransactions(userID), nil
}

func userMatches(u *domain.User, filter domain.UserFilter) bool {
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.Username), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.FullName), term) {
			return false
		}
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Enabled != nil && u.Enabled != *filter.Enabled {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func sortNewestUsers(users []*domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
}

func (s *Store) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.User
	for _, u := range s.users {
		if userMatches(u, filter) {
			out = append(out, cloneUser(u))
		}
	}
	sortNewestUsers(out)
	return out, nil
}

func (s *Store) ListEnabledUsers(ctx context.Context) ([]*domain.User, error) {
	enabled := true
	return s.ListUsers(ctx, domain.UserFilter{Enabled: &enabled})
}
