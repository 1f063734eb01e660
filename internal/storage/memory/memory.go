// Package memory is a process-local store with the same contracts as the
// PostgreSQL repositories: missing rows are nil, nil; referenced rows cannot be
// deleted; category names are unique per owner scope, type and case.
package memory

import (
	"context"
	"sync"

	"github.com/kiribu/money-tracker/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	nextID int64

	users       map[int64]*domain.User
	categories  map[int64]*domain.Category
	ledgers     map[domain.Kind]map[int64]*domain.Transaction
	suggestions map[int64]*domain.Suggestion
	emails      map[int64]*domain.Email
}

func New() *Store {
	return &Store{
		users:      make(map[int64]*domain.User),
		categories: make(map[int64]*domain.Category),
		ledgers: map[domain.Kind]map[int64]*domain.Transaction{
			domain.KindExpense: make(map[int64]*domain.Transaction),
			domain.KindIncome:  make(map[int64]*domain.Transaction),
		},
		suggestions: make(map[int64]*domain.Suggestion),
		emails:      make(map[int64]*domain.Email),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// id hands out identifiers from one sequence; callers hold the write lock.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneCategory(c *domain.Category) *domain.Category {
	out := *c
	out.UserID = copyInt64(c.UserID)
	return &out
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		out.LastLogin = &t
	}
	return &out
}
