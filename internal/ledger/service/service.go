package service

import (
	"context"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CategoryStore persists categories. Lookups return nil, nil when nothing matches.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID int64, kind domain.Kind) ([]*domain.Category, error)
	ListGlobalCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error)
	FindCategoryByName(ctx context.Context, ownerID *int64, kind domain.Kind, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	CreateCategories(ctx context.Context, categories []*domain.Category) error
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, categoryID int64) error
	CountCategoryReferences(ctx context.Context, categoryID int64) (int64, error)
	CountUserCategories(ctx context.Context, userID int64) (int64, error)
}

// TransactionStore persists both ledgers. Rows are always scoped to their owner.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, kind domain.Kind, userID int64, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, kind domain.Kind, id, userID int64) error
	RecentTransactions(ctx context.Context, kind domain.Kind, userID int64, limit int) ([]*domain.Transaction, error)
}

// AggregateStore answers sums over one user's ledger.
type AggregateStore interface {
	SumAmount(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (decimal.Decimal, error)
	SumByCategory(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) ([]domain.CategoryAmount, error)
	SumByBucket(ctx context.Context, kind domain.Kind, userID int64, period domain.Period, bucket domain.Bucket) ([]domain.BucketAmount, error)
	CountTransactions(ctx context.Context, kind domain.Kind, userID int64, period domain.Period) (int64, error)
}

type SuggestionStore interface {
	CreateSuggestion(ctx context.Context, s *domain.Suggestion) (*domain.Suggestion, error)
	ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]*domain.Suggestion, error)
}

type Store interface {
	CategoryStore
	TransactionStore
	AggregateStore
	SuggestionStore
}

type Service struct {
	store  Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(store Store, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// today is the clock's current calendar date.
func (s *Service) today() time.Time {
	return domain.DateOf(s.clock.Now())
}

func (s *Service) currentMonth() domain.Period {
	return domain.MonthOf(s.clock.Now())
}
