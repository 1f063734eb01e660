package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"go.uber.org/zap"
)

const (
	maxCategoryName        = 100
	maxCategoryDescription = 500
)

type CategoryInput struct {
	Name        string
	Type        domain.Kind
	Description string
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Type = domain.NormalizeKind(string(in.Type))

	if in.Name == "" {
		return apperr.Validation("category name cannot be empty")
	}
	if strings.EqualFold(in.Name, domain.UncategorizedLabel) {
		return apperr.Validation("category name %q is reserved", domain.UncategorizedLabel)
	}
	if utf8.RuneCountInString(in.Name) > maxCategoryName {
		return apperr.Validation("category name must be at most %d characters", maxCategoryName)
	}
	if utf8.RuneCountInString(in.Description) > maxCategoryDescription {
		return apperr.Validation("category description must be at most %d characters", maxCategoryDescription)
	}
	if !in.Type.Valid() {
		return apperr.Validation("category type must be EXPENSE or INCOME")
	}
	return nil
}

// VisibleCategories lists the user's own categories together with the global ones,
// global first, then alphabetically. An empty kind lists both types.
func (s *Service) VisibleCategories(ctx context.Context, userID int64, kind domain.Kind) ([]*domain.Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, apperr.Validation("invalid category type %q", kind)
	}

	categories, err := s.store.ListCategories(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// IsAssignable reports whether a transaction of the given kind owned by userID
// may reference the category.
func (s *Service) IsAssignable(ctx context.Context, categoryID, userID int64, kind domain.Kind) (bool, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return false, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return false, nil
	}
	return category.Type == kind && category.VisibleTo(userID), nil
}

func (s *Service) GetCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil || !category.VisibleTo(userID) {
		return nil, apperr.NotFound("category")
	}
	return category, nil
}

func (s *Service) CreateCategory(ctx context.Context, userID int64, in CategoryInput) (*domain.Category, error) {
	return s.createCategory(ctx, &userID, in)
}

// UpdateCategory edits one of the user's own categories. Global categories are
// reported as missing.
func (s *Service) UpdateCategory(ctx context.Context, userID, categoryID int64, in CategoryInput) (*domain.Category, error) {
	category, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	return s.updateCategory(ctx, category, in)
}

func (s *Service) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	category, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	return s.deleteCategory(ctx, category)
}

func (s *Service) GlobalCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.store.ListGlobalCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list global categories: %w", err)
	}
	return categories, nil
}

func (s *Service) CreateGlobalCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	return s.createCategory(ctx, nil, in)
}

func (s *Service) UpdateGlobalCategory(ctx context.Context, categoryID int64, in CategoryInput) (*domain.Category, error) {
	category, err := s.globalCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return s.updateCategory(ctx, category, in)
}

func (s *Service) DeleteGlobalCategory(ctx context.Context, categoryID int64) error {
	category, err := s.globalCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	return s.deleteCategory(ctx, category)
}

func (s *Service) ownedCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil || !category.OwnedBy(userID) {
		return nil, apperr.NotFound("category")
	}
	return category, nil
}

func (s *Service) globalCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil || !category.IsGlobal() {
		return nil, apperr.NotFound("global category")
	}
	return category, nil
}

// ensureUniqueName rejects a name already used in the same owner scope and type.
// excludeID skips the category being renamed.
func (s *Service) ensureUniqueName(ctx context.Context, ownerID *int64, kind domain.Kind, name string, excludeID int64) error {
	existing, err := s.store.FindCategoryByName(ctx, ownerID, kind, name)
	if err != nil {
		return fmt.Errorf("failed to check existing categories: %w", err)
	}
	if existing != nil && existing.ID != excludeID {
		return apperr.Validation("category %q already exists", name)
	}
	return nil
}

func (s *Service) createCategory(ctx context.Context, ownerID *int64, in CategoryInput) (*domain.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, ownerID, in.Type, in.Name, 0); err != nil {
		return nil, err
	}

	category, err := s.store.CreateCategory(ctx, &domain.Category{
		UserID:      ownerID,
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *Service) updateCategory(ctx context.Context, category *domain.Category, in CategoryInput) (*domain.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, category.UserID, in.Type, in.Name, category.ID); err != nil {
		return nil, err
	}

	// Retyping would break the type match of transactions already pointing here.
	if in.Type != category.Type {
		refs, err := s.store.CountCategoryReferences(ctx, category.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count category references: %w", err)
		}
		if refs > 0 {
			return nil, apperr.Conflict("category %q is used by %d transactions and cannot change type", category.Name, refs)
		}
	}

	updated := *category
	updated.Name = in.Name
	updated.Type = in.Type
	updated.Description = in.Description
	if err := s.store.UpdateCategory(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &updated, nil
}

func (s *Service) deleteCategory(ctx context.Context, category *domain.Category) error {
	refs, err := s.store.CountCategoryReferences(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if refs > 0 {
		return apperr.Conflict("category %q is used by %d transactions", category.Name, refs)
	}

	if err := s.store.DeleteCategory(ctx, category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

type SetupStatus struct {
	HasCategories bool  `json:"has_categories"`
	CategoryCount int64 `json:"category_count"`
}

func (s *Service) SetupStatus(ctx context.Context, userID int64) (*SetupStatus, error) {
	count, err := s.store.CountUserCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count user categories: %w", err)
	}
	return &SetupStatus{HasCategories: count > 0, CategoryCount: count}, nil
}

// DefaultCategories is the starter set offered to new users.
func DefaultCategories() []CategoryInput {
	return []CategoryInput{
		{Name: "Food & Drinks", Type: domain.KindExpense, Description: "Groceries, restaurants, coffee"},
		{Name: "Transport", Type: domain.KindExpense, Description: "Fuel, taxi, bus, ride hailing"},
		{Name: "Shopping", Type: domain.KindExpense, Description: "Clothes, shoes, personal items"},
		{Name: "Entertainment", Type: domain.KindExpense, Description: "Movies, travel, games, books"},
		{Name: "Health", Type: domain.KindExpense, Description: "Doctor visits, medicine, gym"},
		{Name: "Bills", Type: domain.KindExpense, Description: "Electricity, water, internet, phone"},
		{Name: "Education", Type: domain.KindExpense, Description: "Tuition, books, courses"},
		{Name: "Housing", Type: domain.KindExpense, Description: "Rent, repairs, household goods"},
		{Name: "Insurance", Type: domain.KindExpense, Description: "Health, vehicle, home insurance"},
		{Name: "Other", Type: domain.KindExpense, Description: "Other expenses"},
		{Name: "Salary", Type: domain.KindIncome, Description: "Regular salary"},
		{Name: "Bonus", Type: domain.KindIncome, Description: "Performance and holiday bonuses"},
		{Name: "Freelance", Type: domain.KindIncome, Description: "Freelance work"},
		{Name: "Investments", Type: domain.KindIncome, Description: "Investment returns, dividends"},
		{Name: "Business", Type: domain.KindIncome, Description: "Business income"},
		{Name: "Rental", Type: domain.KindIncome, Description: "Renting out property or vehicles"},
		{Name: "Gifts", Type: domain.KindIncome, Description: "Gifts and family support"},
		{Name: "Other", Type: domain.KindIncome, Description: "Other income"},
	}
}

// SetupDefaultCategories copies the starter set into the user's own scope. It
// does nothing for users who already own categories and returns how many were created.
func (s *Service) SetupDefaultCategories(ctx context.Context, userID int64) (int, error) {
	status, err := s.SetupStatus(ctx, userID)
	if err != nil {
		return 0, err
	}
	if status.HasCategories {
		s.logger.Info("User already has categories, skipping default setup", zap.Int64("user_id", userID))
		return 0, nil
	}

	now := s.clock.Now()
	defaults := DefaultCategories()
	categories := make([]*domain.Category, 0, len(defaults))
	for _, d := range defaults {
		owner := userID
		categories = append(categories, &domain.Category{
			UserID:      &owner,
			Name:        d.Name,
			Type:        d.Type,
			Description: d.Description,
			CreatedAt:   now,
		})
	}

	if err := s.store.CreateCategories(ctx, categories); err != nil {
		return 0, fmt.Errorf("failed to create default categories: %w", err)
	}

	s.logger.Info("Default categories created", zap.Int64("user_id", userID), zap.Int("count", len(categories)))
	return len(categories), nil
}
