package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the user persistence the service needs.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, userID int64) error
	CountUserTransactions(ctx context.Context, userID int64) (int64, error)
	ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	ListEnabledUsers(ctx context.Context) ([]*domain.User, error)
}

type Service struct {
	store      Store
	clock      clock.Clock
	logger     *zap.Logger
	bcryptCost int
}

func NewService(store Store, clk clock.Clock, logger *zap.Logger, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      store,
		clock:      clk,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Identity is what a verified Google ID token tells us about the caller.
type Identity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
	Locale   string
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

const minPasswordLength = 8

// Login returns the user for identity, creating one on first sign-in.
// An existing account found by email is linked to the Google id.
func (s *Service) Login(ctx context.Context, identity Identity) (*domain.User, error) {
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.Email == "" {
		return nil, apperr.Unauthenticated("identity has no email")
	}

	user, err := s.store.GetUserByGoogleID(ctx, identity.GoogleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}
	if user == nil {
		user, err = s.store.GetUserByEmail(ctx, identity.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	now := s.clock.Now()
	if user == nil {
		created, err := s.store.CreateUser(ctx, &domain.User{
			GoogleID:   identity.GoogleID,
			Email:      identity.Email,
			Username:   identity.Email,
			FullName:   identity.Name,
			PictureURL: identity.Picture,
			Locale:     identity.Locale,
			Currency:   domain.DefaultCurrency,
			Role:       domain.RoleUser,
			Enabled:    true,
			LastLogin:  &now,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			s.logger.Error("failed to create user", zap.String("email", identity.Email), zap.Error(err))
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("user registered", zap.Int64("user_id", created.ID))
		return created, nil
	}

	if !user.Enabled {
		return nil, apperr.Forbidden("account is disabled")
	}

	if user.GoogleID == "" {
		user.GoogleID = identity.GoogleID
	}
	if user.FullName == "" {
		user.FullName = identity.Name
	}
	if identity.Picture != "" {
		user.PictureURL = identity.Picture
	}
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Error("failed to record login", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

func (s *Service) user(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.user(ctx, userID)
}

// ProfileInput holds the fields a user may change; nil leaves a field as it is.
type ProfileInput struct {
	Username *string
	FullName *string
	Locale   *string
	Currency *string
	Theme    *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*domain.User, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" || len(name) > 100 {
			return nil, apperr.Validation("username must be between 1 and 100 characters")
		}
		user.Username = name
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Locale != nil {
		user.Locale = strings.TrimSpace(*in.Locale)
	}
	if in.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if !currencyPattern.MatchString(currency) {
			return nil, apperr.Validation("currency must be a three-letter code")
		}
		user.Currency = currency
	}
	if in.Theme != nil {
		user.Theme = strings.TrimSpace(*in.Theme)
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SetPassword sets a local credential. When one exists, current must match it.
func (s *Service) SetPassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return apperr.Validation("current password is incorrect")
		}
	}
	if len(next) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return apperr.Validation("password is not acceptable")
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Error("failed to set password", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Role != "" {
		filter.Role = domain.Role(strings.ToUpper(string(filter.Role)))
		if !filter.Role.Valid() {
			return nil, apperr.Validation("role must be USER or ADMIN")
		}
	}
	if !filter.CreatedFrom.IsZero() && !filter.CreatedTo.IsZero() && filter.CreatedFrom.After(filter.CreatedTo) {
		return nil, apperr.Validation("created range is reversed")
	}

	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.user(ctx, userID)
}

func (s *Service) EnabledUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListEnabledUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled users: %w", err)
	}
	return users, nil
}

// AdminUpdate holds the fields an administrator may change.
type AdminUpdate struct {
	Username   *string
	FullName   *string
	PictureURL *string
	Role       *domain.Role
	Enabled    *bool
}

func (s *Service) UpdateUser(ctx context.Context, actorID, userID int64, in AdminUpdate) (*domain.User, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" || len(name) > 100 {
			return nil, apperr.Validation("username must be between 1 and 100 characters")
		}
		user.Username = name
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PictureURL != nil {
		user.PictureURL = strings.TrimSpace(*in.PictureURL)
	}
	if in.Role != nil {
		role := domain.Role(strings.ToUpper(string(*in.Role)))
		if !role.Valid() {
			return nil, apperr.Validation("role must be USER or ADMIN")
		}
		if actorID == userID && role != user.Role {
			return nil, apperr.Validation("administrators cannot change their own role")
		}
		user.Role = role
	}
	if in.Enabled != nil {
		if actorID == userID && !*in.Enabled {
			return nil, apperr.Validation("administrators cannot disable themselves")
		}
		user.Enabled = *in.Enabled
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.logger.Info("user updated by admin",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID),
		zap.String("role", string(user.Role)),
		zap.Bool("enabled", user.Enabled),
	)
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return apperr.Validation("administrators cannot delete themselves")
	}
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}

	count, err := s.store.CountUserTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count user transactions: %w", err)
	}
	if count > 0 {
		return apperr.Conflict("user owns %d transactions", count)
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.Int64("actor_id", actorID), zap.Int64("user_id", userID))
	return nil
}
