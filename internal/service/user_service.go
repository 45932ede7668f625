package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/repository"
)

// CreateUserParams carries the caller-supplied fields of a new user. Nil
// Preferences means the channel defaults apply.
type CreateUserParams struct {
	Name        string
	Email       string
	Phone       string
	Preferences *domain.ChannelPreferences
}

// UpdateUserParams is a partial update; nil fields are left untouched.
type UpdateUserParams struct {
	Name        *string
	Email       *string
	Phone       *string
	Preferences *domain.ChannelPreferences
}

type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) (*UserService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}, nil
}

func (s *UserService) Create(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	preferences := domain.DefaultChannelPreferences()
	if params.Preferences != nil {
		preferences = *params.Preferences
	}

	user := &domain.User{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(params.Name),
		Email:       strings.TrimSpace(strings.ToLower(params.Email)),
		Phone:       strings.TrimSpace(params.Phone),
		Preferences: preferences,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, fmt.Errorf("%w: a user with email %s already exists", domain.ErrConflict, user.Email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}

	s.logger.Info("user created",
		zap.String("userId", user.ID),
		zap.String("email", user.Email),
	)

	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, id string, params UpdateUserParams) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}

	if params.Name != nil {
		user.Name = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*params.Email))
	}
	if params.Phone != nil {
		user.Phone = strings.TrimSpace(*params.Phone)
	}
	if params.Preferences != nil {
		user.Preferences = *params.Preferences
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if params.Email != nil {
		if existing, err := s.users.GetByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
			return nil, fmt.Errorf("%w: a user with email %s already exists", domain.ErrConflict, user.Email)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.logger.Info("user deleted", zap.String("userId", id))
	return nil
}
