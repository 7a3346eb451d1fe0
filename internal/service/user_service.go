package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// UserPage is one page of a directory listing.
type UserPage struct {
	Users []model.User `json:"users"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// UserService exposes the role-gated user directory. Every operation takes
// the authenticated actor explicitly.
type UserService interface {
	CreateUser(ctx context.Context, actor *auth.Identity, input CreateUserInput) (*model.User, error)
	ListUsers(ctx context.Context, actor *auth.Identity, input ListUsersInput) (*UserPage, error)
	GetUser(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, actor *auth.Identity, id uuid.UUID, input UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, actor *auth.Identity, id uuid.UUID) error
	ListInactiveUsers(ctx context.Context, actor *auth.Identity, days int) ([]model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	hasher *auth.PasswordHasher
	now    func() time.Time
}

// NewUserService builds a UserService over the credential store.
func NewUserService(repo repository.UserRepository, hasher *auth.PasswordHasher) UserService {
	return &userService{
		repo:   repo,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) CreateUser(ctx context.Context, actor *auth.Identity, input CreateUserInput) (*model.User, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = model.RoleUser
	}
	if input.Role == model.RoleAdmin && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: &hash,
		Role:         input.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor *auth.Identity, input ListUsersInput) (*UserPage, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	filter := input.filter()
	filter.Now = s.now()
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserPage{Users: users, Total: total, Page: input.Page, Limit: input.Limit}, nil
}

// GetUser is allowed for admins and for the user reading their own record.
func (s *userService) GetUser(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*model.User, error) {
	if !actor.IsAdmin() && !actor.Is(id) {
		return nil, apperrors.ErrForbidden
	}
	return s.find(ctx, id)
}

// UpdateUser applies a partial update. Only admins may touch other users or
// change a role.
func (s *userService) UpdateUser(ctx context.Context, actor *auth.Identity, id uuid.UUID, input UpdateUserInput) (*model.User, error) {
	if !actor.IsAdmin() {
		if !actor.Is(id) || input.Role != nil {
			return nil, apperrors.ErrForbidden
		}
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil && *input.Email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, *input.Email); err == nil {
			return nil, apperrors.ErrDuplicateEmail
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check user existence: %w", err)
		}
		user.Email = *input.Email
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deleted since it was loaded
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListInactiveUsers returns users with no login in the last days days,
// including users that never logged in.
func (s *userService) ListInactiveUsers(ctx context.Context, actor *auth.Identity, days int) ([]model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if days == 0 {
		days = DefaultInactiveDays
	}
	if days < 0 {
		return nil, apperrors.NewValidationError("days", "must not be negative")
	}

	users, err := s.repo.ListInactiveSince(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("list inactive users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
