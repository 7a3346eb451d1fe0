package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"accessToken"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// RegistrationPolicy tunes who may register which role.
type RegistrationPolicy struct {
	// AllowAdminSignup lets anonymous callers register with role admin.
	AllowAdminSignup bool
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput, actor *auth.Identity) (*model.User, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	LoginUser(ctx context.Context, user *model.User) (*Session, error)
	UpdateLastLoginForUser(ctx context.Context, id uuid.UUID) error
	Logout(ctx context.Context, token string) error
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	policy     RegistrationPolicy
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	policy RegistrationPolicy,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a password user. Requesting the admin role needs an admin
// actor unless the policy allows admin sign-up.
func (s *authService) Register(ctx context.Context, input RegisterInput, actor *auth.Identity) (*model.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = model.RoleUser
	}
	if input.Role == model.RoleAdmin && !s.policy.AllowAdminSignup && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	if err := s.ensureEmailFree(ctx, input.Email); err != nil {
		return nil, err
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
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies password credentials. Unknown emails, OAuth-only users and
// wrong passwords all fail with ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		// burn a comparison so unknown emails cost the same as wrong passwords
		s.hasher.Verify(input.Password, s.dummy())
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.HasPassword() {
		s.hasher.Verify(input.Password, s.dummy())
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(input.Password, *user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.LoginUser(ctx, user)
}

// LoginUser records the login and issues a token for an already
// authenticated user.
func (s *authService) LoginUser(ctx context.Context, user *model.User) (*Session, error) {
	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	user.UpdatedAt = now

	token, claims, err := s.jwtService.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// UpdateLastLoginForUser touches the last-login timestamp. A missing user is
// not an error.
func (s *authService) UpdateLastLoginForUser(ctx context.Context, id uuid.UUID) error {
	err := s.userRepo.TouchLastLogin(ctx, id, s.now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Logout revokes token until its natural expiry. Tokens that are already
// unusable are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.VerifySignature(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.tokenStore.RevokeAccessToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check user existence: %w", err)
	}
	return nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}
