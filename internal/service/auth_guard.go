package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/repository"
)

const lastLoginTouchTimeout = 5 * time.Second

// LastLoginUpdater records activity for a user.
type LastLoginUpdater interface {
	UpdateLastLoginForUser(ctx context.Context, id uuid.UUID) error
}

// AuthGuard resolves a session token to the identity of a live user.
type AuthGuard interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type authGuard struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	lastLogin  LastLoginUpdater
	logger     *log.Logger

	// dispatch runs the last-login touch off the request path.
	dispatch func(func())
}

// NewAuthGuard creates the guard used by protected routes.
func NewAuthGuard(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	lastLogin LastLoginUpdater,
	logger *log.Logger,
) AuthGuard {
	if logger == nil {
		logger = log.New("auth")
	}
	return &authGuard{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		lastLogin:  lastLogin,
		logger:     logger,
		dispatch:   func(f func()) { go f() },
	}
}

// Authenticate verifies token, rejects revoked tokens and re-reads the user
// so that role changes and deletions take effect immediately.
func (g *authGuard) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, apperrors.ErrNoToken
	}

	claims, err := g.jwtService.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := g.tokenStore.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	g.touch(ctx, user.ID)

	identity := auth.IdentityOf(user)
	identity.TokenID = claims.ID
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// touch updates last-login in the background. Failures are logged and never
// reach the caller.
func (g *authGuard) touch(ctx context.Context, id uuid.UUID) {
	if g.lastLogin == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	g.dispatch(func() {
		ctx, cancel := context.WithTimeout(detached, lastLoginTouchTimeout)
		defer cancel()
		if err := g.lastLogin.UpdateLastLoginForUser(ctx, id); err != nil {
			g.logger.Warnf("update last login for user %s: %v", id, err)
		}
	})
}
