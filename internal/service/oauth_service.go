package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// ProfileName holds the structured name of an external profile.
type ProfileName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName,omitempty"`
}

// ProfileEmail is one address attached to an external profile.
type ProfileEmail struct {
	Value    string `json:"value"`
	Verified bool   `json:"verified,omitempty"`
}

// ExternalProfile is the identity asserted by an OAuth provider.
type ExternalProfile struct {
	Provider    string         `json:"provider"`
	Name        ProfileName    `json:"name"`
	DisplayName string         `json:"displayName"`
	Emails      []ProfileEmail `json:"emails"`
}

// PrimaryEmail returns the first listed address, normalized.
func (p ExternalProfile) PrimaryEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return NormalizeEmail(p.Emails[0].Value)
}

// OAuthService maps external identities onto local users.
type OAuthService interface {
	ResolveOrCreate(ctx context.Context, profile ExternalProfile) (*model.User, error)
}

type oauthService struct {
	userRepo repository.UserRepository
}

// NewOAuthService creates the external identity resolver.
func NewOAuthService(userRepo repository.UserRepository) OAuthService {
	return &oauthService{userRepo: userRepo}
}

// ResolveOrCreate returns the user owning the profile's email, creating a
// password-less user with role user on first sight. Existing users are never
// modified. The provider must have verified the email.
func (s *oauthService) ResolveOrCreate(ctx context.Context, profile ExternalProfile) (*model.User, error) {
	email := profile.PrimaryEmail()
	if email == "" {
		return nil, apperrors.ErrMissingEmail
	}
	if !profile.Emails[0].Verified {
		return nil, apperrors.ErrEmailNotVerified
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user = &model.User{
		Name:  profileDisplayName(profile, email),
		Email: email,
		Role:  model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			// a concurrent callback created it first
			return s.userRepo.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func profileDisplayName(profile ExternalProfile, email string) string {
	if name := strings.TrimSpace(profile.Name.GivenName); name != "" {
		return name
	}
	if name := strings.TrimSpace(profile.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
