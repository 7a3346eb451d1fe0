package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"userdir/internal/auth"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// AdminSeed describes the bootstrap administrator.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the bootstrap admin unless a user with that email
// exists. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, seed AdminSeed) (bool, error) {
	in := CreateUserInput{Name: seed.Name, Email: seed.Email, Password: seed.Password, Role: model.RoleAdmin}
	if err := in.Validate(); err != nil {
		return false, err
	}

	_, err := repo.FindByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("find admin: %w", err)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return false, err
	}
	admin := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: &hash,
		Role:         model.RoleAdmin,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
