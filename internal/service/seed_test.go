package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userdir/internal/auth"
	"userdir/internal/model"
)

func TestEnsureAdmin(t *testing.T) {
	seed := AdminSeed{Name: "Admin User", Email: " Admin@Example.com ", Password: "admin123"}

	t.Run("creates the admin once", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Role == model.RoleAdmin && u.Email == "admin@example.com" && u.HasPassword()
		})).Return(nil)

		created, err := EnsureAdmin(context.Background(), repo, auth.NewPasswordHasher(), seed)

		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("existing user is left alone", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(&model.User{ID: uuid.New(), Email: "admin@example.com"}, nil)

		created, err := EnsureAdmin(context.Background(), repo, auth.NewPasswordHasher(), seed)

		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid seed", func(t *testing.T) {
		_, err := EnsureAdmin(context.Background(), new(MockUserRepository), auth.NewPasswordHasher(), AdminSeed{Name: "Admin", Email: "nope", Password: "admin123"})

		assert.Error(t, err)
	})
}
