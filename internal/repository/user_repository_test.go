package repository

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userdir/internal/db"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
)

func newTestRepository(t *testing.T) (UserRepository, *gorm.DB) {
	t.Helper()
	gormDB, err := db.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return NewUserRepository(gormDB), gormDB
}

func ptrTime(t time.Time) *time.Time { return &t }

func seedUser(t *testing.T, repo UserRepository, name string, role model.Role, lastLogin *time.Time) *model.User {
	t.Helper()
	u := &model.User{
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", name),
		Role:      role,
		LastLogin: lastLogin,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func names(users []model.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	hash := "hash"
	user := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: &hash}
	require.NoError(t, repo.Create(ctx, user))

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
	require.NotNil(t, byID.PasswordHash)
	assert.Nil(t, byID.LastLogin)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Name: "Alice", Email: "alice@example.com"}))
	err := repo.Create(ctx, &model.User{Name: "Alice Again", Email: "alice@example.com"})

	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", model.RoleUser, nil)
	bob := seedUser(t, repo, "bob", model.RoleUser, nil)

	alice.Name = "Alice Liddell"
	require.NoError(t, repo.Update(ctx, alice))
	reloaded, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", reloaded.Name)

	bob.Email = alice.Email
	assert.ErrorIs(t, repo.Update(ctx, bob), apperrors.ErrDuplicateEmail)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	_, err = repo.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID), gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateAfterDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", model.RoleUser, nil)

	loaded, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, alice.ID))

	loaded.Name = "Alice Liddell"
	assert.ErrorIs(t, repo.Update(ctx, loaded), gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateKeepsLastLogin(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", model.RoleUser, nil)

	loaded, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(ctx, alice.ID, at))

	loaded.Name = "Alice Liddell"
	loaded.Role = model.RoleAdmin
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", reloaded.Name)
	assert.Equal(t, model.RoleAdmin, reloaded.Role)
	require.NotNil(t, reloaded.LastLogin)
	assert.True(t, at.Equal(*reloaded.LastLogin))
}

func TestUserRepository_TouchLastLogin(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", model.RoleUser, nil)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(ctx, alice.ID, at))

	reloaded, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	assert.True(t, at.Equal(*reloaded.LastLogin))

	assert.ErrorIs(t, repo.TouchLastLogin(ctx, uuid.New(), at), gorm.ErrRecordNotFound)
}

func TestUserRepository_List(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	seedUser(t, repo, "carol", model.RoleAdmin, ptrTime(now.AddDate(0, 0, -1)))
	seedUser(t, repo, "alice", model.RoleUser, ptrTime(now.AddDate(0, 0, -3)))
	seedUser(t, repo, "dave", model.RoleUser, ptrTime(now.AddDate(0, 0, -45)))
	seedUser(t, repo, "bob", model.RoleUser, nil)
	seedUser(t, repo, "erin", model.RoleUser, ptrTime(now.AddDate(0, 0, -10)))

	tests := []struct {
		name          string
		filter        ListFilter
		expected      []string
		expectedTotal int64
	}{
		{
			name:          "default order by name",
			filter:        ListFilter{SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{"alice", "bob", "carol", "dave", "erin"},
			expectedTotal: 5,
		},
		{
			name:          "name descending",
			filter:        ListFilter{SortBy: SortByName, Desc: true, Page: 1, Limit: 10, Now: now},
			expected:      []string{"erin", "dave", "carol", "bob", "alice"},
			expectedTotal: 5,
		},
		{
			name:          "paging keeps total",
			filter:        ListFilter{SortBy: SortByName, Page: 2, Limit: 2, Now: now},
			expected:      []string{"carol", "dave"},
			expectedTotal: 5,
		},
		{
			name:          "page past the end",
			filter:        ListFilter{SortBy: SortByName, Page: 9, Limit: 2, Now: now},
			expected:      []string{},
			expectedTotal: 5,
		},
		{
			name:          "role filter",
			filter:        ListFilter{Role: model.RoleAdmin, SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{"carol"},
			expectedTotal: 1,
		},
		{
			name:          "never logged in",
			filter:        ListFilter{LastLogin: LastLoginNever, SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{"bob"},
			expectedTotal: 1,
		},
		{
			name:          "last seven days",
			filter:        ListFilter{LastLogin: LastLoginLast7, SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{"alice", "carol"},
			expectedTotal: 2,
		},
		{
			name:          "over thirty days includes never",
			filter:        ListFilter{LastLogin: LastLoginOver30, SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{"bob", "dave"},
			expectedTotal: 2,
		},
		{
			name:          "over thirty days combined with role",
			filter:        ListFilter{Role: model.RoleAdmin, LastLogin: LastLoginOver30, SortBy: SortByName, Page: 1, Limit: 10, Now: now},
			expected:      []string{},
			expectedTotal: 0,
		},
		{
			name:          "last login ascending puts never last",
			filter:        ListFilter{SortBy: SortByLastLogin, Page: 1, Limit: 10, Now: now},
			expected:      []string{"dave", "erin", "alice", "carol", "bob"},
			expectedTotal: 5,
		},
		{
			name:          "last login descending puts never last",
			filter:        ListFilter{SortBy: SortByLastLogin, Desc: true, Page: 1, Limit: 10, Now: now},
			expected:      []string{"carol", "alice", "erin", "dave", "bob"},
			expectedTotal: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(users))
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}

func TestUserRepository_ListHugePage(t *testing.T) {
	repo, _ := newTestRepository(t)
	seedUser(t, repo, "a", model.RoleUser, nil)
	seedUser(t, repo, "b", model.RoleUser, nil)

	users, total, err := repo.List(context.Background(), ListFilter{SortBy: SortByName, Page: math.MaxInt/2 + 2, Limit: 2})

	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, int64(2), total)
}

func TestUserRepository_ListTiesBreakByID(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		u := &model.User{Name: "Same", Email: fmt.Sprintf("same%d@example.com", i)}
		require.NoError(t, repo.Create(ctx, u))
		ids = append(ids, u.ID.String())
	}

	first, _, err := repo.List(ctx, ListFilter{SortBy: SortByName, Page: 1, Limit: 2})
	require.NoError(t, err)
	second, _, err := repo.List(ctx, ListFilter{SortBy: SortByName, Page: 2, Limit: 2})
	require.NoError(t, err)

	var got []string
	for _, u := range append(first, second...) {
		got = append(got, u.ID.String())
	}
	assert.ElementsMatch(t, ids, got)
	assert.IsIncreasing(t, got)
}

func TestUserRepository_ListUnknownSort(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, _, err := repo.List(context.Background(), ListFilter{SortBy: "password_hash"})

	assert.Error(t, err)
}

func TestUserRepository_ListInactiveSince(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, repo, "recent", model.RoleUser, ptrTime(now.AddDate(0, 0, -2)))
	seedUser(t, repo, "stale", model.RoleUser, ptrTime(now.AddDate(0, 0, -40)))
	seedUser(t, repo, "never", model.RoleUser, nil)

	users, err := repo.ListInactiveSince(ctx, now.AddDate(0, 0, -30))

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stale", "never"}, names(users))
}
