package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
)

// Sort columns accepted by List.
const (
	SortByName      = "name"
	SortByCreatedAt = "createdAt"
	SortByLastLogin = "lastLogin"
)

// Last-login buckets accepted by List.
const (
	LastLoginNever  = "never"
	LastLoginLast7  = "last7"
	LastLoginOver30 = "over30"
)

var sortColumns = map[string]string{
	SortByName:      "name",
	SortByCreatedAt: "created_at",
	SortByLastLogin: "last_login",
}

// ListFilter narrows and pages a directory listing. Zero values mean
// "no restriction" for Role and LastLogin.
type ListFilter struct {
	Role      model.Role
	LastLogin string
	SortBy    string
	Desc      bool
	Page      int
	Limit     int
	// Now anchors the relative last-login buckets.
	Now time.Time
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter ListFilter) ([]model.User, int64, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]model.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user. A unique-index violation on email is reported as
// ErrDuplicateEmail so concurrent registrations cannot both succeed.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Update writes the editable columns of an existing user. It never inserts:
// a user deleted since it was loaded yields gorm.ErrRecordNotFound, and
// last_login is left to TouchLastLogin.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Select("name", "email", "password_hash", "role", "updated_at").
		Updates(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateEmail
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users and the total number of matches. Results
// are ordered by the requested column with id as the tie-breaker; users that
// never logged in sort last under lastLogin in both directions.
func (r *userRepository) List(ctx context.Context, filter ListFilter) ([]model.User, int64, error) {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("unknown sort column %q", filter.SortBy)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	now := filter.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	switch filter.LastLogin {
	case LastLoginNever:
		query = query.Where("last_login IS NULL")
	case LastLoginLast7:
		query = query.Where("last_login >= ?", now.AddDate(0, 0, -7))
	case LastLoginOver30:
		query = query.Where("(last_login IS NULL OR last_login < ?)", now.AddDate(0, 0, -30))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	ordered := query
	if column == "last_login" {
		ordered = ordered.Order("CASE WHEN last_login IS NULL THEN 1 ELSE 0 END")
	}
	ordered = ordered.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	users := []model.User{}
	if filter.Page-1 > math.MaxInt/filter.Limit {
		// no row can live past an offset that does not fit in an int
		return users, total, nil
	}
	if err := ordered.Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// ListInactiveSince returns users that never logged in or last logged in
// before cutoff.
func (r *userRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("last_login IS NULL OR last_login < ?", cutoff).
		Order("created_at ASC").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// TouchLastLogin sets last_login and updated_at without loading the row.
func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"last_login": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
