package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// Defaults applied to a directory listing.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// DefaultInactiveDays is the threshold used when none is given.
	DefaultInactiveDays = 30
)

var validate = validator.New()

type rule struct {
	field  string
	value  interface{}
	tag    string
	reason string
}

func checkAll(rules ...rule) error {
	for _, r := range rules {
		if err := validate.Var(r.value, r.tag); err != nil {
			return apperrors.NewValidationError(r.field, r.reason)
		}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address. Every entry point
// stores and looks up emails in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nameRule(name string) rule {
	return rule{"name", strings.TrimSpace(name), "required,max=255", "must not be empty"}
}

func emailRule(email string) rule {
	return rule{"email", email, "required,email,max=255", "must be a valid email address"}
}

// bcrypt rejects input longer than 72 bytes.
func passwordRule(password string) rule {
	return rule{"password", password, "required,min=6,max=72", "must be between 6 and 72 characters"}
}

func roleRule(role model.Role) rule {
	return rule{"role", string(role), "omitempty,oneof=admin user", "must be admin or user"}
}

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Validate normalizes the input and checks every field.
func (in *RegisterInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	return checkAll(nameRule(in.Name), emailRule(in.Email), passwordRule(in.Password), roleRule(in.Role))
}

// LoginInput carries password credentials.
type LoginInput struct {
	Email    string
	Password string
}

func (in *LoginInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	return checkAll(
		emailRule(in.Email),
		rule{"password", in.Password, "required", "must not be empty"},
	)
}

// CreateUserInput is the payload of an administrative create.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

func (in *CreateUserInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	return checkAll(nameRule(in.Name), emailRule(in.Email), passwordRule(in.Password), roleRule(in.Role))
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *model.Role
}

func (in *UpdateUserInput) Validate() error {
	var rules []rule
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		rules = append(rules, nameRule(name))
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
		rules = append(rules, emailRule(email))
	}
	if in.Password != nil {
		rules = append(rules, passwordRule(*in.Password))
	}
	if in.Role != nil {
		rules = append(rules, rule{"role", string(*in.Role), "required,oneof=admin user", "must be admin or user"})
	}
	return checkAll(rules...)
}

// ListUsersInput holds the raw query of a directory listing.
type ListUsersInput struct {
	Role      string
	SortBy    string
	Order     string
	Page      int
	Limit     int
	LastLogin string
}

// Validate applies defaults, then checks every field.
func (in *ListUsersInput) Validate() error {
	if in.SortBy == "" {
		in.SortBy = repository.SortByName
	}
	if in.Order == "" {
		in.Order = "asc"
	}
	if in.Page == 0 {
		in.Page = DefaultPage
	}
	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	in.Order = strings.ToLower(in.Order)
	err := checkAll(
		rule{"role", in.Role, "omitempty,oneof=admin user", "must be admin or user"},
		rule{"sortBy", in.SortBy, "oneof=name createdAt lastLogin", "must be name, createdAt or lastLogin"},
		rule{"order", in.Order, "oneof=asc desc", "must be asc or desc"},
		rule{"page", in.Page, "min=1", "must be at least 1"},
		rule{"limit", in.Limit, "min=1,max=" + strconv.Itoa(MaxLimit), "must be between 1 and " + strconv.Itoa(MaxLimit)},
		rule{"lastLogin", in.LastLogin, "omitempty,oneof=never last7 over30", "must be never, last7 or over30"},
	)
	if err != nil {
		return err
	}
	if in.Page-1 > math.MaxInt/in.Limit {
		return apperrors.NewValidationError("page", "is out of range")
	}
	return nil
}

func (in *ListUsersInput) filter() repository.ListFilter {
	return repository.ListFilter{
		Role:      model.Role(in.Role),
		LastLogin: in.LastLogin,
		SortBy:    in.SortBy,
		Desc:      in.Order == "desc",
		Page:      in.Page,
		Limit:     in.Limit,
	}
}
