package auth

import (
	"time"

	"github.com/google/uuid"

	"userdir/internal/model"
)

// Identity is the authenticated actor attached to a request.
type Identity struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`

	// TokenID and ExpiresAt describe the token the identity was resolved from.
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// IdentityOf builds an identity from a stored user record.
func IdentityOf(user *model.User) *Identity {
	return &Identity{ID: user.ID, Email: user.Email, Role: user.Role}
}

// IsAdmin reports whether the actor holds the admin role. A nil identity is
// an anonymous caller.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// Is reports whether the actor is the user with the given id.
func (i *Identity) Is(id uuid.UUID) bool {
	return i != nil && i.ID == id
}
