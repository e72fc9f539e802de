package domain

import (
	"context"
	"time"
)

// User is the read-side view of a platform user. User CRUD and authentication
// live in a separate subsystem; the admission core only checks existence and
// cleans up after removals.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository defines the read path into user storage.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// TokenVerifier verifies a bearer token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}
