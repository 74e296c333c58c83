package domain

import (
	"context"
	"time"
)

// User is an entrant or organizer known to the registration core.
// swagger:model User
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	// NotificationsEnabled gates organizer bulk messages. Lottery outcomes are always delivered.
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository reads users. Account management lives elsewhere.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// ListByIDs returns the users that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
}
