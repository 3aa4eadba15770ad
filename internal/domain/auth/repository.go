package auth

import (
	"context"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, userID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*User], error)
	UsernameTaken(ctx context.Context, username string, excludeID id.ID) (bool, error)
}

// RoleRepository defines role storage operations.
// InUse blocks deleting a role that users still hold.
type RoleRepository interface {
	domain.ReferenceRepository[*Role]
}

// SessionRepository stores sessions by token hash.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByHash(ctx context.Context, tokenHash string) (*Session, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID id.ID, at time.Time) error
	// DeleteExpired removes sessions that expired or were revoked before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimiter throttles login attempts per key (usually the client IP).
type RateLimiter interface {
	Allow(key string) bool
}
