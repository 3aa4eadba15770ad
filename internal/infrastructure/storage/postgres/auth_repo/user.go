// Package auth_repo provides PostgreSQL implementations for users, roles and sessions.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/auth"
	"bistro/internal/infrastructure/storage/postgres"
)

const userCols = `id, username, password_hash, role_id, is_active, last_login_at, created_at, updated_at`

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO users (`+userCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID, user.Username, user.PasswordHash, user.RoleID,
		user.IsActive, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(fmt.Errorf("insert user: %w", err), "user")
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, userID)
}

// GetByUsername retrieves a user by username, ignoring case.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userCols+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*auth.User, error) {
	var user auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, query, arg); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Update saves every mutable column.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE users SET
			username = $2,
			password_hash = $3,
			role_id = $4,
			is_active = $5,
			last_login_at = $6,
			updated_at = $7
		WHERE id = $1
	`,
		user.ID, user.Username, user.PasswordHash, user.RoleID,
		user.IsActive, user.LastLoginAt, user.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update user: %w", err), "user")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

// Delete removes a user; sessions go with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete user: %w", err), "user")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}
	return nil
}

// List returns users ordered by username.
func (r *UserRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*auth.User], error) {
	filter = filter.Normalize()
	q := r.txManager.GetQuerier(ctx)
	pattern := "%" + filter.Search + "%"

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username ILIKE $1`, pattern).Scan(&total); err != nil {
		return domain.ListResult[*auth.User]{}, fmt.Errorf("count users: %w", err)
	}

	var users []*auth.User
	err := pgxscan.Select(ctx, q, &users, `
		SELECT `+userCols+`
		FROM users
		WHERE username ILIKE $1
		ORDER BY lower(username), id
		LIMIT $2 OFFSET $3
	`, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return domain.ListResult[*auth.User]{}, fmt.Errorf("list users: %w", err)
	}
	return domain.NewListResult(users, total, filter), nil
}

// UsernameTaken reports whether another user has the username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, excludeID id.ID) (bool, error) {
	var taken bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1) AND id <> $2)
	`, username, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}
