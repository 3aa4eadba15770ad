package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/auth"
	"bistro/internal/infrastructure/storage/postgres"
)

var _ auth.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements auth.SessionRepository. Only token hashes are stored.
type SessionRepo struct {
	txManager *postgres.TxManager
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{txManager: txManager}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, revoked_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt, s.RevokedAt, s.UserAgent, s.IPAddress)
	if err != nil {
		return postgres.MapError(fmt.Errorf("insert session: %w", err), "session")
	}
	return nil
}

// GetByHash retrieves a session by token hash.
func (r *SessionRepo) GetByHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	var s auth.Session
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, user_agent, ip_address
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("session", "")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Revoke marks one session revoked.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sessions SET revoked_at = $2 WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash, at)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live session of a user.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID id.ID, at time.Time) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, at)
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired or were revoked before cutoff.
func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
