package memory

import (
	"context"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/auth"
)

var (
	_ auth.UserRepository    = (*UserRepo)(nil)
	_ auth.SessionRepository = (*SessionRepo)(nil)
)

// NewRoleRepo creates a role repository.
func NewRoleRepo(s *Store) auth.RoleRepository {
	return &refRepo[*auth.Role]{
		s:      s,
		entity: "role",
		table:  func(st *state) map[id.ID]*auth.Role { return st.roles },
		clone: func(r *auth.Role) *auth.Role {
			c := *r
			c.Permissions = append([]string(nil), r.Permissions...)
			return &c
		},
		name: func(r *auth.Role) string { return r.Name },
		sameKey: func(a, b *auth.Role) bool {
			return equalFold(a.Name, b.Name)
		},
		inUse: func(st *state, roleID id.ID) string {
			for _, u := range st.users {
				if u.RoleID == roleID {
					return "role is assigned to user " + u.Username
				}
			}
			return ""
		},
	}
}

// UserRepo implements auth.UserRepository.
type UserRepo struct{ s *Store }

// NewUserRepo creates a user repository.
func NewUserRepo(s *Store) *UserRepo { return &UserRepo{s: s} }

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.LastLoginAt = clonePtr(u.LastLoginAt)
	c.Role = nil
	return &c
}

func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	return r.s.write(ctx, func(st *state) error {
		st.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	var out *auth.User
	r.s.read(func(st *state) {
		if u, ok := st.users[userID]; ok {
			out = cloneUser(u)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return out, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	var out *auth.User
	r.s.read(func(st *state) {
		for _, u := range st.users {
			if equalFold(u.Username, username) {
				out = cloneUser(u)
				return
			}
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("user", username)
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return apperror.NewNotFound("user", u.ID.String())
		}
		st.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return apperror.NewNotFound("user", userID.String())
		}
		delete(st.users, userID)
		for hash, sess := range st.sessions {
			if sess.UserID == userID {
				delete(st.sessions, hash)
			}
		}
		return nil
	})
}

func (r *UserRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*auth.User], error) {
	var items []*auth.User
	r.s.read(func(st *state) {
		for _, u := range st.users {
			if containsFold(u.Username, filter.Search) {
				items = append(items, cloneUser(u))
			}
		}
	})
	byName(items, func(u *auth.User) string { return u.Username })
	return paginate(items, filter), nil
}

func (r *UserRepo) UsernameTaken(_ context.Context, username string, excludeID id.ID) (bool, error) {
	taken := false
	r.s.read(func(st *state) {
		for _, u := range st.users {
			if u.ID != excludeID && equalFold(u.Username, username) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

// SessionRepo implements auth.SessionRepository.
type SessionRepo struct{ s *Store }

// NewSessionRepo creates a session repository.
func NewSessionRepo(s *Store) *SessionRepo { return &SessionRepo{s: s} }

func (r *SessionRepo) Create(ctx context.Context, sess *auth.Session) error {
	return r.s.write(ctx, func(st *state) error {
		st.sessions[sess.TokenHash] = shallow(sess)
		return nil
	})
}

func (r *SessionRepo) GetByHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	var out *auth.Session
	r.s.read(func(st *state) {
		if sess, ok := st.sessions[tokenHash]; ok {
			out = shallow(sess)
			out.RevokedAt = clonePtr(sess.RevokedAt)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("session", "")
	}
	return out, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	return r.s.write(ctx, func(st *state) error {
		if sess, ok := st.sessions[tokenHash]; ok && sess.RevokedAt == nil {
			c := shallow(sess)
			c.RevokedAt = &at
			st.sessions[tokenHash] = c
		}
		return nil
	})
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID id.ID, at time.Time) error {
	return r.s.write(ctx, func(st *state) error {
		for hash, sess := range st.sessions {
			if sess.UserID == userID && sess.RevokedAt == nil {
				c := shallow(sess)
				c.RevokedAt = &at
				st.sessions[hash] = c
			}
		}
		return nil
	})
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(st *state) error {
		for hash, sess := range st.sessions {
			if sess.ExpiresAt.Before(cutoff) || (sess.RevokedAt != nil && sess.RevokedAt.Before(cutoff)) {
				delete(st.sessions, hash)
				n++
			}
		}
		return nil
	})
	return n, err
}
