package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bistro/internal/core/apperror"
	appctx "bistro/internal/core/context"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/domain"
	"bistro/pkg/logger"
)

// AdminRoleName is the role created by EnsureAdmin.
const AdminRoleName = "admin"

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// UserInput creates a user.
type UserInput struct {
	Username string
	Password string
	RoleID   id.ID
	IsActive *bool
}

// UserUpdate edits a user; nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Password *string
	RoleID   *id.ID
	IsActive *bool
}

// Service provides authentication and user management.
type Service struct {
	users     UserRepository
	roles     RoleRepository
	sessions  SessionRepository
	txManager tx.Manager
	jwt       *JWTService
	limiter   RateLimiter
	config    ServiceConfig
	now       func() time.Time
}

// NewService creates a new auth service. A nil limiter allows every attempt.
func NewService(
	users UserRepository,
	roles RoleRepository,
	sessions SessionRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	limiter RateLimiter,
	config ServiceConfig,
) *Service {
	return &Service{
		users:     users,
		roles:     roles,
		sessions:  sessions,
		txManager: txManager,
		jwt:       jwtService,
		limiter:   limiter,
		config:    config,
		now:       time.Now,
	}
}

// NewRoleService creates the CRUD service for roles.
// Deleting a role still assigned to users is blocked.
func NewRoleService(repo RoleRepository, txManager tx.Manager) *domain.ReferenceService[*Role] {
	return domain.NewReferenceService(domain.ReferenceServiceConfig[*Role]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "role",
	})
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	key := creds.IPAddress
	if key == "" {
		key = creds.Username
	}
	if s.limiter != nil && !s.limiter.Allow(key) {
		logger.Warn(ctx, "login rate limited", "key", key)
		return nil, apperror.NewRateLimited("too many login attempts")
	}

	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	user.Role = role

	sessionID, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.jwt.TTL())

	var token string
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		session := &Session{
			ID:        id.New(),
			UserID:    user.ID,
			TokenHash: hashToken(sessionID),
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UserAgent: creds.UserAgent,
			IPAddress: creds.IPAddress,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		user.LastLoginAt = &now
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("record login: %w", err)
		}

		token, err = s.jwt.Sign(Claims{
			SessionID:   sessionID,
			UserID:      user.ID.String(),
			Username:    user.Username,
			Role:        role.Name,
			Permissions: role.Permissions,
			IsAdmin:     role.IsAdmin,
		}, now, expiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies a session token and that its session is still open.
func (s *Service) Authenticate(ctx context.Context, token string) (*appctx.UserContext, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired session")
	}

	session, err := s.sessions.GetByHash(ctx, hashToken(claims.SessionID))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("session not found")
		}
		return nil, err
	}
	if !session.IsValid(s.now()) {
		return nil, apperror.NewUnauthorized("session revoked or expired")
	}

	return &appctx.UserContext{
		UserID:      claims.UserID,
		Username:    claims.Username,
		Role:        claims.Role,
		Permissions: claims.Permissions,
		IsAdmin:     claims.IsAdmin,
		SessionID:   claims.SessionID,
	}, nil
}

// Logout revokes the session identified by sessionID.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperror.NewUnauthorized("no active session")
	}
	if err := s.sessions.Revoke(ctx, hashToken(sessionID), s.now().UTC()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	logger.Info(ctx, "user logged out", "user_id", appctx.GetUserID(ctx))
	return nil
}

// CleanupSessions removes sessions that ended more than retention ago.
func (s *Service) CleanupSessions(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// CreateUser creates a staff account.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Base:         entity.NewBase(),
		Username:     in.Username,
		PasswordHash: hash,
		RoleID:       in.RoleID,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkUser(ctx, user); err != nil {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// UpdateUser edits a user. Changing the password, role or disabling the
// account revokes every open session of that user.
func (s *Service) UpdateUser(ctx context.Context, userID id.ID, in UserUpdate) (*User, error) {
	var result *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}

		revoke := false
		if in.Username != nil {
			user.Username = *in.Username
		}
		if in.Password != nil {
			if user.PasswordHash, err = s.hashPassword(*in.Password); err != nil {
				return err
			}
			revoke = true
		}
		if in.RoleID != nil && *in.RoleID != user.RoleID {
			user.RoleID = *in.RoleID
			revoke = true
		}
		if in.IsActive != nil {
			if user.IsActive && !*in.IsActive {
				revoke = true
			}
			user.IsActive = *in.IsActive
		}

		if err := user.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkUser(ctx, user); err != nil {
			return err
		}

		user.Touch()
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if revoke {
			if err := s.sessions.RevokeAllForUser(ctx, user.ID, s.now().UTC()); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user updated", "user_id", userID)
	return result, nil
}

// DeleteUser removes a user and its sessions. Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID id.ID) error {
	if appctx.GetUserID(ctx) == userID.String() {
		return apperror.NewInvalidInput("cannot delete your own account")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		if err := s.sessions.RevokeAllForUser(ctx, userID, s.now().UTC()); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return s.users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

// GetUser returns a user with its role.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if role, err := s.roles.GetByID(ctx, user.RoleID); err == nil {
		user.Role = role
	}
	return user, nil
}

// ListUsers lists users.
func (s *Service) ListUsers(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*User], error) {
	return s.users.List(ctx, filter.Normalize())
}

// EnsureAdmin creates the admin role and user when they do not exist yet.
// An existing user keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*User, error) {
	var result *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		roles, err := s.roles.List(ctx, domain.ListFilter{Search: AdminRoleName, Limit: domain.MaxLimit})
		if err != nil {
			return fmt.Errorf("list roles: %w", err)
		}
		var role *Role
		for _, r := range roles.Items {
			if r.Name == AdminRoleName {
				role = r
				break
			}
		}
		if role == nil {
			role = NewRole(AdminRoleName, AllPermissions())
			role.IsAdmin = true
			if err := role.Validate(ctx); err != nil {
				return err
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return fmt.Errorf("create admin role: %w", err)
			}
		}

		existing, err := s.users.GetByUsername(ctx, username)
		if err == nil {
			result = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		active := true
		result, err = s.CreateUser(ctx, UserInput{Username: username, Password: password, RoleID: role.ID, IsActive: &active})
		return err
	})
	return result, err
}

func (s *Service) getUser(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) checkUser(ctx context.Context, user *User) error {
	taken, err := s.users.UsernameTaken(ctx, user.Username, user.ID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return apperror.NewDuplicate("user", "username", user.Username)
	}
	if _, err := s.roles.GetByID(ctx, user.RoleID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("role", user.RoleID.String())
		}
		return err
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if len(password) < s.config.PasswordMinLength {
		return "", apperror.NewInvalidInput(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
