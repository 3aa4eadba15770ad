// Package auth provides users, roles and session-based authentication.
package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
)

// Permission codes have the form resource:action.
const (
	PermOrdersRead      = "orders:read"
	PermOrdersWrite     = "orders:write"
	PermInventoryRead   = "inventory:read"
	PermInventoryWrite  = "inventory:write"
	PermCatalogRead     = "catalog:read"
	PermCatalogWrite    = "catalog:write"
	PermDiningRead      = "dining:read"
	PermDiningWrite     = "dining:write"
	PermSalesRead       = "sales:read"
	PermSalesWrite      = "sales:write"
	PermPurchasesRead   = "purchases:read"
	PermPurchasesWrite  = "purchases:write"
	PermWasteRead       = "waste:read"
	PermWasteWrite      = "waste:write"
	PermReportsRead     = "reports:read"
	PermUsersManage     = "users:manage"
	PermBackupManage    = "backup:manage"
	PermAuditRead       = "audit:read"

	PermNotificationsRead = "notifications:read"
)

// AllPermissions lists every known permission code.
func AllPermissions() []string {
	return []string{
		PermOrdersRead, PermOrdersWrite,
		PermInventoryRead, PermInventoryWrite,
		PermCatalogRead, PermCatalogWrite,
		PermDiningRead, PermDiningWrite,
		PermSalesRead, PermSalesWrite,
		PermPurchasesRead, PermPurchasesWrite,
		PermWasteRead, PermWasteWrite,
		PermReportsRead,
		PermUsersManage,
		PermBackupManage,
		PermAuditRead,
		PermNotificationsRead,
	}
}

// Role is a named permission set. Admin roles bypass permission checks.
type Role struct {
	entity.Base

	Name        string   `db:"name" json:"name"`
	Permissions []string `db:"permissions" json:"permissions"`
	IsAdmin     bool     `db:"is_admin" json:"isAdmin"`
}

// NewRole creates a new role.
func NewRole(name string, permissions []string) *Role {
	return &Role{Base: entity.NewBase(), Name: name, Permissions: permissions}
}

// Validate implements entity.Validatable. Permissions are deduplicated and sorted.
func (r *Role) Validate(_ context.Context) error {
	if err := entity.RequireName(&r.Name, "name", 100); err != nil {
		return err
	}
	known := AllPermissions()
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		p = strings.TrimSpace(p)
		if !slices.Contains(known, p) {
			return apperror.NewInvalidInput(fmt.Sprintf("unknown permission %q", p)).WithDetail("field", "permissions")
		}
		if !slices.Contains(perms, p) {
			perms = append(perms, p)
		}
	}
	slices.Sort(perms)
	r.Permissions = perms
	return nil
}

// User is a staff account.
type User struct {
	entity.Base

	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	RoleID       id.ID      `db:"role_id" json:"roleId"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`

	Role *Role `db:"-" json:"role,omitempty"`
}

// Validate implements entity.Validatable.
func (u *User) Validate(_ context.Context) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if err := entity.RequireName(&u.Username, "username", 64); err != nil {
		return err
	}
	if strings.ContainsAny(u.Username, " \t\n") {
		return apperror.NewInvalidInput("username must not contain whitespace").WithDetail("field", "username")
	}
	if id.IsNil(u.RoleID) {
		return apperror.NewInvalidInput("role is required").WithDetail("field", "roleId")
	}
	return nil
}

// CanLogin checks if the user may start a session.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// Session is a login. Only the sha256 of the session id is stored.
type Session struct {
	ID        id.ID      `db:"id"`
	UserID    id.ID      `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	UserAgent string     `db:"user_agent"`
	IPAddress string     `db:"ip_address"`
}

// IsValid reports whether the session is neither revoked nor expired at now.
func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Credentials for login.
type Credentials struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
