package dto

import (
	"time"

	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials(userAgent, ip string) auth.Credentials {
	return auth.Credentials{
		Username:  r.Username,
		Password:  r.Password,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// CreateUserRequest creates a staff account.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	RoleID   id.ID  `json:"roleId"`
	IsActive *bool  `json:"isActive"`
}

func (r *CreateUserRequest) ToInput() auth.UserInput {
	return auth.UserInput{
		Username: r.Username,
		Password: r.Password,
		RoleID:   r.RoleID,
		IsActive: r.IsActive,
	}
}

// UpdateUserRequest edits a staff account.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	RoleID   *id.ID  `json:"roleId"`
	IsActive *bool   `json:"isActive"`
}

func (r *UpdateUserRequest) ToInput() auth.UserUpdate {
	return auth.UserUpdate{
		Username: r.Username,
		Password: r.Password,
		RoleID:   r.RoleID,
		IsActive: r.IsActive,
	}
}

// RoleRequest creates or edits a role.
type RoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Permissions []string `json:"permissions"`
	IsAdmin     bool     `json:"isAdmin"`
}

func (r *RoleRequest) ToEntity() *auth.Role {
	return &auth.Role{Base: entity.NewBase(), Name: r.Name, Permissions: r.Permissions, IsAdmin: r.IsAdmin}
}

func (r *RoleRequest) ApplyTo(role *auth.Role) error {
	role.Name = r.Name
	role.Permissions = r.Permissions
	role.IsAdmin = r.IsAdmin
	return nil
}

// --- Response DTOs ---

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	RoleID      string     `json:"roleId"`
	RoleName    string     `json:"roleName,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		RoleID:      u.RoleID.String(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.Role != nil {
		resp.RoleName = u.Role.Name
	}
	return resp
}

// LoginResponse is returned by a successful login. The token itself travels in the cookie.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// MeResponse describes the current session.
type MeResponse struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsAdmin     bool     `json:"isAdmin"`
}
