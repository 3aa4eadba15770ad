package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	appctx "bistro/internal/core/context"
	"bistro/internal/domain/auth"
	"bistro/internal/infrastructure/http/v1/dto"
	"bistro/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles authentication and staff account endpoints.
type AuthHandler struct {
	*BaseHandler
	service      *auth.Service
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  base,
		service:      service,
		cookieSecure: cookieSecure,
	}
}

// Login handles POST /auth/login
// The session token is set as an HttpOnly cookie; it is never part of the body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.ToCredentials(c.Request.UserAgent(), c.ClientIP()))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, dto.Success(dto.LoginResponse{
		User:      dto.FromUser(result.User),
		ExpiresAt: result.ExpiresAt,
	}))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	if err := h.service.Logout(c.Request.Context(), user.SessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.setSessionCookie(c, "", time.Time{})
	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	h.OK(c, dto.MeResponse{
		UserID:      user.UserID,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: user.Permissions,
		IsAdmin:     user.IsAdmin,
	})
}

// Permissions handles GET /permissions
func (h *AuthHandler) Permissions(c *gin.Context) {
	h.OK(c, auth.AllPermissions())
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListUsers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, len(result.Items))
	for i, u := range result.Items {
		items[i] = dto.FromUser(u)
	}
	h.OK(c, gin.H{
		"items":      items,
		"totalCount": result.TotalCount,
		"limit":      result.Limit,
		"offset":     result.Offset,
	})
}

// GetUser handles GET /users/:id
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := h.ParseID(c)
	if !ok {
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(u))
}

// CreateUser handles POST /users
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(u))
}

// UpdateUser handles PATCH /users/:id
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(u))
}

// DeleteUser handles DELETE /users/:id
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	userID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// setSessionCookie writes the session cookie; an empty token expires it.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := -1
	if token != "" {
		maxAge = int(time.Until(expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.cookieSecure, true)
}
