package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	appctx "bistro/internal/core/context"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "bistro_session"

// KeyUserID is the gin key holding the authenticated user's ID.
const KeyUserID = "user_id"

// Authenticator resolves a session token into the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*appctx.UserContext, error)
}

// Auth middleware validates the session token and populates user context.
// The token is read from the session cookie first, then from a Bearer header.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewUnauthorized("invalid session")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set(KeyUserID, user.UserID)

		c.Next()
	}
}

// SessionToken returns the raw token the request authenticated with, if any.
func SessionToken(c *gin.Context) string {
	token, _ := extractToken(c)
	return token
}

func extractToken(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperror.NewUnauthorized("authentication required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", apperror.NewUnauthorized("invalid authorization header format")
	}
	return parts[1], nil
}
