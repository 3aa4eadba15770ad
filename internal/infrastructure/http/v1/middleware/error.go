package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	"bistro/internal/domain/idempotency"
	"bistro/internal/infrastructure/http/v1/dto"
	"bistro/pkg/logger"
)

// Gin context keys shared by Idempotency, ErrorHandler and handlers.
const (
	KeyIdempotencyKey   = "idempotency_key"
	KeyIdempotencyStore = "idempotency_store"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		var body dto.Envelope

		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code != apperror.CodeInternal {
			if appErr.Err != nil {
				logger.Warn(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body = dto.Failure(appErr.Code, appErr.Message, appErr.Details)
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = dto.Failure(apperror.CodeInternal, "Internal server error", map[string]any{
				"request_id": c.GetString(KeyRequestID),
			})
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// failIdempotency records the error response against the request key (best-effort).
func failIdempotency(c *gin.Context, status int, body any) {
	key := c.GetString(KeyIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Value(KeyIdempotencyStore).(idempotency.Store)
	if !ok || store == nil {
		return
	}
	if err := store.FailKey(c.Request.Context(), key, status, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "idempotency fail-key", "key", key, "error", err)
	}
}
