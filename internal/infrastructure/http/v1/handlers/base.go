// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/idempotency"
	"bistro/internal/infrastructure/http/v1/dto"
	"bistro/internal/infrastructure/http/v1/middleware"
	"bistro/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	v, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid id format").WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return v, true
}

// QueryID parses an optional id from a query parameter.
func (h *BaseHandler) QueryID(raw, field string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewInvalidInput("invalid id format").WithDetail("field", field)
	}
	return &v, nil
}

// QueryTime parses an optional date or timestamp from a query parameter.
func (h *BaseHandler) QueryTime(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := dto.ParseTime(raw)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error()).WithDetail("field", field)
	}
	return &t, nil
}

// QueryRange parses the from/to pair; a date-only "to" covers the whole day.
func (h *BaseHandler) QueryRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := h.QueryTime(from, "from")
	if err != nil {
		return nil, nil, err
	}
	t, err := h.QueryTime(to, "to")
	if err != nil {
		return nil, nil, err
	}
	if t != nil && len(to) == len("2006-01-02") {
		end := t.Add(24*time.Hour - time.Nanosecond)
		t = &end
	}
	if f != nil && t != nil && t.Before(*f) {
		return nil, nil, apperror.NewInvalidInput("'to' must not be before 'from'")
	}
	return f, t, nil
}

// CompleteIdempotency marks the idempotency key as completed with the response
// that will be sent, so a replay is byte-for-byte the same.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key := c.GetString(middleware.KeyIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Value(middleware.KeyIdempotencyStore).(idempotency.Store)
	if !ok || store == nil {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, response); err != nil {
		logger.Warn(c.Request.Context(), "idempotency complete-key", "key", key, "error", err)
	}
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	body := dto.Success(data)
	h.CompleteIdempotency(c, status, "application/json", body)
	c.JSON(status, body)
}
