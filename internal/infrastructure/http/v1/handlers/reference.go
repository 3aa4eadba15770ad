package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain"
	"bistro/internal/infrastructure/http/v1/dto"
)

// ReferenceRequest is a create/update body for a reference entity.
type ReferenceRequest[T domain.ReferenceEntity] interface {
	ToEntity() T
	ApplyTo(e T) error
}

// ReferenceHandler provides generic HTTP handlers for reference entities
// (categories, tables, zones, drivers, roles).
// R is the request struct; its pointer implements ReferenceRequest.
type ReferenceHandler[T domain.ReferenceEntity, R any, PR interface {
	*R
	ReferenceRequest[T]
}] struct {
	*BaseHandler
	service *domain.ReferenceService[T]
}

// NewReferenceHandler creates a new reference handler.
func NewReferenceHandler[T domain.ReferenceEntity, R any, PR interface {
	*R
	ReferenceRequest[T]
}](base *BaseHandler, service *domain.ReferenceService[T]) *ReferenceHandler[T, R, PR] {
	return &ReferenceHandler[T, R, PR]{BaseHandler: base, service: service}
}

// List handles GET /{entity}
func (h *ReferenceHandler[T, R, PR]) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /{entity}/:id
func (h *ReferenceHandler[T, R, PR]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /{entity}
func (h *ReferenceHandler[T, R, PR]) Create(c *gin.Context) {
	req := PR(new(R))
	if !h.BindJSON(c, req) {
		return
	}

	e := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Update handles PUT /{entity}/:id
func (h *ReferenceHandler[T, R, PR]) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	req := PR(new(R))
	if !h.BindJSON(c, req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), entityID, req.ApplyTo)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{entity}/:id
func (h *ReferenceHandler[T, R, PR]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
