package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain/inventory"
	"bistro/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles raw material endpoints.
type MaterialHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *inventory.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service}
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	var q dto.MaterialListQuery
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

// Get handles GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, ok := h.ParseID(c)
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// Update handles PATCH /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	materialID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Update(c.Request.Context(), materialID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Delete handles DELETE /materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	materialID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), materialID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
