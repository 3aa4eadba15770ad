package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain/waste"
	"bistro/internal/infrastructure/http/v1/dto"
)

// WasteHandler handles waste record endpoints.
type WasteHandler struct {
	*BaseHandler
	service *waste.Service
}

// NewWasteHandler creates a new waste handler.
func NewWasteHandler(base *BaseHandler, service *waste.Service) *WasteHandler {
	return &WasteHandler{BaseHandler: base, service: service}
}

// List handles GET /waste
func (h *WasteHandler) List(c *gin.Context) {
	var q dto.WasteListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := waste.ListFilter{ListFilter: q.ListQuery.ToFilter()}
	var err error
	if filter.MaterialID, err = h.QueryID(q.MaterialID, "materialId"); err != nil {
		h.Error(c, err)
		return
	}
	if filter.From, filter.To, err = h.QueryRange(q.From, q.To); err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /waste/:id
func (h *WasteHandler) Get(c *gin.Context) {
	wasteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	w, err := h.service.GetByID(c.Request.Context(), wasteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// Create handles POST /waste
func (h *WasteHandler) Create(c *gin.Context) {
	var req dto.WasteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w)
}

// Update handles PUT /waste/:id
func (h *WasteHandler) Update(c *gin.Context) {
	wasteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.WasteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.service.Update(c.Request.Context(), wasteID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// Delete handles DELETE /waste/:id
func (h *WasteHandler) Delete(c *gin.Context) {
	wasteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), wasteID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
