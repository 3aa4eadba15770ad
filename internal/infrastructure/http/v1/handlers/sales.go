package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain/sales"
	"bistro/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles invoice endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := sales.ListFilter{ListFilter: q.ListQuery.ToFilter()}
	if q.Status != "" {
		st, err := sales.ParseStatus(q.Status)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Status = &st
	}
	var err error
	if filter.OrderID, err = h.QueryID(q.OrderID, "orderId"); err != nil {
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

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Create handles POST /sales (manual invoice).
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.service.Update(c.Request.Context(), saleID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Void handles POST /sales/:id/void
func (h *SaleHandler) Void(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	s, err := h.service.Void(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
